package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// rule maps message fragments to a category. Rules are tried in order and
// the first match wins.
type rule struct {
	category ErrorCategory
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		rules: []rule{
			{CategoryTimeout, []string{
				"timed out",
				"deadline exceeded",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{CategoryTool, []string{
				"tool not found",
				"executable file not found",
				"tool failed",
				"exit status",
				"signal: killed",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file does not exist",
				"file not found",
				"not a directory",
			}},
			{CategoryCopy, []string{
				"short write",
				"input/output error",
				"i/o error",
			}},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	rules []rule
}

// Match returns the category of the first rule with a pattern contained in
// errorMsg, ignoring case, or CategoryUnknown.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, r := range m.rules {
		for _, pattern := range r.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return r.category
			}
		}
	}

	return CategoryUnknown
}
