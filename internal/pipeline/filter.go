package pipeline

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter decides which discovered files are handed to the pool.
type FileFilter interface {
	// ShouldInclude returns true if the file at the given path (relative to the
	// input root) should be processed.
	ShouldInclude(relativePath string) bool
}

// FilterFunc adapts a predicate to FileFilter.
type FilterFunc func(relativePath string) bool

// ShouldInclude calls f(relativePath).
func (f FilterFunc) ShouldInclude(relativePath string) bool {
	return f(relativePath)
}

// GlobFilter implements FileFilter using glob patterns.
type GlobFilter struct {
	patterns []string
}

// NewGlobFilter creates a new GlobFilter from a name filter such as "*.jpg;*.png".
// Patterns are separated by semicolons or whitespace. An empty filter matches all files.
func NewGlobFilter(filter string) *GlobFilter {
	patterns := strings.FieldsFunc(strings.ToLower(filter), func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})

	return &GlobFilter{patterns: patterns}
}

// Patterns returns the normalized patterns.
func (f *GlobFilter) Patterns() []string {
	return f.patterns
}

// ShouldInclude returns true if any pattern matches.
// Patterns without a slash match the base name; patterns with one match the
// whole relative path. Matching is case-insensitive.
func (f *GlobFilter) ShouldInclude(relativePath string) bool {
	if len(f.patterns) == 0 {
		return true
	}

	normalizedPath := strings.ToLower(filepath.ToSlash(relativePath))
	base := path.Base(normalizedPath)

	for _, pattern := range f.patterns {
		target := base
		if strings.Contains(pattern, "/") {
			target = normalizedPath
		}

		// Invalid patterns never match
		matched, err := doublestar.Match(pattern, target)
		if err == nil && matched {
			return true
		}
	}

	return false
}
