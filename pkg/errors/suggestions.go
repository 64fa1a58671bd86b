package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.permission(affectedPath)
	case CategoryDiskSpace:
		return g.diskSpace(affectedPath)
	case CategoryPath:
		return g.path(affectedPath)
	case CategoryTool:
		return g.tool(affectedPath)
	case CategoryTimeout:
		return g.timeout(affectedPath)
	case CategoryCopy:
		return g.copy(affectedPath)
	case CategoryUnknown:
		return g.unknown(affectedPath)
	default:
		return g.unknown(affectedPath)
	}
}

func (g *suggestionGenerator) copy(_ string) []string {
	return []string{
		"Check that the output device has enough free space",
		"Verify the input and output media are working correctly",
		"Run again; this may be a transient I/O error",
	}
}

func (g *suggestionGenerator) diskSpace(path string) []string {
	suggestions := []string{
		"Free up space on the output device",
		"Check available space with 'df -h'",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) path(path string) []string {
	if path == "" {
		return []string{
			"Verify the path exists and is spelled correctly",
			"Check whether the file was moved or deleted during the run",
		}
	}

	return []string{
		"Check if the path exists: " + path,
		"Check whether " + path + " was moved or deleted during the run",
	}
}

func (g *suggestionGenerator) permission(path string) []string {
	suggestions := []string{
		"Ensure you can read the input tree and write the output directory",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected path")
	}

	return suggestions
}

func (g *suggestionGenerator) timeout(path string) []string {
	suggestions := []string{
		"Raise the per-file limit with --timeout, or set it to 0 to disable it",
	}

	if path != "" {
		suggestions = append(suggestions, "Run the tool by hand on "+path+" to see how long it takes")
	}

	return suggestions
}

func (g *suggestionGenerator) tool(path string) []string {
	suggestions := []string{
		"Check that the tool is installed and on your PATH",
		"Check the tool arguments; placeholders are {input} {output} {outdir} {name} {stem}",
	}

	if path != "" {
		suggestions = append(suggestions, "Run the tool by hand on "+path+" to see its full output")
	}

	return suggestions
}

func (g *suggestionGenerator) unknown(path string) []string {
	suggestions := []string{
		"Check the log file for more details",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
