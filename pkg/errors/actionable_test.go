package errors_test

import (
	"fmt"
	"testing"

	"github.com/joe/batch-files/pkg/errors"
)

func TestActionableError_Accessors(t *testing.T) {
	t.Parallel()

	err := errors.NewActionableError(
		"tool failed: exit status 2",
		errors.CategoryTool,
		[]string{"Check the tool arguments"},
		"/in/a.wav",
	)

	if err.Error() != "tool failed: exit status 2" {
		t.Errorf("unexpected Error(): %q", err.Error())
	}

	if err.OriginalError() != err.Error() {
		t.Errorf("OriginalError() %q differs from Error() %q", err.OriginalError(), err.Error())
	}

	if err.Category() != errors.CategoryTool {
		t.Errorf("expected category %q, got %q", errors.CategoryTool, err.Category())
	}

	if err.AffectedPath() != "/in/a.wav" {
		t.Errorf("unexpected AffectedPath(): %q", err.AffectedPath())
	}

	if len(err.Suggestions()) != 1 {
		t.Errorf("expected 1 suggestion, got %v", err.Suggestions())
	}
}

func TestActionableError_FormatSuggestionsWithEmptySuggestions(t *testing.T) {
	t.Parallel()

	err := errors.NewActionableError("unknown error", errors.CategoryUnknown, []string{}, "/path")

	if formatted := errors.FormatSuggestions(err); formatted != "" {
		t.Errorf("expected empty string for no suggestions, got %q", formatted)
	}
}

func TestActionableError_FormatSuggestionsWithMultipleSuggestions(t *testing.T) {
	t.Parallel()

	err := errors.NewActionableError(
		"permission denied",
		errors.CategoryPermission,
		[]string{
			"Check permissions with 'ls -la'",
			"Ensure you can write the output directory",
		},
		"/out/a.txt",
	)

	expected := "  • Check permissions with 'ls -la'\n  • Ensure you can write the output directory"
	if formatted := errors.FormatSuggestions(err); formatted != expected {
		t.Errorf("expected:\n%q\ngot:\n%q", expected, formatted)
	}
}

func TestActionableError_FormatSuggestionsWithPlainOrNilError(t *testing.T) {
	t.Parallel()

	if formatted := errors.FormatSuggestions(fmt.Errorf("plain")); formatted != "" {
		t.Errorf("expected empty string for plain error, got %q", formatted)
	}

	if formatted := errors.FormatSuggestions(nil); formatted != "" {
		t.Errorf("expected empty string for nil, got %q", formatted)
	}
}
