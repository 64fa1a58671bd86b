// Package report renders run results for the terminal: a live line printer
// for non-interactive use and an end-of-run summary.
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/pkg/errors"
)

// errorColumnWidth bounds the error column before it wraps.
const errorColumnWidth = 60

// Summary renders the totals of result followed by a table of failures and
// skipped entries, with suggestions for each kind of failure. Paths are
// shown relative to inputDir.
func Summary(result *pipeline.Result, inputDir string) string {
	if result == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(totals(result))

	problems := append(append([]pipeline.FileError(nil), result.Failed...), result.Skipped...)
	if len(problems) == 0 {
		return b.String()
	}

	enricher := errors.NewEnricher()
	rows := make([][]string, 0, len(problems))
	advice := map[errors.ErrorCategory]string{}

	for i, problem := range problems {
		kind := "failed"
		if i >= len(result.Failed) {
			kind = "skipped"
		}

		enriched := enricher.Enrich(problem.Err, problem.Path)

		category := errors.CategoryUnknown
		if actionable, ok := enriched.(errors.ActionableError); ok {
			category = actionable.Category()
		}

		if _, seen := advice[category]; !seen {
			advice[category] = errors.FormatSuggestions(enriched)
		}

		rows = append(rows, []string{relative(inputDir, problem.Path), kind, string(category), problem.Err.Error()})
	}

	b.WriteString("\n\n")
	b.WriteString(renderTable([]string{"File", "Status", "Category", "Error"}, rows))

	categories := make([]string, 0, len(advice))
	for category := range advice {
		categories = append(categories, string(category))
	}

	sort.Strings(categories)

	for _, category := range categories {
		suggestions := advice[errors.ErrorCategory(category)]
		if suggestions == "" {
			continue
		}

		fmt.Fprintf(&b, "\n\n%s:\n%s", category, suggestions)
	}

	return b.String()
}

func totals(result *pipeline.Result) string {
	status := "Completed"
	if result.Cancelled {
		status = "Stopped"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(status)
	tw.AppendRows([]table.Row{
		{"Discovered", result.Discovered},
		{"Processed", result.Processed},
		{"Succeeded", result.Succeeded()},
		{"Failed", len(result.Failed)},
		{"Skipped", len(result.Skipped)},
		{"Duration", result.Duration().Round(time.Millisecond)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})

	return tw.Render()
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}

		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: len(headers), WidthMax: errorColumnWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	return tw.Render()
}

func relative(root, path string) string {
	if root == "" {
		return path
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	return rel
}
