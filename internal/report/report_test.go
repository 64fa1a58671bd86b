//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package report_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/internal/report"
)

func sampleResult() *pipeline.Result {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	return &pipeline.Result{
		RunID:      "r1",
		Discovered: 4,
		Processed:  3,
		Failed: []pipeline.FileError{
			{Path: "/in/music/a.wav", Err: errors.New("tool failed: exit status 1: bad header")},
			{Path: "/in/b.wav", Err: fmt.Errorf("tool timed out after 1s: %w", context.DeadlineExceeded)},
		},
		Skipped: []pipeline.FileError{
			{Path: "/in/private", Err: &os.PathError{Op: "open", Path: "/in/private", Err: os.ErrPermission}},
		},
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
	}
}

func TestSummary_Totals(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	summary := report.Summary(&pipeline.Result{Discovered: 2, Processed: 2}, "/in")

	g.Expect(summary).To(ContainSubstring("Completed"))
	g.Expect(summary).To(MatchRegexp(`Succeeded\s*│\s*2`))
	g.Expect(summary).ToNot(ContainSubstring("Category"), "no problem table without problems")
}

func TestSummary_ProblemsAndSuggestions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	summary := report.Summary(sampleResult(), "/in")

	g.Expect(summary).To(ContainSubstring("music/a.wav"))
	g.Expect(summary).To(ContainSubstring("private"))
	g.Expect(summary).To(ContainSubstring("skipped"))
	g.Expect(summary).To(ContainSubstring("tool"))
	g.Expect(summary).To(ContainSubstring("timeout"))
	g.Expect(summary).To(ContainSubstring("permission"))
	g.Expect(summary).To(ContainSubstring("--timeout"), "timeout suggestions are listed")
	g.Expect(summary).To(ContainSubstring("1.5s"))
}

func TestSummary_Stopped(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(report.Summary(&pipeline.Result{Cancelled: true}, "")).To(ContainSubstring("Stopped"))
	g.Expect(report.Summary(nil, "")).To(BeEmpty())
}

func TestPrinter_WritesOneLinePerFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var buf bytes.Buffer

	printer := report.NewPrinter(&buf, "/in")
	printer.Emit(pipeline.RunStarted{RunID: "r1", Workers: 2, Config: pipeline.RunConfiguration{InputDir: "/in"}})
	printer.Emit(pipeline.QueueSizeChanged{Total: 1})
	printer.Emit(pipeline.QueueSizeChanged{Total: 2})
	printer.Emit(pipeline.ItemProcessed{Total: 1, Outcome: pipeline.Outcome{Path: "/in/a.txt"}})
	printer.Emit(pipeline.ItemProcessed{Total: 2, Outcome: pipeline.Outcome{Path: "/in/b.txt", Err: errors.New("exit status 2")}})
	printer.Emit(pipeline.Finished{Result: &pipeline.Result{Discovered: 2, Processed: 2}})

	lines := strings.Split(buf.String(), "\n")
	g.Expect(lines[0]).To(Equal("run r1: 2 workers, input /in"))
	g.Expect(lines[1]).To(Equal("[1/2] a.txt ok"))
	g.Expect(lines[2]).To(Equal("[2/2] b.txt FAILED: exit status 2"))
	g.Expect(buf.String()).To(ContainSubstring("Completed"))
}
