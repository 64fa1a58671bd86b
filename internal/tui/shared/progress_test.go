package shared_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batch-files/internal/tui/shared"
)

func TestRenderASCIIProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		percent  float64
		width    int
		expected string
	}{
		{name: "empty", percent: 0, width: 10, expected: "[          ] 0%"},
		{name: "full", percent: 1, width: 10, expected: "[==========] 100%"},
		{name: "half", percent: 0.5, width: 10, expected: "[====>     ] 50%"},
		{name: "tiny", percent: 0.01, width: 10, expected: "[>         ] 1%"},
		{name: "over", percent: 1.7, width: 4, expected: "[====] 100%"},
		{name: "negative", percent: -1, width: 4, expected: "[    ] 0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			result := shared.RenderASCIIProgress(tt.percent, tt.width)
			g.Expect(result).To(Equal(tt.expected))
		})
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.Percent(0, 0)).To(BeZero())
	g.Expect(shared.Percent(1, 4)).To(Equal(0.25))
	g.Expect(shared.Percent(5, 4)).To(Equal(1.0), "processed can briefly lead a dropped discovery update")
}

func TestNewProgressModel(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	bar := shared.NewProgressModel(30)
	g.Expect(bar.Width).To(Equal(30))
	g.Expect(bar.ShowPercentage).To(BeFalse())
	g.Expect(shared.RenderProgress(bar, 0.5)).ToNot(BeEmpty())
}
