// Package render draws a footprint for humans.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	carbonfootprint "github.com/superdango/carbon-footprint"
	"github.com/superdango/carbon-footprint/internal/must"
)

const defaultBarWidth = 24

type Options struct {
	// Color enables terminal styling
	Color bool
	// BarWidth is the number of cells of a full bar
	BarWidth int
}

type styles struct {
	total lipgloss.Style
	label lipgloss.Style
	bar   lipgloss.Style
	muted lipgloss.Style
}

// Report renders footprints as text
type Report struct {
	w      io.Writer
	opts   Options
	styles styles
}

func NewReport(w io.Writer, opts Options) *Report {
	if opts.BarWidth <= 0 {
		opts.BarWidth = defaultBarWidth
	}

	report := &Report{w: w, opts: opts}
	if opts.Color {
		renderer := lipgloss.NewRenderer(w)
		report.styles = styles{
			total: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			label: renderer.NewStyle().Bold(true),
			bar:   renderer.NewStyle().Foreground(lipgloss.Color("2")),
			muted: renderer.NewStyle().Faint(true),
		}
	}

	return report
}

func (report *Report) paint(style lipgloss.Style, s string) string {
	if !report.opts.Color {
		return s
	}
	return style.Render(s)
}

// Render writes the total followed by one line per category.
func (report *Report) Render(footprint carbonfootprint.Footprint) error {
	shares := footprint.Breakdown()
	must.Assert(len(shares) == len(carbonfootprint.Categories()), "breakdown misses categories")

	labelWidth := 0
	for _, share := range shares {
		labelWidth = max(labelWidth, len(share.Label))
	}

	lines := []string{
		report.paint(report.styles.total, fmt.Sprintf("%s t CO₂e", FormatNumber(footprint.TotalTonnes(), 2))),
		report.paint(report.styles.muted, fmt.Sprintf("%s kg CO₂e / year", FormatNumber(footprint.TotalKg(), 0))),
		"",
	}

	for _, share := range shares {
		label := fmt.Sprintf("%-*s", labelWidth, share.Label)
		amount := fmt.Sprintf("%10s kg / yr", FormatNumber(share.Emissions.KgCO2eq(), 0))
		percent := fmt.Sprintf("%5s%%", FormatNumber(share.Percent, 1))

		lines = append(lines, strings.Join([]string{
			report.paint(report.styles.label, label),
			report.paint(report.styles.muted, amount),
			report.bar(share.Percent),
			report.paint(report.styles.muted, percent),
		}, "  "))
	}

	_, err := io.WriteString(report.w, strings.Join(lines, "\n")+"\n")
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// bar draws a bar proportional to percent, never wider than a full bar. NaN
// draws an empty bar.
func (report *Report) bar(percent float64) string {
	if math.IsNaN(percent) {
		percent = 0
	}
	filled := int(math.Round(min(100, max(0, percent)) / 100 * float64(report.opts.BarWidth)))
	return report.paint(report.styles.bar, strings.Repeat("█", filled)) +
		strings.Repeat("░", report.opts.BarWidth-filled)
}
