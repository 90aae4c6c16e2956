// Package report renders cross-validation results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/echolab/songbird/train"
)

// Theme defines the color scheme of the rendered tables.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Border lipgloss.Style
	Dim    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Renderer turns reports into styled terminal output.
type Renderer struct {
	styles Styles
}

// NewRenderer creates a renderer with the given theme.
func NewRenderer(theme Theme) *Renderer {
	return &Renderer{styles: NewStyles(theme)}
}

// Render produces the full report: run header, metric table, confusion
// matrix and the final training accuracy of every fold.
func (r *Renderer) Render(rep *train.Report) string {
	var b strings.Builder

	b.WriteString(r.styles.Title.Render(fmt.Sprintf("%s cross-validation", rep.Model)))
	b.WriteString("\n")
	b.WriteString(r.styles.Dim.Render(fmt.Sprintf("run %s, %d folds", rep.RunID, rep.Folds)))
	if rep.FailedFolds > 0 {
		b.WriteString(r.styles.Dim.Render(fmt.Sprintf(" (%d failed)", rep.FailedFolds)))
	}
	b.WriteString("\n\n")

	b.WriteString(r.renderMetrics(rep.Metrics))
	b.WriteString("\n")
	b.WriteString(r.renderConfusion(rep.Confusion))

	if len(rep.Histories) > 0 {
		b.WriteString("\n")
		b.WriteString(r.styles.Header.Render("Training accuracy"))
		b.WriteString("\n")
		for _, h := range rep.Histories {
			last := len(h.History.Accuracy) - 1
			if last < 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("  %-24s %.4f\n", h.Name, h.History.Accuracy[last]))
		}
	}

	return b.String()
}

// RenderHoldout produces the holdout score block.
func (r *Renderer) RenderHoldout(result *train.HoldoutResult) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Holdout evaluation"))
	b.WriteString("\n\n")
	b.WriteString(r.renderMetrics([]train.MetricSummary{
		{Name: "Acc.", Value: result.Metrics.Accuracy},
		{Name: "Prec.", Value: result.Metrics.Precision},
		{Name: "Rec.", Value: result.Metrics.Recall},
		{Name: "F1.", Value: result.Metrics.F1},
	}))
	return b.String()
}

func (r *Renderer) renderMetrics(metrics []train.MetricSummary) string {
	names := make([]string, len(metrics))
	values := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = fmt.Sprintf("%-7s", m.Name)
		values[i] = fmt.Sprintf("%.4f ±%.4f", m.Value, m.Std)
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render("Metric   Mean over folds"))
	b.WriteString("\n")
	for i := range metrics {
		b.WriteString(fmt.Sprintf("  %s %s\n", names[i], values[i]))
	}
	return b.String()
}

func (r *Renderer) renderConfusion(c train.ConfusionReport) string {
	if len(c.Matrix) == 0 {
		return ""
	}

	cellWidth := 7
	for _, name := range c.ClassNames {
		if len(name)+1 > cellWidth {
			cellWidth = len(name) + 1
		}
	}

	var b strings.Builder
	b.WriteString(r.styles.Header.Render(c.Title))
	b.WriteString("\n")

	b.WriteString(strings.Repeat(" ", cellWidth+2))
	for _, name := range c.ClassNames {
		b.WriteString(fmt.Sprintf("%*s", cellWidth, name))
	}
	b.WriteString("\n")

	border := r.styles.Border
	for row, counts := range c.Matrix {
		b.WriteString(fmt.Sprintf("  %*s", cellWidth, c.ClassNames[row]))
		for col, count := range counts {
			cell := fmt.Sprintf("%*d", cellWidth, count)
			if row == col {
				cell = border.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}
