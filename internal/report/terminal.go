package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var segmentTermColours = map[string]lipgloss.Color{
	"critical": lipgloss.Color("9"),
	"poor":     lipgloss.Color("208"),
	"fair":     lipgloss.Color("11"),
	"good":     lipgloss.Color("10"),
}

// TerminalRenderer renders the on-screen summary of a report for a terminal
type TerminalRenderer struct {
	width    int
	colorize bool
	details  bool
}

// NewTerminalRenderer creates a terminal renderer. With details set, the
// question/answer table is printed after the summary.
func NewTerminalRenderer(width int, colorize, details bool) *TerminalRenderer {
	if width <= 0 {
		width = 80
	}
	return &TerminalRenderer{width: width, colorize: colorize, details: details}
}

// ContentType returns the MIME type of rendered output
func (t *TerminalRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render writes the summary to w
func (t *TerminalRenderer) Render(w io.Writer, rep *Report) error {
	var b strings.Builder

	title := t.style(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")))
	muted := t.style(lipgloss.NewStyle().Foreground(lipgloss.Color("245")))
	label := t.style(lipgloss.NewStyle().Bold(true))

	b.WriteString(title.Render(rep.Letterhead.Organization) + "\n")
	b.WriteString(muted.Render(rep.Letterhead.Tagline) + "\n\n")
	b.WriteString(title.Render(rep.Letterhead.Title) + "  " + muted.Render(rep.Letterhead.Date) + "\n\n")

	b.WriteString(label.Render(rep.Respondent.Title) + "\n")
	for _, f := range rep.Respondent.Fields {
		fmt.Fprintf(&b, "  %s %s\n", label.Render(f.Label+":"), f.Value)
	}
	b.WriteString("\n")

	sb := rep.Score
	tierStyle := t.style(lipgloss.NewStyle().Bold(true).Foreground(segmentTermColours[sb.Gauge.Segment]))
	fmt.Fprintf(&b, "%s %d / %d\n", label.Render(sb.Label+":"), sb.Value, sb.Max)
	b.WriteString(tierStyle.Render(sb.Result) + "\n")
	b.WriteString(t.bar(sb) + "\n")

	box := t.style(lipgloss.NewStyle().
		Width(t.width-4).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")))
	b.WriteString(box.Render(sb.Suggestion) + "\n")

	if len(sb.Domains) > 0 {
		b.WriteString("\n")
		for _, d := range sb.Domains {
			fmt.Fprintf(&b, "  %-14s %3d / %-3d\n", d.Domain, d.Points, d.MaxPoints)
		}
	}

	if t.details {
		for _, page := range rep.AnswerPages() {
			if page.Title != "" {
				b.WriteString("\n" + label.Render(page.Title) + "\n")
			}
			for _, row := range page.Rows {
				fmt.Fprintf(&b, "%2d. %s\n    %s\n", row.Index+1, row.Question, muted.Render("→ "+row.Answer))
			}
		}
	}

	b.WriteString("\n" + muted.Render(rep.Footer.Copyright) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// bar draws the gauge as a horizontal bar scaled to the renderer width
func (t *TerminalRenderer) bar(sb ScoreBlock) string {
	width := t.width - 10
	if width < 10 {
		width = 10
	}
	filled := sb.Gauge.Value * width / 100

	fill := t.style(lipgloss.NewStyle().Foreground(segmentTermColours[sb.Gauge.Segment]))
	return "[" + fill.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled) + "] " + sb.Gauge.Label
}

func (t *TerminalRenderer) style(s lipgloss.Style) lipgloss.Style {
	if !t.colorize {
		return lipgloss.NewStyle()
	}
	return s
}
