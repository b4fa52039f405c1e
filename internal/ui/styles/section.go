package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sectionBorder = lipgloss.RoundedBorder()

// Section is a bordered pane with the title inlined in the top border:
//
//	╭─ Title (hint) ──────╮
//	│content              │
//	╰─────────────────────╯
type Section struct {
	Title   string
	Hint    string
	Width   int
	Height  int // total height including borders; 0 grows with content
	Focused bool

	// Cursor is the content line kept visible when the content is taller
	// than the pane. Negative values keep the top in view.
	Cursor int
}

// Render draws content inside the pane. Lines are padded to the inner
// width and clipped when they are wider.
func (s Section) Render(content []string) string {
	var color lipgloss.TerminalColor = BorderDefaultColor
	if s.Focused {
		color = BorderHighlightFocusColor
	}
	border := lipgloss.NewStyle().Foreground(color)
	inner := max(s.Width-2, 1)

	var b strings.Builder
	b.WriteString(s.top(border, color, inner))
	fit := lipgloss.NewStyle().MaxWidth(inner)
	for _, row := range s.window(content) {
		row = fit.Render(row)
		b.WriteString("\n")
		b.WriteString(border.Render(sectionBorder.Left))
		b.WriteString(row + strings.Repeat(" ", max(inner-lipgloss.Width(row), 0)))
		b.WriteString(border.Render(sectionBorder.Right))
	}
	b.WriteString("\n")
	b.WriteString(border.Render(sectionBorder.BottomLeft + strings.Repeat(sectionBorder.Bottom, inner) + sectionBorder.BottomRight))
	return b.String()
}

func (s Section) top(border lipgloss.Style, color lipgloss.TerminalColor, inner int) string {
	if s.Title == "" {
		return border.Render(sectionBorder.TopLeft + strings.Repeat(sectionBorder.Top, inner) + sectionBorder.TopRight)
	}
	label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(s.Title)
	if s.Hint != "" {
		label += " " + MutedStyle.Render("("+s.Hint+")")
	}
	// "─ " before the label and " " after it
	dashes := max(inner-lipgloss.Width(label)-3, 0)
	return border.Render(sectionBorder.TopLeft+sectionBorder.Top+" ") + label +
		border.Render(" "+strings.Repeat(sectionBorder.Top, dashes)+sectionBorder.TopRight)
}

// window returns the slice of content that fits the pane, scrolled so the
// cursor line stays visible.
func (s Section) window(content []string) []string {
	rows := s.Height - 2
	if s.Height <= 0 || len(content) <= rows {
		return content
	}
	if rows < 1 {
		return nil
	}
	start := 0
	if s.Cursor >= rows {
		start = min(s.Cursor-rows+1, len(content)-rows)
	}
	return content[start : start+rows]
}
