// Package styles contains Lip Gloss style definitions shared by the
// suite tree and the handgrading list.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/agview/internal/domain"
)

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BBBBBB"} // ids, counts
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // hints, footers

	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	// Selection indicator style (the ">" prefix in lists)
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	SelectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	RowStyle         = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	MutedStyle       = lipgloss.NewStyle().Foreground(TextMutedColor)
	SecondaryStyle   = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	// Tree levels
	SuiteStyle   = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	CaseStyle    = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	CommandStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	// Staff groups are tagged in the grading list.
	StaffBadgeStyle = lipgloss.NewStyle().Foreground(StatusInfoColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)
)

// GradingStatusStyle returns the style for a grading status label.
func GradingStatusStyle(s domain.GradingStatus) lipgloss.Style {
	switch s {
	case domain.StatusGraded:
		return lipgloss.NewStyle().Foreground(StatusSuccessColor)
	case domain.StatusInProgress:
		return lipgloss.NewStyle().Foreground(StatusWarningColor)
	case domain.StatusUngraded:
		return lipgloss.NewStyle().Foreground(StatusErrorColor)
	default:
		return MutedStyle
	}
}

// GradingStatusLabel is the short label shown in the status column.
func GradingStatusLabel(s domain.GradingStatus) string {
	switch s {
	case domain.StatusNoSubmissions:
		return "No Submissions"
	case domain.StatusUngraded:
		return "Ungraded"
	case domain.StatusInProgress:
		return "In Progress"
	case domain.StatusGraded:
		return "Graded"
	default:
		return "All"
	}
}

// ApplyTheme overrides the status colors. Empty strings keep the defaults.
func ApplyTheme(muted, errorColor, success string) {
	if muted != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
		BorderDefaultColor = lipgloss.AdaptiveColor{Light: muted, Dark: muted}
		MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
		ErrorStyle = ErrorStyle.Foreground(StatusErrorColor)
	}
	if success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: success, Dark: success}
	}
}
