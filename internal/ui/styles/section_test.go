package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func TestSection_Render(t *testing.T) {
	tests := []struct {
		name           string
		section        Section
		content        []string
		wantContains   []string
		wantNotContain []string
	}{
		{
			name:         "title only",
			section:      Section{Title: "Suites", Width: 30},
			content:      []string{"> Suite1"},
			wantContains: []string{"╭─ Suites", "│> Suite1", "╰"},
		},
		{
			name:         "title with hint",
			section:      Section{Title: "Handgrading", Hint: "ungraded", Width: 40},
			content:      []string{"1/3 (4 total)"},
			wantContains: []string{"╭─ Handgrading", "(ungraded)"},
		},
		{
			name:           "no title",
			section:        Section{Width: 10},
			content:        []string{"x"},
			wantContains:   []string{"╭────────╮", "╰────────╯"},
			wantNotContain: []string{"╭─ "},
		},
		{
			name:         "empty content still has borders",
			section:      Section{Title: "Empty", Width: 20},
			wantContains: []string{"╭", "╰"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.section.Render(tt.content)
			for _, want := range tt.wantContains {
				require.Contains(t, result, want)
			}
			for _, notWant := range tt.wantNotContain {
				require.NotContains(t, result, notWant)
			}
		})
	}
}

func TestSection_PadsAndClipsLines(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	result := Section{Width: 8}.Render([]string{"ab", "abcd", "much too wide"})
	lines := strings.Split(result, "\n")
	require.Len(t, lines, 5)
	for _, line := range lines {
		require.Equal(t, 8, lipgloss.Width(line))
	}
	require.Contains(t, result, "│much t│")
}

func TestSection_ScrollsToCursor(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	content := []string{"r0", "r1", "r2", "r3", "r4", "r5"}

	top := Section{Width: 10, Height: 5}.Render(content)
	require.Contains(t, top, "r0")
	require.Contains(t, top, "r2")
	require.NotContains(t, top, "r3")

	bottom := Section{Width: 10, Height: 5, Cursor: 5}.Render(content)
	require.Len(t, strings.Split(bottom, "\n"), 5)
	require.Contains(t, bottom, "r3")
	require.Contains(t, bottom, "r5")
	require.NotContains(t, bottom, "r2")
}

func TestSection_FocusChangesColor(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	unfocused := Section{Title: "Test", Width: 30}.Render([]string{"Content"})
	focused := Section{Title: "Test", Width: 30, Focused: true}.Render([]string{"Content"})
	require.NotEqual(t, unfocused, focused)
}
