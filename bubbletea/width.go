package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// tabStop is the terminal tab interval.
const tabStop = 8

// advance returns the column after drawing r at col.
func advance(col int, r rune) int {
	if r == '\t' {
		return (col/tabStop + 1) * tabStop
	}
	return col + lipgloss.Width(string(r))
}

// DisplayWidth returns the columns s occupies on a terminal. Tabs run to the
// next tab stop; lipgloss.Width counts them as zero.
func DisplayWidth(s string) int {
	col := 0
	for _, r := range s {
		col = advance(col, r)
	}
	return col
}

// ExpandTabs replaces the tabs of every line in s with spaces up to the next
// tab stop, so diff excerpts keep their alignment inside bordered previews.
func ExpandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		var b strings.Builder
		col := 0
		for _, r := range line {
			next := advance(col, r)
			if r == '\t' {
				b.WriteString(strings.Repeat(" ", next-col))
			} else {
				b.WriteRune(r)
			}
			col = next
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
