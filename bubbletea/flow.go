package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/commitsplit"
)

// SplitFlow returns a diagram of the commits a split would create, in order:
//
//	╭────────╮   ╭────────╮   ╭──────╮
//	│ config │ → │ source │ → │ docs │
//	╰────────╯   ╰────────╯   ╰──────╯
//
// When the row is wider than maxWidth the groups are stacked vertically.
// A maxWidth of zero disables the check. If renderer is nil, the default
// renderer is used.
func SplitFlow(groups []commitsplit.SplitGroup, maxWidth int, renderer *lipgloss.Renderer) string {
	if len(groups) == 0 {
		return ""
	}
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}

	nodeStyle := renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	nodes := make([]string, 0, len(groups))
	for _, g := range groups {
		nodes = append(nodes, nodeStyle.Render(g.Name))
	}

	row := linearFlow(nodes, " → ")
	if maxWidth <= 0 || lipgloss.Width(row) <= maxWidth {
		return row
	}
	return verticalFlow(nodes)
}

// linearFlow joins nodes horizontally with arrow between them.
func linearFlow(nodes []string, arrow string) string {
	// Each node gets an arrow, minus the trailing one
	parts := make([]string, 0, len(nodes)*2-1)
	for i, node := range nodes {
		if i > 0 {
			parts = append(parts, arrow)
		}
		parts = append(parts, node)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// verticalFlow stacks nodes with a down arrow between them.
func verticalFlow(nodes []string) string {
	width := 0
	for _, n := range nodes {
		width = max(width, lipgloss.Width(n))
	}
	arrow := strings.Repeat(" ", (width-1)/2) + "↓"

	parts := make([]string, 0, len(nodes)*2-1)
	for i, node := range nodes {
		if i > 0 {
			parts = append(parts, arrow)
		}
		parts = append(parts, node)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
