// Package lipgloss renders analyses, split proposals and message previews for
// the terminal using lipgloss.
package lipgloss

import "github.com/fwojciec/commitsplit"

// Theme holds the palette used by the renderers.
type Theme struct {
	palette commitsplit.Palette
}

// NewTheme returns a theme for palette.
func NewTheme(p commitsplit.Palette) *Theme {
	return &Theme{palette: p}
}

// Palette returns the theme's colors.
func (t *Theme) Palette() commitsplit.Palette {
	return t.palette
}

// DefaultTheme returns a dark theme loosely based on One Dark.
func DefaultTheme() *Theme {
	return NewTheme(commitsplit.Palette{
		Background: "#282c34",
		Foreground: "#abb2bf",
		Muted:      "#5c6370",
		Accent:     "#61afef",
		Added:      "#98c379",
		Deleted:    "#e06c75",
		Modified:   "#e5c07b",
		Renamed:    "#c678dd",
		Warning:    "#d19a66",
		Keyword:    "#c678dd",
		String:     "#98c379",
		Number:     "#d19a66",
		Comment:    "#5c6370",
		Operator:   "#56b6c2",
		Function:   "#61afef",
		Type:       "#e5c07b",
	})
}

// TestTheme returns a theme with a distinct color per role, for tests.
func TestTheme() *Theme {
	return NewTheme(commitsplit.Palette{
		Background: "#000000",
		Foreground: "#ffffff",
		Muted:      "#808080",
		Accent:     "#0000ff",
		Added:      "#00ff00",
		Deleted:    "#ff0000",
		Modified:   "#ffff00",
		Renamed:    "#ff00ff",
		Warning:    "#ff8000",
		Keyword:    "#100001",
		String:     "#100002",
		Number:     "#100003",
		Comment:    "#100004",
		Operator:   "#100005",
		Function:   "#100006",
		Type:       "#100007",
	})
}
