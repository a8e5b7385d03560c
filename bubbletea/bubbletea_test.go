package bubbletea_test

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/commitsplit"
	dv "github.com/fwojciec/commitsplit/lipgloss"
	"github.com/muesli/termenv"
)

// asciiRenderer returns a renderer without colors, so output can be matched
// as plain text.
func asciiRenderer() *dv.Renderer {
	return dv.NewRenderer(lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.Ascii)))
}

// trueColorRenderer returns a renderer that emits true colors.
func trueColorRenderer() *dv.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	return dv.NewRenderer(r, dv.WithTheme(dv.TestTheme()))
}

func samplePreview() commitsplit.Preview {
	commit := &commitsplit.GeneratedCommit{Type: commitsplit.TypeFeat, Scope: "api", Description: "add login endpoint"}
	commit.Format()
	return commitsplit.Preview{
		Title:  "Commit 1 of 1",
		Commit: commit,
		Changes: commitsplit.NewStagedChanges(
			[]commitsplit.FileChange{{Path: "api/login.go", Status: commitsplit.StatusAdded, Additions: 3}},
			"diff --git a/api/login.go b/api/login.go\n+package api\n+\n+func login() {\n+\treturn\n",
		),
	}
}
