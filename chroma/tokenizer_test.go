package chroma_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/chroma"
	"github.com/fwojciec/commitsplit/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenizer(t *testing.T) (*chroma.Tokenizer, commitsplit.Palette) {
	t.Helper()
	palette := lipgloss.TestTheme().Palette()
	tokenizer, err := chroma.NewTokenizer(chroma.StyleFromPalette(palette))
	require.NoError(t, err)
	return tokenizer, palette
}

func joinText(tokens []commitsplit.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
	}
	return b.String()
}

func TestNewTokenizer_RequiresStyle(t *testing.T) {
	t.Parallel()

	_, err := chroma.NewTokenizer(nil)
	assert.Error(t, err)
}

func TestTokenizer_Tokenize(t *testing.T) {
	t.Parallel()

	t.Run("keeps the source text", func(t *testing.T) {
		t.Parallel()
		tokenizer, _ := newTokenizer(t)
		tokens := tokenizer.Tokenize("diff", "@@ -1 +1 @@\n-a\n+b\n")
		assert.Equal(t, "@@ -1 +1 @@\n-a\n+b\n", joinText(tokens))
	})

	t.Run("colors keywords from the palette", func(t *testing.T) {
		t.Parallel()
		tokenizer, palette := newTokenizer(t)
		for _, tok := range tokenizer.Tokenize("go", "package main") {
			if tok.Text == "package" {
				assert.Equal(t, palette.Keyword, tok.Style.Foreground)
				assert.True(t, tok.Style.Bold)
				return
			}
		}
		t.Fatal("no package keyword token")
	})

	t.Run("unsupported language", func(t *testing.T) {
		t.Parallel()
		tokenizer, _ := newTokenizer(t)
		assert.Nil(t, tokenizer.Tokenize("nonexistent-language-xyz", "x"))
	})

	t.Run("empty source", func(t *testing.T) {
		t.Parallel()
		tokenizer, _ := newTokenizer(t)
		tokens := tokenizer.Tokenize("diff", "")
		assert.NotNil(t, tokens)
		assert.Empty(t, tokens)
	})
}

func TestTokenizer_TokenizeLines(t *testing.T) {
	t.Parallel()

	t.Run("diff lines take the diff colors", func(t *testing.T) {
		t.Parallel()
		tokenizer, palette := newTokenizer(t)

		source := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n-old line\n+new line\n"
		lines := tokenizer.TokenizeLines("diff", source)
		require.Len(t, lines, 6)

		first := func(i int) commitsplit.Style {
			require.NotEmpty(t, lines[i], "line %d", i)
			return lines[i][0].Style
		}
		assert.Equal(t, palette.Accent, first(0).Foreground)
		assert.True(t, first(0).Bold)
		assert.Equal(t, palette.Muted, first(3).Foreground)
		assert.Equal(t, palette.Deleted, first(4).Foreground)
		assert.Equal(t, palette.Added, first(5).Foreground)
		assert.Equal(t, "+new line", joinText(lines[5]))
	})

	t.Run("multi-line comments stay comments", func(t *testing.T) {
		t.Parallel()
		tokenizer, palette := newTokenizer(t)

		lines := tokenizer.TokenizeLines("go", "/*\n cache entries\n*/")
		require.Len(t, lines, 3)
		for i, line := range lines {
			require.NotEmpty(t, line, "line %d", i)
			assert.Equal(t, palette.Comment, line[0].Style.Foreground, "line %d", i)
		}
	})

	t.Run("trailing newline does not add a line", func(t *testing.T) {
		t.Parallel()
		tokenizer, _ := newTokenizer(t)
		lines := tokenizer.TokenizeLines("diff", "+a\n")
		require.Len(t, lines, 1)
		assert.Equal(t, "+a", joinText(lines[0]))
	})

	t.Run("empty and unsupported", func(t *testing.T) {
		t.Parallel()
		tokenizer, _ := newTokenizer(t)
		assert.Empty(t, tokenizer.TokenizeLines("diff", ""))
		assert.Nil(t, tokenizer.TokenizeLines("nonexistent-language-xyz", "x"))
	})
}
