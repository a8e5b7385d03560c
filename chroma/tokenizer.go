// Package chroma provides syntax highlighting using the chroma library.
package chroma

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
)

// Compile-time interface verification.
var _ commitsplit.Tokenizer = (*Tokenizer)(nil)

// StyleFunc maps a chroma token type to a visual style.
type StyleFunc func(chroma.TokenType) commitsplit.Style

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct {
	style StyleFunc
}

// NewTokenizer creates a tokenizer that styles tokens with style.
func NewTokenizer(style StyleFunc) (*Tokenizer, error) {
	if style == nil {
		return nil, errors.New("chroma: style function is required")
	}
	return &Tokenizer{style: style}, nil
}

// Tokenize splits source into styled tokens for the given language.
// Returns nil if the language is not supported or an error occurs.
// Returns an empty slice for empty source.
func (t *Tokenizer) Tokenize(language, source string) []commitsplit.Token {
	if source == "" {
		return []commitsplit.Token{}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}

	// Coalesce consecutive tokens of the same type
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var tokens []commitsplit.Token
	for token := iterator(); token != chroma.EOF; token = iterator() {
		tokens = append(tokens, commitsplit.Token{
			Text:  token.Value,
			Style: t.style(token.Type),
		})
	}
	return tokens
}

// TokenizeLines tokenizes source as a whole and splits the result into one
// token slice per line, so constructs spanning lines keep their style.
// Newlines are not included in the tokens.
func (t *Tokenizer) TokenizeLines(language, source string) [][]commitsplit.Token {
	if source == "" {
		return [][]commitsplit.Token{}
	}
	tokens := t.Tokenize(language, source)
	if tokens == nil {
		return nil
	}

	lines := [][]commitsplit.Token{nil}
	for _, tok := range tokens {
		parts := strings.Split(tok.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, nil)
			}
			if part != "" {
				last := len(lines) - 1
				lines[last] = append(lines[last], commitsplit.Token{Text: part, Style: tok.Style})
			}
		}
	}
	// A trailing newline does not start a line.
	if strings.HasSuffix(source, "\n") && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// StyleFromPalette returns a StyleFunc that colors tokens with the syntax
// and diff colors of palette.
func StyleFromPalette(p commitsplit.Palette) StyleFunc {
	return func(tt chroma.TokenType) commitsplit.Style {
		// Diff lexer tokens.
		switch tt {
		case chroma.GenericInserted:
			return commitsplit.Style{Foreground: p.Added}
		case chroma.GenericDeleted:
			return commitsplit.Style{Foreground: p.Deleted}
		case chroma.GenericHeading:
			return commitsplit.Style{Foreground: p.Accent, Bold: true}
		case chroma.GenericSubheading:
			return commitsplit.Style{Foreground: p.Muted}
		}

		switch {
		case tt.InCategory(chroma.Keyword):
			return commitsplit.Style{Foreground: p.Keyword, Bold: true}
		case tt.InCategory(chroma.Comment):
			return commitsplit.Style{Foreground: p.Comment}
		case tt.InSubCategory(chroma.LiteralString):
			return commitsplit.Style{Foreground: p.String}
		case tt.InSubCategory(chroma.LiteralNumber):
			return commitsplit.Style{Foreground: p.Number}
		case tt.InCategory(chroma.Operator):
			return commitsplit.Style{Foreground: p.Operator}
		case tt == chroma.NameFunction || tt == chroma.NameFunctionMagic:
			return commitsplit.Style{Foreground: p.Function}
		case tt == chroma.NameBuiltin || tt == chroma.NameBuiltinPseudo || tt == chroma.NameClass:
			return commitsplit.Style{Foreground: p.Type}
		case tt.InCategory(chroma.Name):
			return commitsplit.Style{Foreground: p.Foreground}
		default:
			return commitsplit.Style{}
		}
	}
}
