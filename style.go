package commitsplit

// Color is a terminal color in "#rrggbb" form.
type Color string

// Palette is the set of colors used to render analyses and previews.
type Palette struct {
	Background Color
	Foreground Color
	Muted      Color // Secondary text and borders
	Accent     Color // Headings and selection
	Added      Color
	Deleted    Color
	Modified   Color
	Renamed    Color
	Warning    Color

	// Syntax colors.
	Keyword  Color
	String   Color
	Number   Color
	Comment  Color
	Operator Color
	Function Color
	Type     Color
}

// Style is the visual style of a token.
type Style struct {
	Foreground Color
	Bold       bool
}

// Token is a styled piece of text.
type Token struct {
	Text  string
	Style Style
}

// Tokenizer splits source text into styled tokens.
type Tokenizer interface {
	// Tokenize returns nil when the language is not supported.
	Tokenize(language, source string) []Token
}
