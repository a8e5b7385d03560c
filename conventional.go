package commitsplit

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxHeaderLength is the longest header accepted by ParseMessage.
const MaxHeaderLength = 100

// GeneratedCommit is a commit message in conventional commit form.
type GeneratedCommit struct {
	Type        CommitType
	Scope       string
	Breaking    bool
	Description string
	Body        string
	Footer      string

	// FormattedMessage is the full rendered message.
	FormattedMessage string
}

// Header returns the first line of the message.
func (c *GeneratedCommit) Header() string {
	var b strings.Builder
	b.WriteString(c.Type.Name())
	if c.Scope != "" {
		b.WriteString("(" + c.Scope + ")")
	}
	if c.Breaking {
		b.WriteString("!")
	}
	b.WriteString(": ")
	b.WriteString(c.Description)
	return b.String()
}

// Format renders the message and stores it in FormattedMessage.
func (c *GeneratedCommit) Format() string {
	parts := []string{c.Header()}
	if body := strings.TrimSpace(c.Body); body != "" {
		parts = append(parts, body)
	}
	if footer := strings.TrimSpace(c.Footer); footer != "" {
		parts = append(parts, footer)
	}
	c.FormattedMessage = strings.Join(parts, "\n\n")
	return c.FormattedMessage
}

var headerPattern = regexp.MustCompile(`^([A-Za-z]+)(?:\(([^()\r\n]*)\))?(!)?:\s*(.*)$`)

// footerPattern matches git trailers and BREAKING CHANGE notes.
var footerPattern = regexp.MustCompile(`^(BREAKING[ -]CHANGE|[A-Za-z][A-Za-z-]*)(: | #)`)

// ParseMessage normalizes text and parses it as a conventional commit. It
// returns a HeaderError when the header does not follow the grammar
// type(scope): description.
func ParseMessage(text string) (*GeneratedCommit, error) {
	text = NormalizeMessage(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	header, rest, _ := strings.Cut(text, "\n")
	header = strings.TrimSpace(header)

	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return nil, &HeaderError{Header: header, Reason: "expected type(scope): description"}
	}
	t, ok := ParseCommitType(m[1])
	if !ok {
		return nil, &HeaderError{Header: header, Reason: "unknown type " + m[1]}
	}
	if strings.TrimSpace(m[4]) == "" {
		return nil, &HeaderError{Header: header, Reason: "missing description"}
	}
	if len(header) > MaxHeaderLength {
		return nil, &HeaderError{Header: header, Reason: "header too long"}
	}

	c := &GeneratedCommit{
		Type:        t,
		Scope:       strings.TrimSpace(m[2]),
		Breaking:    m[3] == "!",
		Description: strings.TrimSpace(m[4]),
	}
	c.Body, c.Footer = splitFooter(strings.TrimSpace(rest))
	if strings.HasPrefix(c.Footer, "BREAKING") {
		c.Breaking = true
	}
	c.Format()
	return c, nil
}

// splitFooter separates a trailing block of trailers from the body.
func splitFooter(rest string) (body, footer string) {
	if rest == "" {
		return "", ""
	}
	paragraphs := strings.Split(rest, "\n\n")
	last := paragraphs[len(paragraphs)-1]
	for _, line := range strings.Split(last, "\n") {
		if !footerPattern.MatchString(strings.TrimSpace(line)) && !strings.HasPrefix(line, " ") {
			return rest, ""
		}
	}
	body = strings.TrimSpace(strings.Join(paragraphs[:len(paragraphs)-1], "\n\n"))
	return body, strings.TrimSpace(last)
}

// NormalizeMessage cleans up text returned by a text generator: code fences,
// surrounding quotes, upper-case or misspelled types and a trailing period on
// the header are removed. Text that has no recognizable header is returned
// trimmed and otherwise unchanged.
func NormalizeMessage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = stripFences(strings.TrimSpace(text))
	text = stripQuotes(text)

	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return ""
	}
	lines[0] = normalizeHeader(strings.TrimSpace(lines[0]))
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripQuotes(text string) string {
	for _, q := range []string{`"`, "'", "`"} {
		if len(text) >= 2 && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	return text
}

// normalizeHeader rewrites the type of a header to its canonical name.
func normalizeHeader(header string) string {
	header = strings.TrimPrefix(header, "# ")
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return header
	}
	t, ok := normalizeCommitType(m[1])
	if !ok {
		return header
	}
	var b strings.Builder
	b.WriteString(t.Name())
	if scope := strings.TrimSpace(m[2]); scope != "" {
		b.WriteString("(" + scope + ")")
	}
	b.WriteString(m[3])
	b.WriteString(": ")
	b.WriteString(strings.TrimSuffix(strings.TrimSpace(m[4]), "."))
	return b.String()
}

// CoerceMessage turns arbitrary text into a conventional commit, using
// fallback as the type when the text has no valid header. The first line of
// the text becomes the description. A scope that leaves no room for the
// description is dropped. A known type without a description, or a result
// that still does not parse, is returned as a HeaderError.
func CoerceMessage(text string, fallback CommitType) (*GeneratedCommit, error) {
	if c, err := ParseMessage(text); err == nil {
		return c, nil
	}
	text = NormalizeMessage(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	header, rest, _ := strings.Cut(text, "\n")
	header = strings.TrimSpace(header)
	c := &GeneratedCommit{Type: fallback}
	if m := headerPattern.FindStringSubmatch(header); m != nil {
		t, known := ParseCommitType(m[1])
		description := strings.TrimSpace(m[4])
		switch {
		case known && description == "":
			return nil, &HeaderError{Header: header, Reason: "missing description"}
		case known:
			c.Type = t
			c.Scope = strings.TrimSpace(m[2])
			header = description
		case description != "":
			header = description
		}
	}

	room := MaxHeaderLength - len(c.Type.Name()) - len(": ")
	if c.Scope != "" && room-len(c.Scope)-len("()") < minDescriptionLength {
		c.Scope = ""
	}
	if c.Scope != "" {
		room -= len(c.Scope) + len("()")
	}
	c.Description = shortenDescription(strings.TrimSuffix(strings.TrimSpace(header), "."), room)
	c.Body, c.Footer = splitFooter(strings.TrimSpace(rest))
	if _, err := ParseMessage(c.Format()); err != nil {
		return nil, err
	}
	return c, nil
}

// minDescriptionLength is the room a scope must leave for the description.
const minDescriptionLength = 20

// shortenDescription cuts s at a word boundary so it fits in limit bytes.
// Without a space it cuts at the last rune boundary that fits.
func shortenDescription(s string, limit int) string {
	limit = max(limit, 1)
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndex(s[:limit], " ")
	if cut <= 0 {
		cut = limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return strings.TrimSpace(s[:cut])
}
