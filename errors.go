package commitsplit

import (
	"fmt"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Input errors.
var (
	// ErrEmptyChangeset is returned when an analysis is requested for a
	// changeset without files.
	ErrEmptyChangeset = errors.New("changeset contains no files")

	// ErrNoChanges is returned by callers that found nothing to analyze for
	// the requested change source.
	ErrNoChanges = errors.New("no changes found")
)

// Collaborator error markers. Collaborator packages mark their own errors with
// these so callers can use errors.Is without depending on provider types.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrNotFound       = errors.New("not found")
)

// Orchestrator errors.
var (
	// ErrEmptyMessage is returned when a text generator produced no text.
	ErrEmptyMessage = errors.New("generator returned an empty message")
)

// ParseError reports structurally invalid diff or listing input.
type ParseError struct {
	// Fragment is the offending piece of input, shortened for display.
	Fragment string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse diff: %v: %q", e.Err, e.Fragment)
	}
	return fmt.Sprintf("parse diff: unrecognized input: %q", e.Fragment)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a ParseError, trimming the fragment to a readable size.
func NewParseError(fragment string, err error) *ParseError {
	const maxFragment = 120
	if len(fragment) > maxFragment {
		cut := maxFragment
		for cut > 0 && !utf8.RuneStart(fragment[cut]) {
			cut--
		}
		fragment = fragment[:cut] + "..."
	}
	return &ParseError{Fragment: fragment, Err: err}
}

// ConfigError reports an invalid configuration value. It is returned before
// any analysis runs.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// HeaderError reports a commit message whose header does not follow the
// conventional commit grammar.
type HeaderError struct {
	Header string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid commit header %q: %s", e.Header, e.Reason)
}
