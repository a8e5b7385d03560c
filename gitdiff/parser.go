// Package gitdiff extracts changesets from git diff output using go-gitdiff.
package gitdiff

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
)

// Compile-time interface verification.
var _ commitsplit.Extractor = (*Parser)(nil)

// Parser extracts file changes from unified diffs.
type Parser struct{}

// NewParser creates a new go-gitdiff based parser.
func NewParser() *Parser {
	return &Parser{}
}

// Extract parses a unified diff. Whitespace-only input yields an empty
// changeset. Input that contains text but no file sections, or that go-gitdiff
// rejects, yields a *commitsplit.ParseError.
func (p *Parser) Extract(r io.Reader) (*commitsplit.StagedChanges, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read diff")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return commitsplit.NewStagedChanges(nil, string(raw)), nil
	}

	files, preamble, err := gitdiff.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, commitsplit.NewParseError(fragmentFor(raw, err), err)
	}
	if len(files) == 0 {
		return nil, commitsplit.NewParseError(strings.TrimSpace(preamble), nil)
	}

	changes := make([]commitsplit.FileChange, 0, len(files))
	for _, f := range files {
		changes = append(changes, convertFile(f))
	}
	return commitsplit.NewStagedChanges(changes, string(raw)), nil
}

// convertFile maps a go-gitdiff file to a FileChange. Renames stay a single
// entry and binary files count no lines.
func convertFile(f *gitdiff.File) commitsplit.FileChange {
	fc := commitsplit.FileChange{
		Path:   f.NewName,
		Status: commitsplit.StatusModified,
		Binary: f.IsBinary,
	}
	switch {
	case f.IsNew, f.IsCopy:
		fc.Status = commitsplit.StatusAdded
	case f.IsDelete:
		fc.Status = commitsplit.StatusDeleted
		fc.Path = f.OldName
	case f.IsRename:
		fc.Status = commitsplit.StatusRenamed
		fc.OldPath = f.OldName
	}
	if fc.Path == "" {
		fc.Path = f.OldName
	}
	if f.IsBinary {
		return fc
	}
	for _, frag := range f.TextFragments {
		fc.Additions += int(frag.LinesAdded)
		fc.Deletions += int(frag.LinesDeleted)
	}
	return fc
}

var errLine = regexp.MustCompile(`line (\d+)`)

// fragmentFor returns the input line a go-gitdiff error points at, or the
// start of the input when the error carries no line number.
func fragmentFor(raw []byte, err error) string {
	lines := strings.Split(string(raw), "\n")
	if m := errLine.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > 0 && n <= len(lines) {
			return lines[n-1]
		}
	}
	return string(raw)
}
