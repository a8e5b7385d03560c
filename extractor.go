package commitsplit

import "io"

// Extractor turns raw diff content into a changeset.
type Extractor interface {
	// Extract reads a unified diff and returns its file changes in diff
	// order. An empty diff yields an empty changeset, not an error.
	Extract(r io.Reader) (*StagedChanges, error)
}
