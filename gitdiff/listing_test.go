package gitdiff_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gitdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListing(t *testing.T) {
	t.Parallel()

	t.Run("joins numstat and name-status", func(t *testing.T) {
		t.Parallel()

		numstat := "5\t1\tsrc/app.py\n12\t0\tsrc/new.py\n0\t7\tdocs/old.md\n2\t2\tpkg/{a => b}/x.go\n-\t-\tlogo.png\n"
		nameStatus := "M\tsrc/app.py\nA\tsrc/new.py\nD\tdocs/old.md\nR087\tpkg/a/x.go\tpkg/b/x.go\nM\tlogo.png\n"

		changes, err := gitdiff.ParseListing(numstat, nameStatus)
		require.NoError(t, err)

		assert.Equal(t, []commitsplit.FileChange{
			{Path: "src/app.py", Status: commitsplit.StatusModified, Additions: 5, Deletions: 1},
			{Path: "src/new.py", Status: commitsplit.StatusAdded, Additions: 12},
			{Path: "docs/old.md", Status: commitsplit.StatusDeleted, Deletions: 7},
			{Path: "pkg/b/x.go", OldPath: "pkg/a/x.go", Status: commitsplit.StatusRenamed, Additions: 2, Deletions: 2},
			{Path: "logo.png", Status: commitsplit.StatusModified, Binary: true},
		}, changes.Files)
		assert.Equal(t, 19, changes.TotalAdditions)
		assert.Equal(t, 10, changes.TotalDeletions)
	})

	t.Run("plain rename arrow", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.ParseListing("1\t1\told.go => new.go\n", "R100\told.go\tnew.go\n")
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.Equal(t, "new.go", changes.Files[0].Path)
		assert.Equal(t, 2, changes.Files[0].Lines())
	})

	t.Run("numstat only", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.ParseListing("3\t1\ta.go\n1\t0\tb.go\n", "")
		require.NoError(t, err)

		assert.Equal(t, []string{"a.go", "b.go"}, changes.Paths())
		assert.Equal(t, commitsplit.StatusModified, changes.Files[1].Status)
	})

	t.Run("numstat paths missing from name-status are kept", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.ParseListing("3\t1\ta.go\n4\t0\tb.go\n", "A\ta.go\n")
		require.NoError(t, err)

		assert.Equal(t, []commitsplit.FileChange{
			{Path: "a.go", Status: commitsplit.StatusAdded, Additions: 3, Deletions: 1},
			{Path: "b.go", Status: commitsplit.StatusModified, Additions: 4},
		}, changes.Files)
		assert.Equal(t, 7, changes.TotalAdditions)
	})

	t.Run("empty listing", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.ParseListing("", "")
		require.NoError(t, err)
		assert.True(t, changes.IsEmpty())
	})

	t.Run("malformed lines", func(t *testing.T) {
		t.Parallel()

		tests := []struct{ numstat, nameStatus string }{
			{"five\t1\ta.go", ""},
			{"1 1 a.go", ""},
			{"", "M a.go"},
		}
		for _, tt := range tests {
			_, err := gitdiff.ParseListing(tt.numstat, tt.nameStatus)
			var parseErr *commitsplit.ParseError
			assert.True(t, errors.As(err, &parseErr), "%q %q", tt.numstat, tt.nameStatus)
		}
	})
}
