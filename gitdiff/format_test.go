package gitdiff_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gitdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFilePatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		file  commitsplit.FileChange
		hunks string
		want  commitsplit.FileChange
	}{
		{
			name:  "modified",
			file:  commitsplit.FileChange{Path: "src/app.go", Status: commitsplit.StatusModified},
			hunks: "@@ -1,2 +1,2 @@\n package app\n-var x = 1\n+var x = 2\n",
			want:  commitsplit.FileChange{Path: "src/app.go", Status: commitsplit.StatusModified, Additions: 1, Deletions: 1},
		},
		{
			name:  "added",
			file:  commitsplit.FileChange{Path: "hello.go", Status: commitsplit.StatusAdded},
			hunks: "@@ -0,0 +1,2 @@\n+package main\n+\n",
			want:  commitsplit.FileChange{Path: "hello.go", Status: commitsplit.StatusAdded, Additions: 2},
		},
		{
			name:  "deleted",
			file:  commitsplit.FileChange{Path: "old.txt", Status: commitsplit.StatusDeleted},
			hunks: "@@ -1 +0,0 @@\n-gone\n",
			want:  commitsplit.FileChange{Path: "old.txt", Status: commitsplit.StatusDeleted, Deletions: 1},
		},
		{
			name:  "renamed",
			file:  commitsplit.FileChange{Path: "pkg/b.go", OldPath: "pkg/a.go", Status: commitsplit.StatusRenamed},
			hunks: "@@ -1,2 +1,2 @@\n package pkg\n-var A = 1\n+var B = 1\n",
			want:  commitsplit.FileChange{Path: "pkg/b.go", OldPath: "pkg/a.go", Status: commitsplit.StatusRenamed, Additions: 1, Deletions: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			patch := gitdiff.FormatFilePatch(tt.file, tt.hunks)
			assert.True(t, strings.HasPrefix(patch, "diff --git "))

			changes, err := gitdiff.NewParser().Extract(strings.NewReader(patch))
			require.NoError(t, err)
			require.Len(t, changes.Files, 1)
			assert.Equal(t, tt.want, changes.Files[0])
		})
	}
}

func TestFormatFilePatch_WithoutHunks(t *testing.T) {
	t.Parallel()

	patch := gitdiff.FormatFilePatch(commitsplit.FileChange{Path: "logo.png", Status: commitsplit.StatusAdded, Binary: true}, "")
	assert.Equal(t, "diff --git a/logo.png b/logo.png\nnew file mode 100644\nBinary files /dev/null and b/logo.png differ\n", patch)

	patch = gitdiff.FormatFilePatch(commitsplit.FileChange{Path: "b.go", OldPath: "a.go", Status: commitsplit.StatusRenamed}, "")
	assert.Equal(t, "diff --git a/a.go b/b.go\nrename from a.go\nrename to b.go\n", patch)
}
