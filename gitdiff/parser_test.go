package gitdiff_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gitdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modifiedDiff = `diff --git a/src/app.py b/src/app.py
index 1111111..2222222 100644
--- a/src/app.py
+++ b/src/app.py
@@ -1,3 +1,4 @@
 import os
-x = 1
+x = 2
+y = 3
 print(x)
`

const newFileDiff = `diff --git a/hello.go b/hello.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/hello.go
@@ -0,0 +1,3 @@
+package main
+
+func hello() {}
`

const deletedDiff = `diff --git a/old.txt b/old.txt
deleted file mode 100644
index 3333333..0000000
--- a/old.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-first
-second
`

const renameDiff = `diff --git a/pkg/a.go b/pkg/b.go
similarity index 90%
rename from pkg/a.go
rename to pkg/b.go
index 4444444..5555555 100644
--- a/pkg/a.go
+++ b/pkg/b.go
@@ -1,2 +1,2 @@
 package pkg
-var A = 1
+var B = 1
`

const pureRenameDiff = `diff --git a/x.go b/y.go
similarity index 100%
rename from x.go
rename to y.go
`

const binaryDiff = `diff --git a/logo.png b/logo.png
index 6666666..7777777 100644
Binary files a/logo.png and b/logo.png differ
`

func TestParser_Extract(t *testing.T) {
	t.Parallel()

	t.Run("modified file", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.NewParser().Extract(strings.NewReader(modifiedDiff))
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.Equal(t, commitsplit.FileChange{
			Path:      "src/app.py",
			Status:    commitsplit.StatusModified,
			Additions: 2,
			Deletions: 1,
		}, changes.Files[0])
		assert.Equal(t, modifiedDiff, changes.DiffContent)
	})

	t.Run("new file", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.NewParser().Extract(strings.NewReader(newFileDiff))
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.Equal(t, "hello.go", changes.Files[0].Path)
		assert.Equal(t, commitsplit.StatusAdded, changes.Files[0].Status)
		assert.Equal(t, 3, changes.Files[0].Additions)
	})

	t.Run("deleted file", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.NewParser().Extract(strings.NewReader(deletedDiff))
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.Equal(t, "old.txt", changes.Files[0].Path)
		assert.Equal(t, commitsplit.StatusDeleted, changes.Files[0].Status)
		assert.Equal(t, 2, changes.Files[0].Deletions)
	})

	t.Run("rename is a single entry", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.NewParser().Extract(strings.NewReader(renameDiff))
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.Equal(t, commitsplit.FileChange{
			Path:      "pkg/b.go",
			OldPath:   "pkg/a.go",
			Status:    commitsplit.StatusRenamed,
			Additions: 1,
			Deletions: 1,
		}, changes.Files[0])
	})

	t.Run("pure rename has no lines", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.NewParser().Extract(strings.NewReader(pureRenameDiff))
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.Equal(t, commitsplit.StatusRenamed, changes.Files[0].Status)
		assert.Equal(t, 0, changes.Files[0].Lines())
	})

	t.Run("binary file counts zero lines", func(t *testing.T) {
		t.Parallel()

		changes, err := gitdiff.NewParser().Extract(strings.NewReader(binaryDiff))
		require.NoError(t, err)

		require.Len(t, changes.Files, 1)
		assert.True(t, changes.Files[0].Binary)
		assert.Equal(t, 0, changes.Files[0].Additions)
		assert.Equal(t, 0, changes.Files[0].Deletions)
	})

	t.Run("keeps diff order and totals", func(t *testing.T) {
		t.Parallel()

		input := modifiedDiff + newFileDiff + deletedDiff + renameDiff + binaryDiff
		changes, err := gitdiff.NewParser().Extract(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, []string{"src/app.py", "hello.go", "old.txt", "pkg/b.go", "logo.png"}, changes.Paths())
		assert.Equal(t, 2+3+1, changes.TotalAdditions)
		assert.Equal(t, 1+2+1, changes.TotalDeletions)
	})

	t.Run("empty input is an empty changeset", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"", "\n  \n"} {
			changes, err := gitdiff.NewParser().Extract(strings.NewReader(input))
			require.NoError(t, err)
			assert.True(t, changes.IsEmpty())
		}
	})

	t.Run("text without file sections", func(t *testing.T) {
		t.Parallel()

		_, err := gitdiff.NewParser().Extract(strings.NewReader("hello world\nnot a diff\n"))

		var parseErr *commitsplit.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "hello world\nnot a diff", parseErr.Fragment)
	})

	t.Run("miscounted hunk", func(t *testing.T) {
		t.Parallel()

		input := `diff --git a/a.go b/a.go
index 1111111..2222222 100644
--- a/a.go
+++ b/a.go
@@ -1,5 +1,5 @@
 package a
`
		_, err := gitdiff.NewParser().Extract(strings.NewReader(input))

		var parseErr *commitsplit.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.NotEmpty(t, parseErr.Fragment)
	})
}
