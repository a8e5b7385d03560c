package jsonl_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/jsonl"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads valid JSONL file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "history.jsonl")
		content := `{"id":"a","time":"2026-01-01T10:00:00Z","source":"staged","provider":"openai","message":"feat: add login"}
{"id":"b","time":"2026-01-02T10:00:00Z","source":"last","provider":"gemini","message":"fix: guard nil","sha":"abc1234"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := jsonl.Load(path)

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "a", entries[0].ID)
		assert.Equal(t, "feat: add login", entries[0].Message)
		assert.False(t, entries[0].Committed())
		assert.Equal(t, "gemini", entries[1].Provider)
		assert.True(t, entries[1].Committed())
		assert.Equal(t, time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), entries[1].Time)
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := jsonl.Load("/nonexistent/path.jsonl")

		assert.Error(t, err)
	})

	t.Run("returns error for malformed JSON line", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "bad.jsonl")
		content := `{"id":"a","message":"feat: x"}
not valid json
{"id":"b","message":"fix: y"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := jsonl.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("handles empty file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "empty.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

		entries, err := jsonl.Load(path)

		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("skips empty lines", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "with-blanks.jsonl")
		content := "{\"id\":\"a\",\"message\":\"feat: x\"}\n\n   \n{\"id\":\"b\",\"message\":\"fix: y\"}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := jsonl.Load(path)

		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("handles large lines exceeding default buffer", func(t *testing.T) {
		t.Parallel()

		// Larger than bufio.Scanner's 64KB default
		largeBody := strings.Repeat("x", 100*1024)
		dir := t.TempDir()
		path := filepath.Join(dir, "large.jsonl")
		content := `{"id":"a","message":"feat: big\n\n` + largeBody + `"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		entries, err := jsonl.Load(path)

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].Message, len("feat: big\n\n")+len(largeBody))
	})
}

func TestHistoryStore_AppendAndRecent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	store := jsonl.NewHistoryStore(path)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	for _, msg := range []string{"chore: one", "feat: two", "fix: three"} {
		require.NoError(t, store.Append(ctx, commitsplit.HistoryEntry{Source: "staged", Provider: "offline", Message: msg}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "fix: three", entries[0].Message)
	assert.Equal(t, "feat: two", entries[1].Message)
	assert.Equal(t, base.Add(3*time.Minute), entries[0].Time)
	_, err = uuid.Parse(entries[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, path, store.Path())
}

func TestHistoryStore_KeepsGivenIDAndTime(t *testing.T) {
	t.Parallel()

	store := jsonl.NewHistoryStore(filepath.Join(t.TempDir(), "history.jsonl"))
	when := time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(context.Background(), commitsplit.HistoryEntry{ID: "fixed", Time: when, Message: "docs: x"}))

	entries, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fixed", entries[0].ID)
	assert.Equal(t, when, entries[0].Time)
}

func TestHistoryStore_MissingFile(t *testing.T) {
	t.Parallel()

	store := jsonl.NewHistoryStore(filepath.Join(t.TempDir(), "none.jsonl"))
	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryStore_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	store := jsonl.NewHistoryStore(filepath.Join(t.TempDir(), "history.jsonl"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, commitsplit.HistoryEntry{Message: "chore: concurrent"}))
		}()
	}
	wg.Wait()

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
