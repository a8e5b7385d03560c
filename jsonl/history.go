// Package jsonl implements commitsplit.HistoryStore as a JSON Lines file.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ commitsplit.HistoryStore = (*HistoryStore)(nil)

// HistoryStore appends history entries to a file, one JSON object per line.
type HistoryStore struct {
	path string
	mu   sync.Mutex

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewHistoryStore returns a store backed by path. The file and its directory
// are created on first append.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path, Now: time.Now}
}

// Path returns the backing file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Append writes e as a new line. It fills in ID and Time when they are zero.
func (s *HistoryStore) Append(ctx context.Context, e commitsplit.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = s.Now().UTC()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode history entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create history directory")
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return errors.Wrap(err, "open history")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write history")
	}
	return errors.Wrap(f.Close(), "close history")
}

// Recent returns up to n entries, newest first. A missing file has no
// entries. A non-positive n returns every entry.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]commitsplit.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	entries, err := Load(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Load reads every entry of a history file in file order. Blank lines are
// skipped; a malformed line fails with its line number.
func Load(path string) ([]commitsplit.HistoryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}
	defer f.Close()

	// bufio.Reader has no line length limit, unlike bufio.Scanner.
	r := bufio.NewReader(f)
	var entries []commitsplit.HistoryEntry
	for lineNum := 1; ; lineNum++ {
		line, readErr := r.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, errors.Wrapf(readErr, "read %s: line %d", path, lineNum)
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var e commitsplit.HistoryEntry
			if err := json.Unmarshal([]byte(trimmed), &e); err != nil {
				return nil, errors.Wrapf(err, "parse %s: line %d", path, lineNum)
			}
			entries = append(entries, e)
		}
		if readErr == io.EOF {
			break
		}
	}
	return entries, nil
}
