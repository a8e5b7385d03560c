package commitsplit

import (
	"context"
	"time"
)

// HistoryEntry records one generated message.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Repository string    `json:"repository,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	Source     string    `json:"source"`
	Provider   string    `json:"provider"`
	Message    string    `json:"message"`
	SHA        string    `json:"sha,omitempty"` // Set when a commit was created
}

// Committed reports whether the message was used for a commit.
func (e HistoryEntry) Committed() bool {
	return e.SHA != ""
}

// HistoryStore persists generated messages.
type HistoryStore interface {
	// Append records an entry. It fills in ID and Time when they are zero.
	Append(ctx context.Context, e HistoryEntry) error

	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]HistoryEntry, error)
}
