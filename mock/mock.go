// Package mock provides function-field implementations of commitsplit
// interfaces for tests.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/commitsplit"
)

var (
	_ commitsplit.Extractor     = (*Extractor)(nil)
	_ commitsplit.TextGenerator = (*TextGenerator)(nil)
	_ commitsplit.Approver      = (*Approver)(nil)
	_ commitsplit.HistoryStore  = (*HistoryStore)(nil)
	_ commitsplit.Tokenizer     = (*Tokenizer)(nil)
)

// Extractor is a mock of commitsplit.Extractor.
type Extractor struct {
	ExtractFn func(r io.Reader) (*commitsplit.StagedChanges, error)
}

func (m *Extractor) Extract(r io.Reader) (*commitsplit.StagedChanges, error) {
	return m.ExtractFn(r)
}

// TextGenerator is a mock of commitsplit.TextGenerator.
type TextGenerator struct {
	GenerateFn func(ctx context.Context, req commitsplit.GenerationRequest) (string, error)
}

func (m *TextGenerator) Generate(ctx context.Context, req commitsplit.GenerationRequest) (string, error) {
	return m.GenerateFn(ctx, req)
}

// Approver is a mock of commitsplit.Approver.
type Approver struct {
	ApproveFn      func(ctx context.Context, p commitsplit.Preview) (commitsplit.Decision, error)
	ConfirmSplitFn func(ctx context.Context, proposal *commitsplit.SplitProposal) (bool, error)
}

func (m *Approver) Approve(ctx context.Context, p commitsplit.Preview) (commitsplit.Decision, error) {
	return m.ApproveFn(ctx, p)
}

func (m *Approver) ConfirmSplit(ctx context.Context, proposal *commitsplit.SplitProposal) (bool, error) {
	return m.ConfirmSplitFn(ctx, proposal)
}

// HistoryStore is a mock of commitsplit.HistoryStore.
type HistoryStore struct {
	AppendFn func(ctx context.Context, e commitsplit.HistoryEntry) error
	RecentFn func(ctx context.Context, n int) ([]commitsplit.HistoryEntry, error)
}

func (m *HistoryStore) Append(ctx context.Context, e commitsplit.HistoryEntry) error {
	return m.AppendFn(ctx, e)
}

func (m *HistoryStore) Recent(ctx context.Context, n int) ([]commitsplit.HistoryEntry, error) {
	return m.RecentFn(ctx, n)
}

// Tokenizer is a mock of commitsplit.Tokenizer.
type Tokenizer struct {
	TokenizeFn func(language, source string) []commitsplit.Token
}

func (m *Tokenizer) Tokenize(language, source string) []commitsplit.Token {
	return m.TokenizeFn(language, source)
}
