package mock

import (
	"context"

	"github.com/fwojciec/commitsplit"
)

var _ commitsplit.Repository = (*Repository)(nil)

// Repository is a mock of commitsplit.Repository.
type Repository struct {
	InfoFn           func(ctx context.Context) (commitsplit.RepositoryInfo, error)
	DiffFn           func(ctx context.Context, src commitsplit.ChangeSource) (string, error)
	ListingFn        func(ctx context.Context, src commitsplit.ChangeSource) (string, string, error)
	CommitFn         func(ctx context.Context, message string) (*commitsplit.CommitResult, error)
	UnstagedFilesFn  func(ctx context.Context) ([]string, error)
	UntrackedFilesFn func(ctx context.Context) ([]string, error)
	RecentMessagesFn func(ctx context.Context, n int) ([]string, error)
}

func (m *Repository) Info(ctx context.Context) (commitsplit.RepositoryInfo, error) {
	return m.InfoFn(ctx)
}

func (m *Repository) Diff(ctx context.Context, src commitsplit.ChangeSource) (string, error) {
	return m.DiffFn(ctx, src)
}

func (m *Repository) Listing(ctx context.Context, src commitsplit.ChangeSource) (string, string, error) {
	return m.ListingFn(ctx, src)
}

func (m *Repository) Commit(ctx context.Context, message string) (*commitsplit.CommitResult, error) {
	return m.CommitFn(ctx, message)
}

func (m *Repository) UnstagedFiles(ctx context.Context) ([]string, error) {
	return m.UnstagedFilesFn(ctx)
}

func (m *Repository) UntrackedFiles(ctx context.Context) ([]string, error) {
	return m.UntrackedFilesFn(ctx)
}

func (m *Repository) RecentMessages(ctx context.Context, n int) ([]string, error) {
	return m.RecentMessagesFn(ctx, n)
}

var _ commitsplit.HostingPlatform = (*HostingPlatform)(nil)

// HostingPlatform is a mock of commitsplit.HostingPlatform.
type HostingPlatform struct {
	NameFn             func() string
	ListRepositoriesFn func(ctx context.Context) ([]commitsplit.RemoteRepository, error)
	ListBranchesFn     func(ctx context.Context, repo string) ([]commitsplit.Branch, error)
	ListCommitsFn      func(ctx context.Context, repo, branch string, limit int) ([]commitsplit.RemoteCommit, error)
	GetCommitDiffsFn   func(ctx context.Context, repo string, shas []string) ([]commitsplit.CommitDiff, error)
}

func (m *HostingPlatform) Name() string {
	return m.NameFn()
}

func (m *HostingPlatform) ListRepositories(ctx context.Context) ([]commitsplit.RemoteRepository, error) {
	return m.ListRepositoriesFn(ctx)
}

func (m *HostingPlatform) ListBranches(ctx context.Context, repo string) ([]commitsplit.Branch, error) {
	return m.ListBranchesFn(ctx, repo)
}

func (m *HostingPlatform) ListCommits(ctx context.Context, repo, branch string, limit int) ([]commitsplit.RemoteCommit, error) {
	return m.ListCommitsFn(ctx, repo, branch, limit)
}

func (m *HostingPlatform) GetCommitDiffs(ctx context.Context, repo string, shas []string) ([]commitsplit.CommitDiff, error) {
	return m.GetCommitDiffsFn(ctx, repo, shas)
}
