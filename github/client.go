// Package github implements commitsplit.HostingPlatform on the GitHub REST API.
package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gitdiff"
	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compile-time interface verification.
var _ commitsplit.HostingPlatform = (*Client)(nil)

// DefaultPerPage is the page size for list calls.
const DefaultPerPage = 30

// fetchConcurrency bounds concurrent commit requests.
const fetchConcurrency = 4

// Client is a GitHub API client.
type Client struct {
	gh      *github.Client
	perPage int
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return errors.Wrapf(err, "parse base URL %q", raw)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithPerPage sets the page size for list calls.
func WithPerPage(n int) Option {
	return func(c *Client) error {
		if n > 0 {
			c.perPage = n
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// NewClient returns a client authenticated with token.
func NewClient(token string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("github: missing token"), commitsplit.ErrAuthentication),
			"set GITHUB_TOKEN to a personal access token with repo scope",
		)
	}
	c := &Client{
		gh:      github.NewClient(httpClient).WithAuthToken(token),
		perPage: DefaultPerPage,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Name returns the platform name.
func (c *Client) Name() string {
	return "github"
}

// ListRepositories returns the authenticated user's repositories, most
// recently updated first.
func (c *Client) ListRepositories(ctx context.Context) ([]commitsplit.RemoteRepository, error) {
	repos, _, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: c.perPage},
	})
	if err != nil {
		return nil, wrap(err, "list repositories")
	}

	result := make([]commitsplit.RemoteRepository, 0, len(repos))
	for _, r := range repos {
		result = append(result, commitsplit.RemoteRepository{
			ID:            r.GetFullName(),
			FullName:      r.GetFullName(),
			Description:   r.GetDescription(),
			DefaultBranch: r.GetDefaultBranch(),
			Language:      r.GetLanguage(),
			Private:       r.GetPrivate(),
			UpdatedAt:     r.GetUpdatedAt().Time,
		})
	}
	c.logger.Debug("listed repositories", zap.Int("count", len(result)))
	return result, nil
}

// ListBranches returns the branches of repo ("owner/name").
func (c *Client) ListBranches(ctx context.Context, repo string) ([]commitsplit.Branch, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	branches, _, err := c.gh.Repositories.ListBranches(ctx, owner, name, &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: c.perPage},
	})
	if err != nil {
		return nil, wrap(err, "list branches of "+repo)
	}

	result := make([]commitsplit.Branch, 0, len(branches))
	for _, b := range branches {
		result = append(result, commitsplit.Branch{
			Name:      b.GetName(),
			SHA:       b.GetCommit().GetSHA(),
			Protected: b.GetProtected(),
		})
	}
	return result, nil
}

// ListCommits returns up to limit commits of branch, newest first.
func (c *Client) ListCommits(ctx context.Context, repo, branch string, limit int) ([]commitsplit.RemoteCommit, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.perPage
	}
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, wrap(err, "list commits of "+repo)
	}
	if len(commits) > limit {
		commits = commits[:limit]
	}

	result := make([]commitsplit.RemoteCommit, 0, len(commits))
	for _, rc := range commits {
		result = append(result, commitsplit.RemoteCommit{
			SHA:     rc.GetSHA(),
			Message: rc.GetCommit().GetMessage(),
			Author:  rc.GetCommit().GetAuthor().GetName(),
			Date:    rc.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return result, nil
}

// GetCommitDiffs fetches the given commits concurrently and returns their
// diffs in the order of shas.
func (c *Client) GetCommitDiffs(ctx context.Context, repo string, shas []string) ([]commitsplit.CommitDiff, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	diffs := make([]commitsplit.CommitDiff, len(shas))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, sha := range shas {
		g.Go(func() error {
			rc, _, err := c.gh.Repositories.GetCommit(ctx, owner, name, sha, nil)
			if err != nil {
				return wrap(err, "get commit "+sha)
			}
			diffs[i] = commitDiff(rc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched commit diffs", zap.String("repo", repo), zap.Int("count", len(diffs)))
	return diffs, nil
}

func commitDiff(rc *github.RepositoryCommit) commitsplit.CommitDiff {
	d := commitsplit.CommitDiff{
		SHA:     rc.GetSHA(),
		Message: rc.GetCommit().GetMessage(),
	}
	var patch strings.Builder
	for _, f := range rc.Files {
		fc := commitsplit.FileChange{
			Path:      f.GetFilename(),
			Status:    commitsplit.ParseFileStatus(f.GetStatus()),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		}
		if fc.Status == commitsplit.StatusRenamed {
			fc.OldPath = f.GetPreviousFilename()
		}
		// GitHub omits the patch for binary and very large files.
		if f.Patch == nil && fc.Additions == 0 && fc.Deletions == 0 && fc.Status != commitsplit.StatusRenamed {
			fc.Binary = true
		}
		d.Files = append(d.Files, fc)
		d.Additions += fc.Additions
		d.Deletions += fc.Deletions
		patch.WriteString(gitdiff.FormatFilePatch(fc, f.GetPatch()))
	}
	d.Patch = patch.String()
	return d
}

func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", errors.WithHint(errors.Newf("invalid repository %q", repo), "use the owner/name form")
	}
	return owner, name, nil
}

// wrap marks API failures with the matching commitsplit sentinel.
func wrap(err error, op string) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse

	wrapped := errors.Wrapf(err, "github: %s", op)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrRateLimited), "wait for the rate limit to reset")
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrAuthentication), "check the GITHUB_TOKEN value")
		case http.StatusForbidden:
			return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrAuthentication), "the token lacks access to this repository")
		case http.StatusNotFound:
			return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrNotFound), "check the repository name and commit hashes")
		}
	}
	return wrapped
}
