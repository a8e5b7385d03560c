// Package gitlab implements commitsplit.HostingPlatform on the GitLab REST API.
package gitlab

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gitdiff"
	"github.com/xanzy/go-gitlab"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compile-time interface verification.
var _ commitsplit.HostingPlatform = (*Client)(nil)

// Defaults.
const (
	DefaultURL     = "https://gitlab.com"
	DefaultPerPage = 30
)

// fetchConcurrency bounds concurrent commit requests.
const fetchConcurrency = 4

// Client is a GitLab API client. Projects are addressed by numeric id or by
// "group/name" path.
type Client struct {
	gl      *gitlab.Client
	perPage int
	logger  *zap.Logger
}

// Config holds the connection settings.
type Config struct {
	Token      string
	URL        string // Defaults to DefaultURL
	PerPage    int
	HTTPClient *http.Client
	NoRetries  bool
	Logger     *zap.Logger
}

// NewClient returns a client for the configured GitLab instance.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("gitlab: missing token"), commitsplit.ErrAuthentication),
			"set GITLAB_TOKEN to a personal access token with read_api scope",
		)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	opts := []gitlab.ClientOptionFunc{gitlab.WithBaseURL(cfg.URL)}
	if cfg.HTTPClient != nil {
		opts = append(opts, gitlab.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.NoRetries {
		opts = append(opts, gitlab.WithoutRetries())
	}
	gl, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "gitlab: create client for %s", cfg.URL)
	}
	return &Client{gl: gl, perPage: cfg.PerPage, logger: cfg.Logger}, nil
}

// Name returns the platform name.
func (c *Client) Name() string {
	return "gitlab"
}

// ListRepositories returns projects the user is a member of, most recently
// active first.
func (c *Client) ListRepositories(ctx context.Context) ([]commitsplit.RemoteRepository, error) {
	projects, _, err := c.gl.Projects.ListProjects(&gitlab.ListProjectsOptions{
		Membership:  gitlab.Ptr(true),
		OrderBy:     gitlab.Ptr("last_activity_at"),
		Sort:        gitlab.Ptr("desc"),
		ListOptions: gitlab.ListOptions{PerPage: c.perPage},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "list projects")
	}

	result := make([]commitsplit.RemoteRepository, 0, len(projects))
	for _, p := range projects {
		r := commitsplit.RemoteRepository{
			ID:            strconv.Itoa(p.ID),
			FullName:      p.PathWithNamespace,
			Description:   p.Description,
			DefaultBranch: p.DefaultBranch,
			Private:       p.Visibility != gitlab.PublicVisibility,
		}
		if p.LastActivityAt != nil {
			r.UpdatedAt = *p.LastActivityAt
		}
		result = append(result, r)
	}
	c.logger.Debug("listed projects", zap.Int("count", len(result)))
	return result, nil
}

// ListBranches returns the branches of a project.
func (c *Client) ListBranches(ctx context.Context, repo string) ([]commitsplit.Branch, error) {
	branches, _, err := c.gl.Branches.ListBranches(repo, &gitlab.ListBranchesOptions{
		ListOptions: gitlab.ListOptions{PerPage: c.perPage},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "list branches of "+repo)
	}

	result := make([]commitsplit.Branch, 0, len(branches))
	for _, b := range branches {
		br := commitsplit.Branch{Name: b.Name, Protected: b.Protected}
		if b.Commit != nil {
			br.SHA = b.Commit.ID
		}
		result = append(result, br)
	}
	return result, nil
}

// ListCommits returns up to limit commits of branch, newest first.
func (c *Client) ListCommits(ctx context.Context, repo, branch string, limit int) ([]commitsplit.RemoteCommit, error) {
	if limit <= 0 {
		limit = c.perPage
	}
	opts := &gitlab.ListCommitsOptions{ListOptions: gitlab.ListOptions{PerPage: limit}}
	if branch != "" {
		opts.RefName = gitlab.Ptr(branch)
	}
	commits, _, err := c.gl.Commits.ListCommits(repo, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "list commits of "+repo)
	}
	if len(commits) > limit {
		commits = commits[:limit]
	}

	result := make([]commitsplit.RemoteCommit, 0, len(commits))
	for _, gc := range commits {
		rc := commitsplit.RemoteCommit{SHA: gc.ID, Message: gc.Message, Author: gc.AuthorName}
		if gc.AuthoredDate != nil {
			rc.Date = *gc.AuthoredDate
		}
		result = append(result, rc)
	}
	return result, nil
}

// GetCommitDiffs fetches the given commits concurrently and returns their
// diffs in the order of shas. Line counts are taken from the patches.
func (c *Client) GetCommitDiffs(ctx context.Context, repo string, shas []string) ([]commitsplit.CommitDiff, error) {
	diffs := make([]commitsplit.CommitDiff, len(shas))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, sha := range shas {
		g.Go(func() error {
			files, _, err := c.gl.Commits.GetCommitDiff(repo, sha, &gitlab.GetCommitDiffOptions{
				ListOptions: gitlab.ListOptions{PerPage: 100},
			}, gitlab.WithContext(ctx))
			if err != nil {
				return wrap(err, "get diff of "+sha)
			}
			d, err := commitDiff(sha, files)
			if err != nil {
				return err
			}
			diffs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched commit diffs", zap.String("repo", repo), zap.Int("count", len(diffs)))
	return diffs, nil
}

func commitDiff(sha string, files []*gitlab.Diff) (commitsplit.CommitDiff, error) {
	var patch strings.Builder
	for _, f := range files {
		fc := commitsplit.FileChange{Path: f.NewPath, Status: commitsplit.StatusModified}
		switch {
		case f.NewFile:
			fc.Status = commitsplit.StatusAdded
		case f.DeletedFile:
			fc.Status = commitsplit.StatusDeleted
			fc.Path = f.OldPath
		case f.RenamedFile:
			fc.Status = commitsplit.StatusRenamed
			fc.OldPath = f.OldPath
		}
		patch.WriteString(gitdiff.FormatFilePatch(fc, f.Diff))
	}

	d := commitsplit.CommitDiff{SHA: sha, Patch: patch.String()}
	if d.Patch == "" {
		return d, nil
	}
	changes, err := gitdiff.NewParser().Extract(strings.NewReader(d.Patch))
	if err != nil {
		return d, errors.Wrapf(err, "gitlab: parse diff of %s", sha)
	}
	d.Files = changes.Files
	d.Additions = changes.TotalAdditions
	d.Deletions = changes.TotalDeletions
	return d, nil
}

// wrap marks API failures with the matching commitsplit sentinel.
func wrap(err error, op string) error {
	wrapped := errors.Wrapf(err, "gitlab: %s", op)
	var respErr *gitlab.ErrorResponse
	if !errors.As(err, &respErr) || respErr.Response == nil {
		return wrapped
	}
	switch respErr.Response.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrAuthentication), "check the GITLAB_TOKEN value and its scopes")
	case http.StatusTooManyRequests:
		return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrRateLimited), "wait for the rate limit to reset")
	case http.StatusNotFound:
		return errors.WithHint(errors.Mark(wrapped, commitsplit.ErrNotFound), "check the project path and commit hashes")
	}
	return wrapped
}
