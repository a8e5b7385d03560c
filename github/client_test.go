package github_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := github.NewClient("ghp_test", srv.Client(), github.WithBaseURL(srv.URL), github.WithPerPage(50))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprint(w, body)
}

func TestClient_ListRepositories(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		writeJSON(w, `[
  {"id": 1, "full_name": "octo/api", "description": "API server", "default_branch": "main", "language": "Go", "private": true, "updated_at": "2026-01-02T03:04:05Z"},
  {"id": 2, "full_name": "octo/web", "default_branch": "trunk", "language": "TypeScript"}
]`)
	})
	c := newClient(t, mux)
	assert.Equal(t, "github", c.Name())

	repos, err := c.ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, commitsplit.RemoteRepository{
		ID:            "octo/api",
		FullName:      "octo/api",
		Description:   "API server",
		DefaultBranch: "main",
		Language:      "Go",
		Private:       true,
		UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, repos[0])
	assert.Equal(t, "trunk", repos[1].DefaultBranch)
}

func TestClient_ListBranches(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/api/branches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"name": "main", "commit": {"sha": "abc123"}, "protected": true}, {"name": "dev", "commit": {"sha": "def456"}}]`)
	})
	c := newClient(t, mux)

	branches, err := c.ListBranches(context.Background(), "octo/api")
	require.NoError(t, err)
	assert.Equal(t, []commitsplit.Branch{
		{Name: "main", SHA: "abc123", Protected: true},
		{Name: "dev", SHA: "def456"},
	}, branches)
}

func TestClient_ListCommits(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/api/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dev", r.URL.Query().Get("sha"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		writeJSON(w, `[
  {"sha": "c2", "commit": {"message": "feat: add login\n\nbody", "author": {"name": "Ada", "date": "2026-02-01T00:00:00Z"}}},
  {"sha": "c1", "commit": {"message": "chore: init", "author": {"name": "Bob", "date": "2026-01-01T00:00:00Z"}}},
  {"sha": "c0", "commit": {"message": "extra"}}
]`)
	})
	c := newClient(t, mux)

	commits, err := c.ListCommits(context.Background(), "octo/api", "dev", 2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "c2", commits[0].SHA)
	assert.Equal(t, "feat: add login", commits[0].Title())
	assert.Equal(t, "Ada", commits[0].Author)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), commits[0].Date)
}

func TestClient_GetCommitDiffs(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/api/commits/aaa111", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{
  "sha": "aaa111",
  "commit": {"message": "feat: add handler"},
  "files": [
    {"filename": "api/handler.go", "status": "added", "additions": 2, "deletions": 0, "patch": "@@ -0,0 +1,2 @@\n+package api\n+"},
    {"filename": "logo.png", "status": "added", "additions": 0, "deletions": 0}
  ]
}`)
	})
	mux.HandleFunc("/repos/octo/api/commits/bbb222", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{
  "sha": "bbb222",
  "commit": {"message": "refactor: rename"},
  "files": [
    {"filename": "api/server.go", "previous_filename": "api/srv.go", "status": "renamed", "additions": 1, "deletions": 1, "patch": "@@ -1 +1 @@\n-package srv\n+package api"}
  ]
}`)
	})
	c := newClient(t, mux)

	diffs, err := c.GetCommitDiffs(context.Background(), "octo/api", []string{"aaa111", "bbb222"})
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	assert.Equal(t, "aaa111", diffs[0].SHA)
	assert.Equal(t, 2, diffs[0].Additions)
	require.Len(t, diffs[0].Files, 2)
	assert.Equal(t, commitsplit.StatusAdded, diffs[0].Files[0].Status)
	assert.True(t, diffs[0].Files[1].Binary)
	assert.Contains(t, diffs[0].Patch, "diff --git a/api/handler.go b/api/handler.go\nnew file mode 100644\n--- /dev/null\n+++ b/api/handler.go\n")

	assert.Equal(t, "refactor: rename", diffs[1].Message)
	require.Len(t, diffs[1].Files, 1)
	assert.Equal(t, commitsplit.FileChange{
		Path:      "api/server.go",
		OldPath:   "api/srv.go",
		Status:    commitsplit.StatusRenamed,
		Additions: 1,
		Deletions: 1,
	}, diffs[1].Files[0])
	assert.True(t, strings.HasPrefix(diffs[1].Patch, "diff --git a/api/srv.go b/api/server.go\n"))
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		header map[string]string
		target error
	}{
		{name: "bad credentials", status: http.StatusUnauthorized, target: commitsplit.ErrAuthentication},
		{name: "missing repository", status: http.StatusNotFound, target: commitsplit.ErrNotFound},
		{
			name:   "rate limited",
			status: http.StatusForbidden,
			header: map[string]string{
				"X-RateLimit-Limit":     "60",
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     fmt.Sprint(time.Now().Add(time.Hour).Unix()),
			},
			target: commitsplit.ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("/repos/octo/api/branches", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, `{"message": "API rate limit exceeded or Bad credentials or Not Found"}`)
			})
			c := newClient(t, mux)

			_, err := c.ListBranches(context.Background(), "octo/api")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestClient_InvalidRepository(t *testing.T) {
	t.Parallel()

	c := newClient(t, http.NewServeMux())
	for _, repo := range []string{"api", "/api", "octo/", "a/b/c"} {
		_, err := c.ListBranches(context.Background(), repo)
		assert.Error(t, err, repo)
	}
}

func TestNewClient_MissingToken(t *testing.T) {
	t.Parallel()

	_, err := github.NewClient("", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commitsplit.ErrAuthentication))
}
