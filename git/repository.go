// Package git implements commitsplit.Repository for a local repository. The
// read side uses go-git; index and commit operations run the git binary so
// hooks and signing behave as they do on the command line.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"go.uber.org/zap"
)

// Compile-time interface verification.
var _ commitsplit.Repository = (*Repository)(nil)

// ErrNotRepository is returned by Open outside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Repository is a local git repository.
type Repository struct {
	repo   *gogit.Repository
	root   string
	logger *zap.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for git invocations.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// Open opens the repository containing path.
func Open(path string, opts ...Option) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, errors.WithHint(errors.Mark(errors.Wrapf(err, "open %s", path), ErrNotRepository),
			"run the command inside a git work tree or pass --repo")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "bare repositories are not supported")
	}

	r := &Repository{
		repo:   repo,
		root:   wt.Filesystem.Root(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the work tree root.
func (r *Repository) Root() string {
	return r.root
}

// Info returns the repository name, root and current branch. A detached HEAD
// reports the short commit hash as branch; an unborn branch reports its name.
func (r *Repository) Info(ctx context.Context) (commitsplit.RepositoryInfo, error) {
	info := commitsplit.RepositoryInfo{
		Name: filepath.Base(r.root),
		Root: r.root,
	}
	head, err := r.repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		ref, refErr := r.repo.Storer.Reference(plumbing.HEAD)
		if refErr == nil && ref.Type() == plumbing.SymbolicReference {
			info.Branch = ref.Target().Short()
		}
		return info, nil
	case err != nil:
		return info, errors.Wrap(err, "read HEAD")
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	} else {
		info.Branch = head.Hash().String()[:7]
	}
	return info, nil
}

// Diff returns the unified diff for a change source.
func (r *Repository) Diff(ctx context.Context, src commitsplit.ChangeSource) (string, error) {
	switch src.Kind {
	case commitsplit.SourceStaged:
		return r.run(ctx, nil, "diff", "--cached", "--no-color", "--no-ext-diff", "-M")
	case commitsplit.SourceUnstaged:
		return r.run(ctx, nil, "diff", "--no-color", "--no-ext-diff", "-M")
	case commitsplit.SourceAll:
		return r.run(ctx, nil, "diff", "HEAD", "--no-color", "--no-ext-diff", "-M")
	case commitsplit.SourceLastCommit:
		return r.commitPatch(ctx, "HEAD")
	case commitsplit.SourceCommit:
		return r.commitPatch(ctx, src.Rev)
	case commitsplit.SourceRange:
		return r.run(ctx, nil, "diff", "--no-color", "--no-ext-diff", "-M", src.Rev, src.To)
	}
	return "", errors.Newf("unknown change source %d", src.Kind)
}

// Listing returns numstat and name-status output for a change source.
func (r *Repository) Listing(ctx context.Context, src commitsplit.ChangeSource) (string, string, error) {
	args, err := r.diffArgs(ctx, src)
	if err != nil {
		return "", "", err
	}
	numstat, err := r.run(ctx, nil, append([]string{"diff", "--numstat", "-M"}, args...)...)
	if err != nil {
		return "", "", err
	}
	nameStatus, err := r.run(ctx, nil, append([]string{"diff", "--name-status", "-M"}, args...)...)
	if err != nil {
		return "", "", err
	}
	return numstat, nameStatus, nil
}

// diffArgs returns the revision arguments of `git diff` for a source.
func (r *Repository) diffArgs(ctx context.Context, src commitsplit.ChangeSource) ([]string, error) {
	switch src.Kind {
	case commitsplit.SourceStaged:
		return []string{"--cached"}, nil
	case commitsplit.SourceUnstaged:
		return nil, nil
	case commitsplit.SourceAll:
		return []string{"HEAD"}, nil
	case commitsplit.SourceRange:
		return []string{src.Rev, src.To}, nil
	case commitsplit.SourceLastCommit, commitsplit.SourceCommit:
		rev := src.Rev
		if src.Kind == commitsplit.SourceLastCommit {
			rev = "HEAD"
		}
		c, err := r.resolveCommit(rev)
		if err != nil {
			return nil, err
		}
		if c.NumParents() == 0 {
			return []string{emptyTree, c.Hash.String()}, nil
		}
		return []string{c.Hash.String() + "^", c.Hash.String()}, nil
	}
	return nil, errors.Newf("unknown change source %d", src.Kind)
}

// emptyTree is the hash of git's empty tree object.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// commitPatch renders the changes introduced by a commit with go-git.
func (r *Repository) commitPatch(ctx context.Context, rev string) (string, error) {
	c, err := r.resolveCommit(rev)
	if err != nil {
		return "", err
	}
	tree, err := c.Tree()
	if err != nil {
		return "", errors.Wrapf(err, "read tree of %s", c.Hash)
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return "", errors.Wrapf(err, "read parent of %s", c.Hash)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return "", errors.Wrapf(err, "read tree of %s", parent.Hash)
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", errors.Wrapf(err, "diff %s", c.Hash)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "patch %s", c.Hash)
	}
	r.logger.Debug("rendered commit patch", zap.String("commit", c.Hash.String()), zap.Int("files", len(changes)))
	return patch.String(), nil
}

func (r *Repository) resolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "resolve %s", rev), commitsplit.ErrNotFound),
			"check the commit hash with `git log --oneline`",
		)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrapf(err, "read commit %s", hash)
	}
	return c, nil
}

// Commit creates a commit from the index and reports it.
func (r *Repository) Commit(ctx context.Context, message string) (*commitsplit.CommitResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, commitsplit.ErrEmptyMessage
	}
	if _, err := r.run(ctx, strings.NewReader(message), "commit", "--file", "-", "--cleanup=strip"); err != nil {
		return nil, err
	}
	head, err := r.repo.Head()
	if err != nil {
		return nil, errors.Wrap(err, "read HEAD after commit")
	}
	c, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, errors.Wrap(err, "read new commit")
	}
	result := &commitsplit.CommitResult{
		SHA:     c.Hash.String(),
		Summary: strings.TrimSpace(strings.SplitN(c.Message, "\n", 2)[0]),
	}
	if head.Name().IsBranch() {
		result.Branch = head.Name().Short()
	}
	r.logger.Info("created commit", zap.String("sha", result.ShortSHA()), zap.String("branch", result.Branch))
	return result, nil
}

// UnstagedFiles returns tracked files with changes not in the index.
func (r *Repository) UnstagedFiles(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, nil, "diff", "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// UntrackedFiles returns files that are neither tracked nor ignored.
func (r *Repository) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, nil, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RecentMessages returns up to n messages reachable from HEAD, newest first.
// An unborn branch has no messages.
func (r *Repository) RecentMessages(ctx context.Context, n int) ([]string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read HEAD")
	}
	iter, err := r.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.Wrap(err, "read log")
	}
	defer iter.Close()

	var messages []string
	err = iter.ForEach(func(c *object.Commit) error {
		if len(messages) >= n {
			return storer.ErrStop
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		messages = append(messages, strings.TrimSpace(c.Message))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read log")
	}
	return messages, nil
}

// run executes git in the work tree and returns stdout.
func (r *Repository) run(ctx context.Context, stdin *strings.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running git", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", errors.Wrapf(err, "git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
