package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/gitdiff"
	dv "github.com/fwojciec/commitsplit/lipgloss"
	"go.uber.org/zap"
)

// errCancelled ends a flow the user cancelled.
var errCancelled = errors.New("cancelled by user")

// App runs the git-commit-ai flows against its collaborators.
type App struct {
	Repository commitsplit.Repository
	Extractor  commitsplit.Extractor
	Generator  commitsplit.TextGenerator // Nil renders offline messages
	Approver   commitsplit.Approver
	History    commitsplit.HistoryStore // Nil disables history
	Platform   commitsplit.HostingPlatform
	Renderer   *dv.Renderer
	Output     io.Writer
	Logger     *zap.Logger

	Provider        string
	Split           commitsplit.SplitConfig
	Weights         commitsplit.MetricsWeights
	DiffLimit       int
	Concurrency     int
	ContextMessages int
}

// Analysis is the offline analysis of a changeset.
type Analysis struct {
	Source   commitsplit.ChangeSource
	Changes  *commitsplit.StagedChanges
	Metrics  commitsplit.ChangeMetrics
	Proposal *commitsplit.SplitProposal
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *App) out() io.Writer {
	if a.Output == nil {
		return os.Stdout
	}
	return a.Output
}

func (a *App) renderer() *dv.Renderer {
	if a.Renderer == nil {
		a.Renderer = dv.NewRenderer(nil)
	}
	return a.Renderer
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out(), s)
}

func (a *App) splitConfig() commitsplit.SplitConfig {
	if a.Split == (commitsplit.SplitConfig{}) {
		return commitsplit.DefaultSplitConfig()
	}
	return a.Split
}

func (a *App) weights() commitsplit.MetricsWeights {
	if a.Weights == (commitsplit.MetricsWeights{}) {
		return commitsplit.DefaultMetricsWeights()
	}
	return a.Weights
}

func (a *App) provider() string {
	if a.Generator == nil {
		return "offline"
	}
	return a.Provider
}

// Changes returns the changeset of a change source. With listing set the
// changeset is built from --numstat and --name-status output and carries no
// diff. It fails with commitsplit.ErrNoChanges when the source is empty.
func (a *App) Changes(ctx context.Context, src commitsplit.ChangeSource, listing bool) (*commitsplit.StagedChanges, error) {
	var changes *commitsplit.StagedChanges
	if listing {
		numstat, nameStatus, err := a.Repository.Listing(ctx, src)
		if err != nil {
			return nil, err
		}
		if changes, err = gitdiff.ParseListing(numstat, nameStatus); err != nil {
			return nil, err
		}
	} else {
		diff, err := a.Repository.Diff(ctx, src)
		if err != nil {
			return nil, err
		}
		if changes, err = a.Extractor.Extract(strings.NewReader(diff)); err != nil {
			return nil, err
		}
	}
	if changes.IsEmpty() {
		return nil, commitsplit.ErrNoChanges
	}
	a.logger().Debug("loaded changes",
		zap.Stringer("source", src),
		zap.Int("files", len(changes.Files)),
		zap.Int("additions", changes.TotalAdditions),
		zap.Int("deletions", changes.TotalDeletions),
	)
	return changes, nil
}

// Analyze computes metrics and a split proposal without generating
// messages.
func (a *App) Analyze(ctx context.Context, src commitsplit.ChangeSource, listing bool) (*Analysis, error) {
	changes, err := a.Changes(ctx, src, listing)
	if err != nil {
		return nil, err
	}
	return a.analyze(src, changes)
}

func (a *App) analyze(src commitsplit.ChangeSource, changes *commitsplit.StagedChanges) (*Analysis, error) {
	calc, err := commitsplit.NewMetricsCalculator(a.weights())
	if err != nil {
		return nil, err
	}
	splitter, err := commitsplit.NewSplitter(a.splitConfig())
	if err != nil {
		return nil, err
	}
	metrics := calc.Compute(changes)
	proposal, err := splitter.Analyze(changes, metrics)
	if err != nil {
		return nil, err
	}
	a.logger().Debug("analyzed changes",
		zap.Float64("complexity", metrics.ComplexityScore),
		zap.Bool("split", proposal.ShouldSplit),
		zap.Int("groups", len(proposal.Groups)),
	)
	return &Analysis{Source: src, Changes: changes, Metrics: metrics, Proposal: proposal}, nil
}

// Run is the default flow: analyze a change source, propose a split when
// warranted, generate and review messages, and commit staged changes.
func (a *App) Run(ctx context.Context, src commitsplit.ChangeSource) error {
	info, err := a.Repository.Info(ctx)
	if err != nil {
		return err
	}
	analysis, err := a.Analyze(ctx, src, false)
	if errors.Is(err, commitsplit.ErrNoChanges) && src.Kind == commitsplit.SourceStaged {
		return a.noStagedChanges(ctx)
	}
	if err != nil {
		return err
	}
	a.println(a.renderer().Summary(analysis.Changes, analysis.Metrics))

	orch := a.orchestrator(a.localContext(ctx, info))
	if analysis.Proposal.ShouldSplit {
		ok, err := a.Approver.ConfirmSplit(ctx, analysis.Proposal)
		if err != nil {
			return err
		}
		if ok {
			return a.runSplit(ctx, info, src, orch, analysis)
		}
	}

	commit, err := a.generate(ctx, orch, analysis.Changes)
	if err != nil {
		return err
	}
	title := "Commit message"
	if !src.Committable() {
		title = "Message for " + src.String() + " changes"
	}
	final, err := a.review(ctx, commitsplit.Preview{Title: title, Commit: commit, Changes: analysis.Changes},
		a.regenerator(orch, analysis.Changes))
	if errors.Is(err, errCancelled) {
		a.println(a.renderer().Hint("Cancelled."))
		return nil
	}
	if err != nil {
		return err
	}

	entry := commitsplit.HistoryEntry{
		Repository: info.Name,
		Branch:     info.Branch,
		Source:     src.String(),
		Provider:   a.provider(),
		Message:    final.FormattedMessage,
	}
	if !src.Committable() {
		a.println(a.renderer().Message(final))
		a.println(a.renderer().Hint("Reference message only, no commit was created."))
		a.record(ctx, entry)
		return nil
	}
	res, err := a.Repository.Commit(ctx, final.FormattedMessage)
	if err != nil {
		a.record(ctx, entry)
		return err
	}
	entry.SHA = res.SHA
	a.record(ctx, entry)
	a.println(a.renderer().CommitResult(info, res))
	return nil
}

// runSplit generates and reviews one message per group. The user stages and
// commits each group.
func (a *App) runSplit(ctx context.Context, info commitsplit.RepositoryInfo, src commitsplit.ChangeSource, orch *commitsplit.MessageOrchestrator, analysis *Analysis) error {
	groups := analysis.Proposal.Groups
	commits, err := a.generateSplit(ctx, orch, analysis.Changes, analysis.Proposal)
	if err != nil {
		return err
	}
	for i, g := range groups {
		sub := commitsplit.GroupChanges(analysis.Changes, g)
		p := commitsplit.Preview{
			Title:   fmt.Sprintf("Commit %d of %d: %s", i+1, len(groups), g.Name),
			Commit:  commits[i],
			Changes: sub,
		}
		final, err := a.review(ctx, p, a.regenerator(orch, sub))
		if errors.Is(err, errCancelled) {
			a.println(a.renderer().Hint("Cancelled."))
			return nil
		}
		if err != nil {
			return err
		}
		a.println(a.renderer().Message(final))
		a.println(a.renderer().Hint("git add -- " + strings.Join(quotePaths(g.Paths()), " ")))
		a.record(ctx, commitsplit.HistoryEntry{
			Repository: info.Name,
			Branch:     info.Branch,
			Source:     src.String(),
			Provider:   a.provider(),
			Message:    final.FormattedMessage,
		})
	}
	return nil
}

// Quick generates a message for the staged changes and commits it after a
// single confirmation.
func (a *App) Quick(ctx context.Context) error {
	info, err := a.Repository.Info(ctx)
	if err != nil {
		return err
	}
	changes, err := a.Changes(ctx, commitsplit.Staged(), false)
	if errors.Is(err, commitsplit.ErrNoChanges) {
		return a.noStagedChanges(ctx)
	}
	if err != nil {
		return err
	}
	commit, err := a.generate(ctx, a.orchestrator(a.localContext(ctx, info)), changes)
	if err != nil {
		return err
	}
	d, err := a.Approver.Approve(ctx, commitsplit.Preview{Title: "Quick commit", Commit: commit, Changes: changes})
	if err != nil {
		return err
	}
	switch d.Action {
	case commitsplit.ActionApprove:
	case commitsplit.ActionEdit:
		if commit, err = commitsplit.ParseMessage(d.Message); err != nil {
			return err
		}
	default:
		a.println(a.renderer().Hint("Cancelled."))
		return nil
	}
	res, err := a.Repository.Commit(ctx, commit.FormattedMessage)
	if err != nil {
		return err
	}
	a.record(ctx, commitsplit.HistoryEntry{
		Repository: info.Name,
		Branch:     info.Branch,
		Source:     commitsplit.Staged().String(),
		Provider:   a.provider(),
		Message:    commit.FormattedMessage,
		SHA:        res.SHA,
	})
	a.println(a.renderer().CommitResult(info, res))
	return nil
}

// Repositories lists the repositories of the hosting platform.
func (a *App) Repositories(ctx context.Context) error {
	repos, err := a.Platform.ListRepositories(ctx)
	if err != nil {
		return err
	}
	a.println(a.renderer().Repositories(repos))
	return nil
}

// Branches lists the branches of a remote repository.
func (a *App) Branches(ctx context.Context, repo string) error {
	branches, err := a.Platform.ListBranches(ctx, repo)
	if err != nil {
		return err
	}
	a.println(a.renderer().Branches(branches))
	return nil
}

// SuggestOptions select the remote commits a suggestion covers.
type SuggestOptions struct {
	Repo    string
	Branch  string   // Empty means the default branch
	Commits []string // Explicit commits, oldest first
	Last    int      // Number of latest commits when Commits is empty
}

// Suggest generates a message summarizing remote commits.
func (a *App) Suggest(ctx context.Context, opts SuggestOptions) error {
	shas := opts.Commits
	messages := make(map[string]string)
	if len(shas) == 0 {
		if opts.Last <= 0 {
			return errors.WithHint(errors.New("no commits selected"), "pass --commits or --last")
		}
		commits, err := a.Platform.ListCommits(ctx, opts.Repo, opts.Branch, opts.Last)
		if err != nil {
			return err
		}
		if len(commits) == 0 {
			return commitsplit.ErrNoChanges
		}
		a.println(a.renderer().Commits(commits))
		for i := len(commits) - 1; i >= 0; i-- {
			shas = append(shas, commits[i].SHA)
			messages[commits[i].SHA] = commits[i].Message
		}
	}

	diffs, err := a.Platform.GetCommitDiffs(ctx, opts.Repo, shas)
	if err != nil {
		return err
	}
	// Not every platform returns messages with diffs.
	for i := range diffs {
		if diffs[i].Message == "" {
			diffs[i].Message = messages[diffs[i].SHA]
		}
	}
	changes := commitsplit.AggregateCommitDiffs(diffs)
	if changes.IsEmpty() {
		return commitsplit.ErrNoChanges
	}
	analysis, err := a.analyze(commitsplit.ChangeSource{}, changes)
	if err != nil {
		return err
	}
	a.println(a.renderer().Summary(changes, analysis.Metrics))

	orch := a.orchestrator(a.remoteContext(ctx, opts.Repo, diffs))
	commit, err := a.generate(ctx, orch, changes)
	if err != nil {
		return err
	}
	final, err := a.review(ctx, commitsplit.Preview{Title: "Suggestion for " + opts.Repo, Commit: commit, Changes: changes},
		a.regenerator(orch, changes))
	if errors.Is(err, errCancelled) {
		a.println(a.renderer().Hint("Cancelled."))
		return nil
	}
	if err != nil {
		return err
	}
	a.println(a.renderer().Message(final))
	a.record(ctx, commitsplit.HistoryEntry{
		Repository: opts.Repo,
		Branch:     opts.Branch,
		Source:     a.Platform.Name(),
		Provider:   a.provider(),
		Message:    final.FormattedMessage,
	})
	return nil
}

// ShowHistory prints the n most recent history entries.
func (a *App) ShowHistory(ctx context.Context, n int) error {
	if a.History == nil {
		return errors.WithHint(errors.New("history is disabled"), "set history.enabled to true")
	}
	entries, err := a.History.Recent(ctx, n)
	if err != nil {
		return err
	}
	a.println(a.renderer().History(entries))
	return nil
}

func (a *App) noStagedChanges(ctx context.Context) error {
	unstaged, err := a.Repository.UnstagedFiles(ctx)
	if err != nil {
		return err
	}
	untracked, err := a.Repository.UntrackedFiles(ctx)
	if err != nil {
		return err
	}
	a.println(a.renderer().NoStagedChanges(unstaged, untracked))
	return commitsplit.ErrNoChanges
}

func (a *App) orchestrator(gc commitsplit.GenerationContext) *commitsplit.MessageOrchestrator {
	return &commitsplit.MessageOrchestrator{
		Generator:   a.Generator,
		DiffLimit:   a.DiffLimit,
		Context:     gc,
		Concurrency: a.Concurrency,
	}
}

// localContext collects recent commit messages of the local repository.
// Failures leave the context without them.
func (a *App) localContext(ctx context.Context, info commitsplit.RepositoryInfo) commitsplit.GenerationContext {
	gc := commitsplit.GenerationContext{ProjectType: "git"}
	if info.Name != "" {
		gc.Metadata = map[string]string{"repository": info.Name}
		if info.Branch != "" {
			gc.Metadata["branch"] = info.Branch
		}
	}
	if a.Generator == nil || a.ContextMessages <= 0 {
		return gc
	}
	msgs, err := a.Repository.RecentMessages(ctx, a.ContextMessages)
	if err != nil {
		a.logger().Warn("read recent commit messages", zap.Error(err))
		return gc
	}
	gc.PriorMessages = msgs
	return gc
}

// remoteContext uses the messages of the selected commits, newest first, and
// the repository language when the platform lists it.
func (a *App) remoteContext(ctx context.Context, repo string, diffs []commitsplit.CommitDiff) commitsplit.GenerationContext {
	gc := commitsplit.GenerationContext{ProjectType: a.Platform.Name()}
	for i := len(diffs) - 1; i >= 0 && len(gc.PriorMessages) < a.ContextMessages; i-- {
		if m := strings.TrimSpace(diffs[i].Message); m != "" {
			gc.PriorMessages = append(gc.PriorMessages, m)
		}
	}
	if a.Generator == nil {
		return gc
	}
	repos, err := a.Platform.ListRepositories(ctx)
	if err != nil {
		a.logger().Warn("list repositories", zap.Error(err))
		return gc
	}
	for _, r := range repos {
		if r.FullName == repo || r.ID == repo {
			gc.Language = r.Language
			break
		}
	}
	return gc
}

func (a *App) generate(ctx context.Context, orch *commitsplit.MessageOrchestrator, changes *commitsplit.StagedChanges) (*commitsplit.GeneratedCommit, error) {
	if a.Generator == nil {
		return orch.Heuristic(changes)
	}
	return orch.Generate(ctx, changes)
}

func (a *App) generateSplit(ctx context.Context, orch *commitsplit.MessageOrchestrator, changes *commitsplit.StagedChanges, proposal *commitsplit.SplitProposal) ([]*commitsplit.GeneratedCommit, error) {
	if a.Generator != nil {
		return orch.GenerateSplit(ctx, changes, proposal)
	}
	commits := make([]*commitsplit.GeneratedCommit, len(proposal.Groups))
	for i, g := range proposal.Groups {
		c, err := orch.Heuristic(commitsplit.GroupChanges(changes, g))
		if err != nil {
			return nil, err
		}
		commits[i] = c
	}
	return commits, nil
}

type regenerateFunc func(ctx context.Context, previous, feedback string) (*commitsplit.GeneratedCommit, error)

func (a *App) regenerator(orch *commitsplit.MessageOrchestrator, changes *commitsplit.StagedChanges) regenerateFunc {
	return func(ctx context.Context, previous, feedback string) (*commitsplit.GeneratedCommit, error) {
		if a.Generator == nil {
			return orch.Heuristic(changes)
		}
		return orch.Regenerate(ctx, changes, previous, feedback)
	}
}

// review shows the preview until the user approves or cancels. Edited and
// regenerated messages are shown again. An edit that does not parse keeps the
// previous message.
func (a *App) review(ctx context.Context, p commitsplit.Preview, regenerate regenerateFunc) (*commitsplit.GeneratedCommit, error) {
	for {
		d, err := a.Approver.Approve(ctx, p)
		if err != nil {
			return nil, err
		}
		a.logger().Debug("review decision", zap.Stringer("action", d.Action))
		switch d.Action {
		case commitsplit.ActionApprove:
			return p.Commit, nil
		case commitsplit.ActionEdit:
			c, err := commitsplit.ParseMessage(d.Message)
			if err != nil {
				PrintError(a.out(), err)
				continue
			}
			p.Commit = c
		case commitsplit.ActionRegenerate:
			c, err := regenerate(ctx, p.Commit.FormattedMessage, d.Feedback)
			if err != nil {
				return nil, err
			}
			p.Commit = c
		default:
			return nil, errCancelled
		}
	}
}

// record appends to the history. Failures are logged and otherwise ignored.
func (a *App) record(ctx context.Context, e commitsplit.HistoryEntry) {
	if a.History == nil {
		return
	}
	if err := a.History.Append(ctx, e); err != nil {
		a.logger().Warn("append history", zap.Error(err))
	}
}

func quotePaths(paths []string) []string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		if strings.ContainsAny(p, " \t'\"$") {
			p = "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
		}
		quoted[i] = p
	}
	return quoted
}
