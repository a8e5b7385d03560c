package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/bubbletea"
	"github.com/fwojciec/commitsplit/chroma"
	"github.com/fwojciec/commitsplit/config"
	"github.com/fwojciec/commitsplit/gemini"
	"github.com/fwojciec/commitsplit/git"
	"github.com/fwojciec/commitsplit/gitdiff"
	"github.com/fwojciec/commitsplit/github"
	"github.com/fwojciec/commitsplit/gitlab"
	"github.com/fwojciec/commitsplit/jsonl"
	dv "github.com/fwojciec/commitsplit/lipgloss"
	"github.com/fwojciec/commitsplit/openai"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Hosting platforms with a command of their own.
const (
	platformGitHub = "github"
	platformGitLab = "gitlab"
)

// options are the flags every command shares that are not config keys.
type options struct {
	stdout     io.Writer
	stderr     io.Writer
	configFile string
	repoPath   string
	noHistory  bool
}

// NewRootCommand returns the git-commit-ai command tree writing to stdout
// and logging to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr}
	var source string

	root := &cobra.Command{
		Use:   "git-commit-ai",
		Short: "Write conventional commit messages and split large changes",
		Long: `git-commit-ai analyzes staged changes, proposes splitting large changesets
into focused commits and writes Conventional Commits messages for them.

Without a provider API key, or with --offline, messages are derived from the
changed files alone.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := commitsplit.ParseChangeSource(source)
			if err != nil {
				return err
			}
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			app, err := s.localApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), src)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "config file (default ./"+config.FileName+" or $XDG_CONFIG_HOME/git-commit-ai/config.yaml)")
	pf.StringVarP(&o.repoPath, "repo", "C", ".", "path inside the git repository")
	pf.BoolVar(&o.noHistory, "no-history", false, "do not record generated messages")
	pf.String("provider", config.ProviderOpenAI, "text generation provider: openai, deepseek or gemini")
	pf.String("model", "", "model name, the provider default when empty")
	pf.Float32("temperature", 0.3, "sampling temperature")
	pf.Bool("offline", false, "derive messages from the changed files without a provider")
	pf.Int("max-commit-size", 10, "files a single commit may touch before a split is proposed")
	pf.Float64("complexity-threshold", 30, "complexity score above which a split is proposed")
	pf.Int("min-group-size", 2, "smallest group kept as a commit of its own")
	pf.String("history-file", "", "history file (default $XDG_DATA_HOME/git-commit-ai/history.jsonl)")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.String("log-format", "console", "log format: console or json")

	root.Flags().StringVarP(&source, "source", "s", "staged", "changes to describe: staged, unstaged, all, last, a commit hash or from..to")

	root.AddCommand(
		newQuickCommand(o),
		newAnalyzeCommand(o),
		newHistoryCommand(o),
		newConfigCommand(o),
		newProvidersCommand(o),
		newPlatformCommand(o, platformGitHub),
		newPlatformCommand(o, platformGitLab),
	)
	return root
}

func newQuickCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quick",
		Short: "Generate a message for the staged changes and commit after one confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			app, err := s.localApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			return app.Quick(cmd.Context())
		},
	}
}

func newAnalyzeCommand(o *options) *cobra.Command {
	var (
		source  string
		format  string
		listing bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print change metrics and the split proposal without generating messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := commitsplit.ParseChangeSource(source)
			if err != nil {
				return err
			}
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			app, err := s.localApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			analysis, err := app.Analyze(cmd.Context(), src, listing)
			if err != nil {
				return err
			}
			return WriteAnalysis(o.stdout, s.renderer, analysis, format)
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "staged", "changes to analyze: staged, unstaged, all, last, a commit hash or from..to")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&listing, "listing", false, "use git --numstat and --name-status output instead of the full diff")
	return cmd
}

func newHistoryCommand(o *options) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return s.baseApp().ShowHistory(cmd.Context(), n)
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 10, "number of entries, 0 for all")
	return cmd
}

func newConfigCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration and check credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			if err := WriteSettings(o.stdout, s.cfg); err != nil {
				return err
			}
			fmt.Fprintln(o.stdout)
			checks := []struct {
				name string
				err  error
			}{
				{"provider", s.cfg.ValidateProvider()},
				{platformGitHub, s.cfg.ValidateGitHub()},
				{platformGitLab, s.cfg.ValidateGitLab()},
			}
			for _, c := range checks {
				if c.err == nil {
					fmt.Fprintf(o.stdout, "%s: ok\n", c.name)
					continue
				}
				fmt.Fprintf(o.stdout, "%s: ", c.name)
				PrintError(o.stdout, c.err)
			}
			return nil
		},
	}
}

func newProvidersCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Check provider API keys and account balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			statuses, err := ProviderStatuses(cmd.Context(), s.cfg, s.logger)
			fmt.Fprintln(o.stdout, s.renderer.Providers(statuses))
			if err != nil {
				fmt.Fprintln(o.stdout)
				PrintError(o.stdout, err)
			}
			return nil
		},
	}
}

func newPlatformCommand(o *options, platform string) *cobra.Command {
	title := "GitHub"
	if platform == platformGitLab {
		title = "GitLab"
	}
	cmd := &cobra.Command{
		Use:   platform,
		Short: "Suggest messages for commits on " + title,
	}
	if platform == platformGitLab {
		cmd.PersistentFlags().String("gitlab-url", "https://gitlab.com", "GitLab instance URL")
	}

	run := func(cmd *cobra.Command, f func(ctx context.Context, app *App) error) error {
		s, err := o.session(cmd)
		if err != nil {
			return err
		}
		defer s.close()
		app, err := s.platformApp(cmd.Context(), platform)
		if err != nil {
			return err
		}
		return f(cmd.Context(), app)
	}

	repos := &cobra.Command{
		Use:   "repos",
		Short: "List your " + title + " repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, app *App) error {
				return app.Repositories(ctx)
			})
		},
	}

	branches := &cobra.Command{
		Use:   "branches <repo>",
		Short: "List the branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, app *App) error {
				return app.Branches(ctx, args[0])
			})
		},
	}

	var opts SuggestOptions
	suggest := &cobra.Command{
		Use:   "suggest <repo>",
		Short: "Suggest one message summarizing commits of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Repo = args[0]
			return run(cmd, func(ctx context.Context, app *App) error {
				return app.Suggest(ctx, opts)
			})
		},
	}
	suggest.Flags().StringVarP(&opts.Branch, "branch", "b", "", "branch, the default branch when empty")
	suggest.Flags().StringSliceVar(&opts.Commits, "commits", nil, "commit hashes, oldest first")
	suggest.Flags().IntVarP(&opts.Last, "last", "n", 5, "number of latest commits when --commits is not given")

	cmd.AddCommand(repos, branches, suggest)
	return cmd
}

// session holds what every command builds from the configuration.
type session struct {
	opts     *options
	cfg      *config.Config
	logger   *zap.Logger
	renderer *dv.Renderer
}

func (o *options) session(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(config.Options{File: o.configFile, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log, o.stderr)
	if err != nil {
		return nil, err
	}
	renderer, err := NewRenderer(o.stdout)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config",
		zap.String("command", cmd.Name()),
		zap.String("provider", cfg.Provider),
		zap.Bool("offline", cfg.Offline),
	)
	return &session{opts: o, cfg: cfg, logger: logger, renderer: renderer}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// NewRenderer returns a renderer for w with the default theme and diff
// highlighting.
func NewRenderer(w io.Writer) (*dv.Renderer, error) {
	theme := dv.DefaultTheme()
	tokenizer, err := chroma.NewTokenizer(chroma.StyleFromPalette(theme.Palette()))
	if err != nil {
		return nil, err
	}
	return dv.NewRenderer(lipgloss.NewRenderer(w), dv.WithTheme(theme), dv.WithTokenizer(tokenizer)), nil
}

// baseApp returns an app without version control, provider or platform.
func (s *session) baseApp() *App {
	app := &App{
		Extractor:       gitdiff.NewParser(),
		Approver:        bubbletea.NewApprover(s.renderer, tea.WithOutput(s.opts.stdout)),
		Renderer:        s.renderer,
		Output:          s.opts.stdout,
		Logger:          s.logger,
		Split:           s.cfg.SplitConfig(),
		Weights:         s.cfg.Metrics,
		Concurrency:     s.cfg.Concurrency,
		ContextMessages: s.cfg.ContextMessages,
	}
	if s.cfg.History.Enabled && !s.opts.noHistory {
		app.History = jsonl.NewHistoryStore(s.cfg.History.Path)
	}
	return app
}

// generatingApp returns baseApp with the configured text generator.
func (s *session) generatingApp(ctx context.Context) (*App, error) {
	app := s.baseApp()
	gen, provider, err := NewGenerator(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	if gen != nil {
		app.Generator = gen
		app.Provider = provider
		app.DiffLimit = s.cfg.DiffLimitFor(provider)
	}
	return app, nil
}

func (s *session) localApp(ctx context.Context, generate bool) (*App, error) {
	app := s.baseApp()
	if generate {
		var err error
		if app, err = s.generatingApp(ctx); err != nil {
			return nil, err
		}
	}
	repo, err := git.Open(s.opts.repoPath, git.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	app.Repository = repo
	return app, nil
}

func (s *session) platformApp(ctx context.Context, platform string) (*App, error) {
	app, err := s.generatingApp(ctx)
	if err != nil {
		return nil, err
	}
	switch platform {
	case platformGitHub:
		if err := s.cfg.ValidateGitHub(); err != nil {
			return nil, err
		}
		opts := []github.Option{github.WithPerPage(s.cfg.GitHub.PerPage), github.WithLogger(s.logger)}
		if s.cfg.GitHub.URL != "" {
			opts = append(opts, github.WithBaseURL(s.cfg.GitHub.URL))
		}
		client, err := github.NewClient(s.cfg.GitHub.Token, nil, opts...)
		if err != nil {
			return nil, err
		}
		app.Platform = client
	case platformGitLab:
		if err := s.cfg.ValidateGitLab(); err != nil {
			return nil, err
		}
		client, err := gitlab.NewClient(gitlab.Config{
			Token:   s.cfg.GitLab.Token,
			URL:     s.cfg.GitLab.URL,
			PerPage: s.cfg.GitLab.PerPage,
			Logger:  s.logger,
		})
		if err != nil {
			return nil, err
		}
		app.Platform = client
	}
	return app, nil
}

// NewGenerator returns the text generator of the configured provider and
// its name. It returns a nil generator for offline sessions and when the
// provider has no API key.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (commitsplit.TextGenerator, string, error) {
	if cfg.Offline {
		return nil, "", nil
	}
	p, ok := cfg.ProviderConfig(cfg.Provider)
	if !ok {
		return nil, "", cfg.ValidateProvider()
	}
	if p.APIKey == "" {
		logger.Warn("no API key configured, using offline messages", zap.String("provider", cfg.Provider))
		return nil, "", nil
	}

	if cfg.Provider == config.ProviderGemini {
		opts := []gemini.Option{gemini.WithTemperature(cfg.Temperature), gemini.WithLogger(logger)}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		if p.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(p.BaseURL))
		}
		g, err := gemini.NewGenerator(ctx, p.APIKey, opts...)
		if err != nil {
			return nil, "", err
		}
		return g, cfg.Provider, nil
	}

	opts := []openai.Option{openai.WithTemperature(cfg.Temperature), openai.WithLogger(logger)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}
	newGenerator := openai.NewGenerator
	if cfg.Provider == config.ProviderDeepSeek {
		newGenerator = openai.NewDeepSeekGenerator
	}
	g, err := newGenerator(p.APIKey, opts...)
	if err != nil {
		return nil, "", err
	}
	return g, cfg.Provider, nil
}

// ProviderStatuses checks the API key of every provider. Providers without a
// key are reported as not configured without a request. Failed checks are
// reported as unreachable and their errors returned together.
func ProviderStatuses(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]commitsplit.ProviderStatus, error) {
	var result *multierror.Error
	names := []string{config.ProviderOpenAI, config.ProviderDeepSeek, config.ProviderGemini}
	statuses := make([]commitsplit.ProviderStatus, 0, len(names))
	for _, name := range names {
		c := *cfg
		c.Provider, c.Model, c.Offline = name, "", false
		gen, _, err := NewGenerator(ctx, &c, zap.NewNop())
		if err != nil {
			result = multierror.Append(result, err)
			statuses = append(statuses, commitsplit.ProviderStatus{Provider: name, State: commitsplit.ProviderUnreachable})
			continue
		}
		checker, ok := gen.(commitsplit.StatusChecker)
		if !ok {
			statuses = append(statuses, commitsplit.ProviderStatus{Provider: name})
			continue
		}
		st, err := checker.Status(ctx)
		if err != nil {
			logger.Debug("provider check failed", zap.String("provider", name), zap.Error(err))
			result = multierror.Append(result, err)
			st = commitsplit.ProviderStatus{Provider: name, State: commitsplit.ProviderUnreachable}
		}
		statuses = append(statuses, st)
	}
	return statuses, result.ErrorOrNil()
}
