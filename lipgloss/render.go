package lipgloss

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/commitsplit"
)

// Renderer defaults.
const (
	DefaultDiffLines = 20
	maxHintFiles     = 10
)

// Renderer renders domain values as styled terminal text.
type Renderer struct {
	lg        *lipgloss.Renderer
	theme     *Theme
	tokenizer commitsplit.Tokenizer
	diffLines int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the theme.
func WithTheme(t *Theme) Option {
	return func(r *Renderer) { r.theme = t }
}

// WithTokenizer enables highlighting of diff excerpts in previews.
func WithTokenizer(t commitsplit.Tokenizer) Option {
	return func(r *Renderer) { r.tokenizer = t }
}

// WithDiffLines sets how many diff lines a preview shows. Zero hides the diff.
func WithDiffLines(n int) Option {
	return func(r *Renderer) { r.diffLines = n }
}

// NewRenderer returns a renderer writing styles for lg. A nil lg uses the
// default lipgloss renderer.
func NewRenderer(lg *lipgloss.Renderer, opts ...Option) *Renderer {
	if lg == nil {
		lg = lipgloss.DefaultRenderer()
	}
	r := &Renderer{lg: lg, theme: DefaultTheme(), diffLines: DefaultDiffLines}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lipgloss returns the underlying lipgloss renderer.
func (r *Renderer) Lipgloss() *lipgloss.Renderer {
	return r.lg
}

// Theme returns the renderer's theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

func (r *Renderer) fg(c commitsplit.Color) lipgloss.Style {
	return r.lg.NewStyle().Foreground(lipgloss.Color(string(c)))
}

func (r *Renderer) heading(s string) string {
	return r.fg(r.theme.palette.Accent).Bold(true).Render(s)
}

func (r *Renderer) muted(s string) string {
	return r.fg(r.theme.palette.Muted).Render(s)
}

func (r *Renderer) statusColor(s commitsplit.FileStatus) commitsplit.Color {
	p := r.theme.palette
	switch s {
	case commitsplit.StatusAdded:
		return p.Added
	case commitsplit.StatusDeleted:
		return p.Deleted
	case commitsplit.StatusRenamed:
		return p.Renamed
	default:
		return p.Modified
	}
}

func (r *Renderer) counts(additions, deletions int) string {
	return r.fg(r.theme.palette.Added).Render(fmt.Sprintf("+%d", additions)) +
		r.muted("/") +
		r.fg(r.theme.palette.Deleted).Render(fmt.Sprintf("-%d", deletions))
}

func (r *Renderer) fileLine(f commitsplit.FileChange) string {
	name := f.Path
	if f.OldPath != "" {
		name = f.OldPath + " → " + f.Path
	}
	stats := r.counts(f.Additions, f.Deletions)
	if f.Binary {
		stats = r.muted("binary")
	}
	return fmt.Sprintf("  %s %s %s", r.fg(r.statusColor(f.Status)).Bold(true).Render(f.Status.String()), name, stats)
}

// Files renders the file list of a changeset with a totals line.
func (r *Renderer) Files(changes *commitsplit.StagedChanges) string {
	if changes.IsEmpty() {
		return r.muted("No changes.")
	}
	lines := make([]string, 0, len(changes.Files)+1)
	noun := "files"
	if len(changes.Files) == 1 {
		noun = "file"
	}
	lines = append(lines, fmt.Sprintf("%s %s", r.heading(fmt.Sprintf("%d %s changed", len(changes.Files), noun)),
		r.counts(changes.TotalAdditions, changes.TotalDeletions)))
	for _, f := range changes.Files {
		lines = append(lines, r.fileLine(f))
	}
	return strings.Join(lines, "\n")
}

// Summary renders the file list followed by the change metrics.
func (r *Renderer) Summary(changes *commitsplit.StagedChanges, m commitsplit.ChangeMetrics) string {
	metrics := []string{
		r.heading("Metrics"),
		fmt.Sprintf("  %s %d", r.muted("files:      "), m.TotalFiles),
		fmt.Sprintf("  %s %d", r.muted("lines:      "), m.TotalLines),
		fmt.Sprintf("  %s %d", r.muted("directories:"), m.DirectoriesAffected),
		fmt.Sprintf("  %s %d", r.muted("categories: "), m.CategoryCount),
		fmt.Sprintf("  %s %.2f", r.muted("complexity: "), m.ComplexityScore),
	}
	return r.Files(changes) + "\n\n" + strings.Join(metrics, "\n")
}

// Proposal renders a split proposal with its groups in commit order.
func (r *Renderer) Proposal(p *commitsplit.SplitProposal) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	if p.ShouldSplit {
		b.WriteString(r.fg(r.theme.palette.Warning).Bold(true).Render("Split recommended"))
	} else {
		b.WriteString(r.heading("Single commit"))
	}
	b.WriteString("\n" + r.muted(p.Rationale))

	for i, g := range p.Groups {
		fmt.Fprintf(&b, "\n\n%s %s %s\n  %s",
			r.heading(fmt.Sprintf("%d.", i+1)),
			r.lg.NewStyle().Bold(true).Render(g.Name),
			r.fg(r.theme.palette.Keyword).Render("("+g.SuggestedType.Name()+")"),
			r.muted(g.Description),
		)
		for _, f := range g.Files {
			b.WriteString("\n" + r.fileLine(f))
		}
	}
	return b.String()
}

// Message renders a commit message in a bordered box.
func (r *Renderer) Message(c *commitsplit.GeneratedCommit) string {
	if c == nil {
		return ""
	}
	msg := c.FormattedMessage
	if msg == "" {
		msg = c.Format()
	}
	header, rest, _ := strings.Cut(msg, "\n")
	content := r.fg(r.theme.palette.Foreground).Bold(true).Render(header)
	if rest != "" {
		content += "\n" + r.fg(r.theme.palette.Foreground).Render(rest)
	}
	return r.lg.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(string(r.theme.palette.Muted))).
		Padding(0, 1).
		Render(content)
}

// Diff renders the first lines of a diff, highlighted when a tokenizer is
// configured.
func (r *Renderer) Diff(diff string) string {
	if r.diffLines <= 0 || strings.TrimSpace(diff) == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	more := 0
	if len(lines) > r.diffLines {
		more = len(lines) - r.diffLines
		lines = lines[:r.diffLines]
	}
	excerpt := strings.Join(lines, "\n")

	var out []string
	if r.tokenizer != nil {
		if tokens := r.tokenizer.Tokenize("diff", excerpt); tokens != nil {
			out = r.renderTokens(tokens)
		}
	}
	if out == nil {
		out = lines
	}
	if more > 0 {
		out = append(out, r.muted(fmt.Sprintf("… %d more lines", more)))
	}
	return strings.Join(out, "\n")
}

func (r *Renderer) renderTokens(tokens []commitsplit.Token) []string {
	var lines []string
	var cur strings.Builder
	for _, tok := range tokens {
		style := r.lg.NewStyle().Bold(tok.Style.Bold)
		if tok.Style.Foreground != "" {
			style = style.Foreground(lipgloss.Color(string(tok.Style.Foreground)))
		}
		parts := strings.Split(tok.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			if part != "" {
				cur.WriteString(style.Render(part))
			}
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// Preview renders what an approver shows: title, files, diff excerpt and the
// proposed message.
func (r *Renderer) Preview(p commitsplit.Preview) string {
	var sections []string
	if p.Title != "" {
		sections = append(sections, r.heading(p.Title))
	}
	if !p.Changes.IsEmpty() {
		sections = append(sections, r.Files(p.Changes))
		if d := r.Diff(p.Changes.DiffContent); d != "" {
			sections = append(sections, d)
		}
	}
	sections = append(sections, r.Message(p.Commit))
	return strings.Join(sections, "\n\n")
}

// CommitResult renders the outcome of a commit.
func (r *Renderer) CommitResult(info commitsplit.RepositoryInfo, res *commitsplit.CommitResult) string {
	branch := res.Branch
	if branch == "" {
		branch = info.Branch
	}
	return fmt.Sprintf("%s %s %s on %s in %s",
		r.fg(r.theme.palette.Added).Bold(true).Render("✓ Committed"),
		r.fg(r.theme.palette.Accent).Render(res.ShortSHA()),
		res.Summary,
		r.lg.NewStyle().Bold(true).Render(branch),
		info.Name,
	)
}

// NoStagedChanges renders the hint shown when nothing is staged.
func (r *Renderer) NoStagedChanges(unstaged, untracked []string) string {
	var b strings.Builder
	b.WriteString(r.fg(r.theme.palette.Warning).Bold(true).Render("No staged changes."))
	list := func(title string, files []string) {
		if len(files) == 0 {
			return
		}
		b.WriteString("\n\n" + r.heading(title))
		for i, f := range files {
			if i == maxHintFiles {
				b.WriteString("\n" + r.muted(fmt.Sprintf("  … and %d more", len(files)-maxHintFiles)))
				break
			}
			b.WriteString("\n  " + f)
		}
	}
	list("Modified but not staged:", unstaged)
	list("Untracked:", untracked)
	b.WriteString("\n\n" + r.muted("Stage files with `git add <path>` and run again."))
	return b.String()
}

// History renders history entries, newest first.
func (r *Renderer) History(entries []commitsplit.HistoryEntry) string {
	if len(entries) == 0 {
		return r.muted("No history yet.")
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		meta := []string{e.Time.Local().Format("2006-01-02 15:04"), e.Source, e.Provider}
		if e.Repository != "" {
			meta = append(meta, e.Repository)
		}
		if e.Committed() {
			meta = append(meta, r.fg(r.theme.palette.Added).Render(shortSHA(e.SHA)))
		}
		header, _, _ := strings.Cut(e.Message, "\n")
		blocks = append(blocks, r.muted(strings.Join(meta, " · "))+"\n  "+header)
	}
	return strings.Join(blocks, "\n")
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// Hint renders secondary text.
func (r *Renderer) Hint(s string) string {
	return r.muted(s)
}

// Repositories renders hosting platform repositories, one per line.
func (r *Renderer) Repositories(repos []commitsplit.RemoteRepository) string {
	if len(repos) == 0 {
		return r.muted("No repositories.")
	}
	lines := make([]string, 0, len(repos))
	for _, repo := range repos {
		var meta []string
		if repo.Language != "" {
			meta = append(meta, repo.Language)
		}
		if repo.Private {
			meta = append(meta, "private")
		}
		if !repo.UpdatedAt.IsZero() {
			meta = append(meta, "updated "+repo.UpdatedAt.Local().Format("2006-01-02"))
		}
		line := "  " + r.lg.NewStyle().Bold(true).Render(repo.FullName)
		if len(meta) > 0 {
			line += " " + r.muted(strings.Join(meta, " · "))
		}
		if repo.Description != "" {
			line += "\n    " + repo.Description
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Branches renders branches with their head commit.
func (r *Renderer) Branches(branches []commitsplit.Branch) string {
	if len(branches) == 0 {
		return r.muted("No branches.")
	}
	lines := make([]string, 0, len(branches))
	for _, b := range branches {
		line := fmt.Sprintf("  %s %s", r.fg(r.theme.palette.Accent).Render(shortSHA(b.SHA)), b.Name)
		if b.Protected {
			line += " " + r.fg(r.theme.palette.Warning).Render("protected")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Commits renders remote commits with their titles.
func (r *Renderer) Commits(commits []commitsplit.RemoteCommit) string {
	if len(commits) == 0 {
		return r.muted("No commits.")
	}
	lines := make([]string, 0, len(commits))
	for _, c := range commits {
		line := fmt.Sprintf("  %s %s", r.fg(r.theme.palette.Accent).Render(shortSHA(c.SHA)), c.Title())
		if c.Author != "" {
			line += " " + r.muted("("+c.Author+")")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Providers renders one line per provider with its key status and balance.
func (r *Renderer) Providers(statuses []commitsplit.ProviderStatus) string {
	p := r.theme.palette
	lines := make([]string, 0, len(statuses)+1)
	lines = append(lines, r.heading("Providers"))
	for _, st := range statuses {
		color := p.Muted
		switch st.State {
		case commitsplit.ProviderActive:
			color = p.Added
		case commitsplit.ProviderInvalidKey:
			color = p.Deleted
		case commitsplit.ProviderUnreachable:
			color = p.Warning
		}
		line := fmt.Sprintf("  %-9s %s", st.Provider, r.fg(color).Render(st.State.String()))
		if st.Balance != "" {
			line += " " + r.muted("balance "+st.Balance)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
