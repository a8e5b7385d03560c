package main

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/config"
	dv "github.com/fwojciec/commitsplit/lipgloss"
	"gopkg.in/yaml.v3"
)

// Output formats of the analyze command.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type report struct {
	Source      string        `json:"source" yaml:"source"`
	Files       []fileReport  `json:"files" yaml:"files"`
	Additions   int           `json:"additions" yaml:"additions"`
	Deletions   int           `json:"deletions" yaml:"deletions"`
	Metrics     metricsReport `json:"metrics" yaml:"metrics"`
	ShouldSplit bool          `json:"should_split" yaml:"should_split"`
	Rationale   string        `json:"rationale" yaml:"rationale"`
	Groups      []groupReport `json:"groups" yaml:"groups"`
}

type fileReport struct {
	Path      string `json:"path" yaml:"path"`
	OldPath   string `json:"old_path,omitempty" yaml:"old_path,omitempty"`
	Status    string `json:"status" yaml:"status"`
	Category  string `json:"category" yaml:"category"`
	Additions int    `json:"additions" yaml:"additions"`
	Deletions int    `json:"deletions" yaml:"deletions"`
	Binary    bool   `json:"binary,omitempty" yaml:"binary,omitempty"`
}

type metricsReport struct {
	TotalFiles          int     `json:"total_files" yaml:"total_files"`
	TotalLines          int     `json:"total_lines" yaml:"total_lines"`
	DirectoriesAffected int     `json:"directories_affected" yaml:"directories_affected"`
	CategoryCount       int     `json:"category_count" yaml:"category_count"`
	ComplexityScore     float64 `json:"complexity_score" yaml:"complexity_score"`
}

type groupReport struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Files       []string `json:"files" yaml:"files"`
	Additions   int      `json:"additions" yaml:"additions"`
	Deletions   int      `json:"deletions" yaml:"deletions"`
}

func newReport(a *Analysis) report {
	r := report{
		Source:    a.Source.String(),
		Additions: a.Changes.TotalAdditions,
		Deletions: a.Changes.TotalDeletions,
		Metrics: metricsReport{
			TotalFiles:          a.Metrics.TotalFiles,
			TotalLines:          a.Metrics.TotalLines,
			DirectoriesAffected: a.Metrics.DirectoriesAffected,
			CategoryCount:       a.Metrics.CategoryCount,
			ComplexityScore:     a.Metrics.ComplexityScore,
		},
		ShouldSplit: a.Proposal.ShouldSplit,
		Rationale:   a.Proposal.Rationale,
		Files:       make([]fileReport, 0, len(a.Changes.Files)),
		Groups:      make([]groupReport, 0, len(a.Proposal.Groups)),
	}
	for _, f := range a.Changes.Files {
		r.Files = append(r.Files, fileReport{
			Path:      f.Path,
			OldPath:   f.OldPath,
			Status:    f.Status.Label(),
			Category:  commitsplit.Classify(f.Path).String(),
			Additions: f.Additions,
			Deletions: f.Deletions,
			Binary:    f.Binary,
		})
	}
	for _, g := range a.Proposal.Groups {
		r.Groups = append(r.Groups, groupReport{
			Name:        g.Name,
			Category:    g.Category.String(),
			Type:        g.SuggestedType.Name(),
			Description: g.Description,
			Files:       g.Paths(),
			Additions:   g.TotalAdditions,
			Deletions:   g.TotalDeletions,
		})
	}
	return r
}

// WriteAnalysis writes an analysis in the given format.
func WriteAnalysis(w io.Writer, r *dv.Renderer, a *Analysis, format string) error {
	switch format {
	case "", FormatText:
		_, err := io.WriteString(w, r.Summary(a.Changes, a.Metrics)+"\n\n"+r.Proposal(a.Proposal)+"\n")
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newReport(a))
	case FormatYAML:
		return writeYAML(w, newReport(a))
	}
	return errors.WithHint(errors.Newf("unknown format %q", format), "use text, json or yaml")
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

// settingsReport is the effective configuration with secrets reduced to
// whether they are set.
type settingsReport struct {
	Provider            string                     `yaml:"provider"`
	Model               string                     `yaml:"model,omitempty"`
	Temperature         float32                    `yaml:"temperature"`
	Offline             bool                       `yaml:"offline"`
	MaxCommitSize       int                        `yaml:"max_commit_size"`
	ComplexityThreshold float64                    `yaml:"complexity_threshold"`
	MinGroupSize        int                        `yaml:"min_group_size"`
	Metrics             commitsplit.MetricsWeights `yaml:"metrics"`
	DiffLimit           map[string]int             `yaml:"diff_limit"`
	Concurrency         int                        `yaml:"concurrency"`
	ContextMessages     int                        `yaml:"context_messages"`
	Credentials         map[string]bool            `yaml:"credentials"`
	GitLabURL           string                     `yaml:"gitlab_url"`
	History             string                     `yaml:"history,omitempty"`
	LogLevel            string                     `yaml:"log_level"`
	LogFormat           string                     `yaml:"log_format"`
}

// WriteSettings writes the effective configuration as YAML.
func WriteSettings(w io.Writer, cfg *config.Config) error {
	s := settingsReport{
		Provider:            cfg.Provider,
		Model:               cfg.Model,
		Temperature:         cfg.Temperature,
		Offline:             cfg.Offline,
		MaxCommitSize:       cfg.MaxCommitSize,
		ComplexityThreshold: cfg.ComplexityThreshold,
		MinGroupSize:        cfg.MinGroupSize,
		Metrics:             cfg.Metrics,
		DiffLimit:           cfg.DiffLimit,
		Concurrency:         cfg.Concurrency,
		ContextMessages:     cfg.ContextMessages,
		Credentials: map[string]bool{
			"openai":   cfg.OpenAI.APIKey != "",
			"deepseek": cfg.DeepSeek.APIKey != "",
			"gemini":   cfg.Gemini.APIKey != "",
			"github":   cfg.GitHub.Token != "",
			"gitlab":   cfg.GitLab.Token != "",
		},
		GitLabURL: cfg.GitLab.URL,
		LogLevel:  cfg.Log.Level,
		LogFormat: cfg.Log.Format,
	}
	if cfg.History.Enabled {
		s.History = cfg.History.Path
	}
	return writeYAML(w, s)
}
