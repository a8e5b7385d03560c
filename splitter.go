package commitsplit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// SplitConfig holds the caller-supplied split policy.
type SplitConfig struct {
	// MaxCommitSize is the largest number of files a single commit may touch
	// before a split is proposed.
	MaxCommitSize int `mapstructure:"max_commit_size" yaml:"max_commit_size"`

	// ComplexityThreshold is the complexity score above which a split is
	// proposed.
	ComplexityThreshold float64 `mapstructure:"complexity_threshold" yaml:"complexity_threshold"`

	// MinGroupSize is the smallest group emitted on its own. Smaller groups
	// are merged into a compatible group when one exists.
	MinGroupSize int `mapstructure:"min_group_size" yaml:"min_group_size"`
}

// DefaultSplitConfig returns the default split policy.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		MaxCommitSize:       10,
		ComplexityThreshold: 30,
		MinGroupSize:        2,
	}
}

// Validate rejects thresholds that cannot describe a split policy.
func (c SplitConfig) Validate() error {
	switch {
	case c.MaxCommitSize < 1:
		return &ConfigError{Field: "max_commit_size", Reason: "must be at least 1"}
	case c.ComplexityThreshold < 0:
		return &ConfigError{Field: "complexity_threshold", Reason: "must not be negative"}
	case c.MinGroupSize < 1:
		return &ConfigError{Field: "min_group_size", Reason: "must be at least 1"}
	}
	return nil
}

// SplitGroup is one proposed commit of a split.
type SplitGroup struct {
	Name           string
	Category       ChangeCategory
	Files          []FileChange
	TotalAdditions int
	TotalDeletions int
	SuggestedType  CommitType
	Description    string
}

// Paths returns the group's file paths in diff order.
func (g SplitGroup) Paths() []string {
	paths := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// SplitProposal is the outcome of a split analysis.
type SplitProposal struct {
	ShouldSplit bool
	Rationale   string
	Groups      []SplitGroup // Commit application order
}

// Splitter decides whether a changeset should be split and partitions it.
// It is stateless; a zero Splitter is not valid, use NewSplitter or set
// Config explicitly.
type Splitter struct {
	Config SplitConfig
}

// NewSplitter returns a Splitter with a validated config.
func NewSplitter(cfg SplitConfig) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{Config: cfg}, nil
}

// AnalyzeSplit runs a split analysis with the given thresholds and the
// default minimum group size.
func AnalyzeSplit(changes *StagedChanges, metrics ChangeMetrics, maxCommitSize int, complexityThreshold float64) (*SplitProposal, error) {
	cfg := DefaultSplitConfig()
	cfg.MaxCommitSize = maxCommitSize
	cfg.ComplexityThreshold = complexityThreshold
	return Splitter{Config: cfg}.Analyze(changes, metrics)
}

// groupOrder is the commit application order of categories. Foundation
// changes come first and documentation last.
var groupOrder = map[ChangeCategory]int{
	CategoryConfiguration: 0,
	CategoryBuildOrCI:     1,
	CategorySource:        2,
	CategoryTest:          3,
	CategoryStyle:         4,
	CategoryOther:         5,
	CategoryDocumentation: 6,
}

// mergeTargets lists, per category, the categories an undersized group may
// be folded into, in preference order. Tests and docs are never merged.
var mergeTargets = map[ChangeCategory][]ChangeCategory{
	CategoryStyle:         {CategorySource},
	CategoryConfiguration: {CategoryBuildOrCI},
	CategoryBuildOrCI:     {CategoryConfiguration},
	CategoryOther:         {CategorySource, CategoryConfiguration},
}

// Analyze returns a split proposal for changes. It fails with
// ErrEmptyChangeset for an empty changeset and with a ConfigError for an
// invalid policy; it never returns a partially populated proposal.
func (s Splitter) Analyze(changes *StagedChanges, metrics ChangeMetrics) (*SplitProposal, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	if changes.IsEmpty() {
		return nil, ErrEmptyChangeset
	}
	if metrics.TotalFiles != len(changes.Files) {
		return nil, errors.Newf("metrics describe %d files, changeset has %d", metrics.TotalFiles, len(changes.Files))
	}

	var triggers []string
	if metrics.TotalFiles > s.Config.MaxCommitSize {
		triggers = append(triggers, fmt.Sprintf("%d files exceed the limit of %d", metrics.TotalFiles, s.Config.MaxCommitSize))
	}
	if metrics.ComplexityScore > s.Config.ComplexityThreshold {
		triggers = append(triggers, fmt.Sprintf("complexity %.1f exceeds the threshold of %.1f", metrics.ComplexityScore, s.Config.ComplexityThreshold))
	}

	if len(triggers) == 0 {
		return &SplitProposal{
			Rationale: fmt.Sprintf("No split needed: %d files, complexity %.1f within limits.", metrics.TotalFiles, metrics.ComplexityScore),
		}, nil
	}
	if len(changes.Files) == 1 {
		return &SplitProposal{
			Rationale: fmt.Sprintf("No split possible: a single file (%s).", strings.Join(triggers, "; ")),
		}, nil
	}

	groups := s.partition(changes.Files)
	if err := checkPartition(changes.Files, groups); err != nil {
		return nil, err
	}
	return &SplitProposal{
		ShouldSplit: true,
		Rationale:   fmt.Sprintf("Split proposed: %s; %d %s.", strings.Join(triggers, "; "), len(groups), plural(len(groups), "group", "groups")),
		Groups:      groups,
	}, nil
}

// bucket accumulates files before a SplitGroup is built.
type bucket struct {
	category ChangeCategory
	label    string // Directory label for single-category splits
	files    []FileChange
}

func (s Splitter) partition(files []FileChange) []SplitGroup {
	buckets := byCategory(files)
	if len(buckets) == 1 {
		buckets = byDirectory(buckets[0])
	}
	buckets = s.merge(buckets)

	order := make(map[string]int, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		order[files[i].Path] = i
	}
	for _, b := range buckets {
		sort.SliceStable(b.files, func(i, j int) bool {
			return order[b.files[i].Path] < order[b.files[j].Path]
		})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return groupOrder[buckets[i].category] < groupOrder[buckets[j].category]
	})

	groups := make([]SplitGroup, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, newSplitGroup(b))
	}
	return groups
}

// byCategory buckets files by category in order of first appearance.
func byCategory(files []FileChange) []*bucket {
	var buckets []*bucket
	index := make(map[ChangeCategory]*bucket)
	for _, f := range files {
		c := Classify(f.Path)
		b, ok := index[c]
		if !ok {
			b = &bucket{category: c}
			index[c] = b
			buckets = append(buckets, b)
		}
		b.files = append(b.files, f)
	}
	return buckets
}

// byDirectory splits a single-category bucket by top-level directory. It
// returns the bucket unchanged when all files share a directory.
func byDirectory(b *bucket) []*bucket {
	var buckets []*bucket
	index := make(map[string]*bucket)
	for _, f := range b.files {
		dir := TopDirectory(f.Path)
		d, ok := index[dir]
		if !ok {
			label := dir
			if label == "" {
				label = "root"
			}
			d = &bucket{category: b.category, label: label}
			index[dir] = d
			buckets = append(buckets, d)
		}
		d.files = append(d.files, f)
	}
	if len(buckets) == 1 {
		return []*bucket{b}
	}
	return buckets
}

// merge folds undersized buckets into a compatible bucket. Buckets of the
// same category are preferred, then the category's merge targets. A bucket
// with no compatible partner is kept.
func (s Splitter) merge(buckets []*bucket) []*bucket {
	merged := make(map[*bucket]bool)
	for _, b := range buckets {
		if len(b.files) >= s.Config.MinGroupSize {
			continue
		}
		if target := mergeTarget(b, buckets, merged); target != nil {
			target.files = append(target.files, b.files...)
			merged[b] = true
		}
	}

	kept := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		if !merged[b] {
			kept = append(kept, b)
		}
	}
	return kept
}

func mergeTarget(b *bucket, buckets []*bucket, merged map[*bucket]bool) *bucket {
	candidates := mergeTargets[b.category]
	if b.label != "" {
		candidates = append([]ChangeCategory{b.category}, candidates...)
	}
	for _, c := range candidates {
		var best *bucket
		for _, other := range buckets {
			if other == b || merged[other] || other.category != c {
				continue
			}
			if best == nil || len(other.files) > len(best.files) {
				best = other
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func newSplitGroup(b *bucket) SplitGroup {
	g := SplitGroup{
		Name:     b.category.String(),
		Category: b.category,
		Files:    b.files,
	}
	if b.label != "" {
		g.Name = b.category.String() + ": " + b.label
	}

	hints := TypeHints{}
	for _, f := range b.files {
		g.TotalAdditions += f.Additions
		g.TotalDeletions += f.Deletions
		hints.Paths = append(hints.Paths, f.Path)
	}
	hints.Additions = g.TotalAdditions
	hints.Deletions = g.TotalDeletions

	statuses := make([]FileStatus, 0, len(b.files))
	for _, f := range b.files {
		statuses = append(statuses, f.Status)
	}
	g.SuggestedType = InferTypeWithHints(b.category, statuses, hints)
	g.Description = fmt.Sprintf("%d %s %s, +%d/-%d",
		len(b.files), b.category.Noun(), plural(len(b.files), "file", "files"),
		g.TotalAdditions, g.TotalDeletions)
	return g
}

// checkPartition verifies every file appears in exactly one group.
func checkPartition(files []FileChange, groups []SplitGroup) error {
	counts := make(map[string]int, len(files))
	for _, f := range files {
		counts[f.Path]++
	}
	var total int
	for _, g := range groups {
		for _, f := range g.Files {
			counts[f.Path]--
			total++
		}
	}
	if total != len(files) {
		return errors.AssertionFailedf("partition has %d files, changeset has %d", total, len(files))
	}
	for p, n := range counts {
		if n != 0 {
			return errors.AssertionFailedf("file %s is not assigned to exactly one group", p)
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
