package commitsplit

import (
	"path"
	"strings"
)

// ChangeMetrics summarizes a changeset.
type ChangeMetrics struct {
	TotalFiles          int
	TotalLines          int // Additions plus deletions
	DirectoriesAffected int
	CategoryCount       int // Distinct categories present
	ComplexityScore     float64
}

// MetricsWeights are the tunable constants of the complexity score.
//
//	score = files*FileWeight + lines*LineWeight
//	      + directories*DirectoryWeight + categories*CategoryWeight
type MetricsWeights struct {
	FileWeight      float64 `mapstructure:"file_weight" yaml:"file_weight"`
	LineWeight      float64 `mapstructure:"line_weight" yaml:"line_weight"`
	DirectoryWeight float64 `mapstructure:"directory_weight" yaml:"directory_weight"`
	CategoryWeight  float64 `mapstructure:"category_weight" yaml:"category_weight"`

	// DirectoryDepth is the number of leading path segments that identify a
	// directory. Files at the repository root count as one directory.
	DirectoryDepth int `mapstructure:"directory_depth" yaml:"directory_depth"`
}

// DefaultMetricsWeights returns the default scoring policy. A line weighs a
// hundredth of a file, so many small files score higher than one large file.
func DefaultMetricsWeights() MetricsWeights {
	return MetricsWeights{
		FileWeight:      1.0,
		LineWeight:      0.01,
		DirectoryWeight: 2.0,
		CategoryWeight:  3.0,
		DirectoryDepth:  1,
	}
}

// Validate rejects weights that would break the score's contract.
func (w MetricsWeights) Validate() error {
	switch {
	case w.FileWeight <= 0:
		return &ConfigError{Field: "file_weight", Reason: "must be positive"}
	case w.LineWeight < 0:
		return &ConfigError{Field: "line_weight", Reason: "must not be negative"}
	case w.LineWeight >= w.FileWeight:
		return &ConfigError{Field: "line_weight", Reason: "must be smaller than file_weight"}
	case w.DirectoryWeight < 0:
		return &ConfigError{Field: "directory_weight", Reason: "must not be negative"}
	case w.CategoryWeight < 0:
		return &ConfigError{Field: "category_weight", Reason: "must not be negative"}
	case w.DirectoryDepth < 1:
		return &ConfigError{Field: "directory_depth", Reason: "must be at least 1"}
	}
	return nil
}

// MetricsCalculator computes ChangeMetrics with a given scoring policy.
type MetricsCalculator struct {
	Weights MetricsWeights
}

// NewMetricsCalculator returns a calculator with validated weights.
func NewMetricsCalculator(w MetricsWeights) (*MetricsCalculator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &MetricsCalculator{Weights: w}, nil
}

// ComputeMetrics computes metrics with the default weights.
func ComputeMetrics(changes *StagedChanges) ChangeMetrics {
	return MetricsCalculator{Weights: DefaultMetricsWeights()}.Compute(changes)
}

// Compute returns the metrics of a changeset. The score is zero only for an
// empty changeset and never decreases when files, lines, directories or
// categories grow. Weights that fail Validate are replaced by the defaults.
func (c MetricsCalculator) Compute(changes *StagedChanges) ChangeMetrics {
	if changes.IsEmpty() {
		return ChangeMetrics{}
	}

	w := c.Weights
	if w.Validate() != nil {
		w = DefaultMetricsWeights()
	}
	depth := w.DirectoryDepth
	dirs := make(map[string]bool)
	categories := make(map[ChangeCategory]bool)
	var lines int
	for _, f := range changes.Files {
		dirs[directoryPrefix(f.Path, depth)] = true
		categories[Classify(f.Path)] = true
		lines += f.Lines()
	}

	m := ChangeMetrics{
		TotalFiles:          len(changes.Files),
		TotalLines:          lines,
		DirectoriesAffected: len(dirs),
		CategoryCount:       len(categories),
	}
	m.ComplexityScore = float64(m.TotalFiles)*w.FileWeight +
		float64(m.TotalLines)*w.LineWeight +
		float64(m.DirectoriesAffected)*w.DirectoryWeight +
		float64(m.CategoryCount)*w.CategoryWeight
	return m
}

// directoryPrefix returns the first depth directory segments of p, or "." for
// files at the root.
func directoryPrefix(p string, depth int) string {
	segs := dirSegments(normalizePath(p))
	if len(segs) == 0 {
		return "."
	}
	if len(segs) > depth {
		segs = segs[:depth]
	}
	return strings.Join(segs, "/")
}

// TopDirectory returns the first directory segment of p, or "" for root files.
func TopDirectory(p string) string {
	dir := directoryPrefix(p, 1)
	if dir == "." {
		return ""
	}
	return path.Base(dir)
}
