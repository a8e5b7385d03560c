package commitsplit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/commitsplit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, changes *commitsplit.StagedChanges, maxCommitSize int, threshold float64) *commitsplit.SplitProposal {
	t.Helper()
	proposal, err := commitsplit.AnalyzeSplit(changes, commitsplit.ComputeMetrics(changes), maxCommitSize, threshold)
	require.NoError(t, err)
	return proposal
}

func groupCategories(p *commitsplit.SplitProposal) []commitsplit.ChangeCategory {
	var cats []commitsplit.ChangeCategory
	for _, g := range p.Groups {
		cats = append(cats, g.Category)
	}
	return cats
}

// assertPartition checks that groups cover every file exactly once.
func assertPartition(t *testing.T, changes *commitsplit.StagedChanges, p *commitsplit.SplitProposal) {
	t.Helper()
	seen := make(map[string]int)
	var total int
	for _, g := range p.Groups {
		for _, f := range g.Files {
			seen[f.Path]++
			total++
		}
	}
	assert.Equal(t, len(changes.Files), total)
	for _, f := range changes.Files {
		assert.Equal(t, 1, seen[f.Path], f.Path)
	}
}

func TestAnalyzeSplit_Scenarios(t *testing.T) {
	t.Parallel()

	t.Run("single modified source file", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(modified("src/app.py", 5, 1))
		p := analyze(t, changes, 10, 30)

		assert.False(t, p.ShouldSplit)
		assert.Empty(t, p.Groups)
		assert.Equal(t, commitsplit.CategorySource, commitsplit.Classify("src/app.py"))
		assert.Equal(t, commitsplit.TypeRefactor, commitsplit.SuggestType(changes))
	})

	t.Run("25 files across src tests and docs", func(t *testing.T) {
		t.Parallel()

		var files []commitsplit.FileChange
		files = append(files, numbered(10, "docs", "page", ".md")[:5]...)
		files = append(files, numbered(10, "tests", "test_mod", ".py")...)
		files = append(files, numbered(10, "src", "mod", ".py")...)
		changes := changesOf(files...)
		require.Len(t, changes.Files, 25)

		p := analyze(t, changes, 10, 30)

		require.True(t, p.ShouldSplit)
		assert.Equal(t, []commitsplit.ChangeCategory{
			commitsplit.CategorySource,
			commitsplit.CategoryTest,
			commitsplit.CategoryDocumentation,
		}, groupCategories(p))
		assertPartition(t, changes, p)
		assert.Equal(t, commitsplit.TypeDocs, p.Groups[2].SuggestedType)
		assert.Equal(t, commitsplit.TypeTest, p.Groups[1].SuggestedType)
		assert.Contains(t, p.Rationale, "25 files exceed the limit of 10")
		assert.Contains(t, p.Rationale, "3 groups")
	})

	t.Run("large README change never splits", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(modified("README.md", 4000, 1500))
		p := analyze(t, changes, 10, 30)

		assert.False(t, p.ShouldSplit)
		assert.Empty(t, p.Groups)
		assert.Equal(t, commitsplit.TypeDocs, commitsplit.SuggestType(changes))
	})
}

func TestAnalyzeSplit_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	build := func(n int) *commitsplit.StagedChanges {
		files := numbered(n/2, "src", "mod", ".go")
		files = append(files, numbered(n-n/2, "src", "mod", "_test.go")...)
		return changesOf(files...)
	}

	t.Run("at the limit", func(t *testing.T) {
		t.Parallel()

		changes := build(10)
		m := commitsplit.ComputeMetrics(changes)
		require.Less(t, m.ComplexityScore, 30.0)

		p := analyze(t, changes, 10, 30)
		assert.False(t, p.ShouldSplit)
	})

	t.Run("one above the limit", func(t *testing.T) {
		t.Parallel()

		changes := build(11)
		m := commitsplit.ComputeMetrics(changes)
		require.Less(t, m.ComplexityScore, 30.0)

		p := analyze(t, changes, 10, 30)
		assert.True(t, p.ShouldSplit)
		assertPartition(t, changes, p)
		assert.NotContains(t, p.Rationale, "complexity")
	})
}

func TestAnalyzeSplit_ComplexityTrigger(t *testing.T) {
	t.Parallel()

	changes := changesOf(modified("src/a.go", 800, 200), modified("src/b.go", 900, 100), modified("docs/x.md", 10, 0))
	p := analyze(t, changes, 10, 30)

	require.True(t, p.ShouldSplit)
	assert.Contains(t, p.Rationale, "complexity")
	assert.NotContains(t, p.Rationale, "files exceed")
}

func TestAnalyzeSplit_Merging(t *testing.T) {
	t.Parallel()

	t.Run("stray style file joins source", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(
			modified("src/a.go", 1, 1),
			modified(".prettierrc", 1, 0),
			modified("src/b.go", 1, 1),
			modified("src/c.go", 1, 1),
			modified("src/d.go", 1, 1),
			modified("src/a_test.go", 1, 1),
			modified("src/b_test.go", 1, 1),
		)
		p := analyze(t, changes, 3, 30)

		require.True(t, p.ShouldSplit)
		require.Len(t, p.Groups, 2)
		assert.Equal(t, commitsplit.CategorySource, p.Groups[0].Category)
		assert.Equal(t, []string{"src/a.go", ".prettierrc", "src/b.go", "src/c.go", "src/d.go"}, p.Groups[0].Paths())
		assert.Equal(t, commitsplit.CategoryTest, p.Groups[1].Category)
		assertPartition(t, changes, p)
	})

	t.Run("stray config file joins build", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(
			modified("config/app.yaml", 1, 1),
			modified("Dockerfile", 1, 1),
			modified("Makefile", 1, 1),
			modified("src/a.go", 1, 1),
			modified("src/b.go", 1, 1),
			modified("src/c.go", 1, 1),
		)
		p := analyze(t, changes, 3, 30)

		require.Len(t, p.Groups, 2)
		assert.Equal(t, commitsplit.CategoryBuildOrCI, p.Groups[0].Category)
		assert.Len(t, p.Groups[0].Files, 3)
		assert.Equal(t, commitsplit.TypeBuild, p.Groups[0].SuggestedType)
		assert.Equal(t, commitsplit.CategorySource, p.Groups[1].Category)
		assertPartition(t, changes, p)
	})

	t.Run("stray docs file stays on its own", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(
			modified("src/a.go", 1, 1),
			modified("src/b.go", 1, 1),
			modified("src/c.go", 1, 1),
			modified("README.md", 1, 1),
		)
		p := analyze(t, changes, 2, 30)

		assert.Equal(t, []commitsplit.ChangeCategory{
			commitsplit.CategorySource,
			commitsplit.CategoryDocumentation,
		}, groupCategories(p))
		assertPartition(t, changes, p)
	})
}

func TestAnalyzeSplit_SingleCategorySplitsByDirectory(t *testing.T) {
	t.Parallel()

	changes := changesOf(
		modified("api/a.go", 10, 2),
		modified("web/x.go", 1, 1),
		modified("api/b.go", 10, 2),
		modified("web/y.go", 1, 1),
		modified("api/c.go", 10, 2),
		modified("web/z.go", 1, 1),
	)
	p := analyze(t, changes, 5, 30)

	require.True(t, p.ShouldSplit)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, "source: api", p.Groups[0].Name)
	assert.Equal(t, []string{"api/a.go", "api/b.go", "api/c.go"}, p.Groups[0].Paths())
	assert.Equal(t, "source: web", p.Groups[1].Name)
	assert.Equal(t, "3 source files, +30/-6", p.Groups[0].Description)
	assertPartition(t, changes, p)
}

func TestAnalyzeSplit_GroupTotals(t *testing.T) {
	t.Parallel()

	changes := changesOf(
		added("src/a.go", 40),
		added("src/b.go", 60),
		modified("docs/a.md", 3, 1),
		modified("docs/b.md", 2, 2),
	)
	p := analyze(t, changes, 3, 30)

	require.Len(t, p.Groups, 2)
	src := p.Groups[0]
	assert.Equal(t, 100, src.TotalAdditions)
	assert.Equal(t, 0, src.TotalDeletions)
	assert.Equal(t, commitsplit.TypeFeat, src.SuggestedType)
	assert.Equal(t, "2 source files, +100/-0", src.Description)
	assert.Equal(t, "2 documentation files, +5/-3", p.Groups[1].Description)
}

func TestAnalyzeSplit_PartitionProperty(t *testing.T) {
	t.Parallel()

	pool := []string{
		"src/a%d.go", "src/a%d_test.go", "docs/p%d.md", "config/c%d.yaml", "Dockerfile.%d",
		".github/workflows/w%d.yml", "assets/i%d.png", "styles/s%d.scss", "lib/l%d.py", ".eslintrc%d.json",
	}
	for n := 1; n <= 40; n++ {
		t.Run(fmt.Sprintf("%d files", n), func(t *testing.T) {
			t.Parallel()

			files := make([]commitsplit.FileChange, 0, n)
			for i := 0; i < n; i++ {
				files = append(files, modified(fmt.Sprintf(pool[(i*7)%len(pool)], i), i%13, i%5))
			}
			changes := changesOf(files...)
			p := analyze(t, changes, 4, 25)

			if p.ShouldSplit {
				require.NotEmpty(t, p.Groups)
				assertPartition(t, changes, p)
			} else {
				assert.Empty(t, p.Groups)
			}
		})
	}
}

func TestAnalyzeSplit_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty changeset", func(t *testing.T) {
		t.Parallel()

		_, err := commitsplit.AnalyzeSplit(changesOf(), commitsplit.ChangeMetrics{}, 10, 30)
		assert.ErrorIs(t, err, commitsplit.ErrEmptyChangeset)
	})

	t.Run("nil changeset", func(t *testing.T) {
		t.Parallel()

		_, err := commitsplit.AnalyzeSplit(nil, commitsplit.ChangeMetrics{}, 10, 30)
		assert.ErrorIs(t, err, commitsplit.ErrEmptyChangeset)
	})

	t.Run("negative max commit size", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(modified("a.go", 1, 1))
		p, err := commitsplit.AnalyzeSplit(changes, commitsplit.ComputeMetrics(changes), -1, 30)

		var cfgErr *commitsplit.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "max_commit_size", cfgErr.Field)
		assert.Nil(t, p)
	})

	t.Run("negative threshold", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(modified("a.go", 1, 1))
		_, err := commitsplit.AnalyzeSplit(changes, commitsplit.ComputeMetrics(changes), 10, -5)

		var cfgErr *commitsplit.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "complexity_threshold", cfgErr.Field)
	})

	t.Run("metrics of another changeset", func(t *testing.T) {
		t.Parallel()

		changes := changesOf(modified("a.go", 1, 1), modified("b.go", 1, 1))
		_, err := commitsplit.AnalyzeSplit(changes, commitsplit.ChangeMetrics{TotalFiles: 5}, 10, 30)
		assert.Error(t, err)
	})
}

func TestNewSplitter(t *testing.T) {
	t.Parallel()

	_, err := commitsplit.NewSplitter(commitsplit.SplitConfig{MaxCommitSize: 10, ComplexityThreshold: 30})
	var cfgErr *commitsplit.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "min_group_size", cfgErr.Field)

	s, err := commitsplit.NewSplitter(commitsplit.DefaultSplitConfig())
	require.NoError(t, err)

	changes := changesOf(modified("src/a.go", 1, 1))
	p, err := s.Analyze(changes, commitsplit.ComputeMetrics(changes))
	require.NoError(t, err)
	assert.False(t, p.ShouldSplit)
}
