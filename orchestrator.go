package commitsplit

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent generator calls in GenerateSplit.
const DefaultConcurrency = 4

// MessageOrchestrator builds generation requests, calls a TextGenerator and
// validates what comes back. Collaborator errors are returned unmodified.
type MessageOrchestrator struct {
	Generator TextGenerator

	// DiffLimit bounds the diff sent to the generator. Zero means no limit.
	DiffLimit int

	// SystemInstruction overrides DefaultSystemInstruction when set.
	SystemInstruction string

	// Context is sent with every request.
	Context GenerationContext

	// Concurrency bounds GenerateSplit. Zero means DefaultConcurrency.
	Concurrency int
}

// BuildRequest returns the request for a changeset with a suggested type.
func (o *MessageOrchestrator) BuildRequest(changes *StagedChanges, suggested CommitType) GenerationRequest {
	instruction := o.SystemInstruction
	if instruction == "" {
		instruction = DefaultSystemInstruction
	}
	return GenerationRequest{
		SystemInstruction: instruction,
		Diff:              TruncateDiff(changes.DiffContent, o.DiffLimit),
		Files:             changes.Paths(),
		Context:           o.Context,
		SuggestedType:     suggested,
	}
}

// Generate returns a message for the whole changeset.
func (o *MessageOrchestrator) Generate(ctx context.Context, changes *StagedChanges) (*GeneratedCommit, error) {
	if changes.IsEmpty() {
		return nil, ErrEmptyChangeset
	}
	suggested := SuggestType(changes)
	return o.generate(ctx, o.BuildRequest(changes, suggested))
}

// GenerateForGroup returns a message for one group of a split. The diff sent
// is restricted to the group's files.
func (o *MessageOrchestrator) GenerateForGroup(ctx context.Context, changes *StagedChanges, group SplitGroup) (*GeneratedCommit, error) {
	if len(group.Files) == 0 {
		return nil, ErrEmptyChangeset
	}
	sub := GroupChanges(changes, group)
	return o.generate(ctx, o.BuildRequest(sub, group.SuggestedType))
}

// GenerateSplit generates one message per group, concurrently. Messages are
// returned in group order. The first failure cancels the remaining calls.
func (o *MessageOrchestrator) GenerateSplit(ctx context.Context, changes *StagedChanges, proposal *SplitProposal) ([]*GeneratedCommit, error) {
	if proposal == nil || len(proposal.Groups) == 0 {
		return nil, ErrEmptyChangeset
	}
	limit := o.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	commits := make([]*GeneratedCommit, len(proposal.Groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, group := range proposal.Groups {
		g.Go(func() error {
			c, err := o.GenerateForGroup(ctx, changes, group)
			if err != nil {
				return err
			}
			commits[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return commits, nil
}

// Regenerate asks for a new message given the previous one and the user's
// feedback. Empty feedback requests a plain alternative.
func (o *MessageOrchestrator) Regenerate(ctx context.Context, changes *StagedChanges, previous, feedback string) (*GeneratedCommit, error) {
	if changes.IsEmpty() {
		return nil, ErrEmptyChangeset
	}
	suggested := SuggestType(changes)
	if c, err := ParseMessage(previous); err == nil {
		suggested = c.Type
	}
	req := o.BuildRequest(changes, suggested)
	req.Feedback = &Feedback{PreviousMessage: previous, Comment: feedback}
	return o.generate(ctx, req)
}

func (o *MessageOrchestrator) generate(ctx context.Context, req GenerationRequest) (*GeneratedCommit, error) {
	text, err := o.Generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	return CoerceMessage(text, req.SuggestedType)
}

// Heuristic renders a message without a text generator, from the inferred
// type, the dominant top-level directory and a summary of the files.
func Heuristic(changes *StagedChanges) (*GeneratedCommit, error) {
	if changes.IsEmpty() {
		return nil, ErrEmptyChangeset
	}
	c := &GeneratedCommit{
		Type:        SuggestType(changes),
		Scope:       dominantScope(changes.Paths()),
		Description: heuristicDescription(changes.Files),
	}

	var body strings.Builder
	const maxListed = 10
	for i, f := range changes.Files {
		if i == maxListed {
			fmt.Fprintf(&body, "- and %d more\n", len(changes.Files)-maxListed)
			break
		}
		fmt.Fprintf(&body, "- %s %s (+%d/-%d)\n", f.Status, f.Path, f.Additions, f.Deletions)
	}
	if len(changes.Files) > 1 {
		c.Body = body.String()
	}
	c.Format()
	return c, nil
}

// Heuristic renders an offline message for changes.
func (o *MessageOrchestrator) Heuristic(changes *StagedChanges) (*GeneratedCommit, error) {
	return Heuristic(changes)
}

func heuristicDescription(files []FileChange) string {
	verb := "update"
	switch uniformStatus(files) {
	case StatusAdded:
		verb = "add"
	case StatusDeleted:
		verb = "remove"
	case StatusRenamed:
		verb = "rename"
	}
	if len(files) == 1 {
		return verb + " " + path.Base(files[0].Path)
	}
	category := DominantCategory(files)
	return fmt.Sprintf("%s %d %s files", verb, len(files), category.Noun())
}

// uniformStatus returns the status shared by all files, or StatusModified.
func uniformStatus(files []FileChange) FileStatus {
	s := files[0].Status
	for _, f := range files[1:] {
		if f.Status != s {
			return StatusModified
		}
	}
	return s
}

// dominantScope returns the top-level directory holding more than half of
// the paths, or "" when none does.
func dominantScope(paths []string) string {
	counts := make(map[string]int)
	for _, p := range paths {
		counts[TopDirectory(p)]++
	}
	for dir, n := range counts {
		if dir != "" && n*2 > len(paths) {
			return strings.ToLower(dir)
		}
	}
	return ""
}

// DominantCategory returns the category with the most files. Ties go to the
// category applied first in a split.
func DominantCategory(files []FileChange) ChangeCategory {
	counts := make(map[ChangeCategory]int)
	for _, f := range files {
		counts[Classify(f.Path)]++
	}
	categories := make([]ChangeCategory, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return groupOrder[categories[i]] < groupOrder[categories[j]]
	})
	if len(categories) == 0 {
		return CategoryOther
	}
	return categories[0]
}

// SuggestType infers a type for a whole changeset from its dominant category
// and the status mix of that category's files.
func SuggestType(changes *StagedChanges) CommitType {
	if changes.IsEmpty() {
		return TypeChore
	}
	category := DominantCategory(changes.Files)
	var statuses []FileStatus
	hints := TypeHints{}
	for _, f := range changes.Files {
		if Classify(f.Path) != category {
			continue
		}
		statuses = append(statuses, f.Status)
		hints.Paths = append(hints.Paths, f.Path)
		hints.Additions += f.Additions
		hints.Deletions += f.Deletions
	}
	return InferTypeWithHints(category, statuses, hints)
}

// GroupChanges returns the part of changes that belongs to group.
func GroupChanges(changes *StagedChanges, group SplitGroup) *StagedChanges {
	var diff string
	if changes != nil {
		diff = FilterDiff(changes.DiffContent, group.Paths())
	}
	return NewStagedChanges(group.Files, diff)
}

// TruncateDiff bounds diff to limit bytes, cutting at a line boundary and
// appending a marker that reports how much was kept. A limit of zero or less
// disables truncation.
func TruncateDiff(diff string, limit int) string {
	if limit <= 0 || len(diff) <= limit {
		return diff
	}
	cut := strings.LastIndexByte(diff[:limit], '\n')
	if cut <= 0 {
		cut = limit
		for cut > 0 && !utf8.RuneStart(diff[cut]) {
			cut--
		}
	}
	kept := strings.TrimRight(diff[:cut], "\n")
	return fmt.Sprintf("%s\n\n[diff truncated: %d of %d characters shown]", kept, len(kept), len(diff))
}

// FilterDiff keeps the file sections of a git diff whose old or new path is
// in paths. Text before the first section is dropped.
func FilterDiff(diff string, paths []string) string {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}

	var b strings.Builder
	keep := false
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			oldPath, newPath := diffHeaderPaths(strings.TrimRight(line, "\n"))
			keep = want[oldPath] || want[newPath]
		}
		if keep {
			b.WriteString(line)
		}
	}
	return b.String()
}

// diffHeaderPaths extracts the paths of a "diff --git a/x b/y" line.
func diffHeaderPaths(line string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	i := strings.LastIndex(rest, " b/")
	if i < 0 {
		return "", ""
	}
	oldPath = strings.TrimPrefix(strings.Trim(rest[:i], `"`), "a/")
	newPath = strings.Trim(rest[i+1:], `"`)
	newPath = strings.TrimPrefix(newPath, "b/")
	return oldPath, newPath
}
