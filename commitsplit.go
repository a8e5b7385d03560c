// Package commitsplit provides domain types and analysis for organizing a
// changeset into conventional commits.
package commitsplit

// FileStatus is the kind of change applied to a file.
type FileStatus int

// File statuses.
const (
	StatusModified FileStatus = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
)

// String returns the single-letter git status code.
func (s FileStatus) String() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	default:
		return "M"
	}
}

// Label returns a human-readable name for the status.
func (s FileStatus) Label() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// ParseFileStatus maps a git status code ("A", "M", "D", "R100", ...) or a
// hosting-platform status word ("added", "removed", ...) to a FileStatus.
// A copy creates its destination, so it maps to StatusAdded. Unknown codes,
// including type changes, map to StatusModified.
func ParseFileStatus(code string) FileStatus {
	if code == "" {
		return StatusModified
	}
	switch code {
	case "added", "new", "copied":
		return StatusAdded
	case "removed", "deleted":
		return StatusDeleted
	case "renamed":
		return StatusRenamed
	}
	switch code[0] {
	case 'A', 'C':
		return StatusAdded
	case 'D':
		return StatusDeleted
	case 'R':
		return StatusRenamed
	default:
		return StatusModified
	}
}

// FileChange is one file's entry in a changeset.
type FileChange struct {
	Path      string     // New path; old path for deleted files
	OldPath   string     // Previous path for renamed files, empty otherwise
	Status    FileStatus // Added, Modified, Deleted, Renamed
	Additions int        // Added lines, zero for binary files
	Deletions int        // Deleted lines, zero for binary files
	Binary    bool
}

// Lines returns the total number of changed lines.
func (f FileChange) Lines() int {
	return f.Additions + f.Deletions
}

// StagedChanges is an ordered changeset together with its raw diff.
// Files keep diff order.
type StagedChanges struct {
	Files          []FileChange
	DiffContent    string
	TotalAdditions int
	TotalDeletions int
}

// NewStagedChanges builds a changeset, computing totals from files.
func NewStagedChanges(files []FileChange, diff string) *StagedChanges {
	s := &StagedChanges{
		Files:       files,
		DiffContent: diff,
	}
	for _, f := range files {
		s.TotalAdditions += f.Additions
		s.TotalDeletions += f.Deletions
	}
	return s
}

// IsEmpty reports whether the changeset has no files.
func (s *StagedChanges) IsEmpty() bool {
	return s == nil || len(s.Files) == 0
}

// Paths returns file paths in diff order.
func (s *StagedChanges) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// Statuses returns the status of every file in diff order.
func (s *StagedChanges) Statuses() []FileStatus {
	statuses := make([]FileStatus, 0, len(s.Files))
	for _, f := range s.Files {
		statuses = append(statuses, f.Status)
	}
	return statuses
}
