package gitdiff

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
)

// ParseListing builds a changeset from `git diff --numstat` and
// `git diff --name-status` output. File order follows the name-status
// listing. Numstat paths missing from it are appended as modified, in numstat
// order. The returned changeset has no diff text.
func ParseListing(numstat, nameStatus string) (*commitsplit.StagedChanges, error) {
	counts, order, err := parseNumstat(numstat)
	if err != nil {
		return nil, err
	}

	var files []commitsplit.FileChange
	listed := make(map[string]bool)
	for _, line := range nonEmptyLines(nameStatus) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" {
			return nil, commitsplit.NewParseError(line, errors.New("malformed name-status line"))
		}
		fc := commitsplit.FileChange{
			Status: commitsplit.ParseFileStatus(fields[0]),
			Path:   fields[len(fields)-1],
		}
		if len(fields) == 3 && fc.Status == commitsplit.StatusRenamed {
			fc.OldPath = fields[1]
		}
		if c, ok := counts[fc.Path]; ok {
			fc.Additions, fc.Deletions, fc.Binary = c.Additions, c.Deletions, c.Binary
		}
		listed[fc.Path] = true
		files = append(files, fc)
	}
	for _, path := range order {
		if listed[path] {
			continue
		}
		fc := counts[path]
		fc.Status = commitsplit.StatusModified
		files = append(files, fc)
	}
	return commitsplit.NewStagedChanges(files, ""), nil
}

// parseNumstat returns per-path counts keyed by the new path, and the paths
// in listing order.
func parseNumstat(numstat string) (map[string]commitsplit.FileChange, []string, error) {
	counts := make(map[string]commitsplit.FileChange)
	var order []string
	for _, line := range nonEmptyLines(numstat) {
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			return nil, nil, commitsplit.NewParseError(line, errors.New("malformed numstat line"))
		}
		fc := commitsplit.FileChange{Path: renamedPath(fields[2])}
		if fields[0] == "-" && fields[1] == "-" {
			fc.Binary = true
		} else {
			adds, err := strconv.Atoi(fields[0])
			if err != nil || adds < 0 {
				return nil, nil, commitsplit.NewParseError(line, errors.New("invalid added line count"))
			}
			dels, err := strconv.Atoi(fields[1])
			if err != nil || dels < 0 {
				return nil, nil, commitsplit.NewParseError(line, errors.New("invalid deleted line count"))
			}
			fc.Additions, fc.Deletions = adds, dels
		}
		if _, seen := counts[fc.Path]; !seen {
			order = append(order, fc.Path)
		}
		counts[fc.Path] = fc
	}
	return counts, order, nil
}

// renamedPath resolves the destination of a numstat rename entry such as
// "old.go => new.go" or "src/{a => b}/x.go".
func renamedPath(p string) string {
	open := strings.Index(p, "{")
	arrow := strings.Index(p, " => ")
	if arrow < 0 {
		return p
	}
	if open >= 0 && open < arrow {
		closing := strings.Index(p[arrow:], "}")
		if closing >= 0 {
			closing += arrow
			prefix := p[:open]
			suffix := p[closing+1:]
			dest := p[arrow+len(" => ") : closing]
			if dest == "" {
				suffix = strings.TrimPrefix(suffix, "/")
			}
			return prefix + dest + suffix
		}
	}
	return p[arrow+len(" => "):]
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
