package gitdiff

import (
	"strings"

	"github.com/fwojciec/commitsplit"
)

// FormatFilePatch renders the git headers for a file followed by its hunks,
// for hosting APIs that return per-file hunks without headers. The result
// can be read back by Parser.
func FormatFilePatch(f commitsplit.FileChange, hunks string) string {
	oldPath := f.Path
	if f.OldPath != "" {
		oldPath = f.OldPath
	}

	var b strings.Builder
	b.WriteString("diff --git a/" + oldPath + " b/" + f.Path + "\n")
	switch f.Status {
	case commitsplit.StatusAdded:
		b.WriteString("new file mode 100644\n")
	case commitsplit.StatusDeleted:
		b.WriteString("deleted file mode 100644\n")
	case commitsplit.StatusRenamed:
		b.WriteString("rename from " + oldPath + "\n")
		b.WriteString("rename to " + f.Path + "\n")
	}

	from, to := "a/"+oldPath, "b/"+f.Path
	if f.Status == commitsplit.StatusAdded {
		from = "/dev/null"
	}
	if f.Status == commitsplit.StatusDeleted {
		to = "/dev/null"
	}

	hunks = strings.TrimRight(hunks, "\n")
	if hunks == "" {
		if f.Binary {
			b.WriteString("Binary files " + from + " and " + to + " differ\n")
		}
		return b.String()
	}
	b.WriteString("--- " + from + "\n")
	b.WriteString("+++ " + to + "\n")
	b.WriteString(hunks + "\n")
	return b.String()
}
