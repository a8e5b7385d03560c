// Command git-commit-ai analyzes git changes, proposes how to split them into
// focused commits and writes conventional commit messages for them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/hashicorp/go-multierror"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		// The hint for an empty index has already been printed.
		if !errors.Is(err, commitsplit.ErrNoChanges) {
			PrintError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// PrintError writes err and its hints. Aggregated errors are listed one per
// line with their own hints.
func PrintError(w io.Writer, err error) {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		fmt.Fprintln(w, "Error:")
		for _, e := range merr.Errors {
			fmt.Fprintf(w, "  - %v\n", e)
			printHints(w, e, "    ")
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	printHints(w, err, "")
}

func printHints(w io.Writer, err error, indent string) {
	for _, h := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "%shint: %s\n", indent, h)
	}
}
