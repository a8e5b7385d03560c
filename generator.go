package commitsplit

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// DefaultSystemInstruction asks for a single conventional commit message.
const DefaultSystemInstruction = `You write git commit messages in the Conventional Commits format.
Output only the commit message, with no explanation, markdown or code fences.
Format:
- Header: type(scope): description. Allowed types: feat, fix, docs, style, refactor, perf, test, build, ci, chore, revert. The scope is optional. Use the imperative mood, no trailing period, at most 72 characters.
- Optionally a blank line followed by a body wrapped at 72 characters explaining what changed and why.
- Optionally a blank line followed by footers such as "BREAKING CHANGE: ..." or "Refs: #123".`

// GenerationContext is optional context sent with a request.
type GenerationContext struct {
	PriorMessages []string          // Recent commit messages, newest first
	ProjectType   string            // Hosting platform or project kind
	Language      string            // Primary language of the repository
	Metadata      map[string]string // Free-form extras rendered in key order
}

// IsEmpty reports whether the context carries no information.
func (c GenerationContext) IsEmpty() bool {
	return len(c.PriorMessages) == 0 && c.ProjectType == "" && c.Language == "" && len(c.Metadata) == 0
}

// Feedback carries the previous output and the user's remarks when a message
// is regenerated.
type Feedback struct {
	PreviousMessage string
	Comment         string
}

// GenerationRequest is the payload sent to a TextGenerator.
type GenerationRequest struct {
	SystemInstruction string
	Diff              string // Bounded to the generator's character limit
	Files             []string
	Context           GenerationContext
	SuggestedType     CommitType
	Feedback          *Feedback // Set only for regeneration
}

// TextGenerator is the text-generation collaborator.
type TextGenerator interface {
	// Generate returns a commit message for the request. Provider,
	// authentication and rate-limit failures are returned as errors.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// ProviderState is the availability of a text generation provider.
type ProviderState int

// Provider states.
const (
	ProviderNotConfigured ProviderState = iota
	ProviderActive
	ProviderInvalidKey
	ProviderUnreachable
)

// String returns the state as shown to the user.
func (s ProviderState) String() string {
	switch s {
	case ProviderActive:
		return "active"
	case ProviderInvalidKey:
		return "invalid key"
	case ProviderUnreachable:
		return "unreachable"
	}
	return "not configured"
}

// ProviderStatus reports whether a provider accepts its API key and, where
// the provider exposes it, the remaining account balance.
type ProviderStatus struct {
	Provider string
	State    ProviderState
	Balance  string // e.g. "110.00 CNY"; empty when unknown
}

// StatusChecker is implemented by generators that can verify their API key.
type StatusChecker interface {
	// Status reports an invalid key as ProviderInvalidKey and any other
	// failure as an error.
	Status(ctx context.Context) (ProviderStatus, error)
}

// RenderPrompt renders the user part of a request as plain text. Generators
// send it alongside SystemInstruction.
func RenderPrompt(req GenerationRequest) string {
	var b strings.Builder

	b.WriteString("Write a commit message for the following change.\n")
	fmt.Fprintf(&b, "Suggested type: %s\n", req.SuggestedType.Name())

	if len(req.Files) > 0 {
		b.WriteString("\nChanged files:\n")
		for _, f := range req.Files {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	if !req.Context.IsEmpty() {
		b.WriteString("\nProject context:\n")
		if req.Context.ProjectType != "" {
			fmt.Fprintf(&b, "- Project type: %s\n", req.Context.ProjectType)
		}
		if req.Context.Language != "" {
			fmt.Fprintf(&b, "- Language: %s\n", req.Context.Language)
		}
		keys := make([]string, 0, len(req.Context.Metadata))
		for k := range req.Context.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, req.Context.Metadata[k])
		}
		if len(req.Context.PriorMessages) > 0 {
			b.WriteString("- Recent commit messages, match their style:\n")
			for _, m := range req.Context.PriorMessages {
				fmt.Fprintf(&b, "  %s\n", firstLine(m))
			}
		}
	}

	if req.Feedback != nil {
		b.WriteString("\nThe previous message was:\n")
		b.WriteString(indent(req.Feedback.PreviousMessage))
		if strings.TrimSpace(req.Feedback.Comment) != "" {
			b.WriteString("\nRevise it according to this feedback:\n")
			b.WriteString(indent(req.Feedback.Comment))
		} else {
			b.WriteString("\nWrite a different message.\n")
		}
	}

	b.WriteString("\nDiff:\n")
	b.WriteString(req.Diff)
	if !strings.HasSuffix(req.Diff, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
