package commitsplit

import "context"

// Action is the user's answer to a proposed commit message.
type Action int

// Approval actions.
const (
	ActionCancel Action = iota
	ActionApprove
	ActionEdit
	ActionRegenerate
)

func (a Action) String() string {
	switch a {
	case ActionApprove:
		return "approve"
	case ActionEdit:
		return "edit"
	case ActionRegenerate:
		return "regenerate"
	default:
		return "cancel"
	}
}

// Decision is returned by an Approver.
type Decision struct {
	Action   Action
	Message  string // Replacement message for ActionEdit
	Feedback string // Optional guidance for ActionRegenerate
}

// Preview is what an Approver shows the user.
type Preview struct {
	Title   string // e.g. "Commit 2 of 3"
	Commit  *GeneratedCommit
	Changes *StagedChanges
}

// Approver asks the user to accept, edit, regenerate or reject messages.
type Approver interface {
	// Approve blocks until the user decides on the previewed message.
	Approve(ctx context.Context, p Preview) (Decision, error)

	// ConfirmSplit blocks until the user accepts or declines a split.
	ConfirmSplit(ctx context.Context, proposal *SplitProposal) (bool, error)
}
