// Package bubbletea implements the interactive approval prompts.
package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	dv "github.com/fwojciec/commitsplit/lipgloss"
)

// Compile-time interface verification.
var _ commitsplit.Approver = (*Approver)(nil)

const (
	reviewHelp   = "y/enter approve · e edit · r regenerate · n cancel"
	editHelp     = "Edit the message · ctrl+s save · esc back"
	feedbackHelp = "Feedback for the next attempt (empty asks for a different message) · enter submit · esc back"
)

type approvalMode int

const (
	modeReview approvalMode = iota
	modeEdit
	modeFeedback
)

// ApprovalModel asks the user to approve, edit, regenerate or cancel a
// proposed commit message.
type ApprovalModel struct {
	preview  commitsplit.Preview
	renderer *dv.Renderer
	content  string

	mode     approvalMode
	editor   textarea.Model
	feedback textinput.Model
	errMsg   string

	decision commitsplit.Decision
	done     bool
}

// NewApprovalModel returns a model previewing p. If renderer is nil, a
// default renderer is used.
func NewApprovalModel(p commitsplit.Preview, renderer *dv.Renderer) ApprovalModel {
	if renderer == nil {
		renderer = dv.NewRenderer(nil)
	}
	if p.Changes != nil {
		expanded := *p.Changes
		expanded.DiffContent = ExpandTabs(expanded.DiffContent)
		p.Changes = &expanded
	}

	editor := textarea.New()
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.SetHeight(10)

	feedback := textinput.New()
	feedback.Placeholder = "e.g. mention the cache invalidation"

	return ApprovalModel{
		preview:  p,
		renderer: renderer,
		content:  renderer.Preview(p),
		editor:   editor,
		feedback: feedback,
	}
}

// Init implements tea.Model.
func (m ApprovalModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ApprovalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.editor.SetWidth(max(msg.Width-2, 20))
		m.feedback.Width = max(msg.Width-4, 20)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.finish(commitsplit.Decision{Action: commitsplit.ActionCancel})
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeFeedback:
			return m.updateFeedback(msg)
		default:
			return m.updateReview(msg)
		}
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeEdit:
		m.editor, cmd = m.editor.Update(msg)
	case modeFeedback:
		m.feedback, cmd = m.feedback.Update(msg)
	}
	return m, cmd
}

func (m ApprovalModel) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		return m.finish(commitsplit.Decision{Action: commitsplit.ActionApprove})
	case "n", "q", "esc":
		return m.finish(commitsplit.Decision{Action: commitsplit.ActionCancel})
	case "e":
		m.mode = modeEdit
		m.errMsg = ""
		if m.preview.Commit != nil {
			m.editor.SetValue(m.preview.Commit.FormattedMessage)
		}
		return m, m.editor.Focus()
	case "r":
		m.mode = modeFeedback
		m.feedback.SetValue("")
		return m, m.feedback.Focus()
	}
	return m, nil
}

func (m ApprovalModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeReview
		m.editor.Blur()
		return m, nil
	case tea.KeyCtrlS:
		text := strings.TrimSpace(m.editor.Value())
		c, err := commitsplit.ParseMessage(text)
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		return m.finish(commitsplit.Decision{Action: commitsplit.ActionEdit, Message: c.Format()})
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m ApprovalModel) updateFeedback(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeReview
		m.feedback.Blur()
		return m, nil
	case tea.KeyEnter:
		return m.finish(commitsplit.Decision{
			Action:   commitsplit.ActionRegenerate,
			Feedback: strings.TrimSpace(m.feedback.Value()),
		})
	}
	var cmd tea.Cmd
	m.feedback, cmd = m.feedback.Update(msg)
	return m, cmd
}

func (m ApprovalModel) finish(d commitsplit.Decision) (tea.Model, tea.Cmd) {
	m.decision = d
	m.done = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m ApprovalModel) View() string {
	if m.done {
		return ""
	}
	switch m.mode {
	case modeEdit:
		view := editHelp + "\n\n" + m.editor.View()
		if m.errMsg != "" {
			view += "\n\n" + m.errMsg
		}
		return view + "\n"
	case modeFeedback:
		return m.renderer.Message(m.preview.Commit) + "\n\n" + feedbackHelp + "\n\n" + m.feedback.View() + "\n"
	default:
		return m.content + "\n\n" + reviewHelp + "\n"
	}
}

// Decision returns the user's answer. It is ActionCancel until the model
// has finished.
func (m ApprovalModel) Decision() commitsplit.Decision {
	return m.decision
}

// ConfirmModel asks the user to accept a split proposal.
type ConfirmModel struct {
	proposal  *commitsplit.SplitProposal
	renderer  *dv.Renderer
	width     int
	confirmed bool
	done      bool
}

// NewConfirmModel returns a model for proposal. If renderer is nil, a default
// renderer is used.
func NewConfirmModel(proposal *commitsplit.SplitProposal, renderer *dv.Renderer) ConfirmModel {
	if renderer == nil {
		renderer = dv.NewRenderer(nil)
	}
	return ConfirmModel{proposal: proposal, renderer: renderer}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "enter":
			m.confirmed, m.done = true, true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	if m.done || m.proposal == nil {
		return ""
	}
	flow := SplitFlow(m.proposal.Groups, m.width, m.renderer.Lipgloss())
	question := fmt.Sprintf("Split into %d commits? [Y/n]", len(m.proposal.Groups))
	return m.renderer.Proposal(m.proposal) + "\n\n" + flow + "\n\n" + question + "\n"
}

// Confirmed reports whether the user accepted the split.
func (m ConfirmModel) Confirmed() bool {
	return m.confirmed
}

// Approver runs the approval prompts as bubbletea programs.
type Approver struct {
	renderer *dv.Renderer
	options  []tea.ProgramOption
}

// NewApprover returns an approver rendering with renderer. Program options
// such as tea.WithInput and tea.WithOutput are passed to every prompt.
func NewApprover(renderer *dv.Renderer, opts ...tea.ProgramOption) *Approver {
	return &Approver{renderer: renderer, options: opts}
}

// Approve shows the preview and blocks until the user decides.
func (a *Approver) Approve(ctx context.Context, p commitsplit.Preview) (commitsplit.Decision, error) {
	final, err := a.run(ctx, NewApprovalModel(p, a.renderer))
	if err != nil {
		return commitsplit.Decision{}, err
	}
	return final.(ApprovalModel).Decision(), nil
}

// ConfirmSplit shows the proposal and blocks until the user answers.
func (a *Approver) ConfirmSplit(ctx context.Context, proposal *commitsplit.SplitProposal) (bool, error) {
	final, err := a.run(ctx, NewConfirmModel(proposal, a.renderer))
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Confirmed(), nil
}

func (a *Approver) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.options...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, "run prompt")
	}
	return final, nil
}
