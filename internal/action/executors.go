package action

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

func base(req Request, status Status) *Outcome {
	return &Outcome{
		RequestID:  req.RequestID,
		RuleID:     req.RuleID,
		ActionType: req.Action.Type,
		Status:     status,
		Message:    req.Action.Message,
	}
}

func approvers(req Request) []string {
	return rules.GetRequiredApprovers(rules.RuleEvaluationResult{Matched: true, Action: &req.Action})
}

// AutoApprove passes the request straight through.
type AutoApprove struct{}

func (AutoApprove) Type() rules.ActionType          { return rules.ActionAutoApprove }
func (AutoApprove) Validate(rules.RuleAction) error { return nil }

func (AutoApprove) Execute(_ context.Context, req Request) (*Outcome, error) {
	return base(req, StatusApproved), nil
}

// RequireApproval opens an approval request needing one sign-off (or
// RequiredApprovals when set) from the listed approvers.
type RequireApproval struct{}

func (RequireApproval) Type() rules.ActionType { return rules.ActionRequireApproval }

func (RequireApproval) Validate(a rules.RuleAction) error {
	if a.RequiredApprovals < 0 {
		return fmt.Errorf("require_approval: required_approvals must not be negative")
	}
	return nil
}

func (RequireApproval) Execute(_ context.Context, req Request) (*Outcome, error) {
	out := base(req, StatusPendingApproval)
	out.ApprovalRequestID = uuid.NewString()
	out.Approvers = approvers(req)
	out.RequiredApprovals = max(req.Action.RequiredApprovals, 1)
	return out, nil
}

// RequireMultiApproval opens an approval request needing RequiredApprovals
// distinct sign-offs.
type RequireMultiApproval struct{}

func (RequireMultiApproval) Type() rules.ActionType { return rules.ActionRequireMultiApproval }

func (RequireMultiApproval) Validate(a rules.RuleAction) error {
	if a.RequiredApprovals < 1 {
		return fmt.Errorf("require_multi_approval: required_approvals must be at least 1")
	}
	return nil
}

func (RequireMultiApproval) Execute(_ context.Context, req Request) (*Outcome, error) {
	out := base(req, StatusPendingApproval)
	out.ApprovalRequestID = uuid.NewString()
	out.Approvers = approvers(req)
	out.RequiredApprovals = req.Action.RequiredApprovals
	return out, nil
}

// Escalate hands the request to EscalateTo.
type Escalate struct{}

func (Escalate) Type() rules.ActionType { return rules.ActionEscalate }

func (Escalate) Validate(a rules.RuleAction) error {
	if a.EscalateTo == "" {
		return fmt.Errorf("escalate: escalate_to is required")
	}
	return nil
}

func (Escalate) Execute(_ context.Context, req Request) (*Outcome, error) {
	out := base(req, StatusEscalated)
	out.ApprovalRequestID = uuid.NewString()
	out.EscalateTo = req.Action.EscalateTo
	out.RequiredApprovals = 1
	return out, nil
}

// Reject blocks the request.
type Reject struct{}

func (Reject) Type() rules.ActionType          { return rules.ActionReject }
func (Reject) Validate(rules.RuleAction) error { return nil }

func (Reject) Execute(_ context.Context, req Request) (*Outcome, error) {
	out := base(req, StatusRejected)
	if out.Message == "" {
		out.Message = "rejected by approval policy"
	}
	return out, nil
}

// Notify lets the request through and records who must be told.
type Notify struct{}

func (Notify) Type() rules.ActionType { return rules.ActionNotify }

func (Notify) Validate(a rules.RuleAction) error {
	if len(a.NotifyRecipients) == 0 {
		return fmt.Errorf("notify: notify_recipients is required")
	}
	return nil
}

func (Notify) Execute(_ context.Context, req Request) (*Outcome, error) {
	out := base(req, StatusNotified)
	out.NotifyRecipients = append([]string(nil), req.Action.NotifyRecipients...)
	return out, nil
}
