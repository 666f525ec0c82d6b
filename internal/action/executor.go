package action

import (
	"context"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

// Status is the externally visible state of an approval decision.
type Status string

const (
	StatusApproved        Status = "approved"
	StatusPendingApproval Status = "pending_approval"
	StatusEscalated       Status = "escalated"
	StatusRejected        Status = "rejected"
	StatusNotified        Status = "notified"
)

// Outcome is what the caller acts on after a rule decided a request.
type Outcome struct {
	RequestID         string           `json:"request_id"`
	RuleID            string           `json:"rule_id,omitempty"`
	ActionType        rules.ActionType `json:"action_type"`
	Status            Status           `json:"status"`
	ApprovalRequestID string           `json:"approval_request_id,omitempty"`
	Approvers         []string         `json:"approvers,omitempty"`
	RequiredApprovals int              `json:"required_approvals,omitempty"`
	EscalateTo        string           `json:"escalate_to,omitempty"`
	NotifyRecipients  []string         `json:"notify_recipients,omitempty"`
	Message           string           `json:"message,omitempty"`
	Fallback          bool             `json:"fallback,omitempty"` // no rule matched
}

// Proceed reports whether the purchase may go ahead without waiting on anyone.
func (o *Outcome) Proceed() bool {
	return o.Status == StatusApproved || o.Status == StatusNotified
}

// Request carries one matched action to its executor.
type Request struct {
	RequestID string
	RuleID    string
	Action    rules.RuleAction
}

// Executor is the interface all action implementations must satisfy.
type Executor interface {
	// Type returns the action type this executor is registered under.
	Type() rules.ActionType
	// Execute turns the action into an outcome.
	Execute(ctx context.Context, req Request) (*Outcome, error)
	// Validate checks the action's parameters at policy build time.
	Validate(a rules.RuleAction) error
}
