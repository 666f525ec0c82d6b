// Package request holds the canonical inputs accepted by the engine.
package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

// ApprovalRequest asks whether a purchase described by Context needs approval.
type ApprovalRequest struct {
	ID          string                      `json:"id"`
	AccountID   string                      `json:"account_id,omitempty"`
	RequesterID string                      `json:"requester_id,omitempty"`
	Context     rules.RuleEvaluationContext `json:"context"`
	ReceivedAt  time.Time                   `json:"-"`
}

// Stamp assigns an id when the caller sent none and records the arrival time.
func (r *ApprovalRequest) Stamp(now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.ReceivedAt = now
}

// CheckoutRequest is an approval request that also draws on the account's
// spending limit. Context.Amount is the purchase amount.
type CheckoutRequest struct {
	ApprovalRequest
	Category  string `json:"category,omitempty"`
	Reference string `json:"reference,omitempty"`
	// Commit appends the purchase to the ledger when it is cleared.
	Commit bool `json:"commit,omitempty"`
}
