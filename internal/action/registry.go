package action

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

// Registry maps action types to their executors.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[rules.ActionType]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[rules.ActionType]Executor)}
}

// NewDefaultRegistry returns a Registry with an executor for every action type.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(AutoApprove{})
	r.Register(RequireApproval{})
	r.Register(RequireMultiApproval{})
	r.Register(Escalate{})
	r.Register(Reject{})
	r.Register(Notify{})
	return r
}

// Register adds an executor. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[e.Type()]; exists {
		panic(fmt.Sprintf("action registry: duplicate type %q", e.Type()))
	}
	r.executors[e.Type()] = e
}

// Get returns the executor for the given type.
func (r *Registry) Get(actionType rules.ActionType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[actionType]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action type %q", actionType)
	}
	return e, nil
}

// Types returns all registered action types, sorted.
func (r *Registry) Types() []rules.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]rules.ActionType, 0, len(r.executors))
	for k := range r.executors {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks every rule's action against its executor.
func (r *Registry) Validate(rs []rules.ApprovalRule) error {
	for _, rule := range rs {
		e, err := r.Get(rule.Action.Type)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		if err := e.Validate(rule.Action); err != nil {
			return fmt.Errorf("rule %s: %w", rule.ID, err)
		}
	}
	return nil
}

// Dispatch converts an evaluation result into an Outcome. When no rule
// matched, the request falls back to a single required approval.
func (r *Registry) Dispatch(ctx context.Context, requestID string, res rules.RuleEvaluationResult) (*Outcome, error) {
	if !res.Matched || res.Action == nil {
		out, err := RequireApproval{}.Execute(ctx, Request{
			RequestID: requestID,
			Action: rules.RuleAction{
				Type:              rules.ActionRequireApproval,
				RequiredApprovals: 1,
				Message:           "no approval rule matched; default single approval applies",
			},
		})
		if err != nil {
			return nil, err
		}
		out.Fallback = true
		return out, nil
	}

	e, err := r.Get(res.Action.Type)
	if err != nil {
		return nil, err
	}
	req := Request{RequestID: requestID, Action: *res.Action}
	if res.MatchedRule != nil {
		req.RuleID = res.MatchedRule.ID
	}
	return e.Execute(ctx, req)
}
