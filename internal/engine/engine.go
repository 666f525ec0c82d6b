package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/spendguard/internal/action"
	"github.com/gyaneshwarpardhi/spendguard/internal/config"
	"github.com/gyaneshwarpardhi/spendguard/internal/ledger"
	"github.com/gyaneshwarpardhi/spendguard/internal/metrics"
	"github.com/gyaneshwarpardhi/spendguard/internal/policy"
	"github.com/gyaneshwarpardhi/spendguard/internal/request"
	"github.com/gyaneshwarpardhi/spendguard/internal/rules"
)

var (
	// ErrQueueFull is returned when the evaluation queue has no room.
	ErrQueueFull = errors.New("evaluation queue full")
	// ErrTimeout is returned when a synchronous evaluation misses its budget.
	ErrTimeout = errors.New("evaluation timeout")
)

// Decision is the outcome of evaluating a single approval request.
type Decision struct {
	RequestID         string                     `json:"request_id"`
	PolicyVersion     string                     `json:"policy_version"`
	PolicyFingerprint string                     `json:"policy_fingerprint"`
	DurationMs        float64                    `json:"duration_ms"`
	Result            rules.RuleEvaluationResult `json:"result"`
	Outcome           *action.Outcome            `json:"outcome"`
	Error             string                     `json:"error,omitempty"`
}

// BatchReceipt summarises an asynchronous batch submission.
type BatchReceipt struct {
	JobID    string `json:"job_id"`
	Total    int    `json:"total"`
	Queued   int    `json:"queued"`
	Rejected int    `json:"rejected"`
}

// Engine evaluates approval requests against the current policy and gates
// purchases against the spending ledger.
type Engine struct {
	policy   atomic.Pointer[policy.Policy]
	registry *action.Registry
	store    ledger.Store
	pool     *workerPool[*evalWork]
	now      func() time.Time

	accountLocks sync.Map // account id -> *sync.Mutex
}

type evalWork struct {
	req     *request.ApprovalRequest
	resultC chan *Decision
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the reference for period calculations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine and starts its worker pool, sized from p's engine
// settings. Later policy swaps do not resize the pool.
func New(ctx context.Context, p *policy.Policy, reg *action.Registry, store ledger.Store, opts ...Option) (*Engine, error) {
	if err := reg.Validate(p.Rules()); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e := &Engine{
		registry: reg,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.policy.Store(p)

	conf := p.Settings()
	e.pool = newWorkerPool(ctx, conf.Workers, conf.QueueDepth, func(ctx context.Context, w *evalWork) error {
		d := e.evaluate(ctx, w.req)
		if w.resultC != nil {
			w.resultC <- d
			return nil
		}
		slog.Debug("request evaluated",
			"request_id", d.RequestID, "status", d.Outcome.Status, "rule_id", d.Outcome.RuleID)
		return nil
	})
	return e, nil
}

// Now returns the engine's reference time.
func (e *Engine) Now() time.Time { return e.now() }

// Policy returns the policy currently in effect.
func (e *Engine) Policy() *policy.Policy {
	return e.policy.Load()
}

// SwapPolicy atomically replaces the policy (used on hot-reload). A policy
// whose actions the registry cannot execute is refused.
func (e *Engine) SwapPolicy(p *policy.Policy) error {
	if err := e.registry.Validate(p.Rules()); err != nil {
		metrics.PolicyReloads.WithLabelValues("rejected").Inc()
		return err
	}
	e.policy.Store(p)
	metrics.PolicyReloads.WithLabelValues("applied").Inc()
	return nil
}

// ApplyConfig builds a policy from cfg and swaps it in. It is the OnChange
// hook of the policy loader, so a refused policy keeps the loader on the
// previous config too.
func (e *Engine) ApplyConfig(cfg *config.PolicyConfig) error {
	p, err := policy.Build(cfg, nil)
	if err != nil {
		metrics.PolicyReloads.WithLabelValues("rejected").Inc()
		return err
	}
	return e.SwapPolicy(p)
}

// Evaluate decides req synchronously through the worker pool, bounded by the
// policy's evaluation timeout.
func (e *Engine) Evaluate(ctx context.Context, req *request.ApprovalRequest) (*Decision, error) {
	req.Stamp(e.now())
	resultC := make(chan *Decision, 1)
	timeout := e.Policy().EvalTimeout()

	if !e.pool.Submit(&evalWork{req: req, resultC: resultC}) {
		metrics.RequestsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RequestsEnqueued.Inc()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case d := <-resultC:
		return d, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit enqueues req for background evaluation. Returns false if the queue is full.
func (e *Engine) Submit(req *request.ApprovalRequest) bool {
	req.Stamp(e.now())
	if !e.pool.Submit(&evalWork{req: req}) {
		metrics.RequestsDropped.Inc()
		return false
	}
	metrics.RequestsEnqueued.Inc()
	return true
}

// EvaluateBatch submits every request for background evaluation.
func (e *Engine) EvaluateBatch(reqs []*request.ApprovalRequest) BatchReceipt {
	r := BatchReceipt{JobID: uuid.NewString(), Total: len(reqs)}
	for _, req := range reqs {
		if e.Submit(req) {
			r.Queued++
		}
	}
	r.Rejected = r.Total - r.Queued
	return r
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) evaluate(ctx context.Context, req *request.ApprovalRequest) *Decision {
	start := time.Now()
	p := e.policy.Load()

	res := p.Evaluate(req.Context)
	d := &Decision{
		RequestID:         req.ID,
		PolicyVersion:     p.Version(),
		PolicyFingerprint: p.Fingerprint(),
		Result:            res,
	}

	out, err := e.registry.Dispatch(ctx, req.ID, res)
	if err != nil {
		// Never let a dispatch failure approve anything.
		out = &action.Outcome{RequestID: req.ID, Status: action.StatusPendingApproval, RequiredApprovals: 1, Message: err.Error()}
		d.Error = err.Error()
		slog.Warn("action dispatch failed", "request_id", req.ID, "err", err)
	}
	d.Outcome = out

	elapsed := time.Since(start)
	d.DurationMs = float64(elapsed.Microseconds()) / 1000

	metrics.RequestsEvaluated.Inc()
	metrics.EvaluationDuration.Observe(d.DurationMs)
	metrics.Outcomes.WithLabelValues(string(out.Status)).Inc()
	ruleID := "none"
	if res.MatchedRule != nil {
		ruleID = res.MatchedRule.ID
	}
	metrics.RuleMatches.WithLabelValues(ruleID).Inc()

	return d
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
