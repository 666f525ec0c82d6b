package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/spendguard/internal/metrics"
	"github.com/gyaneshwarpardhi/spendguard/internal/request"
	"github.com/gyaneshwarpardhi/spendguard/internal/spending"
)

// ErrAmountRequired is returned by Checkout when the context carries no amount.
var ErrAmountRequired = errors.New("checkout requires context.amount")

// Summary is an account's position in its current limit period.
type Summary struct {
	AccountID      string                   `json:"account_id"`
	Limit          spending.LimitConfig     `json:"limit_config"`
	Rollover       float64                  `json:"rollover"`
	PreviousPeriod float64                  `json:"previous_period_spent"`
	Calculation    spending.Calculation     `json:"calculation"`
	Trend          spending.Trend           `json:"trend"`
	ByCategory     map[string]float64       `json:"by_category"`
	ByDay          map[string]float64       `json:"by_day"`
	TopCategories  []spending.CategoryTotal `json:"top_categories"`
}

// CheckoutResult combines the approval decision with the spending gate.
type CheckoutResult struct {
	Decision *Decision              `json:"decision"`
	Purchase spending.PurchaseCheck `json:"purchase"`
	Spending *Summary               `json:"spending"`
	// Cleared is true when the rules let the purchase proceed without a
	// human and the limit allows it.
	Cleared  bool   `json:"cleared"`
	RecordID string `json:"record_id,omitempty"`
}

// RecordSpending appends rec to account's ledger. The account must have a
// limit in the current policy.
func (e *Engine) RecordSpending(ctx context.Context, account string, rec spending.Record) (string, error) {
	if _, err := e.Policy().LimitFor(account); err != nil {
		return "", err
	}
	if rec.Date.IsZero() {
		rec.Date = e.now()
	}
	unlock := e.lockAccount(account)
	defer unlock()
	return e.store.Append(ctx, account, rec)
}

// Spending summarises account for the period containing ref, including the
// rollover carried from the previous period.
func (e *Engine) Spending(ctx context.Context, account string, ref time.Time) (*Summary, error) {
	limit, err := e.Policy().LimitFor(account)
	if err != nil {
		return nil, err
	}
	cur, err := spending.PeriodDates(limit.Period, ref)
	if err != nil {
		return nil, err
	}
	prev, err := spending.PreviousPeriod(limit.Period, ref)
	if err != nil {
		return nil, err
	}
	records, err := e.listRecords(ctx, account, prev.Start, cur.End, ref.Location())
	if err != nil {
		return nil, err
	}

	prevSpent := spending.CalculateTotal(spending.FilterByPeriod(records, prev.Start, prev.End))
	rollover := spending.CalculateRollover(prevSpent, limit)
	effective := spending.CalculateEffectiveLimit(limit, rollover)
	calc, err := spending.CalculateSpendingWithLimit(records, limit, effective, ref)
	if err != nil {
		return nil, err
	}
	current := spending.FilterByPeriod(records, cur.Start, cur.End)
	return &Summary{
		AccountID:      account,
		Limit:          limit,
		Rollover:       rollover,
		PreviousPeriod: prevSpent,
		Calculation:    calc,
		Trend:          spending.CalculateTrend(calc.TotalSpent, prevSpent),
		ByCategory:     spending.CalculateByCategory(current),
		ByDay:          spending.CalculateByDayIn(current, ref.Location()),
		TopCategories:  spending.TopCategories(current, 3),
	}, nil
}

// Forecast projects account's spending for the days after ref.
func (e *Engine) Forecast(ctx context.Context, account string, ref time.Time, days int) ([]spending.ForecastPoint, error) {
	limit, records, err := e.currentPeriod(ctx, account, ref)
	if err != nil {
		return nil, err
	}
	return spending.GenerateForecast(records, limit, ref, days)
}

// Savings reports how far account is above targetPercentage of its limit.
func (e *Engine) Savings(ctx context.Context, account string, ref time.Time, targetPercentage float64) (spending.SavingsOpportunity, error) {
	limit, records, err := e.currentPeriod(ctx, account, ref)
	if err != nil {
		return spending.SavingsOpportunity{}, err
	}
	return spending.CalculateSavingsOpportunity(records, limit, ref, targetPercentage)
}

func (e *Engine) currentPeriod(ctx context.Context, account string, ref time.Time) (spending.LimitConfig, []spending.Record, error) {
	limit, err := e.Policy().LimitFor(account)
	if err != nil {
		return spending.LimitConfig{}, nil, err
	}
	w, err := spending.PeriodDates(limit.Period, ref)
	if err != nil {
		return spending.LimitConfig{}, nil, err
	}
	records, err := e.listRecords(ctx, account, w.Start, w.End, ref.Location())
	if err != nil {
		return spending.LimitConfig{}, nil, err
	}
	return limit, records, nil
}

// listRecords loads account's records in [from, to) with dates converted to
// loc, so day buckets do not depend on the zone a backend returns.
func (e *Engine) listRecords(ctx context.Context, account string, from, to time.Time, loc *time.Location) ([]spending.Record, error) {
	records, err := e.store.List(ctx, account, from, to)
	if err != nil {
		return nil, fmt.Errorf("engine: load records for %s: %w", account, err)
	}
	for i := range records {
		records[i].Date = records[i].Date.In(loc)
	}
	return records, nil
}

// lockAccount serialises ledger writes of one account with the reads that
// gate them. Callers check the account against the policy first, so the
// set of locks is bounded by the configured accounts.
func (e *Engine) lockAccount(account string) (unlock func()) {
	v, _ := e.accountLocks.LoadOrStore(account, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Checkout evaluates the approval rules for req and checks the purchase
// against the account's effective limit and hard threshold. With req.Commit
// set, a cleared purchase is appended to the ledger; the spending read, the
// gate and the append happen under the account's lock.
func (e *Engine) Checkout(ctx context.Context, req *request.CheckoutRequest) (*CheckoutResult, error) {
	if req.Context.Amount == nil {
		return nil, ErrAmountRequired
	}
	amount := *req.Context.Amount
	if _, err := e.Policy().LimitFor(req.AccountID); err != nil {
		return nil, err
	}

	decision, err := e.Evaluate(ctx, &req.ApprovalRequest)
	if err != nil {
		return nil, err
	}

	if req.Commit {
		unlock := e.lockAccount(req.AccountID)
		defer unlock()
	}
	ref := e.now()
	summary, err := e.Spending(ctx, req.AccountID, ref)
	if err != nil {
		return nil, err
	}

	check := spending.GatePurchase(amount, summary.Calculation.TotalSpent, summary.Calculation.Limit, summary.Limit)
	switch {
	case !check.Allowed:
		metrics.PurchaseChecks.WithLabelValues("blocked").Inc()
	case check.Warning:
		metrics.PurchaseChecks.WithLabelValues("warned").Inc()
	default:
		metrics.PurchaseChecks.WithLabelValues("allowed").Inc()
	}

	res := &CheckoutResult{
		Decision: decision,
		Purchase: check,
		Spending: summary,
		Cleared:  check.Allowed && decision.Outcome.Proceed(),
	}
	if req.Commit && res.Cleared {
		category := req.Category
		if category == "" && len(req.Context.Categories) > 0 {
			category = req.Context.Categories[0]
		}
		id, err := e.store.Append(ctx, req.AccountID, spending.Record{
			Amount:    amount,
			Date:      ref,
			Category:  category,
			Reference: req.Reference,
		})
		if err != nil {
			return nil, fmt.Errorf("engine: record purchase: %w", err)
		}
		res.RecordID = id
	}
	return res, nil
}
