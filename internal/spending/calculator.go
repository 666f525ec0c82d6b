package spending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// trendEpsilon is the smallest percentage change reported as up or down.
const trendEpsilon = 0.01

var hundred = decimal.NewFromInt(100)

// CalculateSpending computes the budget state of cfg for the period that
// contains ref. Remaining goes negative on overspend.
func CalculateSpending(records []Record, cfg LimitConfig, ref time.Time) (Calculation, error) {
	return calculate(records, cfg, cfg.MaxAmount, ref)
}

// CalculateSpendingWithLimit is CalculateSpending against an explicit limit,
// typically CalculateEffectiveLimit with a rollover applied.
func CalculateSpendingWithLimit(records []Record, cfg LimitConfig, limit float64, ref time.Time) (Calculation, error) {
	return calculate(records, cfg, limit, ref)
}

func calculate(records []Record, cfg LimitConfig, limit float64, ref time.Time) (Calculation, error) {
	w, err := PeriodDates(cfg.Period, ref)
	if err != nil {
		return Calculation{}, err
	}
	inPeriod := FilterByPeriod(records, w.Start, w.End)

	total := sum(inPeriod)
	ceiling := decimal.NewFromFloat(limit)
	remaining := ceiling.Sub(total)
	pct := percentOf(total, ceiling)

	elapsed := daysElapsed(w, ref)
	left := daysRemaining(w, ref)
	avg := total.Div(decimal.NewFromInt(int64(elapsed)))
	projected := total.Add(avg.Mul(decimal.NewFromInt(int64(left))))
	divisor := left
	if divisor < 1 {
		divisor = 1
	}
	recommended := remaining.Div(decimal.NewFromInt(int64(divisor)))

	pctF := pct.InexactFloat64()
	return Calculation{
		TotalSpent:        total.InexactFloat64(),
		Limit:             limit,
		Remaining:         remaining.InexactFloat64(),
		Percentage:        pctF,
		SoftLimitExceeded: cfg.SoftLimitPercentage > 0 && pctF >= cfg.SoftLimitPercentage,
		HardLimitExceeded: pctF >= cfg.HardLimit(),
		PeriodStart:       w.Start,
		PeriodEnd:         w.End,
		DaysElapsed:       elapsed,
		DaysRemaining:     left,
		AverageDaily:      avg.InexactFloat64(),
		Projected:         projected.InexactFloat64(),
		OnTrack:           projected.LessThanOrEqual(ceiling),
		RecommendedDaily:  recommended.InexactFloat64(),
	}, nil
}

// percentOf returns part/whole*100. A non-positive whole yields 0 when
// nothing was spent and 100 otherwise, so no NaN or Inf escapes.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.Sign() <= 0 {
		if part.Sign() > 0 {
			return hundred
		}
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// CanMakePurchase gates a purchase of amount given what was already spent.
// With allowExceed the purchase always proceeds and an overrun is reported as
// a warning instead of a block.
func CanMakePurchase(amount, spent, limit float64, allowExceed bool) PurchaseCheck {
	after := decimal.NewFromFloat(spent).Add(decimal.NewFromFloat(amount))
	ceiling := decimal.NewFromFloat(limit)
	if after.LessThanOrEqual(ceiling) {
		return PurchaseCheck{Allowed: true}
	}
	reason := fmt.Sprintf("purchase of %.2f would bring spending to %s, exceeding the limit of %.2f",
		amount, after.StringFixed(2), limit)
	if allowExceed {
		return PurchaseCheck{Allowed: true, Reason: reason, Warning: true}
	}
	return PurchaseCheck{Allowed: false, Reason: reason}
}

// GatePurchase applies cfg's hard threshold to a purchase against limit,
// the effective limit of the period. Spending may reach limit*HardLimit/100
// and no further; the part between limit and that ceiling, only reachable
// when the hard threshold is above 100%, is allowed with a warning.
func GatePurchase(amount, spent, limit float64, cfg LimitConfig) PurchaseCheck {
	ceiling := decimal.NewFromFloat(limit).Mul(decimal.NewFromFloat(cfg.HardLimit())).Div(hundred).InexactFloat64()
	if check := CanMakePurchase(amount, spent, ceiling, false); !check.Allowed {
		return check
	}
	return CanMakePurchase(amount, spent, limit, ceiling > limit)
}

// CalculateRollover returns the unused budget of the previous period carried
// forward at RolloverPercentage (100 when unset). It is never negative.
func CalculateRollover(previousPeriodSpent float64, cfg LimitConfig) float64 {
	if !cfg.Rollover {
		return 0
	}
	unused := decimal.NewFromFloat(cfg.MaxAmount).Sub(decimal.NewFromFloat(previousPeriodSpent))
	if unused.Sign() <= 0 {
		return 0
	}
	pct := cfg.RolloverPercentage
	if pct <= 0 {
		pct = 100
	}
	return unused.Mul(decimal.NewFromFloat(pct)).Div(hundred).InexactFloat64()
}

// CalculateEffectiveLimit is the configured maximum plus any rollover.
func CalculateEffectiveLimit(cfg LimitConfig, rolloverAmount float64) float64 {
	return decimal.NewFromFloat(cfg.MaxAmount).Add(decimal.NewFromFloat(rolloverAmount)).InexactFloat64()
}

// CalculateTrend compares the current period with the previous one. A zero
// previous period is reported as stable.
func CalculateTrend(currentPeriodSpent, previousPeriodSpent float64) Trend {
	prev := decimal.NewFromFloat(previousPeriodSpent)
	if prev.IsZero() {
		return Trend{Direction: Stable, Percentage: 0}
	}
	pct := decimal.NewFromFloat(currentPeriodSpent).Sub(prev).Div(prev).Mul(hundred).InexactFloat64()
	switch {
	case pct > trendEpsilon:
		return Trend{Direction: Up, Percentage: pct}
	case pct < -trendEpsilon:
		return Trend{Direction: Down, Percentage: pct}
	}
	return Trend{Direction: Stable, Percentage: pct}
}
