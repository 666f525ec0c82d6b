package spending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const maxSuggestions = 3

// GenerateForecast extends the current period's cumulative total by its
// average daily spend, one point per day after ref, next to the flat limit.
func GenerateForecast(records []Record, cfg LimitConfig, ref time.Time, forecastDays int) ([]ForecastPoint, error) {
	calc, err := CalculateSpending(records, cfg, ref)
	if err != nil {
		return nil, err
	}
	out := make([]ForecastPoint, 0, max(forecastDays, 0))
	total := decimal.NewFromFloat(calc.TotalSpent)
	avg := decimal.NewFromFloat(calc.AverageDaily)
	y, m, d := ref.Date()
	for i := 1; i <= forecastDays; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, ref.Location())
		out = append(out, ForecastPoint{
			Date:      day.Format(dayLayout),
			Projected: total.Add(avg.Mul(decimal.NewFromInt(int64(i)))).Round(2).InexactFloat64(),
			Limit:     cfg.MaxAmount,
		})
	}
	return out, nil
}

// CalculateSavingsOpportunity measures how far the current period's spend is
// above targetPercentage of the limit and suggests where to look, starting
// with the largest categories.
func CalculateSavingsOpportunity(records []Record, cfg LimitConfig, ref time.Time, targetPercentage float64) (SavingsOpportunity, error) {
	w, err := PeriodDates(cfg.Period, ref)
	if err != nil {
		return SavingsOpportunity{}, err
	}
	inPeriod := FilterByPeriod(records, w.Start, w.End)
	current := sum(inPeriod)
	target := decimal.NewFromFloat(cfg.MaxAmount).Mul(decimal.NewFromFloat(targetPercentage)).Div(hundred)
	savings := current.Sub(target)
	if savings.Sign() < 0 {
		savings = decimal.Zero
	}

	suggestions := []string{}
	if savings.Sign() > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Reduce spending by %s to reach %.0f%% of the %s limit",
			savings.StringFixed(2), targetPercentage, cfg.Period))
	}
	for _, ct := range TopCategories(inPeriod, maxSuggestions) {
		share := percentOf(decimal.NewFromFloat(ct.Amount), current)
		suggestions = append(suggestions, fmt.Sprintf("Review %s spending: %.2f (%s%% of period total)",
			ct.Category, ct.Amount, share.StringFixed(0)))
	}

	return SavingsOpportunity{
		CurrentSpending:  current.InexactFloat64(),
		TargetSpending:   target.InexactFloat64(),
		PotentialSavings: savings.InexactFloat64(),
		Suggestions:      suggestions,
	}, nil
}
