package spending

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dayLayout     = "2006-01-02"
	uncategorized = "uncategorized"
)

// FilterByPeriod keeps the records dated inside [start, end).
func FilterByPeriod(records []Record, start, end time.Time) []Record {
	w := Window{Start: start, End: end}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// CalculateTotal sums record amounts. The sum is exact, so it does not depend
// on record order.
func CalculateTotal(records []Record) float64 {
	return sum(records).InexactFloat64()
}

// CalculateByCategory sums amounts per category; records without a category
// are grouped under "uncategorized".
func CalculateByCategory(records []Record) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, r := range records {
		cat := r.Category
		if cat == "" {
			cat = uncategorized
		}
		acc[cat] = acc[cat].Add(decimal.NewFromFloat(r.Amount))
	}
	return toFloats(acc)
}

// CalculateByDay sums amounts per ISO calendar day of each record's date.
func CalculateByDay(records []Record) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, r := range records {
		day := r.Date.Format(dayLayout)
		acc[day] = acc[day].Add(decimal.NewFromFloat(r.Amount))
	}
	return toFloats(acc)
}

// CalculateByDayIn is CalculateByDay with every date converted to loc first,
// so records stored in different zones share the calendar of loc.
func CalculateByDayIn(records []Record, loc *time.Location) map[string]float64 {
	acc := make(map[string]decimal.Decimal)
	for _, r := range records {
		day := r.Date.In(loc).Format(dayLayout)
		acc[day] = acc[day].Add(decimal.NewFromFloat(r.Amount))
	}
	return toFloats(acc)
}

// CategoryTotal is one entry of a ranked category breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// TopCategories ranks categories by spend, largest first; ties sort by name.
// n <= 0 returns every category.
func TopCategories(records []Record, n int) []CategoryTotal {
	by := CalculateByCategory(records)
	out := make([]CategoryTotal, 0, len(by))
	for c, a := range by {
		out = append(out, CategoryTotal{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sum(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Amount))
	}
	return total
}

func toFloats(acc map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(acc))
	for k, v := range acc {
		out[k] = v.InexactFloat64()
	}
	return out
}
