package spending

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func octoberRecords() []Record {
	return []Record{
		{Amount: 200, Date: date(2026, time.September, 30, 23), Category: "watches"},
		{Amount: 500, Date: date(2026, time.October, 2, 9), Category: "watches", Reference: "PO-1"},
		{Amount: 300, Date: date(2026, time.October, 15, 14), Category: "rings", Reference: "PO-2"},
		{Amount: 100, Date: date(2026, time.November, 1, 0), Category: "rings"},
	}
}

func TestCalculateSpending_MonthlyScenario(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly, SoftLimitPercentage: 80}
	ref := date(2026, time.October, 19, 10)

	calc, err := CalculateSpending(octoberRecords(), cfg, ref)
	require.NoError(t, err)

	assert.Equal(t, 800.0, calc.TotalSpent)
	assert.Equal(t, 200.0, calc.Remaining)
	assert.Equal(t, 80.0, calc.Percentage)
	assert.True(t, calc.SoftLimitExceeded)
	assert.False(t, calc.HardLimitExceeded)
	assert.Equal(t, 18, calc.DaysElapsed)
	assert.Equal(t, 13, calc.DaysRemaining)
	assert.InDelta(t, 800.0/18, calc.AverageDaily, 1e-9)
	assert.InDelta(t, 800+800.0/18*13, calc.Projected, 1e-6)
	assert.False(t, calc.OnTrack)
	assert.InDelta(t, 200.0/13, calc.RecommendedDaily, 1e-9)
	assert.True(t, date(2026, time.October, 1, 0).Equal(calc.PeriodStart))
	assert.True(t, date(2026, time.November, 1, 0).Equal(calc.PeriodEnd))
}

func TestCalculateSpending_SoftThresholdNotConfigured(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly}
	calc, err := CalculateSpending(octoberRecords(), cfg, date(2026, time.October, 19, 10))
	require.NoError(t, err)
	assert.False(t, calc.SoftLimitExceeded)
}

func TestCalculateSpending_Overspend(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 600, Period: Monthly}
	calc, err := CalculateSpending(octoberRecords(), cfg, date(2026, time.October, 19, 10))
	require.NoError(t, err)

	assert.Equal(t, -200.0, calc.Remaining)
	assert.True(t, calc.HardLimitExceeded)
	assert.Less(t, calc.RecommendedDaily, 0.0)
}

func TestCalculateSpending_ExplicitHardThreshold(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly, HardLimitPercentage: 75}
	calc, err := CalculateSpending(octoberRecords(), cfg, date(2026, time.October, 19, 10))
	require.NoError(t, err)
	assert.True(t, calc.HardLimitExceeded)
}

func TestCalculateSpending_FirstDayAverage(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 3100, Period: Monthly}
	records := []Record{{Amount: 100, Date: date(2026, time.October, 1, 8)}}
	calc, err := CalculateSpending(records, cfg, date(2026, time.October, 1, 12))
	require.NoError(t, err)

	assert.Equal(t, 1, calc.DaysElapsed)
	assert.Equal(t, 100.0, calc.AverageDaily)
	assert.Equal(t, 31, calc.DaysRemaining)
	assert.Equal(t, 3200.0, calc.Projected)
	assert.False(t, calc.OnTrack)
}

func TestCalculateSpending_ZeroLimitStaysFinite(t *testing.T) {
	calc, err := CalculateSpending(octoberRecords(), LimitConfig{Period: Monthly}, date(2026, time.October, 19, 10))
	require.NoError(t, err)
	assert.Equal(t, 100.0, calc.Percentage)

	calc, err = CalculateSpending(nil, LimitConfig{Period: Monthly}, date(2026, time.October, 19, 10))
	require.NoError(t, err)
	assert.Equal(t, 0.0, calc.Percentage)
}

func TestCalculateSpending_UnknownPeriod(t *testing.T) {
	_, err := CalculateSpending(nil, LimitConfig{MaxAmount: 1, Period: "hourly"}, time.Now())
	require.Error(t, err)
}

func TestCalculateSpending_PeriodContainment(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly}
	records := []Record{
		{Amount: 1, Date: date(2026, time.October, 1, 0)},                          // start: counted
		{Amount: 10, Date: date(2026, time.November, 1, 0)},                        // end: excluded
		{Amount: 100, Date: date(2026, time.November, 1, 0).Add(-time.Nanosecond)}, // last instant: counted
	}
	calc, err := CalculateSpending(records, cfg, date(2026, time.October, 19, 0))
	require.NoError(t, err)
	assert.Equal(t, 101.0, calc.TotalSpent)
}

func TestCalculateTotal_OrderIndependent(t *testing.T) {
	records := []Record{
		{Amount: 0.1}, {Amount: 0.2}, {Amount: 0.3}, {Amount: 1999.99}, {Amount: 0.07}, {Amount: 12.5},
	}
	want := CalculateTotal(records)
	assert.Equal(t, 2013.16, want)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, CalculateTotal(shuffled))
	}
}

func TestCalculateByCategoryAndDay(t *testing.T) {
	records := []Record{
		{Amount: 10, Date: date(2026, time.October, 2, 9), Category: "watches"},
		{Amount: 15, Date: date(2026, time.October, 2, 18), Category: "watches"},
		{Amount: 5, Date: date(2026, time.October, 3, 9)},
	}
	assert.Equal(t, map[string]float64{"watches": 25, "uncategorized": 5}, CalculateByCategory(records))
	assert.Equal(t, map[string]float64{"2026-10-02": 25, "2026-10-03": 5}, CalculateByDay(records))

	top := TopCategories(records, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "watches", top[0].Category)
}

func TestCalculateByDayIn_NormalisesZones(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	records := []Record{
		{Amount: 10, Date: date(2026, time.October, 2, 22)},
		{Amount: 5, Date: time.Date(2026, time.October, 3, 8, 0, 0, 0, tokyo)}, // 2026-10-02 23:00 UTC
	}
	assert.Equal(t, map[string]float64{"2026-10-02": 15}, CalculateByDayIn(records, time.UTC))
	assert.Equal(t, map[string]float64{"2026-10-03": 15}, CalculateByDayIn(records, tokyo))
	assert.Len(t, CalculateByDay(records), 2)
}

func TestFilterByPeriod(t *testing.T) {
	got := FilterByPeriod(octoberRecords(), date(2026, time.October, 1, 0), date(2026, time.November, 1, 0))
	require.Len(t, got, 2)
	assert.Equal(t, "PO-1", got[0].Reference)
	assert.Equal(t, "PO-2", got[1].Reference)
}

func TestProjectionMonotonicInAverage(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 10000, Period: Monthly}
	ref := date(2026, time.October, 10, 12)
	prev := -1.0
	for _, amount := range []float64{0, 10, 100, 1000, 5000} {
		calc, err := CalculateSpending([]Record{{Amount: amount, Date: date(2026, time.October, 5, 0)}}, cfg, ref)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, calc.Projected, prev)
		prev = calc.Projected
	}
}

func TestCanMakePurchase(t *testing.T) {
	blocked := CanMakePurchase(300, 800, 1000, false)
	assert.False(t, blocked.Allowed)
	assert.Contains(t, blocked.Reason, "1000")
	assert.Contains(t, blocked.Reason, "1100")

	ok := CanMakePurchase(200, 800, 1000, false)
	assert.True(t, ok.Allowed)
	assert.Empty(t, ok.Reason)

	warned := CanMakePurchase(300, 800, 1000, true)
	assert.True(t, warned.Allowed)
	assert.True(t, warned.Warning)
	assert.NotEmpty(t, warned.Reason)
}

func TestCanMakePurchase_MatchesArithmetic(t *testing.T) {
	for amt := 0; amt <= 50; amt += 5 {
		for spent := 0; spent <= 50; spent += 7 {
			for _, limit := range []int{1, 25, 60} {
				got := CanMakePurchase(float64(amt), float64(spent), float64(limit), false).Allowed
				assert.Equal(t, spent+amt <= limit, got, "amt=%d spent=%d limit=%d", amt, spent, limit)
			}
		}
	}
}

func TestGatePurchase(t *testing.T) {
	cases := []struct {
		name          string
		cfg           LimitConfig
		amount, spent float64
		allowed       bool
		warning       bool
	}{
		{"within limit", LimitConfig{MaxAmount: 1000}, 100, 800, true, false},
		{"over limit without headroom", LimitConfig{MaxAmount: 1000}, 300, 800, false, false},
		{"between limit and hard ceiling", LimitConfig{MaxAmount: 1000, HardLimitPercentage: 120}, 200, 900, true, true},
		{"exactly at hard ceiling", LimitConfig{MaxAmount: 1000, HardLimitPercentage: 120}, 300, 900, true, true},
		{"over hard ceiling", LimitConfig{MaxAmount: 1000, HardLimitPercentage: 120}, 400, 900, false, false},
		{"hard threshold below 100", LimitConfig{MaxAmount: 1000, HardLimitPercentage: 75}, 100, 700, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GatePurchase(tc.amount, tc.spent, tc.cfg.MaxAmount, tc.cfg)
			assert.Equal(t, tc.allowed, got.Allowed)
			assert.Equal(t, tc.warning, got.Warning)
		})
	}

	blocked := GatePurchase(400, 900, 1000, LimitConfig{MaxAmount: 1000, HardLimitPercentage: 120})
	assert.Contains(t, blocked.Reason, "1200")
	assert.Contains(t, blocked.Reason, "1300")
}

func TestRollover(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly, Rollover: true, RolloverPercentage: 50}
	assert.Equal(t, 200.0, CalculateRollover(600, cfg))
	assert.Equal(t, 0.0, CalculateRollover(1200, cfg))

	cfg.RolloverPercentage = 0
	assert.Equal(t, 400.0, CalculateRollover(600, cfg))

	cfg.Rollover = false
	assert.Equal(t, 0.0, CalculateRollover(600, cfg))

	assert.Equal(t, 1200.0, CalculateEffectiveLimit(LimitConfig{MaxAmount: 1000}, 200))
}

func TestCalculateTrend(t *testing.T) {
	cases := []struct {
		current, previous float64
		want              Trend
	}{
		{150, 100, Trend{Direction: Up, Percentage: 50}},
		{0, 0, Trend{Direction: Stable, Percentage: 0}},
		{500, 0, Trend{Direction: Stable, Percentage: 0}},
		{80, 100, Trend{Direction: Down, Percentage: -20}},
		{100, 100, Trend{Direction: Stable, Percentage: 0}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CalculateTrend(tc.current, tc.previous), "trend(%v, %v)", tc.current, tc.previous)
	}
}

func TestGenerateForecast(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly}
	points, err := GenerateForecast(octoberRecords(), cfg, date(2026, time.October, 19, 10), 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, ForecastPoint{Date: "2026-10-20", Projected: 844.44, Limit: 1000}, points[0])
	assert.Equal(t, ForecastPoint{Date: "2026-10-21", Projected: 888.89, Limit: 1000}, points[1])
	assert.Equal(t, ForecastPoint{Date: "2026-10-22", Projected: 933.33, Limit: 1000}, points[2])

	none, err := GenerateForecast(octoberRecords(), cfg, date(2026, time.October, 19, 10), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCalculateSavingsOpportunity(t *testing.T) {
	cfg := LimitConfig{MaxAmount: 1000, Period: Monthly}
	got, err := CalculateSavingsOpportunity(octoberRecords(), cfg, date(2026, time.October, 19, 10), 50)
	require.NoError(t, err)

	assert.Equal(t, 800.0, got.CurrentSpending)
	assert.Equal(t, 500.0, got.TargetSpending)
	assert.Equal(t, 300.0, got.PotentialSavings)
	require.Len(t, got.Suggestions, 3)
	assert.Contains(t, got.Suggestions[0], "300.00")
	assert.Contains(t, got.Suggestions[1], "watches")
	assert.Contains(t, got.Suggestions[2], "rings")

	under, err := CalculateSavingsOpportunity(octoberRecords(), cfg, date(2026, time.October, 19, 10), 90)
	require.NoError(t, err)
	assert.Equal(t, 0.0, under.PotentialSavings)
	require.Len(t, under.Suggestions, 2)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,100.00", FormatAmount(1100, language.English))
}
