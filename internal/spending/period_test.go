package spending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestPeriodDates(t *testing.T) {
	ref := date(2026, time.October, 21, 15) // Wednesday
	cases := []struct {
		period Period
		start  time.Time
		end    time.Time
	}{
		{Daily, date(2026, time.October, 21, 0), date(2026, time.October, 22, 0)},
		{Weekly, date(2026, time.October, 19, 0), date(2026, time.October, 26, 0)},
		{Monthly, date(2026, time.October, 1, 0), date(2026, time.November, 1, 0)},
		{Quarterly, date(2026, time.October, 1, 0), date(2027, time.January, 1, 0)},
		{Yearly, date(2026, time.January, 1, 0), date(2027, time.January, 1, 0)},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			w, err := PeriodDates(tc.period, ref)
			require.NoError(t, err)
			assert.True(t, tc.start.Equal(w.Start), "start = %v, want %v", w.Start, tc.start)
			assert.True(t, tc.end.Equal(w.End), "end = %v, want %v", w.End, tc.end)
			assert.True(t, w.Contains(ref))
		})
	}
}

func TestPeriodDates_WeekBoundaries(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	w, err := PeriodDates(Weekly, date(2026, time.October, 25, 23))
	require.NoError(t, err)
	assert.Equal(t, time.Monday, w.Start.Weekday())
	assert.Equal(t, 19, w.Start.Day())

	// Monday starts a new week.
	w, err = PeriodDates(Weekly, date(2026, time.October, 26, 0))
	require.NoError(t, err)
	assert.Equal(t, 26, w.Start.Day())
}

func TestPeriodDates_QuarterStarts(t *testing.T) {
	for m, want := range map[time.Month]time.Month{
		time.January: time.January, time.March: time.January,
		time.April: time.April, time.June: time.April,
		time.July: time.July, time.September: time.July,
		time.December: time.October,
	} {
		w, err := PeriodDates(Quarterly, date(2026, m, 15, 0))
		require.NoError(t, err)
		assert.Equal(t, want, w.Start.Month(), "month %s", m)
	}
}

func TestPeriodDates_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ref := time.Date(2026, time.March, 1, 1, 0, 0, 0, loc)
	w, err := PeriodDates(Monthly, ref)
	require.NoError(t, err)
	assert.Equal(t, loc, w.Start.Location())
	assert.Equal(t, time.March, w.Start.Month())
}

func TestPeriodDates_UnknownPeriod(t *testing.T) {
	_, err := PeriodDates("fortnightly", date(2026, time.October, 1, 0))
	var pe *UnknownPeriodError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, Period("fortnightly"), pe.Period)
}

func TestPreviousPeriod(t *testing.T) {
	w, err := PreviousPeriod(Monthly, date(2026, time.January, 10, 0))
	require.NoError(t, err)
	assert.True(t, date(2025, time.December, 1, 0).Equal(w.Start))
	assert.True(t, date(2026, time.January, 1, 0).Equal(w.End))
}

func TestDayCounts(t *testing.T) {
	w, err := PeriodDates(Monthly, date(2026, time.October, 19, 10))
	require.NoError(t, err)

	assert.Equal(t, 18, daysElapsed(w, date(2026, time.October, 19, 10)))
	assert.Equal(t, 13, daysRemaining(w, date(2026, time.October, 19, 10)))

	// First day: elapsed clamps to 1, remaining covers the whole month.
	assert.Equal(t, 1, daysElapsed(w, date(2026, time.October, 1, 0)))
	assert.Equal(t, 31, daysRemaining(w, date(2026, time.October, 1, 0)))

	// Last day still has its own remainder.
	assert.Equal(t, 1, daysRemaining(w, date(2026, time.October, 31, 23)))
}
