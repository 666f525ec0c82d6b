package spending

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// PeriodDates returns the civil-calendar window of the given period that
// contains ref, in ref's location. Weeks start on Monday.
func PeriodDates(p Period, ref time.Time) (Window, error) {
	loc := ref.Location()
	y, m, d := ref.Date()
	var start, end time.Time
	switch p {
	case Daily:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case Weekly:
		offset := (int(ref.Weekday()) + 6) % 7 // Monday = 0
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
	case Monthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	case Quarterly:
		qm := time.Month((int(m)-1)/3*3 + 1)
		start = time.Date(y, qm, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 3, 0)
	case Yearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	default:
		return Window{}, &UnknownPeriodError{Period: p}
	}
	return Window{Start: start, End: end}, nil
}

// PreviousPeriod returns the window immediately before the one containing ref.
func PreviousPeriod(p Period, ref time.Time) (Window, error) {
	cur, err := PeriodDates(p, ref)
	if err != nil {
		return Window{}, err
	}
	return PeriodDates(p, cur.Start.Add(-time.Nanosecond))
}

// dayNumber counts civil days since the epoch for t's calendar date in t's
// own location, so DST shifts never produce fractional days.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// civilDays is the number of calendar days from a's date to b's date.
func civilDays(a, b time.Time) int {
	return int(dayNumber(b) - dayNumber(a))
}

// daysRemaining counts ref's own day through the last day of the window.
func daysRemaining(w Window, ref time.Time) int {
	n := civilDays(ref, w.End)
	if n < 0 {
		return 0
	}
	return n
}

// daysElapsed counts the full days of the window before ref's day, at least 1.
func daysElapsed(w Window, ref time.Time) int {
	n := civilDays(w.Start, ref)
	if n < 1 {
		return 1
	}
	return n
}
