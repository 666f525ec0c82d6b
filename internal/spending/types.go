// Package spending computes budget usage, projections and purchase gates over
// dated spending records. Every function is pure: records and limits come from
// the caller and nothing is cached between calls.
package spending

import (
	"fmt"
	"time"
)

// Period is the calendar granularity a limit is tracked over.
type Period string

const (
	Daily     Period = "daily"
	Weekly    Period = "weekly"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// UnknownPeriodError is returned for a period string outside the known set.
type UnknownPeriodError struct {
	Period Period
}

func (e *UnknownPeriodError) Error() string {
	return fmt.Sprintf("unknown spending period %q", string(e.Period))
}

// Record is one immutable spending fact supplied by the caller.
type Record struct {
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Category  string    `json:"category,omitempty"`
	Reference string    `json:"reference,omitempty"`
}

// LimitConfig describes a budget. Zero SoftLimitPercentage disables the soft
// threshold; zero HardLimitPercentage means 100.
type LimitConfig struct {
	MaxAmount           float64 `json:"max_amount" yaml:"max_amount"`
	Period              Period  `json:"period" yaml:"period"`
	SoftLimitPercentage float64 `json:"soft_limit_percentage,omitempty" yaml:"soft_limit_percentage,omitempty"`
	HardLimitPercentage float64 `json:"hard_limit_percentage,omitempty" yaml:"hard_limit_percentage,omitempty"`
	Rollover            bool    `json:"rollover,omitempty" yaml:"rollover,omitempty"`
	RolloverPercentage  float64 `json:"rollover_percentage,omitempty" yaml:"rollover_percentage,omitempty"`
}

// HardLimit returns the effective hard threshold percentage.
func (c LimitConfig) HardLimit() float64 {
	if c.HardLimitPercentage <= 0 {
		return 100
	}
	return c.HardLimitPercentage
}

// Calculation is the derived budget state for the period containing a
// reference date.
type Calculation struct {
	TotalSpent        float64   `json:"total_spent"`
	Limit             float64   `json:"limit"`
	Remaining         float64   `json:"remaining"`
	Percentage        float64   `json:"percentage"`
	SoftLimitExceeded bool      `json:"soft_limit_exceeded"`
	HardLimitExceeded bool      `json:"hard_limit_exceeded"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	DaysElapsed       int       `json:"days_elapsed"`
	DaysRemaining     int       `json:"days_remaining"`
	AverageDaily      float64   `json:"average_daily"`
	Projected         float64   `json:"projected"`
	OnTrack           bool      `json:"on_track"`
	RecommendedDaily  float64   `json:"recommended_daily"`
}

// PurchaseCheck is the answer to "can this purchase proceed".
type PurchaseCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Warning bool   `json:"warning,omitempty"`
}

// Direction is the sign of a period-over-period change.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Stable Direction = "stable"
)

// Trend compares two periods.
type Trend struct {
	Direction  Direction `json:"direction"`
	Percentage float64   `json:"percentage"`
}

// ForecastPoint is one day of a projection series.
type ForecastPoint struct {
	Date      string  `json:"date"`
	Projected float64 `json:"projected"`
	Limit     float64 `json:"limit"`
}

// SavingsOpportunity is an advisory summary, not an optimization.
type SavingsOpportunity struct {
	CurrentSpending  float64  `json:"current_spending"`
	TargetSpending   float64  `json:"target_spending"`
	PotentialSavings float64  `json:"potential_savings"`
	Suggestions      []string `json:"suggestions"`
}
