// Package analytics derives dashboard and progress statistics from the
// relational store: period-over-period growth, completion rates,
// leaderboards and time-bucketed rollups.
package analytics

import (
	"fmt"
	"math"
	"time"
)

// GrowthPercent compares a current period count against the preceding period
// of equal length. A previous count of zero yields 0 regardless of the
// current count; there is no meaningful growth against nothing.
func GrowthPercent(current, previous int) float64 {
	if previous == 0 {
		return 0
	}
	return round1(float64(current-previous) / float64(previous) * 100)
}

// Trend labels a growth percentage: "up" covers zero growth.
func Trend(growth float64) string {
	if growth >= 0 {
		return "up"
	}
	return "down"
}

// CompletionRate is the completed/assigned percentage, 0 when nothing was
// assigned in-window.
func CompletionRate(completed, assigned int) float64 {
	if assigned == 0 {
		return 0
	}
	return round1(float64(completed) / float64(assigned) * 100)
}

// FormatSeconds renders an elapsed time as minutes:seconds, e.g. 298 -> "4:58".
func FormatSeconds(total int) string {
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// StartOfWeek returns midnight of the Monday of t's week, in UTC.
func StartOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// StartOfMonth returns midnight of the first day of t's month, in UTC.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isoWeekKey buckets a timestamp by ISO week, e.g. "2025-W47".
func isoWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// monthKey buckets a timestamp by calendar month, e.g. "2025-11".
func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Period selects the athlete-progress window length.
type Period string

const (
	PeriodOneMonth    Period = "1month"
	PeriodThreeMonths Period = "3months"
	PeriodSixMonths   Period = "6months"
	PeriodOneYear     Period = "1year"
)

// ParsePeriod maps the query value to a Period, falling back to three months.
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case PeriodOneMonth, PeriodThreeMonths, PeriodSixMonths, PeriodOneYear:
		return Period(raw)
	default:
		return PeriodThreeMonths
	}
}

// Start returns the window start for the period, counting back from now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodOneMonth:
		return now.AddDate(0, -1, 0)
	case PeriodSixMonths:
		return now.AddDate(0, -6, 0)
	case PeriodOneYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -3, 0)
	}
}
