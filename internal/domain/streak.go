package domain

import (
	"sort"
	"time"
)

// streakWalkLimit bounds the current-streak walk-back. Anything older than a
// year is treated as no further streak, not an error.
const streakWalkLimit = 365

// StreakResult is a best-effort statistic. Computed is false when the input
// history was empty or unusable; Days is then 0 so that callers which only
// want a number can use Value without caring.
type StreakResult struct {
	Days     int
	Computed bool
}

// Value returns the numeric streak, defaulting to 0.
func (r StreakResult) Value() int {
	if !r.Computed {
		return 0
	}
	return r.Days
}

// CurrentStreak counts consecutive calendar days with at least one completed
// result, walking backward from today. A single missed day is tolerated as a
// rest day when the day before it has a result and the streak is already
// underway; two consecutive missed days end the streak.
func CurrentStreak(dates []time.Time, today time.Time) StreakResult {
	if len(dates) == 0 {
		return StreakResult{}
	}

	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		seen[truncateToDay(d)] = struct{}{}
	}

	streak := 0
	day := truncateToDay(today)
	floor := day.AddDate(0, 0, -streakWalkLimit)

	for !day.Before(floor) {
		if _, ok := seen[day]; ok {
			streak++
			day = day.AddDate(0, 0, -1)
			continue
		}

		// Tolerate one rest day: the day before the gap must have a result
		// and the streak must already be underway.
		prev := day.AddDate(0, 0, -1)
		if _, ok := seen[prev]; ok && streak > 0 {
			streak++
			day = prev.AddDate(0, 0, -1)
			continue
		}
		break
	}

	return StreakResult{Days: streak, Computed: true}
}

// LongestStreak finds the longest run of calendar days with at most one-day
// gaps between consecutive workout dates across the whole history.
func LongestStreak(dates []time.Time) StreakResult {
	if len(dates) == 0 {
		return StreakResult{}
	}

	distinct := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		distinct[truncateToDay(d)] = struct{}{}
	}

	days := make([]time.Time, 0, len(distinct))
	for d := range distinct {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		gap := int(days[i].Sub(days[i-1]).Hours() / 24)
		if gap <= 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}

	return StreakResult{Days: longest, Computed: true}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
