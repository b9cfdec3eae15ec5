package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGrowthPercent(t *testing.T) {
	require.Equal(t, 50.0, GrowthPercent(15, 10))
	require.Equal(t, -25.0, GrowthPercent(6, 8))
	require.Equal(t, 0.0, GrowthPercent(10, 10))
	require.Equal(t, 33.3, GrowthPercent(4, 3))
}

func TestGrowthPercentZeroBaseline(t *testing.T) {
	require.Equal(t, 0.0, GrowthPercent(12, 0))
	require.Equal(t, 0.0, GrowthPercent(0, 0))
}

func TestTrend(t *testing.T) {
	require.Equal(t, "up", Trend(12.5))
	require.Equal(t, "up", Trend(0))
	require.Equal(t, "down", Trend(-0.1))
}

func TestCompletionRate(t *testing.T) {
	require.Equal(t, 75.0, CompletionRate(3, 4))
	require.Equal(t, 66.7, CompletionRate(2, 3))
	require.Equal(t, 0.0, CompletionRate(0, 0))
	require.Equal(t, 100.0, CompletionRate(5, 5))
}

func TestFormatSeconds(t *testing.T) {
	require.Equal(t, "4:58", FormatSeconds(298))
	require.Equal(t, "0:45", FormatSeconds(45))
	require.Equal(t, "10:00", FormatSeconds(600))
	require.Equal(t, "1:05", FormatSeconds(65))
}

func TestStartOfWeekIsMonday(t *testing.T) {
	// 2025-11-20 is a Thursday.
	thursday := time.Date(2025, 11, 20, 15, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC), StartOfWeek(thursday))

	sunday := time.Date(2025, 11, 23, 8, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))

	monday := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)
	require.Equal(t, monday, StartOfWeek(monday))
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	require.Equal(t, now.AddDate(0, -1, 0), PeriodOneMonth.Start(now))
	require.Equal(t, now.AddDate(0, -3, 0), PeriodThreeMonths.Start(now))
	require.Equal(t, now.AddDate(0, -6, 0), PeriodSixMonths.Start(now))
	require.Equal(t, now.AddDate(-1, 0, 0), PeriodOneYear.Start(now))
}

func TestParsePeriodDefaultsToThreeMonths(t *testing.T) {
	require.Equal(t, PeriodThreeMonths, ParsePeriod(""))
	require.Equal(t, PeriodThreeMonths, ParsePeriod("6weeks"))
	require.Equal(t, PeriodOneYear, ParsePeriod("1year"))
}

func TestBucketKeys(t *testing.T) {
	d := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-W47", isoWeekKey(d))
	require.Equal(t, "2025-11", monthKey(d))
}
