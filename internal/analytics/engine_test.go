package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/coaching/internal/domain"
)

type stubStore struct {
	athlete *domain.Athlete

	totalAthletes     int
	activeAthletes    int
	createdByWindow   map[string]int
	resultsByWindow   map[string]int
	assignedThisWeek  int
	completedThisWeek int
	recordsByWindow   map[string]int
	recent            []ActivityEntry
	counts            []AthleteResultCount
	resultDates       []time.Time
	bestTimes         []BestTime

	completedDates     []time.Time
	athleteResultDates []time.Time
	athleteRecordDates []time.Time
	assignments        []AssignmentDay
	athleteResults     int
	athleteAssignments int
	athleteRecords     int
	totals             AthleteTotals
	typeCounts         []TypeCount
	recentRecords      []domain.PersonalRecord
}

func windowKey(from, to time.Time) string {
	return from.Format("2006-01-02") + "/" + to.Format("2006-01-02")
}

func (s *stubStore) GetAthlete(_ context.Context, id string) (*domain.Athlete, error) {
	if s.athlete == nil || s.athlete.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.athlete, nil
}

func (s *stubStore) CountAthletes(context.Context, string) (int, int, error) {
	return s.totalAthletes, s.activeAthletes, nil
}

func (s *stubStore) CountAthletesCreated(_ context.Context, _ string, from, to time.Time) (int, error) {
	return s.createdByWindow[windowKey(from, to)], nil
}

func (s *stubStore) CountResults(_ context.Context, _ string, from, to time.Time) (int, error) {
	return s.resultsByWindow[windowKey(from, to)], nil
}

func (s *stubStore) CountAssignments(_ context.Context, _ string, _, _ time.Time, completedOnly bool) (int, error) {
	if completedOnly {
		return s.completedThisWeek, nil
	}
	return s.assignedThisWeek, nil
}

func (s *stubStore) CountRecords(_ context.Context, _ string, from, to time.Time) (int, error) {
	return s.recordsByWindow[windowKey(from, to)], nil
}

func (s *stubStore) RecentResults(context.Context, string, int) ([]ActivityEntry, error) {
	return s.recent, nil
}

func (s *stubStore) ResultCountsByAthlete(context.Context, string, time.Time, int) ([]AthleteResultCount, error) {
	return s.counts, nil
}

func (s *stubStore) ResultDates(context.Context, string, time.Time) ([]time.Time, error) {
	return s.resultDates, nil
}

func (s *stubStore) BestTimes(context.Context, string, string, domain.Variant, int) ([]BestTime, error) {
	return s.bestTimes, nil
}

func (s *stubStore) CompletedDates(context.Context, string) ([]time.Time, error) {
	return s.completedDates, nil
}

func (s *stubStore) AthleteResultDates(context.Context, string, time.Time) ([]time.Time, error) {
	return s.athleteResultDates, nil
}

func (s *stubStore) AthleteRecordDates(context.Context, string, time.Time) ([]time.Time, error) {
	return s.athleteRecordDates, nil
}

func (s *stubStore) AthleteAssignments(context.Context, string, time.Time) ([]AssignmentDay, error) {
	return s.assignments, nil
}

func (s *stubStore) CountAthleteResults(context.Context, string, time.Time, time.Time) (int, error) {
	return s.athleteResults, nil
}

func (s *stubStore) CountAthleteAssignments(context.Context, string, time.Time, time.Time) (int, error) {
	return s.athleteAssignments, nil
}

func (s *stubStore) CountAthleteRecords(context.Context, string, time.Time, time.Time) (int, error) {
	return s.athleteRecords, nil
}

func (s *stubStore) AthleteTotals(context.Context, string) (AthleteTotals, error) {
	return s.totals, nil
}

func (s *stubStore) WorkoutTypeCounts(context.Context, string) ([]TypeCount, error) {
	return s.typeCounts, nil
}

func (s *stubStore) RecentRecords(context.Context, string, int) ([]domain.PersonalRecord, error) {
	return s.recentRecords, nil
}

func fixedEngine(store Store, now time.Time) *Engine {
	e := NewEngine(store, nil)
	e.now = func() time.Time { return now }
	return e
}

func TestDashboardKPIs(t *testing.T) {
	// Thursday 2025-11-20: week starts Mon 2025-11-17, month 2025-11-01.
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	weekStart := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	lastMonthStart := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	store := &stubStore{
		totalAthletes:  12,
		activeAthletes: 9,
		createdByWindow: map[string]int{
			windowKey(monthStart, now):            3,
			windowKey(lastMonthStart, monthStart): 2,
		},
		resultsByWindow: map[string]int{
			windowKey(weekStart, now):                         18,
			windowKey(weekStart.AddDate(0, 0, -7), weekStart): 12,
		},
		assignedThisWeek:  20,
		completedThisWeek: 18,
		recordsByWindow: map[string]int{
			windowKey(monthStart, now):            4,
			windowKey(lastMonthStart, monthStart): 8,
		},
	}

	snap, err := fixedEngine(store, now).Dashboard(context.Background(), domain.Scope{CoachID: "coach-1"})
	require.NoError(t, err)

	require.Equal(t, 12.0, snap.TotalAthletes.Value)
	require.Equal(t, 9, snap.ActiveAthletes)
	require.Equal(t, 50.0, snap.TotalAthletes.GrowthPercent)
	require.Equal(t, "up", snap.TotalAthletes.Trend)

	require.Equal(t, 18.0, snap.WorkoutsThisWeek.Value)
	require.Equal(t, 50.0, snap.WorkoutsThisWeek.GrowthPercent)

	require.Equal(t, 90.0, snap.CompletionRate.Value)
	require.Equal(t, 15.0, snap.CompletionRate.GrowthPercent)
	require.Equal(t, "up", snap.CompletionRate.Trend)

	require.Equal(t, 4.0, snap.PRsThisMonth.Value)
	require.Equal(t, -50.0, snap.PRsThisMonth.GrowthPercent)
	require.Equal(t, "down", snap.PRsThisMonth.Trend)
}

func TestDashboardWeekdayDistributionIsSparse(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	store := &stubStore{
		resultDates: []time.Time{
			time.Date(2025, 11, 17, 7, 0, 0, 0, time.UTC),  // Monday
			time.Date(2025, 11, 17, 18, 0, 0, 0, time.UTC), // Monday
			time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC),  // Wednesday
		},
	}

	snap, err := fixedEngine(store, now).Dashboard(context.Background(), domain.Scope{CoachID: "coach-1"})
	require.NoError(t, err)

	require.Equal(t, map[string]int{"Monday": 2, "Wednesday": 1}, snap.WeeklyDistribution)
}

func TestDashboardTopPerformersCarryStreaks(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	store := &stubStore{
		counts: []AthleteResultCount{
			{AthleteID: "ath-1", AthleteName: "Ana", Count: 14},
			{AthleteID: "ath-2", AthleteName: "Bruno", Count: 11},
		},
		completedDates: []time.Time{
			now,
			now.AddDate(0, 0, -1),
			now.AddDate(0, 0, -2),
		},
	}

	snap, err := fixedEngine(store, now).Dashboard(context.Background(), domain.Scope{CoachID: "coach-1"})
	require.NoError(t, err)

	require.Len(t, snap.TopPerformers, 2)
	require.Equal(t, "Ana", snap.TopPerformers[0].Name)
	require.Equal(t, 14, snap.TopPerformers[0].WorkoutsCompleted)
	require.Equal(t, 3, snap.TopPerformers[0].CurrentStreak)
}

func TestLeaderboardRanksAndFormats(t *testing.T) {
	store := &stubStore{
		bestTimes: []BestTime{
			{AthleteID: "ath-2", AthleteName: "Bruno", TimeSeconds: 298},
			{AthleteID: "ath-1", AthleteName: "Ana", TimeSeconds: 312},
			{AthleteID: "ath-3", AthleteName: "Carla", TimeSeconds: 365},
		},
	}

	entries, err := NewEngine(store, nil).Leaderboard(context.Background(), domain.Scope{CoachID: "coach-1"}, "wod-1", domain.VariantRx)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, "Bruno", entries[0].AthleteName)
	require.Equal(t, "4:58", entries[0].FormattedTime)
	require.Equal(t, 3, entries[2].Rank)
	require.Equal(t, "6:05", entries[2].FormattedTime)
}

func TestAthleteProgressBucketsAreSparse(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	store := &stubStore{
		athlete: &domain.Athlete{ID: "ath-1", CoachID: "coach-1", Name: "Ana"},
		athleteResultDates: []time.Time{
			time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 3, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 11, 18, 8, 0, 0, 0, time.UTC),
		},
		athleteRecordDates: []time.Time{
			time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 11, 18, 8, 0, 0, 0, time.UTC),
		},
		assignments: []AssignmentDay{
			{ScheduledDate: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC), IsCompleted: true},
			{ScheduledDate: time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC), IsCompleted: true},
			{ScheduledDate: time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC), IsCompleted: false},
		},
	}

	charts, err := fixedEngine(store, now).AthleteProgress(context.Background(), domain.Scope{CoachID: "coach-1"}, "ath-1", PeriodThreeMonths)
	require.NoError(t, err)

	require.Equal(t, []WeekPoint{
		{Week: "2025-W36", Workouts: 2},
		{Week: "2025-W47", Workouts: 1},
	}, charts.WorkoutsByWeek)

	require.Equal(t, []MonthCount{
		{Month: "2025-09", Count: 1},
		{Month: "2025-11", Count: 1},
	}, charts.PRsByMonth)

	require.Equal(t, []MonthRate{
		{Month: "2025-09", CompletionRate: 100.0},
		{Month: "2025-11", CompletionRate: 0.0},
	}, charts.CompletionByMonth)
}

func TestAthleteProgressDeniesForeignCoach(t *testing.T) {
	store := &stubStore{
		athlete: &domain.Athlete{ID: "ath-1", CoachID: "coach-1", Name: "Ana"},
	}

	_, err := NewEngine(store, nil).AthleteProgress(context.Background(), domain.Scope{CoachID: "coach-2"}, "ath-1", PeriodOneMonth)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAthleteStatsSnapshot(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	avgTime := 305.0
	avgFeeling := 3.84
	store := &stubStore{
		athlete: &domain.Athlete{ID: "ath-1", CoachID: "coach-1", Name: "Ana"},
		completedDates: []time.Time{
			now,
			now.AddDate(0, 0, -1),
			now.AddDate(0, 0, -5),
			now.AddDate(0, 0, -6),
			now.AddDate(0, 0, -7),
		},
		athleteResults:     4,
		athleteAssignments: 5,
		athleteRecords:     2,
		totals: AthleteTotals{
			TotalResults:     40,
			TotalPRs:         6,
			RxResults:        30,
			AvgTimeSeconds:   &avgTime,
			AvgFeelingRating: &avgFeeling,
		},
		typeCounts: []TypeCount{
			{WorkoutType: "metcon", Count: 18},
			{WorkoutType: "strength", Count: 12},
			{WorkoutType: "endurance", Count: 7},
			{WorkoutType: "gymnastics", Count: 3},
		},
		athleteResultDates: []time.Time{
			now,
			now.AddDate(0, 0, -1),
			now.AddDate(0, 0, -1),
		},
	}

	snap, err := fixedEngine(store, now).AthleteStats(context.Background(), domain.Scope{AthleteID: "ath-1"}, "ath-1")
	require.NoError(t, err)

	require.Equal(t, 40, snap.TotalWorkouts)
	require.Equal(t, 6, snap.TotalPRs)
	require.Equal(t, 2, snap.CurrentStreak)
	require.Equal(t, 3, snap.LongestStreak)
	require.Equal(t, 80.0, snap.WeekCompletionRate)
	require.Equal(t, 5.1, snap.AvgWorkoutMinutes)
	require.Equal(t, 75.0, snap.RxRate)
	require.Equal(t, 3.8, snap.AvgFeelingRating)
	require.Equal(t, []string{"metcon", "strength", "endurance"}, snap.FavoriteTypes)

	require.Len(t, snap.WeeklyActivity, 7)
	require.Equal(t, now.Format("2006-01-02"), snap.WeeklyActivity[6].Date)
	require.Equal(t, 1, snap.WeeklyActivity[6].Count)
	require.Equal(t, 2, snap.WeeklyActivity[5].Count)
	require.Equal(t, 0, snap.WeeklyActivity[0].Count)
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)

	_, ok := cache.GetDashboard("coach-1")
	require.False(t, ok)

	cache.PutDashboard("coach-1", &DashboardSnapshot{ActiveAthletes: 7})

	snap, ok := cache.GetDashboard("coach-1")
	require.True(t, ok)
	require.Equal(t, 7, snap.ActiveAthletes)

	cache.Invalidate("coach-1")
	_, ok = cache.GetDashboard("coach-1")
	require.False(t, ok)
}

func TestInvalidateDashboardForAthleteDropsCoachSnapshot(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)
	store := &stubStore{athlete: &domain.Athlete{ID: "ath-1", CoachID: "coach-1"}}
	engine := NewEngine(store, cache)

	cache.PutDashboard("coach-1", &DashboardSnapshot{ActiveAthletes: 7})
	cache.PutDashboard("coach-2", &DashboardSnapshot{ActiveAthletes: 3})

	engine.InvalidateDashboardForAthlete(context.Background(), "ath-1")

	_, ok := cache.GetDashboard("coach-1")
	require.False(t, ok)

	snap, ok := cache.GetDashboard("coach-2")
	require.True(t, ok)
	require.Equal(t, 3, snap.ActiveAthletes)

	// An unknown athlete leaves every snapshot alone.
	cache.PutDashboard("coach-1", &DashboardSnapshot{ActiveAthletes: 7})
	engine.InvalidateDashboardForAthlete(context.Background(), "ath-missing")
	_, ok = cache.GetDashboard("coach-1")
	require.True(t, ok)
}
