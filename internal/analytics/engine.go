package analytics

import (
	"context"
	"sort"
	"time"

	"example.com/coaching/internal/domain"
)

// Historical team average used as the completion-rate comparison baseline.
const completionRateBaseline = 75.0

const (
	recentActivityLimit = 5
	topPerformersLimit  = 5
	leaderboardLimit    = 10
	favoriteTypesLimit  = 3
	recentRecordsLimit  = 5
	sparklineDays       = 7
)

// KPI is one dashboard headline number with its period-over-period movement.
type KPI struct {
	Value         float64 `json:"value"`
	GrowthPercent float64 `json:"growth_percentage"`
	Trend         string  `json:"trend"`
}

// ActivityEntry is one row of the recent-activity feed.
type ActivityEntry struct {
	AthleteName string    `json:"athlete_name"`
	WorkoutName string    `json:"workout_name"`
	CompletedAt time.Time `json:"completed_at"`
	IsPR        bool      `json:"is_pr"`
	Variant     string    `json:"rx_or_scaled"`
}

// AthleteResultCount pairs an athlete with a result count in a window.
type AthleteResultCount struct {
	AthleteID   string
	AthleteName string
	Count       int
}

// TopPerformer ranks an athlete by workouts completed, carrying the current
// streak alongside.
type TopPerformer struct {
	AthleteID         string `json:"id"`
	Name              string `json:"name"`
	WorkoutsCompleted int    `json:"workouts_completed"`
	CurrentStreak     int    `json:"current_streak"`
}

// DashboardSnapshot is the coach dashboard payload.
type DashboardSnapshot struct {
	TotalAthletes      KPI             `json:"total_athletes"`
	ActiveAthletes     int             `json:"active_athletes"`
	WorkoutsThisWeek   KPI             `json:"workouts_this_week"`
	CompletionRate     KPI             `json:"completion_rate"`
	AssignedThisWeek   int             `json:"assigned_this_week"`
	CompletedThisWeek  int             `json:"completed_this_week"`
	PRsThisMonth       KPI             `json:"prs_this_month"`
	RecentActivity     []ActivityEntry `json:"recent_activity"`
	TopPerformers      []TopPerformer  `json:"top_performers"`
	WeeklyDistribution map[string]int  `json:"weekly_distribution"`
}

// WeekPoint is one workouts-per-ISO-week chart point.
type WeekPoint struct {
	Week     string `json:"week"`
	Workouts int    `json:"workouts"`
}

// MonthCount is one count-per-month chart point.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthRate is one completion-rate-per-month chart point.
type MonthRate struct {
	Month          string  `json:"month"`
	CompletionRate float64 `json:"completion_rate"`
}

// ProgressCharts is the athlete-progress payload over a selectable window.
type ProgressCharts struct {
	AthleteID         string       `json:"athlete_id"`
	AthleteName       string       `json:"athlete_name"`
	Period            Period       `json:"period"`
	WorkoutsByWeek    []WeekPoint  `json:"workouts_by_week"`
	PRsByMonth        []MonthCount `json:"prs_by_month"`
	CompletionByMonth []MonthRate  `json:"completion_rate_by_month"`
}

// BestTime is an athlete's single best elapsed time for a workout.
type BestTime struct {
	AthleteID   string
	AthleteName string
	TimeSeconds int
}

// LeaderboardEntry is one ranked leaderboard row.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	AthleteID     string `json:"athlete_id"`
	AthleteName   string `json:"athlete_name"`
	TimeSeconds   int    `json:"time_seconds"`
	FormattedTime string `json:"formatted_time"`
}

// AssignmentDay is an assignment's scheduled date and completion flag.
type AssignmentDay struct {
	ScheduledDate time.Time
	IsCompleted   bool
}

// AthleteTotals aggregates an athlete's whole history in one query.
type AthleteTotals struct {
	TotalResults     int
	TotalPRs         int
	RxResults        int
	AvgTimeSeconds   *float64
	AvgFeelingRating *float64
}

// TypeCount pairs a workout type with its occurrence count.
type TypeCount struct {
	WorkoutType string
	Count       int
}

// DayActivity is one sparkline cell: a calendar day and its result count.
type DayActivity struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// RecordView is a recent personal record in the self-stats snapshot.
type RecordView struct {
	MovementName string    `json:"movement_name"`
	RecordType   string    `json:"record_type"`
	Value        int       `json:"value"`
	Unit         string    `json:"unit"`
	AchievedAt   time.Time `json:"achieved_at"`
}

// StatsSnapshot is the athlete self-stats payload.
type StatsSnapshot struct {
	TotalWorkouts      int           `json:"total_workouts"`
	TotalPRs           int           `json:"total_prs"`
	CurrentStreak      int           `json:"current_streak"`
	LongestStreak      int           `json:"longest_streak"`
	WeekWorkouts       int           `json:"week_workouts"`
	WeekAssignments    int           `json:"week_assignments"`
	WeekCompletionRate float64       `json:"week_completion_rate"`
	MonthWorkouts      int           `json:"month_workouts"`
	MonthPRs           int           `json:"month_prs"`
	AvgWorkoutMinutes  float64       `json:"avg_workout_minutes"`
	RxRate             float64       `json:"rx_rate"`
	AvgFeelingRating   float64       `json:"avg_feeling_rating"`
	FavoriteTypes      []string      `json:"favorite_workout_types"`
	RecentPRs          []RecordView  `json:"recent_prs"`
	WeeklyActivity     []DayActivity `json:"weekly_activity"`
}

// Store captures the read queries the engine runs against the result store.
type Store interface {
	GetAthlete(ctx context.Context, athleteID string) (*domain.Athlete, error)

	CountAthletes(ctx context.Context, coachID string) (total, active int, err error)
	CountAthletesCreated(ctx context.Context, coachID string, from, to time.Time) (int, error)
	CountResults(ctx context.Context, coachID string, from, to time.Time) (int, error)
	CountAssignments(ctx context.Context, coachID string, from, to time.Time, completedOnly bool) (int, error)
	CountRecords(ctx context.Context, coachID string, from, to time.Time) (int, error)
	RecentResults(ctx context.Context, coachID string, limit int) ([]ActivityEntry, error)
	ResultCountsByAthlete(ctx context.Context, coachID string, since time.Time, limit int) ([]AthleteResultCount, error)
	ResultDates(ctx context.Context, coachID string, since time.Time) ([]time.Time, error)
	BestTimes(ctx context.Context, coachID, workoutID string, variant domain.Variant, limit int) ([]BestTime, error)

	CompletedDates(ctx context.Context, athleteID string) ([]time.Time, error)
	AthleteResultDates(ctx context.Context, athleteID string, since time.Time) ([]time.Time, error)
	AthleteRecordDates(ctx context.Context, athleteID string, since time.Time) ([]time.Time, error)
	AthleteAssignments(ctx context.Context, athleteID string, since time.Time) ([]AssignmentDay, error)
	CountAthleteResults(ctx context.Context, athleteID string, from, to time.Time) (int, error)
	CountAthleteAssignments(ctx context.Context, athleteID string, from, to time.Time) (int, error)
	CountAthleteRecords(ctx context.Context, athleteID string, from, to time.Time) (int, error)
	AthleteTotals(ctx context.Context, athleteID string) (AthleteTotals, error)
	WorkoutTypeCounts(ctx context.Context, athleteID string) ([]TypeCount, error)
	RecentRecords(ctx context.Context, athleteID string, limit int) ([]domain.PersonalRecord, error)
}

// Engine computes windowed statistics snapshots.
type Engine struct {
	store Store
	cache *SnapshotCache
	now   func() time.Time
}

// NewEngine constructs an Engine. cache may be nil to disable dashboard
// snapshot caching.
func NewEngine(store Store, cache *SnapshotCache) *Engine {
	return &Engine{store: store, cache: cache, now: time.Now}
}

// InvalidateDashboardForAthlete drops the cached snapshot of the coach who
// owns the athlete, so a freshly submitted result shows up on the next
// dashboard load instead of after the cache TTL.
func (e *Engine) InvalidateDashboardForAthlete(ctx context.Context, athleteID string) {
	if e.cache == nil {
		return
	}
	athlete, err := e.store.GetAthlete(ctx, athleteID)
	if err != nil || athlete == nil {
		return
	}
	e.cache.Invalidate(athlete.CoachID)
}

// Dashboard assembles the coach dashboard snapshot: KPIs with period
// comparisons, the recent-activity feed, top performers and the weekly
// distribution. Snapshots are cached briefly per coach.
func (e *Engine) Dashboard(ctx context.Context, scope domain.Scope) (*DashboardSnapshot, error) {
	if scope.CoachID == "" {
		return nil, domain.ErrNotFound
	}

	if cached, ok := e.cache.GetDashboard(scope.CoachID); ok {
		return cached, nil
	}

	now := e.now().UTC()
	weekStart := StartOfWeek(now)
	lastWeekStart := weekStart.AddDate(0, 0, -7)
	monthStart := StartOfMonth(now)
	lastMonthStart := StartOfMonth(monthStart.AddDate(0, 0, -1))

	total, active, err := e.store.CountAthletes(ctx, scope.CoachID)
	if err != nil {
		return nil, err
	}
	athletesThisMonth, err := e.store.CountAthletesCreated(ctx, scope.CoachID, monthStart, now)
	if err != nil {
		return nil, err
	}
	athletesLastMonth, err := e.store.CountAthletesCreated(ctx, scope.CoachID, lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	athleteGrowth := GrowthPercent(athletesThisMonth, athletesLastMonth)

	workoutsThisWeek, err := e.store.CountResults(ctx, scope.CoachID, weekStart, now)
	if err != nil {
		return nil, err
	}
	workoutsLastWeek, err := e.store.CountResults(ctx, scope.CoachID, lastWeekStart, weekStart)
	if err != nil {
		return nil, err
	}
	workoutGrowth := GrowthPercent(workoutsThisWeek, workoutsLastWeek)

	assigned, err := e.store.CountAssignments(ctx, scope.CoachID, weekStart, now, false)
	if err != nil {
		return nil, err
	}
	completed, err := e.store.CountAssignments(ctx, scope.CoachID, weekStart, now, true)
	if err != nil {
		return nil, err
	}
	rate := CompletionRate(completed, assigned)
	rateGrowth := round1(rate - completionRateBaseline)

	prsThisMonth, err := e.store.CountRecords(ctx, scope.CoachID, monthStart, now)
	if err != nil {
		return nil, err
	}
	prsLastMonth, err := e.store.CountRecords(ctx, scope.CoachID, lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	prGrowth := GrowthPercent(prsThisMonth, prsLastMonth)

	recent, err := e.store.RecentResults(ctx, scope.CoachID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	performers, err := e.topPerformers(ctx, scope.CoachID, monthStart, now)
	if err != nil {
		return nil, err
	}

	resultDates, err := e.store.ResultDates(ctx, scope.CoachID, weekStart)
	if err != nil {
		return nil, err
	}

	snapshot := &DashboardSnapshot{
		TotalAthletes:      KPI{Value: float64(total), GrowthPercent: athleteGrowth, Trend: Trend(athleteGrowth)},
		ActiveAthletes:     active,
		WorkoutsThisWeek:   KPI{Value: float64(workoutsThisWeek), GrowthPercent: workoutGrowth, Trend: Trend(workoutGrowth)},
		CompletionRate:     KPI{Value: rate, GrowthPercent: rateGrowth, Trend: Trend(rateGrowth)},
		AssignedThisWeek:   assigned,
		CompletedThisWeek:  completed,
		PRsThisMonth:       KPI{Value: float64(prsThisMonth), GrowthPercent: prGrowth, Trend: Trend(prGrowth)},
		RecentActivity:     recent,
		TopPerformers:      performers,
		WeeklyDistribution: weekdayDistribution(resultDates),
	}

	e.cache.PutDashboard(scope.CoachID, snapshot)
	return snapshot, nil
}

func (e *Engine) topPerformers(ctx context.Context, coachID string, since, now time.Time) ([]TopPerformer, error) {
	counts, err := e.store.ResultCountsByAthlete(ctx, coachID, since, topPerformersLimit)
	if err != nil {
		return nil, err
	}

	performers := make([]TopPerformer, 0, len(counts))
	for _, c := range counts {
		// Streaks are display-only: a failed date fetch falls back to 0
		// instead of failing the dashboard.
		streak := 0
		if dates, err := e.store.CompletedDates(ctx, c.AthleteID); err == nil {
			streak = domain.CurrentStreak(dates, now).Value()
		}
		performers = append(performers, TopPerformer{
			AthleteID:         c.AthleteID,
			Name:              c.AthleteName,
			WorkoutsCompleted: c.Count,
			CurrentStreak:     streak,
		})
	}
	return performers, nil
}

// weekdayDistribution buckets result timestamps by weekday name. Days without
// results are omitted, not zero-filled.
func weekdayDistribution(dates []time.Time) map[string]int {
	dist := make(map[string]int, sparklineDays)
	for _, d := range dates {
		dist[d.UTC().Weekday().String()]++
	}
	return dist
}

// AthleteProgress charts one athlete's workouts, PRs and completion rate over
// the selected window. Buckets without data are omitted.
func (e *Engine) AthleteProgress(ctx context.Context, scope domain.Scope, athleteID string, period Period) (*ProgressCharts, error) {
	athlete, err := e.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, domain.ErrNotFound
	}

	since := period.Start(e.now().UTC())

	resultDates, err := e.store.AthleteResultDates(ctx, athleteID, since)
	if err != nil {
		return nil, err
	}
	recordDates, err := e.store.AthleteRecordDates(ctx, athleteID, since)
	if err != nil {
		return nil, err
	}
	assignments, err := e.store.AthleteAssignments(ctx, athleteID, since)
	if err != nil {
		return nil, err
	}

	weekCounts := make(map[string]int)
	for _, d := range resultDates {
		weekCounts[isoWeekKey(d)]++
	}
	weeks := make([]WeekPoint, 0, len(weekCounts))
	for week, count := range weekCounts {
		weeks = append(weeks, WeekPoint{Week: week, Workouts: count})
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Week < weeks[j].Week })

	monthCounts := make(map[string]int)
	for _, d := range recordDates {
		monthCounts[monthKey(d)]++
	}
	months := make([]MonthCount, 0, len(monthCounts))
	for month, count := range monthCounts {
		months = append(months, MonthCount{Month: month, Count: count})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	type monthTally struct{ total, completed int }
	completion := make(map[string]*monthTally)
	for _, a := range assignments {
		key := monthKey(a.ScheduledDate)
		tally, ok := completion[key]
		if !ok {
			tally = &monthTally{}
			completion[key] = tally
		}
		tally.total++
		if a.IsCompleted {
			tally.completed++
		}
	}
	rates := make([]MonthRate, 0, len(completion))
	for month, tally := range completion {
		rates = append(rates, MonthRate{Month: month, CompletionRate: CompletionRate(tally.completed, tally.total)})
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Month < rates[j].Month })

	return &ProgressCharts{
		AthleteID:         athlete.ID,
		AthleteName:       athlete.Name,
		Period:            period,
		WorkoutsByWeek:    weeks,
		PRsByMonth:        months,
		CompletionByMonth: rates,
	}, nil
}

// Leaderboard ranks each athlete's single best time for a workout, fastest
// first, capped at ten entries. Ties keep a stable order by athlete ID.
func (e *Engine) Leaderboard(ctx context.Context, scope domain.Scope, workoutID string, variant domain.Variant) ([]LeaderboardEntry, error) {
	if scope.CoachID == "" {
		return nil, domain.ErrNotFound
	}
	if variant != domain.VariantRx && variant != domain.VariantScaled {
		variant = domain.VariantRx
	}

	best, err := e.store.BestTimes(ctx, scope.CoachID, workoutID, variant, leaderboardLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for i, b := range best {
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			AthleteID:     b.AthleteID,
			AthleteName:   b.AthleteName,
			TimeSeconds:   b.TimeSeconds,
			FormattedTime: FormatSeconds(b.TimeSeconds),
		})
	}
	return entries, nil
}

// AthleteStats assembles the self-stats snapshot: overview totals and
// streaks, weekly and monthly rollups, performance averages, favorite
// workout types, recent PRs and a dense 7-day activity sparkline.
func (e *Engine) AthleteStats(ctx context.Context, scope domain.Scope, athleteID string) (*StatsSnapshot, error) {
	if scope.AthleteID != "" {
		athleteID = scope.AthleteID
	}
	athlete, err := e.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, domain.ErrNotFound
	}

	now := e.now().UTC()
	weekStart := StartOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := StartOfMonth(now)
	monthEnd := monthStart.AddDate(0, 1, 0)

	totals, err := e.store.AthleteTotals(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	currentStreak, longestStreak := 0, 0
	if dates, err := e.store.CompletedDates(ctx, athleteID); err == nil {
		currentStreak = domain.CurrentStreak(dates, now).Value()
		longestStreak = domain.LongestStreak(dates).Value()
	}

	weekWorkouts, err := e.store.CountAthleteResults(ctx, athleteID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	weekAssignments, err := e.store.CountAthleteAssignments(ctx, athleteID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	monthWorkouts, err := e.store.CountAthleteResults(ctx, athleteID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	monthPRs, err := e.store.CountAthleteRecords(ctx, athleteID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	avgMinutes := 0.0
	if totals.AvgTimeSeconds != nil {
		avgMinutes = round1(*totals.AvgTimeSeconds / 60)
	}
	rxRate := 0.0
	if totals.TotalResults > 0 {
		rxRate = round1(float64(totals.RxResults) / float64(totals.TotalResults) * 100)
	}
	avgFeeling := 0.0
	if totals.AvgFeelingRating != nil {
		avgFeeling = round1(*totals.AvgFeelingRating)
	}

	favorites, err := e.favoriteTypes(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	recentPRs, err := e.store.RecentRecords(ctx, athleteID, recentRecordsLimit)
	if err != nil {
		return nil, err
	}
	prViews := make([]RecordView, 0, len(recentPRs))
	for _, pr := range recentPRs {
		prViews = append(prViews, RecordView{
			MovementName: pr.MovementName,
			RecordType:   pr.RecordType,
			Value:        pr.Value,
			Unit:         pr.Unit,
			AchievedAt:   pr.AchievedAt,
		})
	}

	sparkline, err := e.sparkline(ctx, athleteID, now)
	if err != nil {
		return nil, err
	}

	return &StatsSnapshot{
		TotalWorkouts:      totals.TotalResults,
		TotalPRs:           totals.TotalPRs,
		CurrentStreak:      currentStreak,
		LongestStreak:      longestStreak,
		WeekWorkouts:       weekWorkouts,
		WeekAssignments:    weekAssignments,
		WeekCompletionRate: CompletionRate(weekWorkouts, weekAssignments),
		MonthWorkouts:      monthWorkouts,
		MonthPRs:           monthPRs,
		AvgWorkoutMinutes:  avgMinutes,
		RxRate:             rxRate,
		AvgFeelingRating:   avgFeeling,
		FavoriteTypes:      favorites,
		RecentPRs:          prViews,
		WeeklyActivity:     sparkline,
	}, nil
}

func (e *Engine) favoriteTypes(ctx context.Context, athleteID string) ([]string, error) {
	counts, err := e.store.WorkoutTypeCounts(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })

	favorites := make([]string, 0, favoriteTypesLimit)
	for _, c := range counts {
		if c.WorkoutType == "" {
			continue
		}
		favorites = append(favorites, c.WorkoutType)
		if len(favorites) == favoriteTypesLimit {
			break
		}
	}
	return favorites, nil
}

// sparkline is the dense 7-day activity strip, oldest day first, zero-filled.
// This is the one rollup that zero-fills: the chart needs a cell per day.
func (e *Engine) sparkline(ctx context.Context, athleteID string, now time.Time) ([]DayActivity, error) {
	first := startOfDay(now).AddDate(0, 0, -(sparklineDays - 1))
	dates, err := e.store.AthleteResultDates(ctx, athleteID, first)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, sparklineDays)
	for _, d := range dates {
		counts[startOfDay(d).Format("2006-01-02")]++
	}

	cells := make([]DayActivity, 0, sparklineDays)
	for i := 0; i < sparklineDays; i++ {
		day := first.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		cells = append(cells, DayActivity{
			Date:  key,
			Day:   day.Weekday().String()[:3],
			Count: counts[key],
		})
	}
	return cells, nil
}
