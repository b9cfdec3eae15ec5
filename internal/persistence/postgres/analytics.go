package postgres

import (
	"context"
	"time"

	"example.com/coaching/internal/analytics"
	"example.com/coaching/internal/domain"
)

// CountAthletes returns the coach's total and active athlete counts.
func (r *Repository) CountAthletes(ctx context.Context, coachID string) (total, active int, err error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE status='active')
        FROM athletes WHERE coach_id=$1`

	err = r.pool.QueryRow(ctx, query, coachID).Scan(&total, &active)
	return
}

// CountAthletesCreated counts athletes added in [from, to).
func (r *Repository) CountAthletesCreated(ctx context.Context, coachID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM athletes
        WHERE coach_id=$1 AND created_at >= $2 AND created_at < $3`
	return r.queryCount(ctx, query, coachID, from, to)
}

// CountResults counts results submitted by the coach's athletes in [from, to).
func (r *Repository) CountResults(ctx context.Context, coachID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM workout_results r
        JOIN athletes a ON a.id = r.athlete_id
        WHERE a.coach_id=$1 AND r.completed_at >= $2 AND r.completed_at < $3`
	return r.queryCount(ctx, query, coachID, from, to)
}

// CountAssignments counts assignments scheduled in [from, to), optionally
// only the completed ones.
func (r *Repository) CountAssignments(ctx context.Context, coachID string, from, to time.Time, completedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM workout_assignments s
        JOIN athletes a ON a.id = s.athlete_id
        WHERE a.coach_id=$1 AND s.scheduled_date >= $2 AND s.scheduled_date < $3`
	if completedOnly {
		query += ` AND s.is_completed`
	}
	return r.queryCount(ctx, query, coachID, from, to)
}

// CountRecords counts personal records achieved by the coach's athletes in
// [from, to).
func (r *Repository) CountRecords(ctx context.Context, coachID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM personal_records p
        JOIN athletes a ON a.id = p.athlete_id
        WHERE a.coach_id=$1 AND p.achieved_at >= $2 AND p.achieved_at < $3`
	return r.queryCount(ctx, query, coachID, from, to)
}

func (r *Repository) queryCount(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// RecentResults returns the newest results across the coach's roster for the
// activity feed.
func (r *Repository) RecentResults(ctx context.Context, coachID string, limit int) ([]analytics.ActivityEntry, error) {
	const query = `SELECT a.name, w.name, r.completed_at, r.is_pr, r.rx_or_scaled
        FROM workout_results r
        JOIN athletes a ON a.id = r.athlete_id
        JOIN workouts w ON w.id = r.workout_id
        WHERE a.coach_id=$1
        ORDER BY r.completed_at DESC, r.id DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, coachID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]analytics.ActivityEntry, 0, limit)
	for rows.Next() {
		var e analytics.ActivityEntry
		if err := rows.Scan(&e.AthleteName, &e.WorkoutName, &e.CompletedAt, &e.IsPR, &e.Variant); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ResultCountsByAthlete ranks the coach's athletes by results submitted since
// the given time.
func (r *Repository) ResultCountsByAthlete(ctx context.Context, coachID string, since time.Time, limit int) ([]analytics.AthleteResultCount, error) {
	const query = `SELECT a.id, a.name, COUNT(r.id)
        FROM athletes a
        JOIN workout_results r ON r.athlete_id = a.id AND r.completed_at >= $2
        WHERE a.coach_id=$1
        GROUP BY a.id, a.name
        ORDER BY COUNT(r.id) DESC, a.id
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, coachID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]analytics.AthleteResultCount, 0, limit)
	for rows.Next() {
		var c analytics.AthleteResultCount
		if err := rows.Scan(&c.AthleteID, &c.AthleteName, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ResultDates returns result timestamps across the coach's roster since the
// given time.
func (r *Repository) ResultDates(ctx context.Context, coachID string, since time.Time) ([]time.Time, error) {
	const query = `SELECT r.completed_at FROM workout_results r
        JOIN athletes a ON a.id = r.athlete_id
        WHERE a.coach_id=$1 AND r.completed_at >= $2`
	return r.queryDates(ctx, query, coachID, since)
}

// BestTimes returns each athlete's fastest time for the workout, fastest
// first with ties broken by athlete ID.
func (r *Repository) BestTimes(ctx context.Context, coachID, workoutID string, variant domain.Variant, limit int) ([]analytics.BestTime, error) {
	const query = `SELECT a.id, a.name, MIN(r.time_seconds)
        FROM workout_results r
        JOIN athletes a ON a.id = r.athlete_id
        WHERE a.coach_id=$1 AND r.workout_id=$2 AND r.rx_or_scaled=$3 AND r.time_seconds IS NOT NULL
        GROUP BY a.id, a.name
        ORDER BY MIN(r.time_seconds), a.id
        LIMIT $4`

	rows, err := r.pool.Query(ctx, query, coachID, workoutID, string(variant), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	best := make([]analytics.BestTime, 0, limit)
	for rows.Next() {
		var b analytics.BestTime
		if err := rows.Scan(&b.AthleteID, &b.AthleteName, &b.TimeSeconds); err != nil {
			return nil, err
		}
		best = append(best, b)
	}
	return best, rows.Err()
}

// AthleteResultDates returns one athlete's result timestamps since the given
// time.
func (r *Repository) AthleteResultDates(ctx context.Context, athleteID string, since time.Time) ([]time.Time, error) {
	return r.queryDates(ctx, `SELECT completed_at FROM workout_results WHERE athlete_id=$1 AND completed_at >= $2`, athleteID, since)
}

// AthleteRecordDates returns one athlete's record timestamps since the given
// time.
func (r *Repository) AthleteRecordDates(ctx context.Context, athleteID string, since time.Time) ([]time.Time, error) {
	return r.queryDates(ctx, `SELECT achieved_at FROM personal_records WHERE athlete_id=$1 AND achieved_at >= $2`, athleteID, since)
}

// AthleteAssignments returns the athlete's assignments since the given time
// with their completion flags.
func (r *Repository) AthleteAssignments(ctx context.Context, athleteID string, since time.Time) ([]analytics.AssignmentDay, error) {
	const query = `SELECT scheduled_date, is_completed FROM workout_assignments
        WHERE athlete_id=$1 AND scheduled_date >= $2
        ORDER BY scheduled_date`

	rows, err := r.pool.Query(ctx, query, athleteID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]analytics.AssignmentDay, 0)
	for rows.Next() {
		var d analytics.AssignmentDay
		if err := rows.Scan(&d.ScheduledDate, &d.IsCompleted); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// CountAthleteResults counts one athlete's results in [from, to).
func (r *Repository) CountAthleteResults(ctx context.Context, athleteID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM workout_results
        WHERE athlete_id=$1 AND completed_at >= $2 AND completed_at < $3`
	return r.queryCount(ctx, query, athleteID, from, to)
}

// CountAthleteAssignments counts one athlete's assignments scheduled in
// [from, to).
func (r *Repository) CountAthleteAssignments(ctx context.Context, athleteID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM workout_assignments
        WHERE athlete_id=$1 AND scheduled_date >= $2 AND scheduled_date < $3`
	return r.queryCount(ctx, query, athleteID, from, to)
}

// CountAthleteRecords counts one athlete's records achieved in [from, to).
func (r *Repository) CountAthleteRecords(ctx context.Context, athleteID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM personal_records
        WHERE athlete_id=$1 AND achieved_at >= $2 AND achieved_at < $3`
	return r.queryCount(ctx, query, athleteID, from, to)
}

// AthleteTotals aggregates one athlete's lifetime performance figures.
func (r *Repository) AthleteTotals(ctx context.Context, athleteID string) (analytics.AthleteTotals, error) {
	const query = `SELECT
        COUNT(*),
        (SELECT COUNT(*) FROM personal_records WHERE athlete_id=$1),
        COUNT(*) FILTER (WHERE rx_or_scaled='rx'),
        AVG(time_seconds),
        AVG(feeling_rating)
        FROM workout_results WHERE athlete_id=$1`

	var t analytics.AthleteTotals
	err := r.pool.QueryRow(ctx, query, athleteID).
		Scan(&t.TotalResults, &t.TotalPRs, &t.RxResults, &t.AvgTimeSeconds, &t.AvgFeelingRating)
	return t, err
}

// WorkoutTypeCounts tallies the athlete's results by workout type.
func (r *Repository) WorkoutTypeCounts(ctx context.Context, athleteID string) ([]analytics.TypeCount, error) {
	const query = `SELECT w.workout_type, COUNT(*)
        FROM workout_results r
        JOIN workouts w ON w.id = r.workout_id
        WHERE r.athlete_id=$1
        GROUP BY w.workout_type
        ORDER BY COUNT(*) DESC, w.workout_type`

	rows, err := r.pool.Query(ctx, query, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]analytics.TypeCount, 0)
	for rows.Next() {
		var c analytics.TypeCount
		if err := rows.Scan(&c.WorkoutType, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// RecentRecords returns the athlete's newest personal records.
func (r *Repository) RecentRecords(ctx context.Context, athleteID string, limit int) ([]domain.PersonalRecord, error) {
	const query = `SELECT id, athlete_id, movement_name, record_type, value, unit, workout_result_id, achieved_at
        FROM personal_records WHERE athlete_id=$1
        ORDER BY achieved_at DESC, id DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, athleteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PersonalRecord, 0, limit)
	for rows.Next() {
		var rec domain.PersonalRecord
		if err := rows.Scan(&rec.ID, &rec.AthleteID, &rec.MovementName, &rec.RecordType, &rec.Value, &rec.Unit, &rec.WorkoutResultID, &rec.AchievedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
