package postgres

import (
	"context"
	"time"

	"example.com/coaching/internal/domain"
)

// CreateAthlete inserts a new athlete row.
func (r *Repository) CreateAthlete(ctx context.Context, athlete domain.Athlete) error {
	const stmt = `INSERT INTO athletes (id, coach_id, name, status, created_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, stmt, athlete.ID, athlete.CoachID, athlete.Name, athlete.Status, athlete.CreatedAt)
	return err
}

// ListAthletes returns the coach's athletes ordered by name.
func (r *Repository) ListAthletes(ctx context.Context, coachID string) ([]domain.Athlete, error) {
	const query = `SELECT id, coach_id, name, status, created_at FROM athletes
        WHERE coach_id=$1 ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	athletes := make([]domain.Athlete, 0)
	for rows.Next() {
		var a domain.Athlete
		if err := rows.Scan(&a.ID, &a.CoachID, &a.Name, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

// UpdateAthleteStatus moves an athlete between active, inactive and on_hold.
func (r *Repository) UpdateAthleteStatus(ctx context.Context, athleteID string, status domain.AthleteStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE athletes SET status=$2 WHERE id=$1`, athleteID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAthlete removes the athlete; dependent rows cascade.
func (r *Repository) DeleteAthlete(ctx context.Context, athleteID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM athletes WHERE id=$1`, athleteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AthleteCounts returns the lifetime tallies backing the roster overview.
func (r *Repository) AthleteCounts(ctx context.Context, athleteID string) (totalResults, totalPRs, totalAssignments, completedAssignments int, err error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM workout_results WHERE athlete_id=$1),
        (SELECT COUNT(*) FROM personal_records WHERE athlete_id=$1),
        (SELECT COUNT(*) FROM workout_assignments WHERE athlete_id=$1),
        (SELECT COUNT(*) FROM workout_assignments WHERE athlete_id=$1 AND is_completed)`

	err = r.pool.QueryRow(ctx, query, athleteID).Scan(&totalResults, &totalPRs, &totalAssignments, &completedAssignments)
	return
}

// CompletedDates returns the timestamps of all the athlete's results.
func (r *Repository) CompletedDates(ctx context.Context, athleteID string) ([]time.Time, error) {
	return r.queryDates(ctx, `SELECT completed_at FROM workout_results WHERE athlete_id=$1`, athleteID)
}

func (r *Repository) queryDates(ctx context.Context, query string, args ...interface{}) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		dates = append(dates, t)
	}
	return dates, rows.Err()
}

// CreateWorkout inserts a new workout row.
func (r *Repository) CreateWorkout(ctx context.Context, workout domain.Workout) error {
	const stmt = `INSERT INTO workouts (id, coach_id, name, workout_type, description, is_benchmark, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, stmt, workout.ID, workout.CoachID, workout.Name, workout.WorkoutType, workout.Description, workout.IsBenchmark, workout.CreatedAt)
	return err
}

// ListWorkouts returns the coach's workout catalog ordered by name.
func (r *Repository) ListWorkouts(ctx context.Context, coachID string) ([]domain.Workout, error) {
	const query = `SELECT id, coach_id, name, workout_type, description, is_benchmark, created_at
        FROM workouts WHERE coach_id=$1 ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]domain.Workout, 0)
	for rows.Next() {
		var w domain.Workout
		if err := rows.Scan(&w.ID, &w.CoachID, &w.Name, &w.WorkoutType, &w.Description, &w.IsBenchmark, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// WorkoutHasAssignments reports whether any assignment references the workout.
func (r *Repository) WorkoutHasAssignments(ctx context.Context, workoutID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workout_assignments WHERE workout_id=$1)`, workoutID).Scan(&exists)
	return exists, err
}

// DeleteWorkout removes a workout that has never been assigned.
func (r *Repository) DeleteWorkout(ctx context.Context, workoutID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workouts WHERE id=$1`, workoutID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateAssignment inserts a new assignment row.
func (r *Repository) CreateAssignment(ctx context.Context, assignment domain.WorkoutAssignment) error {
	const stmt = `INSERT INTO workout_assignments (id, workout_id, athlete_id, assigned_by_coach, scheduled_date, is_completed, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, stmt, assignment.ID, assignment.WorkoutID, assignment.AthleteID, assignment.AssignedByCoach, assignment.ScheduledDate, assignment.IsCompleted, assignment.CreatedAt)
	return err
}

// ListAssignments returns the athlete's assignments, optionally bounded by
// scheduled date, soonest first.
func (r *Repository) ListAssignments(ctx context.Context, athleteID string, from, to *time.Time) ([]domain.WorkoutAssignment, error) {
	query := `SELECT id, workout_id, athlete_id, assigned_by_coach, scheduled_date, is_completed, created_at
        FROM workout_assignments WHERE athlete_id=$1`
	args := []interface{}{athleteID}

	if from != nil {
		args = append(args, *from)
		query += ` AND scheduled_date >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND scheduled_date < $3`
		} else {
			query += ` AND scheduled_date < $2`
		}
	}
	query += ` ORDER BY scheduled_date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.WorkoutAssignment, 0)
	for rows.Next() {
		var a domain.WorkoutAssignment
		if err := rows.Scan(&a.ID, &a.WorkoutID, &a.AthleteID, &a.AssignedByCoach, &a.ScheduledDate, &a.IsCompleted, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
