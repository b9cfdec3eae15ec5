// Package postgres provides the Postgres-backed store behind the domain,
// analytics and mood services.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/coaching/internal/domain"
	"example.com/coaching/internal/observability"
	"example.com/coaching/internal/outbox"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for the coaching domain
// and the transactional outbox.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resultColumns = `id, assignment_id, athlete_id, workout_id, completed_at, time_seconds, rounds_completed, reps_completed, rx_or_scaled, feeling_rating, notes, is_pr`

func scanResult(row pgx.Row) (*domain.WorkoutResult, error) {
	var res domain.WorkoutResult
	err := row.Scan(&res.ID, &res.AssignmentID, &res.AthleteID, &res.WorkoutID, &res.CompletedAt, &res.TimeSeconds, &res.RoundsCompleted, &res.RepsCompleted, &res.Variant, &res.FeelingRating, &res.Notes, &res.IsPR)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetAssignment retrieves an assignment by ID.
func (r *Repository) GetAssignment(ctx context.Context, assignmentID string) (*domain.WorkoutAssignment, error) {
	const query = `SELECT id, workout_id, athlete_id, assigned_by_coach, scheduled_date, is_completed, created_at
        FROM workout_assignments WHERE id=$1`

	var a domain.WorkoutAssignment
	err := r.pool.QueryRow(ctx, query, assignmentID).
		Scan(&a.ID, &a.WorkoutID, &a.AthleteID, &a.AssignedByCoach, &a.ScheduledDate, &a.IsCompleted, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetAthlete retrieves an athlete by ID.
func (r *Repository) GetAthlete(ctx context.Context, athleteID string) (*domain.Athlete, error) {
	const query = `SELECT id, coach_id, name, status, created_at FROM athletes WHERE id=$1`

	var a domain.Athlete
	err := r.pool.QueryRow(ctx, query, athleteID).
		Scan(&a.ID, &a.CoachID, &a.Name, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetWorkout retrieves a workout by ID.
func (r *Repository) GetWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	const query = `SELECT id, coach_id, name, workout_type, description, is_benchmark, created_at
        FROM workouts WHERE id=$1`

	var w domain.Workout
	err := r.pool.QueryRow(ctx, query, workoutID).
		Scan(&w.ID, &w.CoachID, &w.Name, &w.WorkoutType, &w.Description, &w.IsBenchmark, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// HasResult reports whether the assignment already has a submitted result.
func (r *Repository) HasResult(ctx context.Context, assignmentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workout_results WHERE assignment_id=$1)`, assignmentID).Scan(&exists)
	return exists, err
}

// BestRxTime returns the athlete's fastest prescribed time for the workout,
// or nil when no timed rx attempt exists.
func (r *Repository) BestRxTime(ctx context.Context, athleteID, workoutID string) (*int, error) {
	const query = `SELECT MIN(time_seconds) FROM workout_results
        WHERE athlete_id=$1 AND workout_id=$2 AND rx_or_scaled='rx' AND time_seconds IS NOT NULL`

	var best *int
	if err := r.pool.QueryRow(ctx, query, athleteID, workoutID).Scan(&best); err != nil {
		return nil, err
	}
	return best, nil
}

// CreateResult persists the result, flips the assignment to completed,
// stores the optional personal record and stages the outbox events, all in
// one transaction.
func (r *Repository) CreateResult(ctx context.Context, result domain.WorkoutResult, record *domain.PersonalRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertResult = `INSERT INTO workout_results (` + resultColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err = tx.Exec(ctx, insertResult,
		result.ID,
		result.AssignmentID,
		result.AthleteID,
		result.WorkoutID,
		result.CompletedAt,
		result.TimeSeconds,
		result.RoundsCompleted,
		result.RepsCompleted,
		result.Variant,
		result.FeelingRating,
		result.Notes,
		result.IsPR,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = domain.ErrResultExists
		}
		return err
	}

	if _, err = tx.Exec(ctx, `UPDATE workout_assignments SET is_completed=TRUE WHERE id=$1`, result.AssignmentID); err != nil {
		return err
	}

	if record != nil {
		const insertRecord = `INSERT INTO personal_records (id, athlete_id, movement_name, record_type, value, unit, workout_result_id, achieved_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

		_, err = tx.Exec(ctx, insertRecord,
			record.ID,
			record.AthleteID,
			record.MovementName,
			record.RecordType,
			record.Value,
			record.Unit,
			record.WorkoutResultID,
			record.AchievedAt,
		)
		if err != nil {
			return err
		}
	}

	if err = insertOutbox(ctx, tx, "result", result.ID, "result.recorded", result.AthleteID, outbox.ResultRecorded{
		ResultID:     result.ID,
		AssignmentID: result.AssignmentID,
		AthleteID:    result.AthleteID,
		WorkoutID:    result.WorkoutID,
		Variant:      string(result.Variant),
		TimeSeconds:  result.TimeSeconds,
		IsPR:         result.IsPR,
		CompletedAt:  result.CompletedAt,
	}); err != nil {
		return err
	}

	if record != nil {
		if err = insertOutbox(ctx, tx, "record", record.ID, "record.achieved", record.AthleteID, outbox.RecordAchieved{
			RecordID:     record.ID,
			AthleteID:    record.AthleteID,
			MovementName: record.MovementName,
			RecordType:   record.RecordType,
			Value:        record.Value,
			Unit:         record.Unit,
			AchievedAt:   record.AchievedAt,
		}); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}

	observability.RecordResultPersisted(result.CompletedAt)
	if record != nil {
		observability.RecordPersonalRecordMinted()
	}
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	topic, ok := eventTopics[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}
	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt, aggregateType, aggregateID, eventType, topic, partitionKey, body, dedupeKey)
	return err
}

var eventTopics = map[string]string{
	"result.recorded": "result_events",
	"record.achieved": "record_events",
}

// GetResult retrieves a result by ID.
func (r *Repository) GetResult(ctx context.Context, resultID string) (*domain.WorkoutResult, error) {
	query := `SELECT ` + resultColumns + ` FROM workout_results WHERE id=$1`
	return scanResult(r.pool.QueryRow(ctx, query, resultID))
}

// UpdateResultAnnotations patches the mutable annotation fields. Nil values
// leave the stored field untouched.
func (r *Repository) UpdateResultAnnotations(ctx context.Context, resultID string, feelingRating *int, notes *string) error {
	const stmt = `UPDATE workout_results
        SET feeling_rating = COALESCE($2, feeling_rating),
            notes = COALESCE($3, notes)
        WHERE id=$1`

	tag, err := r.pool.Exec(ctx, stmt, resultID, feelingRating, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListResults returns result details ordered newest first with keyset
// pagination over (completed_at, id).
func (r *Repository) ListResults(ctx context.Context, filter domain.ResultFilter, cursor *domain.Cursor, limit int) ([]domain.ResultDetail, *domain.Cursor, error) {
	query := `SELECT r.id, r.assignment_id, r.athlete_id, r.workout_id, r.completed_at, r.time_seconds, r.rounds_completed, r.reps_completed, r.rx_or_scaled, r.feeling_rating, r.notes, r.is_pr,
            w.name, w.workout_type, a.name
        FROM workout_results r
        JOIN workouts w ON w.id = r.workout_id
        JOIN athletes a ON a.id = r.athlete_id
        WHERE 1=1`
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AthleteID != "" {
		query += ` AND r.athlete_id=` + arg(filter.AthleteID)
	}
	if filter.WorkoutID != "" {
		query += ` AND r.workout_id=` + arg(filter.WorkoutID)
	}
	if filter.Variant != "" {
		query += ` AND r.rx_or_scaled=` + arg(string(filter.Variant))
	}
	if filter.OnlyPRs {
		query += ` AND r.is_pr`
	}
	if filter.From != nil {
		query += ` AND r.completed_at >= ` + arg(*filter.From)
	}
	if filter.To != nil {
		query += ` AND r.completed_at < ` + arg(*filter.To)
	}
	if cursor != nil {
		query += fmt.Sprintf(` AND (r.completed_at, r.id) < (%s, %s)`, arg(cursor.CompletedAt), arg(cursor.ID))
	}

	query += ` ORDER BY r.completed_at DESC, r.id DESC LIMIT ` + arg(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	details := make([]domain.ResultDetail, 0, limit)
	for rows.Next() {
		var d domain.ResultDetail
		if err := rows.Scan(&d.ID, &d.AssignmentID, &d.AthleteID, &d.WorkoutID, &d.CompletedAt, &d.TimeSeconds, &d.RoundsCompleted, &d.RepsCompleted, &d.Variant, &d.FeelingRating, &d.Notes, &d.IsPR,
			&d.WorkoutName, &d.WorkoutType, &d.AthleteName); err != nil {
			return nil, nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(details) == limit {
		last := details[len(details)-1]
		nextCursor = &domain.Cursor{CompletedAt: last.CompletedAt, ID: last.ID}
	}

	return details, nextCursor, nil
}

// ListWorkoutHistory returns the athlete's attempts at one workout, newest
// first.
func (r *Repository) ListWorkoutHistory(ctx context.Context, athleteID, workoutID string) ([]domain.WorkoutResult, error) {
	query := `SELECT ` + resultColumns + ` FROM workout_results
        WHERE athlete_id=$1 AND workout_id=$2
        ORDER BY completed_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, athleteID, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.WorkoutResult, 0)
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// ListPersonalRecords returns the athlete's full record history, newest
// first.
func (r *Repository) ListPersonalRecords(ctx context.Context, athleteID string) ([]domain.PersonalRecord, error) {
	const query = `SELECT id, athlete_id, movement_name, record_type, value, unit, workout_result_id, achieved_at
        FROM personal_records WHERE athlete_id=$1
        ORDER BY achieved_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PersonalRecord, 0)
	for rows.Next() {
		var rec domain.PersonalRecord
		if err := rows.Scan(&rec.ID, &rec.AthleteID, &rec.MovementName, &rec.RecordType, &rec.Value, &rec.Unit, &rec.WorkoutResultID, &rec.AchievedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
