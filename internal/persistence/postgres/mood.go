package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/coaching/internal/domain"
)

// CreateMoodLog inserts a new mood check-in.
func (r *Repository) CreateMoodLog(ctx context.Context, log *domain.MoodLog) error {
	const stmt = `INSERT INTO mood_logs (id, athlete_id, level, notes, created_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, stmt, log.ID, log.AthleteID, log.Level, log.Notes, log.CreatedAt)
	return err
}

// ListMoodLogs returns the athlete's check-ins since the given time.
func (r *Repository) ListMoodLogs(ctx context.Context, athleteID string, since time.Time) ([]domain.MoodLog, error) {
	const query = `SELECT id, athlete_id, level, notes, created_at FROM mood_logs
        WHERE athlete_id=$1 AND created_at >= $2
        ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, athleteID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.MoodLog, 0)
	for rows.Next() {
		var l domain.MoodLog
		if err := rows.Scan(&l.ID, &l.AthleteID, &l.Level, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetMoodLog retrieves one check-in by ID.
func (r *Repository) GetMoodLog(ctx context.Context, id string) (*domain.MoodLog, error) {
	const query = `SELECT id, athlete_id, level, notes, created_at FROM mood_logs WHERE id=$1`

	var l domain.MoodLog
	err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.AthleteID, &l.Level, &l.Notes, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// DeleteMoodLog removes one check-in.
func (r *Repository) DeleteMoodLog(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mood_logs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
