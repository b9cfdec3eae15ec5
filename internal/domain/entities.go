package domain

import "time"

// AthleteStatus tracks an athlete's lifecycle under a coach.
type AthleteStatus string

const (
	AthleteStatusActive   AthleteStatus = "active"
	AthleteStatusInactive AthleteStatus = "inactive"
	AthleteStatusOnHold   AthleteStatus = "on_hold"
)

// Variant distinguishes prescribed from scaled performances.
type Variant string

const (
	VariantRx     Variant = "rx"
	VariantScaled Variant = "scaled"
)

// Athlete belongs to exactly one coach and owns results, assignments,
// personal records and mood logs.
type Athlete struct {
	ID        string
	CoachID   string
	Name      string
	Status    AthleteStatus
	CreatedAt time.Time
}

// Workout is a named exercise prescription. Its identity is immutable once
// assigned: deletion is rejected while assignments reference it.
type Workout struct {
	ID          string
	CoachID     string
	Name        string
	WorkoutType string
	Description string
	IsBenchmark bool
	CreatedAt   time.Time
}

// WorkoutAssignment binds one workout to one athlete for a scheduled date.
// At most one result may attach to an assignment.
type WorkoutAssignment struct {
	ID              string
	WorkoutID       string
	AthleteID       string
	AssignedByCoach string
	ScheduledDate   time.Time
	IsCompleted     bool
	CreatedAt       time.Time
}

// WorkoutResult records a completed assignment. Immutable once created apart
// from the annotation fields (feeling rating, notes).
type WorkoutResult struct {
	ID              string
	AssignmentID    string
	AthleteID       string
	WorkoutID       string
	CompletedAt     time.Time
	TimeSeconds     *int
	RoundsCompleted *int
	RepsCompleted   *int
	Variant         Variant
	FeelingRating   *int
	Notes           string
	IsPR            bool
}

// PersonalRecord is a denormalized best-known-value entry. Rows are
// append-only history; the current record per movement is the one with the
// latest AchievedAt, not necessarily the lowest value.
type PersonalRecord struct {
	ID              string
	AthleteID       string
	MovementName    string
	RecordType      string
	Value           int
	Unit            string
	WorkoutResultID string
	AchievedAt      time.Time
}

// MoodLog is an append-only wellbeing entry, level 1..7.
type MoodLog struct {
	ID        string
	AthleteID string
	Level     int
	Notes     string
	CreatedAt time.Time
}
