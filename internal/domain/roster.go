package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrWorkoutInUse rejects deletion of a workout that assignments still
// reference; workout identity is immutable once assigned.
var ErrWorkoutInUse = errors.New("workout has assignments and cannot be deleted")

// AthleteOverview decorates an athlete row with derived display statistics.
type AthleteOverview struct {
	Athlete
	TotalWorkouts  int
	TotalPRs       int
	CurrentStreak  int
	CompletionRate float64
}

// RosterStore captures persistence operations for athletes, workouts and
// assignments.
type RosterStore interface {
	CreateAthlete(ctx context.Context, athlete Athlete) error
	GetAthlete(ctx context.Context, athleteID string) (*Athlete, error)
	ListAthletes(ctx context.Context, coachID string) ([]Athlete, error)
	UpdateAthleteStatus(ctx context.Context, athleteID string, status AthleteStatus) error
	DeleteAthlete(ctx context.Context, athleteID string) error
	AthleteCounts(ctx context.Context, athleteID string) (totalResults, totalPRs, totalAssignments, completedAssignments int, err error)
	CompletedDates(ctx context.Context, athleteID string) ([]time.Time, error)

	CreateWorkout(ctx context.Context, workout Workout) error
	GetWorkout(ctx context.Context, workoutID string) (*Workout, error)
	ListWorkouts(ctx context.Context, coachID string) ([]Workout, error)
	WorkoutHasAssignments(ctx context.Context, workoutID string) (bool, error)
	DeleteWorkout(ctx context.Context, workoutID string) error

	CreateAssignment(ctx context.Context, assignment WorkoutAssignment) error
	ListAssignments(ctx context.Context, athleteID string, from, to *time.Time) ([]WorkoutAssignment, error)
	GetAssignment(ctx context.Context, assignmentID string) (*WorkoutAssignment, error)
}

// Roster manages the coach's athletes, workout catalog and assignments.
type Roster struct {
	store RosterStore
	now   func() time.Time
}

// NewRoster constructs a Roster.
func NewRoster(store RosterStore) *Roster {
	return &Roster{store: store, now: time.Now}
}

// CreateAthleteInput captures the payload for athlete creation.
type CreateAthleteInput struct {
	Name   string
	Status AthleteStatus
}

// CreateAthlete registers an athlete under the coach scope.
func (r *Roster) CreateAthlete(ctx context.Context, scope Scope, in CreateAthleteInput) (*Athlete, error) {
	if scope.CoachID == "" {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	status := in.Status
	if status == "" {
		status = AthleteStatusActive
	}
	switch status {
	case AthleteStatusActive, AthleteStatusInactive, AthleteStatusOnHold:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}

	athlete := Athlete{
		ID:        uuid.NewString(),
		CoachID:   scope.CoachID,
		Name:      strings.TrimSpace(in.Name),
		Status:    status,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.CreateAthlete(ctx, athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// ListAthletes returns the coach's athletes with derived statistics: total
// workouts and records, current streak and all-time completion rate.
func (r *Roster) ListAthletes(ctx context.Context, scope Scope) ([]AthleteOverview, error) {
	if scope.CoachID == "" {
		return nil, ErrNotFound
	}
	athletes, err := r.store.ListAthletes(ctx, scope.CoachID)
	if err != nil {
		return nil, err
	}

	overviews := make([]AthleteOverview, 0, len(athletes))
	for _, a := range athletes {
		results, prs, assigned, completed, err := r.store.AthleteCounts(ctx, a.ID)
		if err != nil {
			return nil, err
		}

		// Streaks are display statistics: a failed fetch degrades to 0
		// rather than failing the listing.
		streak := 0
		if dates, err := r.store.CompletedDates(ctx, a.ID); err == nil {
			streak = CurrentStreak(dates, r.now()).Value()
		}

		rate := 0.0
		if assigned > 0 {
			rate = float64(completed) / float64(assigned) * 100
		}
		overviews = append(overviews, AthleteOverview{
			Athlete:        a,
			TotalWorkouts:  results,
			TotalPRs:       prs,
			CurrentStreak:  streak,
			CompletionRate: rate,
		})
	}
	return overviews, nil
}

// GetAthlete fetches one athlete under the scope.
func (r *Roster) GetAthlete(ctx context.Context, scope Scope, athleteID string) (*Athlete, error) {
	athlete, err := r.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}
	return athlete, nil
}

// UpdateAthleteStatus moves an athlete between lifecycle states.
func (r *Roster) UpdateAthleteStatus(ctx context.Context, scope Scope, athleteID string, status AthleteStatus) error {
	switch status {
	case AthleteStatusActive, AthleteStatusInactive, AthleteStatusOnHold:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if _, err := r.GetAthlete(ctx, scope, athleteID); err != nil {
		return err
	}
	return r.store.UpdateAthleteStatus(ctx, athleteID, status)
}

// DeleteAthlete removes an athlete and, through the schema, everything the
// athlete owns.
func (r *Roster) DeleteAthlete(ctx context.Context, scope Scope, athleteID string) error {
	if scope.AthleteID != "" {
		return ErrNotFound
	}
	if _, err := r.GetAthlete(ctx, scope, athleteID); err != nil {
		return err
	}
	return r.store.DeleteAthlete(ctx, athleteID)
}

// CreateWorkoutInput captures the payload for workout creation.
type CreateWorkoutInput struct {
	Name        string
	WorkoutType string
	Description string
	IsBenchmark bool
}

// CreateWorkout adds a prescription to the coach's catalog.
func (r *Roster) CreateWorkout(ctx context.Context, scope Scope, in CreateWorkoutInput) (*Workout, error) {
	if scope.CoachID == "" {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	workout := Workout{
		ID:          uuid.NewString(),
		CoachID:     scope.CoachID,
		Name:        strings.TrimSpace(in.Name),
		WorkoutType: in.WorkoutType,
		Description: in.Description,
		IsBenchmark: in.IsBenchmark,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.store.CreateWorkout(ctx, workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// ListWorkouts returns the coach's workout catalog.
func (r *Roster) ListWorkouts(ctx context.Context, scope Scope) ([]Workout, error) {
	if scope.CoachID == "" {
		return nil, ErrNotFound
	}
	return r.store.ListWorkouts(ctx, scope.CoachID)
}

// DeleteWorkout removes a workout, unless any assignment references it.
func (r *Roster) DeleteWorkout(ctx context.Context, scope Scope, workoutID string) error {
	workout, err := r.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return err
	}
	if workout == nil || scope.CoachID == "" || workout.CoachID != scope.CoachID {
		return ErrNotFound
	}
	inUse, err := r.store.WorkoutHasAssignments(ctx, workoutID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrWorkoutInUse
	}
	return r.store.DeleteWorkout(ctx, workoutID)
}

// AssignWorkoutInput captures the payload for assignment creation.
type AssignWorkoutInput struct {
	WorkoutID     string
	AthleteID     string
	ScheduledDate time.Time
}

// AssignWorkout schedules a workout for an athlete.
func (r *Roster) AssignWorkout(ctx context.Context, scope Scope, in AssignWorkoutInput) (*WorkoutAssignment, error) {
	if scope.CoachID == "" {
		return nil, ErrNotFound
	}
	if in.WorkoutID == "" || in.AthleteID == "" {
		return nil, fmt.Errorf("%w: workout_id and athlete_id are required", ErrValidation)
	}
	if in.ScheduledDate.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_date is required", ErrValidation)
	}

	athlete, err := r.store.GetAthlete(ctx, in.AthleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}
	workout, err := r.store.GetWorkout(ctx, in.WorkoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil || workout.CoachID != scope.CoachID {
		return nil, ErrNotFound
	}

	assignment := WorkoutAssignment{
		ID:              uuid.NewString(),
		WorkoutID:       in.WorkoutID,
		AthleteID:       in.AthleteID,
		AssignedByCoach: scope.CoachID,
		ScheduledDate:   truncateToDay(in.ScheduledDate),
		CreatedAt:       r.now().UTC(),
	}
	if err := r.store.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListAssignments returns an athlete's assignments in a date range.
func (r *Roster) ListAssignments(ctx context.Context, scope Scope, athleteID string, from, to *time.Time) ([]WorkoutAssignment, error) {
	if scope.AthleteID != "" {
		athleteID = scope.AthleteID
	}
	athlete, err := r.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}
	return r.store.ListAssignments(ctx, athleteID, from, to)
}

// RepeatWorkout creates a fresh assignment for today with the same workout,
// so benchmark workouts can be redone and their history tracked.
func (r *Roster) RepeatWorkout(ctx context.Context, scope Scope, assignmentID string) (*WorkoutAssignment, error) {
	original, err := r.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, ErrNotFound
	}
	athlete, err := r.store.GetAthlete(ctx, original.AthleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}

	repeat := WorkoutAssignment{
		ID:              uuid.NewString(),
		WorkoutID:       original.WorkoutID,
		AthleteID:       original.AthleteID,
		AssignedByCoach: original.AssignedByCoach,
		ScheduledDate:   truncateToDay(r.now()),
		CreatedAt:       r.now().UTC(),
	}
	if err := r.store.CreateAssignment(ctx, repeat); err != nil {
		return nil, err
	}
	return &repeat, nil
}
