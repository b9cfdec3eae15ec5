// Package domain defines the business logic for the coaching backend:
// result submission, personal-record detection and workout streaks.
package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/coaching/internal/observability"
)

var (
	// ErrNotFound covers both missing rows and scope mismatches, so that a
	// coach can never learn whether another coach's athlete exists.
	ErrNotFound = errors.New("not found")
	// ErrResultExists indicates the assignment already has a submitted result.
	ErrResultExists = errors.New("result already submitted for this assignment")
	// ErrValidation indicates malformed or missing caller input.
	ErrValidation = errors.New("validation failed")
)

// Scope identifies the actor on whose behalf an operation runs. Every engine
// entry point receives it explicitly; there is no ambient coach context.
type Scope struct {
	CoachID   string
	AthleteID string
}

// CanAccessAthlete reports whether the scope may read or write data owned by
// the given athlete.
func (s Scope) CanAccessAthlete(a *Athlete) bool {
	if a == nil {
		return false
	}
	if s.AthleteID != "" {
		return s.AthleteID == a.ID
	}
	return s.CoachID != "" && s.CoachID == a.CoachID
}

// ResultFilter narrows result listings.
type ResultFilter struct {
	AthleteID string
	WorkoutID string
	Variant   Variant
	OnlyPRs   bool
	From      *time.Time
	To        *time.Time
}

// Cursor models keyset pagination over (completed_at, result_id).
type Cursor struct {
	CompletedAt time.Time
	ID          string
}

// ResultDetail joins a result with display fields from its workout and athlete.
type ResultDetail struct {
	WorkoutResult
	WorkoutName string
	WorkoutType string
	AthleteName string
}

// WorkoutHistoryStats summarises an athlete's attempts at one workout.
type WorkoutHistoryStats struct {
	TotalAttempts      int
	RxAttempts         int
	PRCount            int
	BestTimeSeconds    *int
	AverageTimeSeconds *int
}

// MovementRecords groups an athlete's record history for one movement. The
// current record is the most recently achieved entry.
type MovementRecords struct {
	MovementName string
	RecordType   string
	Current      PersonalRecord
	History      []PersonalRecord
}

// ResultStore captures persistence operations used by the results service.
// CreateResult must apply the whole write group in one transaction: the
// result row, the assignment completion flag, the optional personal record
// and the outbox events all commit or none do.
type ResultStore interface {
	GetAssignment(ctx context.Context, assignmentID string) (*WorkoutAssignment, error)
	GetAthlete(ctx context.Context, athleteID string) (*Athlete, error)
	GetWorkout(ctx context.Context, workoutID string) (*Workout, error)
	HasResult(ctx context.Context, assignmentID string) (bool, error)
	BestRxTime(ctx context.Context, athleteID, workoutID string) (*int, error)
	CreateResult(ctx context.Context, result WorkoutResult, record *PersonalRecord) error
	GetResult(ctx context.Context, resultID string) (*WorkoutResult, error)
	UpdateResultAnnotations(ctx context.Context, resultID string, feelingRating *int, notes *string) error
	ListResults(ctx context.Context, filter ResultFilter, cursor *Cursor, limit int) ([]ResultDetail, *Cursor, error)
	ListWorkoutHistory(ctx context.Context, athleteID, workoutID string) ([]WorkoutResult, error)
	ListPersonalRecords(ctx context.Context, athleteID string) ([]PersonalRecord, error)
}

// Service orchestrates result submission and record bookkeeping.
type Service struct {
	store ResultStore

	// Serializes PR detection per (athlete, workout). The source system let
	// two near-simultaneous submissions both observe "no better prior" and
	// each mint a record; holding a key-scoped lock across the read and the
	// transactional write removes that race.
	prLocks sync.Map
}

// NewService constructs a Service.
func NewService(store ResultStore) *Service {
	return &Service{store: store}
}

// SubmitResultInput captures the payload from the API layer.
type SubmitResultInput struct {
	AssignmentID    string
	CompletedAt     time.Time
	TimeSeconds     *int
	RoundsCompleted *int
	RepsCompleted   *int
	Variant         Variant
	FeelingRating   *int
	Notes           string
}

// Validate ensures submission correctness before any store access.
func (in SubmitResultInput) Validate() error {
	if strings.TrimSpace(in.AssignmentID) == "" {
		return fmt.Errorf("%w: assignment_id is required", ErrValidation)
	}
	if in.CompletedAt.IsZero() {
		return fmt.Errorf("%w: completed_at is required", ErrValidation)
	}
	if in.Variant != VariantRx && in.Variant != VariantScaled {
		return fmt.Errorf("%w: rx_or_scaled must be rx or scaled", ErrValidation)
	}
	if in.TimeSeconds != nil && *in.TimeSeconds < 0 {
		return fmt.Errorf("%w: time_seconds must be >= 0", ErrValidation)
	}
	if in.FeelingRating != nil && (*in.FeelingRating < 1 || *in.FeelingRating > 5) {
		return fmt.Errorf("%w: feeling_rating must be 1..5", ErrValidation)
	}
	return nil
}

// SubmitResult records a completed assignment, marks the assignment done and
// mints a personal record when the performance beats the athlete's best prior
// rx time. Returns the stored result.
func (s *Service) SubmitResult(ctx context.Context, scope Scope, in SubmitResultInput) (*WorkoutResult, error) {
	if err := in.Validate(); err != nil {
		observability.RecordSubmissionRejected("validation")
		return nil, err
	}

	assignment, err := s.store.GetAssignment(ctx, in.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, ErrNotFound
	}

	athlete, err := s.store.GetAthlete(ctx, assignment.AthleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}

	workout, err := s.store.GetWorkout(ctx, assignment.WorkoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrNotFound
	}

	unlock := s.lockRecordKey(assignment.AthleteID, assignment.WorkoutID)
	defer unlock()

	exists, err := s.store.HasResult(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}
	if exists || assignment.IsCompleted {
		observability.RecordSubmissionRejected("duplicate")
		return nil, ErrResultExists
	}

	bestPrior, err := s.store.BestRxTime(ctx, assignment.AthleteID, assignment.WorkoutID)
	if err != nil {
		return nil, err
	}
	isPR := IsPersonalRecord(in.TimeSeconds, in.Variant, bestPrior)

	result := WorkoutResult{
		ID:              uuid.NewString(),
		AssignmentID:    assignment.ID,
		AthleteID:       assignment.AthleteID,
		WorkoutID:       assignment.WorkoutID,
		CompletedAt:     in.CompletedAt.UTC(),
		TimeSeconds:     in.TimeSeconds,
		RoundsCompleted: in.RoundsCompleted,
		RepsCompleted:   in.RepsCompleted,
		Variant:         in.Variant,
		FeelingRating:   in.FeelingRating,
		Notes:           in.Notes,
		IsPR:            isPR,
	}

	var record *PersonalRecord
	if isPR && in.TimeSeconds != nil {
		minted := MintPersonalRecord(uuid.NewString(), result, workout.Name, result.CompletedAt)
		record = &minted
	}

	if err := s.store.CreateResult(ctx, result, record); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) lockRecordKey(athleteID, workoutID string) func() {
	key := athleteID + "|" + workoutID
	muAny, _ := s.prLocks.LoadOrStore(key, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// UpdateResultInput carries the mutable annotation fields of a result.
type UpdateResultInput struct {
	FeelingRating *int
	Notes         *string
}

// GetResult fetches one result visible to the scope.
func (s *Service) GetResult(ctx context.Context, scope Scope, resultID string) (*WorkoutResult, error) {
	result, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}

	athlete, err := s.store.GetAthlete(ctx, result.AthleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}
	return result, nil
}

// UpdateResult changes annotation fields only; the recorded performance is
// immutable once created.
func (s *Service) UpdateResult(ctx context.Context, scope Scope, resultID string, in UpdateResultInput) (*WorkoutResult, error) {
	if in.FeelingRating != nil && (*in.FeelingRating < 1 || *in.FeelingRating > 5) {
		return nil, fmt.Errorf("%w: feeling_rating must be 1..5", ErrValidation)
	}

	result, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}

	athlete, err := s.store.GetAthlete(ctx, result.AthleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}

	if err := s.store.UpdateResultAnnotations(ctx, resultID, in.FeelingRating, in.Notes); err != nil {
		return nil, err
	}
	if in.FeelingRating != nil {
		result.FeelingRating = in.FeelingRating
	}
	if in.Notes != nil {
		result.Notes = *in.Notes
	}
	return result, nil
}

// ListResults returns result details for the scope, newest first, with keyset
// pagination. Athlete scopes are pinned to their own results.
func (s *Service) ListResults(ctx context.Context, scope Scope, filter ResultFilter, cursor *Cursor, limit int) ([]ResultDetail, *Cursor, error) {
	if scope.AthleteID != "" {
		filter.AthleteID = scope.AthleteID
	} else if filter.AthleteID != "" {
		athlete, err := s.store.GetAthlete(ctx, filter.AthleteID)
		if err != nil {
			return nil, nil, err
		}
		if !scope.CanAccessAthlete(athlete) {
			return nil, nil, ErrNotFound
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListResults(ctx, filter, cursor, limit)
}

// WorkoutHistory lists an athlete's attempts at one workout, newest first,
// with rx statistics.
func (s *Service) WorkoutHistory(ctx context.Context, scope Scope, athleteID, workoutID string) ([]WorkoutResult, WorkoutHistoryStats, error) {
	if scope.AthleteID != "" {
		athleteID = scope.AthleteID
	}
	athlete, err := s.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, WorkoutHistoryStats{}, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, WorkoutHistoryStats{}, ErrNotFound
	}

	results, err := s.store.ListWorkoutHistory(ctx, athleteID, workoutID)
	if err != nil {
		return nil, WorkoutHistoryStats{}, err
	}

	stats := WorkoutHistoryStats{TotalAttempts: len(results)}
	var rxSum, rxTimed int
	for _, r := range results {
		if r.IsPR {
			stats.PRCount++
		}
		if r.Variant != VariantRx {
			continue
		}
		stats.RxAttempts++
		if r.TimeSeconds == nil {
			continue
		}
		rxSum += *r.TimeSeconds
		rxTimed++
		if stats.BestTimeSeconds == nil || *r.TimeSeconds < *stats.BestTimeSeconds {
			t := *r.TimeSeconds
			stats.BestTimeSeconds = &t
		}
	}
	if rxTimed > 0 {
		avg := int(float64(rxSum)/float64(rxTimed) + 0.5)
		stats.AverageTimeSeconds = &avg
	}
	return results, stats, nil
}

// PersonalRecords groups an athlete's record history by movement. Movements
// are ordered by most recent achievement; per-movement history is newest
// first and the head entry is the current record.
func (s *Service) PersonalRecords(ctx context.Context, scope Scope, athleteID string) ([]MovementRecords, error) {
	if scope.AthleteID != "" {
		athleteID = scope.AthleteID
	}
	athlete, err := s.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete) {
		return nil, ErrNotFound
	}

	records, err := s.store.ListPersonalRecords(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].AchievedAt.After(records[j].AchievedAt)
	})

	byMovement := make(map[string][]PersonalRecord)
	order := make([]string, 0)
	for _, pr := range records {
		if _, ok := byMovement[pr.MovementName]; !ok {
			order = append(order, pr.MovementName)
		}
		byMovement[pr.MovementName] = append(byMovement[pr.MovementName], pr)
	}

	grouped := make([]MovementRecords, 0, len(order))
	for _, movement := range order {
		history := byMovement[movement]
		grouped = append(grouped, MovementRecords{
			MovementName: movement,
			RecordType:   history[0].RecordType,
			Current:      history[0],
			History:      history,
		})
	}
	return grouped, nil
}
