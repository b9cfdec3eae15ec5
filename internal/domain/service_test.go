package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubResultStore struct {
	assignment *WorkoutAssignment
	athlete    *Athlete
	workout    *Workout
	hasResult  bool
	bestRx     *int

	createdResult *WorkoutResult
	createdRecord *PersonalRecord

	result  *WorkoutResult
	details []ResultDetail
	history []WorkoutResult
	records []PersonalRecord
}

func (s *stubResultStore) GetAssignment(ctx context.Context, assignmentID string) (*WorkoutAssignment, error) {
	return s.assignment, nil
}

func (s *stubResultStore) GetAthlete(ctx context.Context, athleteID string) (*Athlete, error) {
	return s.athlete, nil
}

func (s *stubResultStore) GetWorkout(ctx context.Context, workoutID string) (*Workout, error) {
	return s.workout, nil
}

func (s *stubResultStore) HasResult(ctx context.Context, assignmentID string) (bool, error) {
	return s.hasResult, nil
}

func (s *stubResultStore) BestRxTime(ctx context.Context, athleteID, workoutID string) (*int, error) {
	return s.bestRx, nil
}

func (s *stubResultStore) CreateResult(ctx context.Context, result WorkoutResult, record *PersonalRecord) error {
	s.createdResult = &result
	s.createdRecord = record
	return nil
}

func (s *stubResultStore) GetResult(ctx context.Context, resultID string) (*WorkoutResult, error) {
	return s.result, nil
}

func (s *stubResultStore) UpdateResultAnnotations(ctx context.Context, resultID string, feelingRating *int, notes *string) error {
	return nil
}

func (s *stubResultStore) ListResults(ctx context.Context, filter ResultFilter, cursor *Cursor, limit int) ([]ResultDetail, *Cursor, error) {
	return s.details, nil, nil
}

func (s *stubResultStore) ListWorkoutHistory(ctx context.Context, athleteID, workoutID string) ([]WorkoutResult, error) {
	return s.history, nil
}

func (s *stubResultStore) ListPersonalRecords(ctx context.Context, athleteID string) ([]PersonalRecord, error) {
	return s.records, nil
}

func submissionFixture() *stubResultStore {
	return &stubResultStore{
		assignment: &WorkoutAssignment{
			ID:              "asg-1",
			WorkoutID:       "wod-1",
			AthleteID:       "ath-1",
			AssignedByCoach: "coach-1",
			ScheduledDate:   time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC),
		},
		athlete: &Athlete{ID: "ath-1", CoachID: "coach-1", Name: "Jordan", Status: AthleteStatusActive},
		workout: &Workout{ID: "wod-1", CoachID: "coach-1", Name: "Fran", IsBenchmark: true},
	}
}

func TestSubmitResultFirstRxTimeIsPR(t *testing.T) {
	store := submissionFixture()
	service := NewService(store)

	result, err := service.SubmitResult(context.Background(), Scope{AthleteID: "ath-1"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Date(2025, time.November, 20, 18, 0, 0, 0, time.UTC),
		TimeSeconds:  intPtr(312),
		Variant:      VariantRx,
	})
	require.NoError(t, err)
	require.True(t, result.IsPR)

	require.NotNil(t, store.createdRecord)
	require.Equal(t, "Fran", store.createdRecord.MovementName)
	require.Equal(t, 312, store.createdRecord.Value)
	require.Equal(t, result.ID, store.createdRecord.WorkoutResultID)
	require.Equal(t, result.CompletedAt, store.createdRecord.AchievedAt)
}

func TestSubmitResultSlowerTimeIsNotPR(t *testing.T) {
	store := submissionFixture()
	store.bestRx = intPtr(290)
	service := NewService(store)

	result, err := service.SubmitResult(context.Background(), Scope{AthleteID: "ath-1"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Now(),
		TimeSeconds:  intPtr(312),
		Variant:      VariantRx,
	})
	require.NoError(t, err)
	require.False(t, result.IsPR)
	require.Nil(t, store.createdRecord)
}

func TestSubmitResultScaledNeverMintsRecord(t *testing.T) {
	store := submissionFixture()
	service := NewService(store)

	result, err := service.SubmitResult(context.Background(), Scope{AthleteID: "ath-1"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Now(),
		TimeSeconds:  intPtr(100),
		Variant:      VariantScaled,
	})
	require.NoError(t, err)
	require.False(t, result.IsPR)
	require.Nil(t, store.createdRecord)
}

func TestSubmitResultDuplicateIsConflict(t *testing.T) {
	store := submissionFixture()
	store.hasResult = true
	service := NewService(store)

	_, err := service.SubmitResult(context.Background(), Scope{AthleteID: "ath-1"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Now(),
		Variant:      VariantRx,
	})
	require.ErrorIs(t, err, ErrResultExists)
	require.Nil(t, store.createdResult, "original result must stay untouched")
}

func TestSubmitResultCompletedAssignmentIsConflict(t *testing.T) {
	store := submissionFixture()
	store.assignment.IsCompleted = true
	service := NewService(store)

	_, err := service.SubmitResult(context.Background(), Scope{AthleteID: "ath-1"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Now(),
		Variant:      VariantRx,
	})
	require.ErrorIs(t, err, ErrResultExists)
}

func TestSubmitResultForeignCoachSeesNotFound(t *testing.T) {
	store := submissionFixture()
	service := NewService(store)

	_, err := service.SubmitResult(context.Background(), Scope{CoachID: "coach-2"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Now(),
		Variant:      VariantRx,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitResultValidation(t *testing.T) {
	service := NewService(submissionFixture())

	_, err := service.SubmitResult(context.Background(), Scope{AthleteID: "ath-1"}, SubmitResultInput{
		AssignmentID: "asg-1",
		CompletedAt:  time.Now(),
		Variant:      Variant("half-rx"),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestWorkoutHistoryStats(t *testing.T) {
	store := submissionFixture()
	store.history = []WorkoutResult{
		{Variant: VariantRx, TimeSeconds: intPtr(312), IsPR: true},
		{Variant: VariantRx, TimeSeconds: intPtr(298), IsPR: true},
		{Variant: VariantScaled, TimeSeconds: intPtr(250)},
		{Variant: VariantRx},
	}
	service := NewService(store)

	_, stats, err := service.WorkoutHistory(context.Background(), Scope{AthleteID: "ath-1"}, "", "wod-1")
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalAttempts)
	require.Equal(t, 3, stats.RxAttempts)
	require.Equal(t, 2, stats.PRCount)
	require.Equal(t, 298, *stats.BestTimeSeconds)
	require.Equal(t, 305, *stats.AverageTimeSeconds)
}

func TestPersonalRecordsGroupedByMovement(t *testing.T) {
	at := func(offset int) time.Time {
		return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	store := submissionFixture()
	store.records = []PersonalRecord{
		{ID: "r1", MovementName: "Fran", RecordType: "time", Value: 312, AchievedAt: at(0)},
		{ID: "r2", MovementName: "Fran", RecordType: "time", Value: 298, AchievedAt: at(10)},
		{ID: "r3", MovementName: "Helen", RecordType: "time", Value: 540, AchievedAt: at(5)},
	}
	service := NewService(store)

	grouped, err := service.PersonalRecords(context.Background(), Scope{AthleteID: "ath-1"}, "")
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	// Most recently achieved movement first; latest entry is current.
	require.Equal(t, "Fran", grouped[0].MovementName)
	require.Equal(t, "r2", grouped[0].Current.ID)
	require.Len(t, grouped[0].History, 2)
	require.Equal(t, "Helen", grouped[1].MovementName)
}
