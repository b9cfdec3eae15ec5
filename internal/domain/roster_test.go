package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRosterStore struct {
	athletes    []Athlete
	workouts    []Workout
	assignments []WorkoutAssignment

	counts         [4]int
	completedDates []time.Time
	datesErr       error
	hasAssignments bool

	createdAthlete    *Athlete
	createdWorkout    *Workout
	createdAssignment *WorkoutAssignment
	deletedWorkout    string
	deletedAthlete    string
	updatedStatus     AthleteStatus
}

func (s *stubRosterStore) CreateAthlete(_ context.Context, athlete Athlete) error {
	s.createdAthlete = &athlete
	return nil
}

func (s *stubRosterStore) GetAthlete(_ context.Context, id string) (*Athlete, error) {
	for i := range s.athletes {
		if s.athletes[i].ID == id {
			return &s.athletes[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRosterStore) ListAthletes(_ context.Context, coachID string) ([]Athlete, error) {
	out := make([]Athlete, 0)
	for _, a := range s.athletes {
		if a.CoachID == coachID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubRosterStore) UpdateAthleteStatus(_ context.Context, _ string, status AthleteStatus) error {
	s.updatedStatus = status
	return nil
}

func (s *stubRosterStore) DeleteAthlete(_ context.Context, id string) error {
	s.deletedAthlete = id
	return nil
}

func (s *stubRosterStore) AthleteCounts(context.Context, string) (int, int, int, int, error) {
	return s.counts[0], s.counts[1], s.counts[2], s.counts[3], nil
}

func (s *stubRosterStore) CompletedDates(context.Context, string) ([]time.Time, error) {
	return s.completedDates, s.datesErr
}

func (s *stubRosterStore) CreateWorkout(_ context.Context, workout Workout) error {
	s.createdWorkout = &workout
	return nil
}

func (s *stubRosterStore) GetWorkout(_ context.Context, id string) (*Workout, error) {
	for i := range s.workouts {
		if s.workouts[i].ID == id {
			return &s.workouts[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRosterStore) ListWorkouts(_ context.Context, coachID string) ([]Workout, error) {
	out := make([]Workout, 0)
	for _, w := range s.workouts {
		if w.CoachID == coachID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *stubRosterStore) WorkoutHasAssignments(context.Context, string) (bool, error) {
	return s.hasAssignments, nil
}

func (s *stubRosterStore) DeleteWorkout(_ context.Context, id string) error {
	s.deletedWorkout = id
	return nil
}

func (s *stubRosterStore) CreateAssignment(_ context.Context, assignment WorkoutAssignment) error {
	s.createdAssignment = &assignment
	return nil
}

func (s *stubRosterStore) ListAssignments(context.Context, string, *time.Time, *time.Time) ([]WorkoutAssignment, error) {
	return s.assignments, nil
}

func (s *stubRosterStore) GetAssignment(_ context.Context, id string) (*WorkoutAssignment, error) {
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			return &s.assignments[i], nil
		}
	}
	return nil, ErrNotFound
}

func fixedRoster(store RosterStore, now time.Time) *Roster {
	r := NewRoster(store)
	r.now = func() time.Time { return now }
	return r
}

func coachScope() Scope {
	return Scope{CoachID: "coach-1"}
}

func TestCreateAthleteDefaultsToActive(t *testing.T) {
	store := &stubRosterStore{}
	roster := NewRoster(store)

	athlete, err := roster.CreateAthlete(context.Background(), coachScope(), CreateAthleteInput{Name: "  Ana  "})
	require.NoError(t, err)
	require.Equal(t, "Ana", athlete.Name)
	require.Equal(t, AthleteStatusActive, athlete.Status)
	require.Equal(t, "coach-1", athlete.CoachID)
	require.NotEmpty(t, athlete.ID)
}

func TestCreateAthleteRejectsBadInput(t *testing.T) {
	roster := NewRoster(&stubRosterStore{})

	_, err := roster.CreateAthlete(context.Background(), coachScope(), CreateAthleteInput{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = roster.CreateAthlete(context.Background(), coachScope(), CreateAthleteInput{Name: "Ana", Status: "retired"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = roster.CreateAthlete(context.Background(), Scope{AthleteID: "ath-1"}, CreateAthleteInput{Name: "Ana"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListAthletesComputesOverview(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	store := &stubRosterStore{
		athletes: []Athlete{{ID: "ath-1", CoachID: "coach-1", Name: "Ana", Status: AthleteStatusActive}},
		counts:   [4]int{12, 3, 10, 8},
		completedDates: []time.Time{
			now,
			now.AddDate(0, 0, -1),
		},
	}

	overviews, err := fixedRoster(store, now).ListAthletes(context.Background(), coachScope())
	require.NoError(t, err)
	require.Len(t, overviews, 1)

	o := overviews[0]
	require.Equal(t, 12, o.TotalWorkouts)
	require.Equal(t, 3, o.TotalPRs)
	require.Equal(t, 2, o.CurrentStreak)
	require.Equal(t, 80.0, o.CompletionRate)
}

func TestListAthletesStreakDegradesToZero(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	store := &stubRosterStore{
		athletes: []Athlete{{ID: "ath-1", CoachID: "coach-1", Name: "Ana"}},
		datesErr: errors.New("timeout"),
	}

	overviews, err := fixedRoster(store, now).ListAthletes(context.Background(), coachScope())
	require.NoError(t, err)
	require.Equal(t, 0, overviews[0].CurrentStreak)
}

func TestDeleteWorkoutRejectedWhileAssigned(t *testing.T) {
	store := &stubRosterStore{
		workouts:       []Workout{{ID: "wod-1", CoachID: "coach-1", Name: "Fran"}},
		hasAssignments: true,
	}
	roster := NewRoster(store)

	err := roster.DeleteWorkout(context.Background(), coachScope(), "wod-1")
	require.ErrorIs(t, err, ErrWorkoutInUse)
	require.Empty(t, store.deletedWorkout)

	store.hasAssignments = false
	require.NoError(t, roster.DeleteWorkout(context.Background(), coachScope(), "wod-1"))
	require.Equal(t, "wod-1", store.deletedWorkout)
}

func TestDeleteWorkoutForeignCoach(t *testing.T) {
	store := &stubRosterStore{
		workouts: []Workout{{ID: "wod-1", CoachID: "coach-2", Name: "Fran"}},
	}

	err := NewRoster(store).DeleteWorkout(context.Background(), coachScope(), "wod-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAssignWorkoutTruncatesDate(t *testing.T) {
	store := &stubRosterStore{
		athletes: []Athlete{{ID: "ath-1", CoachID: "coach-1", Name: "Ana"}},
		workouts: []Workout{{ID: "wod-1", CoachID: "coach-1", Name: "Fran"}},
	}
	roster := NewRoster(store)

	scheduled := time.Date(2025, 11, 22, 17, 45, 0, 0, time.UTC)
	assignment, err := roster.AssignWorkout(context.Background(), coachScope(), AssignWorkoutInput{
		WorkoutID:     "wod-1",
		AthleteID:     "ath-1",
		ScheduledDate: scheduled,
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 11, 22, 0, 0, 0, 0, time.UTC), assignment.ScheduledDate)
	require.False(t, assignment.IsCompleted)
	require.Equal(t, "coach-1", assignment.AssignedByCoach)
}

func TestRepeatWorkoutSchedulesToday(t *testing.T) {
	now := time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC)
	store := &stubRosterStore{
		athletes: []Athlete{{ID: "ath-1", CoachID: "coach-1", Name: "Ana"}},
		assignments: []WorkoutAssignment{{
			ID:              "asg-1",
			WorkoutID:       "wod-1",
			AthleteID:       "ath-1",
			AssignedByCoach: "coach-1",
			ScheduledDate:   time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			IsCompleted:     true,
		}},
	}

	repeat, err := fixedRoster(store, now).RepeatWorkout(context.Background(), coachScope(), "asg-1")
	require.NoError(t, err)
	require.NotEqual(t, "asg-1", repeat.ID)
	require.Equal(t, "wod-1", repeat.WorkoutID)
	require.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), repeat.ScheduledDate)
	require.False(t, repeat.IsCompleted)
}

func TestUpdateAthleteStatusValidatesTransition(t *testing.T) {
	store := &stubRosterStore{
		athletes: []Athlete{{ID: "ath-1", CoachID: "coach-1", Name: "Ana", Status: AthleteStatusActive}},
	}
	roster := NewRoster(store)

	require.NoError(t, roster.UpdateAthleteStatus(context.Background(), coachScope(), "ath-1", AthleteStatusOnHold))
	require.Equal(t, AthleteStatusOnHold, store.updatedStatus)

	err := roster.UpdateAthleteStatus(context.Background(), coachScope(), "ath-1", "banned")
	require.ErrorIs(t, err, ErrValidation)
}
