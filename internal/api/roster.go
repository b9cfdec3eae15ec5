package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"example.com/coaching/internal/auth"
	"example.com/coaching/internal/domain"
)

// CreateAthleteRequest is the payload for POST /v1/athletes.
type CreateAthleteRequest struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// AthleteView exposes athlete details.
type AthleteView struct {
	AthleteID string    `json:"athlete_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AthleteOverviewView adds roster-level tallies to the athlete.
type AthleteOverviewView struct {
	AthleteView
	TotalWorkouts  int     `json:"total_workouts"`
	TotalPRs       int     `json:"total_prs"`
	CurrentStreak  int     `json:"current_streak"`
	CompletionRate float64 `json:"completion_rate"`
}

func (h *Handler) createAthlete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	var req CreateAthleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	athlete, err := h.roster.CreateAthlete(r.Context(), domainScope(claims), domain.CreateAthleteInput{
		Name:   req.Name,
		Status: domain.AthleteStatus(req.Status),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAthleteView(*athlete))
}

func (h *Handler) listAthletes(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterRead, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	overviews, err := h.roster.ListAthletes(r.Context(), domainScope(claims))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]AthleteOverviewView, 0, len(overviews))
	for _, o := range overviews {
		views = append(views, AthleteOverviewView{
			AthleteView:    toAthleteView(o.Athlete),
			TotalWorkouts:  o.TotalWorkouts,
			TotalPRs:       o.TotalPRs,
			CurrentStreak:  o.CurrentStreak,
			CompletionRate: o.CompletionRate,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getAthlete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterRead, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	athlete, err := h.roster.GetAthlete(r.Context(), domainScope(claims), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAthleteView(*athlete))
}

// UpdateAthleteStatusRequest is the payload for PATCH /v1/athletes/{id}/status.
type UpdateAthleteStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateAthleteStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	var req UpdateAthleteStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.roster.UpdateAthleteStatus(r.Context(), domainScope(claims), mux.Vars(r)["id"], domain.AthleteStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAthlete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	if err := h.roster.DeleteAthlete(r.Context(), domainScope(claims), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateWorkoutRequest is the payload for POST /v1/workouts.
type CreateWorkoutRequest struct {
	Name        string `json:"name"`
	WorkoutType string `json:"workout_type,omitempty"`
	Description string `json:"description,omitempty"`
	IsBenchmark bool   `json:"is_benchmark,omitempty"`
}

// WorkoutView exposes workout details.
type WorkoutView struct {
	WorkoutID   string    `json:"workout_id"`
	Name        string    `json:"name"`
	WorkoutType string    `json:"workout_type"`
	Description string    `json:"description,omitempty"`
	IsBenchmark bool      `json:"is_benchmark"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	var req CreateWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	workout, err := h.roster.CreateWorkout(r.Context(), domainScope(claims), domain.CreateWorkoutInput{
		Name:        req.Name,
		WorkoutType: req.WorkoutType,
		Description: req.Description,
		IsBenchmark: req.IsBenchmark,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkoutView(*workout))
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterRead, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	workouts, err := h.roster.ListWorkouts(r.Context(), domainScope(claims))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]WorkoutView, 0, len(workouts))
	for _, wo := range workouts {
		views = append(views, toWorkoutView(wo))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	if err := h.roster.DeleteWorkout(r.Context(), domainScope(claims), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignWorkoutRequest is the payload for POST /v1/assignments.
type AssignWorkoutRequest struct {
	WorkoutID     string    `json:"workout_id"`
	AthleteID     string    `json:"athlete_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// AssignmentView exposes assignment details.
type AssignmentView struct {
	AssignmentID  string    `json:"assignment_id"`
	WorkoutID     string    `json:"workout_id"`
	AthleteID     string    `json:"athlete_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	IsCompleted   bool      `json:"is_completed"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) assignWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	var req AssignWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	assignment, err := h.roster.AssignWorkout(r.Context(), domainScope(claims), domain.AssignWorkoutInput{
		WorkoutID:     req.WorkoutID,
		AthleteID:     req.AthleteID,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentView(*assignment))
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterRead, auth.ScopeRosterWrite, auth.ScopeResultsRead)
	if !ok {
		return
	}

	q := r.URL.Query()
	var from, to *time.Time
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			from = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			to = &t
		}
	}

	assignments, err := h.roster.ListAssignments(r.Context(), domainScope(claims), mux.Vars(r)["id"], from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, toAssignmentView(a))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) repeatWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRosterWrite)
	if !ok {
		return
	}

	assignment, err := h.roster.RepeatWorkout(r.Context(), domainScope(claims), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentView(*assignment))
}

func toAthleteView(a domain.Athlete) AthleteView {
	return AthleteView{
		AthleteID: a.ID,
		Name:      a.Name,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
}

func toWorkoutView(w domain.Workout) WorkoutView {
	return WorkoutView{
		WorkoutID:   w.ID,
		Name:        w.Name,
		WorkoutType: w.WorkoutType,
		Description: w.Description,
		IsBenchmark: w.IsBenchmark,
		CreatedAt:   w.CreatedAt,
	}
}

func toAssignmentView(a domain.WorkoutAssignment) AssignmentView {
	return AssignmentView{
		AssignmentID:  a.ID,
		WorkoutID:     a.WorkoutID,
		AthleteID:     a.AthleteID,
		ScheduledDate: a.ScheduledDate,
		IsCompleted:   a.IsCompleted,
		CreatedAt:     a.CreatedAt,
	}
}
