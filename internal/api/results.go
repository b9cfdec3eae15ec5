package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"example.com/coaching/internal/auth"
	"example.com/coaching/internal/domain"
	"example.com/coaching/internal/persistence"
)

// SubmitResultRequest is the payload for POST /v1/results.
type SubmitResultRequest struct {
	AssignmentID    string    `json:"assignment_id"`
	CompletedAt     time.Time `json:"completed_at"`
	TimeSeconds     *int      `json:"time_seconds,omitempty"`
	RoundsCompleted *int      `json:"rounds_completed,omitempty"`
	RepsCompleted   *int      `json:"reps_completed,omitempty"`
	Variant         string    `json:"rx_or_scaled"`
	FeelingRating   *int      `json:"feeling_rating,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// ResultView exposes full details about a stored result.
type ResultView struct {
	ResultID        string    `json:"result_id"`
	AssignmentID    string    `json:"assignment_id"`
	AthleteID       string    `json:"athlete_id"`
	WorkoutID       string    `json:"workout_id"`
	CompletedAt     time.Time `json:"completed_at"`
	TimeSeconds     *int      `json:"time_seconds,omitempty"`
	RoundsCompleted *int      `json:"rounds_completed,omitempty"`
	RepsCompleted   *int      `json:"reps_completed,omitempty"`
	Variant         string    `json:"rx_or_scaled"`
	FeelingRating   *int      `json:"feeling_rating,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	IsPR            bool      `json:"is_pr"`
}

// ResultDetailView adds display names for list responses.
type ResultDetailView struct {
	ResultView
	WorkoutName string `json:"workout_name"`
	WorkoutType string `json:"workout_type"`
	AthleteName string `json:"athlete_name"`
}

// ListResultsResponse packages list results.
type ListResultsResponse struct {
	Items      []ResultDetailView `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func (h *Handler) submitResult(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeResultsWrite)
	if !ok {
		return
	}

	var req SubmitResultRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.results.SubmitResult(r.Context(), domainScope(claims), domain.SubmitResultInput{
		AssignmentID:    req.AssignmentID,
		CompletedAt:     req.CompletedAt,
		TimeSeconds:     req.TimeSeconds,
		RoundsCompleted: req.RoundsCompleted,
		RepsCompleted:   req.RepsCompleted,
		Variant:         domain.Variant(req.Variant),
		FeelingRating:   req.FeelingRating,
		Notes:           req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.engine != nil {
		h.engine.InvalidateDashboardForAthlete(r.Context(), result.AthleteID)
	}

	writeJSON(w, http.StatusCreated, toResultView(*result))
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeResultsRead, auth.ScopeResultsWrite)
	if !ok {
		return
	}

	result, err := h.results.GetResult(r.Context(), domainScope(claims), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultView(*result))
}

// UpdateResultRequest is the payload for PATCH /v1/results/{id}. Only
// annotation fields may change.
type UpdateResultRequest struct {
	FeelingRating *int    `json:"feeling_rating,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

func (h *Handler) updateResult(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeResultsWrite)
	if !ok {
		return
	}

	var req UpdateResultRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.results.UpdateResult(r.Context(), domainScope(claims), mux.Vars(r)["id"], domain.UpdateResultInput{
		FeelingRating: req.FeelingRating,
		Notes:         req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultView(*result))
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeResultsRead, auth.ScopeResultsWrite)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.ResultFilter{
		AthleteID: q.Get("athlete_id"),
		WorkoutID: q.Get("workout_id"),
		Variant:   domain.Variant(q.Get("rx_or_scaled")),
		OnlyPRs:   q.Get("prs_only") == "true",
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &t
		}
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(q.Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	details, next, err := h.results.ListResults(r.Context(), domainScope(claims), filter, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ResultDetailView, 0, len(details))
	for _, d := range details {
		items = append(items, ResultDetailView{
			ResultView:  toResultView(d.WorkoutResult),
			WorkoutName: d.WorkoutName,
			WorkoutType: d.WorkoutType,
			AthleteName: d.AthleteName,
		})
	}

	writeJSON(w, http.StatusOK, ListResultsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

// WorkoutHistoryResponse pairs attempts with their summary stats.
type WorkoutHistoryResponse struct {
	Attempts []ResultView            `json:"attempts"`
	Stats    WorkoutHistoryStatsView `json:"stats"`
}

// WorkoutHistoryStatsView summarises repeated attempts at one workout.
type WorkoutHistoryStatsView struct {
	TotalAttempts      int  `json:"total_attempts"`
	RxAttempts         int  `json:"rx_attempts"`
	PRCount            int  `json:"pr_count"`
	BestTimeSeconds    *int `json:"best_time_seconds,omitempty"`
	AverageTimeSeconds *int `json:"average_time_seconds,omitempty"`
}

func (h *Handler) workoutHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeResultsRead, auth.ScopeResultsWrite)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	attempts, stats, err := h.results.WorkoutHistory(r.Context(), domainScope(claims), vars["id"], vars["workoutID"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]ResultView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, toResultView(a))
	}

	writeJSON(w, http.StatusOK, WorkoutHistoryResponse{
		Attempts: views,
		Stats: WorkoutHistoryStatsView{
			TotalAttempts:      stats.TotalAttempts,
			RxAttempts:         stats.RxAttempts,
			PRCount:            stats.PRCount,
			BestTimeSeconds:    stats.BestTimeSeconds,
			AverageTimeSeconds: stats.AverageTimeSeconds,
		},
	})
}

// RecordView is one personal-record row.
type RecordView struct {
	RecordID     string    `json:"record_id"`
	MovementName string    `json:"movement_name"`
	RecordType   string    `json:"record_type"`
	Value        int       `json:"value"`
	Unit         string    `json:"unit"`
	AchievedAt   time.Time `json:"achieved_at"`
}

// MovementRecordsView groups a movement's current record with its history.
type MovementRecordsView struct {
	MovementName string       `json:"movement_name"`
	RecordType   string       `json:"record_type"`
	Current      RecordView   `json:"current"`
	History      []RecordView `json:"history"`
}

func (h *Handler) personalRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeResultsRead, auth.ScopeResultsWrite)
	if !ok {
		return
	}

	grouped, err := h.results.PersonalRecords(r.Context(), domainScope(claims), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]MovementRecordsView, 0, len(grouped))
	for _, g := range grouped {
		history := make([]RecordView, 0, len(g.History))
		for _, rec := range g.History {
			history = append(history, toRecordView(rec))
		}
		views = append(views, MovementRecordsView{
			MovementName: g.MovementName,
			RecordType:   g.RecordType,
			Current:      toRecordView(g.Current),
			History:      history,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func toResultView(res domain.WorkoutResult) ResultView {
	return ResultView{
		ResultID:        res.ID,
		AssignmentID:    res.AssignmentID,
		AthleteID:       res.AthleteID,
		WorkoutID:       res.WorkoutID,
		CompletedAt:     res.CompletedAt,
		TimeSeconds:     res.TimeSeconds,
		RoundsCompleted: res.RoundsCompleted,
		RepsCompleted:   res.RepsCompleted,
		Variant:         string(res.Variant),
		FeelingRating:   res.FeelingRating,
		Notes:           res.Notes,
		IsPR:            res.IsPR,
	}
}

func toRecordView(rec domain.PersonalRecord) RecordView {
	return RecordView{
		RecordID:     rec.ID,
		MovementName: rec.MovementName,
		RecordType:   rec.RecordType,
		Value:        rec.Value,
		Unit:         rec.Unit,
		AchievedAt:   rec.AchievedAt,
	}
}
