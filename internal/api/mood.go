package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"example.com/coaching/internal/auth"
)

// LogMoodRequest is the payload for POST /v1/mood.
type LogMoodRequest struct {
	AthleteID string `json:"athlete_id,omitempty"`
	Level     int    `json:"level"`
	Notes     string `json:"notes,omitempty"`
}

func (h *Handler) logMood(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeMoodWrite)
	if !ok {
		return
	}

	var req LogMoodRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.tracker.LogMood(r.Context(), domainScope(claims), req.AthleteID, req.Level, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) moodHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeMoodRead, auth.ScopeMoodWrite)
	if !ok {
		return
	}

	q := r.URL.Query()
	days := 0
	if raw := q.Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	history, err := h.tracker.History(r.Context(), domainScope(claims), q.Get("athlete_id"), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) deleteMood(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeMoodWrite)
	if !ok {
		return
	}

	if err := h.tracker.Delete(r.Context(), domainScope(claims), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
