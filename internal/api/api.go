// Package api exposes HTTP handlers for the coaching service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"example.com/coaching/internal/analytics"
	"example.com/coaching/internal/auth"
	"example.com/coaching/internal/domain"
	"example.com/coaching/internal/mood"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	results *domain.Service
	roster  *domain.Roster
	engine  *analytics.Engine
	tracker *mood.Tracker
}

// NewHandler builds a Handler.
func NewHandler(results *domain.Service, roster *domain.Roster, engine *analytics.Engine, tracker *mood.Tracker) *Handler {
	return &Handler{results: results, roster: roster, engine: engine, tracker: tracker}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/results", h.submitResult).Methods(http.MethodPost)
	v1.HandleFunc("/results", h.listResults).Methods(http.MethodGet)
	v1.HandleFunc("/results/{id}", h.getResult).Methods(http.MethodGet)
	v1.HandleFunc("/results/{id}", h.updateResult).Methods(http.MethodPatch)

	v1.HandleFunc("/athletes", h.createAthlete).Methods(http.MethodPost)
	v1.HandleFunc("/athletes", h.listAthletes).Methods(http.MethodGet)
	v1.HandleFunc("/athletes/{id}", h.getAthlete).Methods(http.MethodGet)
	v1.HandleFunc("/athletes/{id}/status", h.updateAthleteStatus).Methods(http.MethodPatch)
	v1.HandleFunc("/athletes/{id}", h.deleteAthlete).Methods(http.MethodDelete)
	v1.HandleFunc("/athletes/{id}/assignments", h.listAssignments).Methods(http.MethodGet)
	v1.HandleFunc("/athletes/{id}/history/{workoutID}", h.workoutHistory).Methods(http.MethodGet)
	v1.HandleFunc("/athletes/{id}/records", h.personalRecords).Methods(http.MethodGet)

	v1.HandleFunc("/workouts", h.createWorkout).Methods(http.MethodPost)
	v1.HandleFunc("/workouts", h.listWorkouts).Methods(http.MethodGet)
	v1.HandleFunc("/workouts/{id}", h.deleteWorkout).Methods(http.MethodDelete)

	v1.HandleFunc("/assignments", h.assignWorkout).Methods(http.MethodPost)
	v1.HandleFunc("/assignments/{id}/repeat", h.repeatWorkout).Methods(http.MethodPost)

	v1.HandleFunc("/analytics/dashboard", h.dashboard).Methods(http.MethodGet)
	v1.HandleFunc("/analytics/athletes/{id}/progress", h.athleteProgress).Methods(http.MethodGet)
	v1.HandleFunc("/analytics/workouts/{id}/leaderboard", h.leaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/analytics/athletes/{id}/stats", h.athleteStats).Methods(http.MethodGet)

	v1.HandleFunc("/mood", h.logMood).Methods(http.MethodPost)
	v1.HandleFunc("/mood", h.moodHistory).Methods(http.MethodGet)
	v1.HandleFunc("/mood/{id}", h.deleteMood).Methods(http.MethodDelete)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requireScope extracts claims and enforces one of the allowed scopes.
// Returns false after writing the error response when the request may not
// proceed.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}

func domainScope(claims *auth.Claims) domain.Scope {
	return domain.Scope{CoachID: claims.CoachID, AthleteID: claims.AthleteID}
}

// writeDomainError maps domain sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrResultExists):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrWorkoutInUse):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}
