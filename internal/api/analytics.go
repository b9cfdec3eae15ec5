package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"example.com/coaching/internal/analytics"
	"example.com/coaching/internal/auth"
	"example.com/coaching/internal/domain"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeAnalyticsRead)
	if !ok {
		return
	}

	snapshot, err := h.engine.Dashboard(r.Context(), domainScope(claims))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) athleteProgress(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeAnalyticsRead)
	if !ok {
		return
	}

	period := analytics.ParsePeriod(r.URL.Query().Get("period"))
	charts, err := h.engine.AthleteProgress(r.Context(), domainScope(claims), mux.Vars(r)["id"], period)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeAnalyticsRead)
	if !ok {
		return
	}

	variant := domain.Variant(r.URL.Query().Get("rx_or_scaled"))
	entries, err := h.engine.Leaderboard(r.Context(), domainScope(claims), mux.Vars(r)["id"], variant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) athleteStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeAnalyticsRead, auth.ScopeResultsRead)
	if !ok {
		return
	}

	snapshot, err := h.engine.AthleteStats(r.Context(), domainScope(claims), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
