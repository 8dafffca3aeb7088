package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/safar/aurora-commerce/internal/store"
)

func (s *Server) handleAnalysisSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := store.AnalysisSummary(r.Context(), s.db, emailParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	products, err := store.Recommend(r.Context(), s.db, emailParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := store.UserActivity(r.Context(), s.db, emailParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, activity)
}

func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if email, err := url.PathUnescape(raw); err == nil {
		raw = email
	}
	return strings.TrimSpace(raw)
}
