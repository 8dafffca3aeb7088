package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/aurora-commerce/internal/apperr"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondError maps err onto a status code and a client-safe message.
// Internal errors are logged with their cause and never echoed.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	logger := loggerFrom(r.Context())
	switch kind {
	case apperr.KindInternal, apperr.KindPaymentGateway, apperr.KindClassifierUnavailable:
		logger.Error("request failed", zap.String("kind", kind.String()), zap.Error(err))
	default:
		logger.Debug("request rejected", zap.String("kind", kind.String()), zap.Error(err))
	}

	respondMessage(w, status, apperr.Message(err))
}

// decodeJSON reads a single JSON object into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required.")
		}
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name, label string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid " + label + " ID")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback, limit int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 1 {
		return fallback
	}
	if limit > 0 && value > limit {
		return limit
	}
	return value
}
