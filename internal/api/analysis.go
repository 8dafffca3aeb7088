package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/safar/aurora-commerce/internal/store"
)

const maxImageUpload = 10 << 20

type appendAnalysisRequest struct {
	UserEmail          string   `json:"user_email"`
	SkinType           string   `json:"skin_type"`
	SkinConcern        string   `json:"skin_concern"`
	PredictedCondition string   `json:"predicted_condition"`
	Confidence         *float64 `json:"confidence"`
	ImageData          string   `json:"image_data"`
}

type updateAnalysisRequest struct {
	SkinType           *string  `json:"skin_type"`
	SkinConcern        *string  `json:"skin_concern"`
	PredictedCondition *string  `json:"predicted_condition"`
	Confidence         *float64 `json:"confidence"`
}

// handleAnalyze classifies an uploaded image and records the prediction.
// Nothing is recorded when the classifier is unavailable.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload+(1<<20))
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		respondError(w, r, apperr.Validation("Invalid multipart form."))
		return
	}

	email := strings.TrimSpace(r.FormValue("user_email"))
	if email == "" {
		respondError(w, r, apperr.Validation("User email is required."))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, r, apperr.Validation("No image uploaded"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, apperr.Validation("Could not read image."))
		return
	}

	prediction, err := s.classifier.Classify(r.Context(), image, header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	confidence := prediction.Confidence
	record, err := store.AppendAnalysis(r.Context(), s.db, store.AppendAnalysisRequest{
		UserEmail:          email,
		SkinType:           r.FormValue("skin_type"),
		SkinConcern:        r.FormValue("skin_concern"),
		PredictedCondition: prediction.Label,
		Confidence:         &confidence,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleAppendAnalysis(w http.ResponseWriter, r *http.Request) {
	var req appendAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.PredictedCondition) == "" {
		respondError(w, r, apperr.Validation("predicted_condition is required."))
		return
	}

	record, err := store.AppendAnalysis(r.Context(), s.db, store.AppendAnalysisRequest{
		UserEmail:          req.UserEmail,
		SkinType:           req.SkinType,
		SkinConcern:        req.SkinConcern,
		PredictedCondition: req.PredictedCondition,
		Confidence:         req.Confidence,
		ImageData:          req.ImageData,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListAnalysis(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("user_email"))
	if email == "" {
		respondJSON(w, http.StatusOK, []models.AnalysisHistory{})
		return
	}

	history, err := store.ListAnalysis(r.Context(), s.db, email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// handleLatestAnalysis returns a list of at most one record.
func (s *Server) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	latest := []models.AnalysisHistory{}

	email := strings.TrimSpace(r.URL.Query().Get("user_email"))
	if email != "" {
		record, err := store.LatestAnalysis(r.Context(), s.db, email)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if record != nil {
			latest = append(latest, *record)
		}
	}

	respondJSON(w, http.StatusOK, latest)
}

func (s *Server) handleUpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "analysis")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	record, err := store.UpdateAnalysis(r.Context(), s.db, id, store.UpdateAnalysisRequest{
		SkinType:           req.SkinType,
		SkinConcern:        req.SkinConcern,
		PredictedCondition: req.PredictedCondition,
		Confidence:         req.Confidence,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handlePredictionMapping(w http.ResponseWriter, r *http.Request) {
	info, err := s.classifier.ModelInfo(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}
