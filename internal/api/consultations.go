package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/safar/aurora-commerce/internal/store"
	"github.com/shopspring/decimal"
)

type createConsultationRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Concern        string `json:"concern"`
	PreferredDate  string `json:"preferred_date"`
	PreferredTime  string `json:"preferred_time"`
	AdditionalInfo string `json:"additional_info"`
}

type updateConsultationRequest struct {
	AssignedConsultant *string          `json:"assigned_consultant"`
	ConfirmedDate      *string          `json:"confirmed_date"`
	ConfirmedTime      *string          `json:"confirmed_time"`
	MeetingType        *string          `json:"meeting_type"`
	MeetingLink        *string          `json:"meeting_link"`
	Fee                *decimal.Decimal `json:"consultation_fee"`
	PaymentConfirmed   *bool            `json:"payment_confirmed"`
	Status             *string          `json:"status"`
}

type confirmPaymentRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateConsultation(w http.ResponseWriter, r *http.Request) {
	var req createConsultationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	consultation, err := store.CreateConsultation(r.Context(), s.db, store.CreateConsultationRequest{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Concern:        req.Concern,
		PreferredDate:  req.PreferredDate,
		PreferredTime:  req.PreferredTime,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, consultation)
}

func (s *Server) handleListConsultations(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondJSON(w, http.StatusOK, []models.ConsultationRequest{})
		return
	}

	consultations, err := store.ListConsultations(r.Context(), s.db, email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, consultations)
}

func (s *Server) handleUpdateConsultation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "consultation")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateConsultationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	update := store.UpdateConsultationRequest{
		AssignedConsultant: req.AssignedConsultant,
		ConfirmedDate:      req.ConfirmedDate,
		ConfirmedTime:      req.ConfirmedTime,
		MeetingLink:        req.MeetingLink,
		Fee:                req.Fee,
		PaymentConfirmed:   req.PaymentConfirmed,
	}
	if req.Status != nil {
		status, err := models.ParseStatus(*req.Status)
		if err != nil {
			respondError(w, r, apperr.Validation(fmt.Sprintf("Invalid status %q.", *req.Status)))
			return
		}
		update.Status = &status
	}
	if req.MeetingType != nil {
		meetingType, err := models.ParseMeetingType(*req.MeetingType)
		if err != nil {
			respondError(w, r, apperr.Validation(fmt.Sprintf("Invalid meeting_type %q.", *req.MeetingType)))
			return
		}
		update.MeetingType = &meetingType
	}

	consultation, err := store.UpdateConsultation(r.Context(), s.db, id, update)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, consultation)
}

func (s *Server) handleDeleteConsultation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "consultation")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := store.DeleteConsultation(r.Context(), s.db, id); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleConfirmConsultationPayment is called by the payment success page.
func (s *Server) handleConfirmConsultationPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "consultation")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, r, apperr.Validation("email is required."))
		return
	}

	if _, err := store.GetConsultationForEmail(r.Context(), s.db, id, req.Email); err != nil {
		respondError(w, r, err)
		return
	}

	consultation, err := store.ConfirmConsultationPayment(r.Context(), s.db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, consultation)
}
