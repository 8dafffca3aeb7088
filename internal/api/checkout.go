package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/payments"
	"github.com/safar/aurora-commerce/internal/store"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type checkoutSessionRequest struct {
	UserEmail string              `json:"user_email"`
	Cart      []payments.CartItem `json:"cart"`
}

type consultationCheckoutRequest struct {
	ConsultationID int64  `json:"consultation_id"`
	Email          string `json:"email"`
}

type checkoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

func (s *Server) handleCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	session, err := s.gateway.CartSession(r.Context(), req.UserEmail, req.Cart)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, checkoutSessionResponse{ID: session.ID, URL: session.RedirectURL})
}

func (s *Server) handleConsultationCheckout(w http.ResponseWriter, r *http.Request) {
	var req consultationCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.ConsultationID <= 0 || strings.TrimSpace(req.Email) == "" {
		respondError(w, r, apperr.Validation("consultation_id and email are required."))
		return
	}

	consultation, err := store.GetConsultationForEmail(r.Context(), s.db, req.ConsultationID, req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	session, err := s.gateway.ConsultationSession(r.Context(), *consultation)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, checkoutSessionResponse{ID: session.ID, URL: session.RedirectURL})
}

// handleStripeWebhook settles orders and consultations once the provider
// reports a paid checkout session. Without RequireConfirmation orders are
// paid when placed, so cart sessions are only acknowledged. Otherwise a
// session whose order has not been placed yet answers 404 so the provider
// redelivers it later.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, r, apperr.Validation("Invalid request body"))
		return
	}

	event, err := s.gateway.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger := loggerFrom(r.Context()).With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	if !event.CheckoutCompleted() {
		logger.Debug("webhook ignored")
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	switch event.Kind {
	case payments.KindConsultation:
		if _, err := store.ConfirmConsultationPayment(r.Context(), s.db, event.ConsultationID); err != nil {
			respondError(w, r, err)
			return
		}
		logger.Info("consultation paid", zap.Int64("consultation_id", event.ConsultationID))
	default:
		if !s.opts.RequireConfirmation {
			logger.Debug("cart session acknowledged", zap.String("session_id", event.SessionID))
			break
		}
		order, err := store.MarkOrderPaid(r.Context(), s.db, event.SessionID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		logger.Info("order paid", zap.Int64("order_id", order.ID), zap.String("session_id", event.SessionID))
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
