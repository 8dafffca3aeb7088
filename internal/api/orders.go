package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/safar/aurora-commerce/internal/store"
)

type placeOrderRequest struct {
	UserEmail string `json:"user_email"`
	models.ShippingInfo
	CheckoutSessionID string `json:"checkout_session_id"`
}

type updateOrderRequest struct {
	Status            *string `json:"status"`
	PaymentStatus     *string `json:"payment_status"`
	ShippingFirstName *string `json:"shipping_first_name"`
	ShippingLastName  *string `json:"shipping_last_name"`
	ShippingEmail     *string `json:"shipping_email"`
	ShippingAddress   *string `json:"shipping_address"`
	ShippingCity      *string `json:"shipping_city"`
	ShippingState     *string `json:"shipping_state"`
	ShippingZip       *string `json:"shipping_zip"`
	ShippingCountry   *string `json:"shipping_country"`
}

func (u updateOrderRequest) shipping() *store.ShippingPatch {
	patch := &store.ShippingPatch{
		FirstName: u.ShippingFirstName,
		LastName:  u.ShippingLastName,
		Email:     u.ShippingEmail,
		Address:   u.ShippingAddress,
		City:      u.ShippingCity,
		State:     u.ShippingState,
		Zip:       u.ShippingZip,
		Country:   u.ShippingCountry,
	}
	if *patch == (store.ShippingPatch{}) {
		return nil
	}
	return patch
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	placeReq := store.PlaceOrderRequest{
		UserEmail:         req.UserEmail,
		Shipping:          req.ShippingInfo,
		CheckoutSessionID: req.CheckoutSessionID,
	}
	if s.opts.RequireConfirmation {
		placeReq.PaymentStatus = models.PaymentAwaitingPayment
	}

	order, err := store.PlaceOrder(r.Context(), s.db, placeReq)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("user_email"))
	if email == "" {
		respondJSON(w, http.StatusOK, store.CursorPage{Items: []models.Order{}})
		return
	}

	limit := queryInt(r, "limit", 20, 100)

	page, err := store.ListOrders(r.Context(), s.db, email, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order")
	if err != nil {
		respondError(w, r, err)
		return
	}

	order, err := store.GetOrder(r.Context(), s.db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	update := store.UpdateOrderRequest{Shipping: req.shipping()}
	if req.Status != nil {
		status, err := models.ParseStatus(*req.Status)
		if err != nil {
			respondError(w, r, apperr.Validation(fmt.Sprintf("Invalid status %q.", *req.Status)))
			return
		}
		update.Status = &status
	}
	if req.PaymentStatus != nil {
		paymentStatus, err := models.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			respondError(w, r, apperr.Validation(fmt.Sprintf("Invalid payment_status %q.", *req.PaymentStatus)))
			return
		}
		update.PaymentStatus = &paymentStatus
	}

	order, err := store.UpdateOrder(r.Context(), s.db, id, update)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := store.DeleteOrder(r.Context(), s.db, id); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
