package api

import (
	"net/http"

	"github.com/safar/aurora-commerce/internal/store"
)

type addToCartRequest struct {
	UserEmail string `json:"user_email"`
	Product   int64  `json:"product"`
	Quantity  *int   `json:"quantity"`
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

// handleAddToCart answers 201 for a new line and 200 when an existing line
// was incremented.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line, created, err := store.AddLine(r.Context(), s.db, store.AddLineRequest{
		UserEmail: req.UserEmail,
		ProductID: req.Product,
		Quantity:  quantity,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, line)
}

func (s *Server) handleListCart(w http.ResponseWriter, r *http.Request) {
	lines, err := store.ListActive(r.Context(), s.db, r.URL.Query().Get("user_email"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, lines)
}

func (s *Server) handleGetCartLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "cart item")
	if err != nil {
		respondError(w, r, err)
		return
	}

	line, err := store.GetCartLine(r.Context(), s.db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, line)
}

func (s *Server) handleUpdateCartLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "cart item")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	line, err := store.UpdateLine(r.Context(), s.db, id, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, line)
}

func (s *Server) handleDeleteCartLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "cart item")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := store.DeleteLine(r.Context(), s.db, id); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
