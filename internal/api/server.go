// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/aurora-commerce/internal/classifier"
	"github.com/safar/aurora-commerce/internal/payments"
	"go.uber.org/zap"
)

// Classifier predicts a skin condition from an uploaded image.
type Classifier interface {
	Classify(ctx context.Context, image []byte, filename string) (classifier.Prediction, error)
	ModelInfo(ctx context.Context) (json.RawMessage, error)
}

type Options struct {
	// RequireConfirmation creates orders as awaiting_payment until the
	// provider webhook confirms the checkout session.
	RequireConfirmation bool
}

type Server struct {
	db         *sql.DB
	gateway    *payments.Gateway
	classifier Classifier
	logger     *zap.Logger
	opts       Options
}

func NewServer(db *sql.DB, gateway *payments.Gateway, classifier Classifier, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		db:         db,
		gateway:    gateway,
		classifier: classifier,
		logger:     logger,
		opts:       opts,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Get("/{id}", s.handleGetProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Post("/", s.handleAddToCart)
		r.Get("/", s.handleListCart)
		r.Get("/{id}", s.handleGetCartLine)
		r.Patch("/{id}", s.handleUpdateCartLine)
		r.Delete("/{id}", s.handleDeleteCartLine)
	})

	r.Post("/checkout-session", s.handleCheckoutSession)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.handlePlaceOrder)
		r.Get("/", s.handleListOrders)
		r.Get("/{id}", s.handleGetOrder)
		r.Patch("/{id}", s.handleUpdateOrder)
		r.Delete("/{id}", s.handleDeleteOrder)
	})

	r.Route("/consultations", func(r chi.Router) {
		r.Post("/", s.handleCreateConsultation)
		r.Get("/", s.handleListConsultations)
		r.Post("/checkout-session", s.handleConsultationCheckout)
		r.Post("/{id}/confirm-payment", s.handleConfirmConsultationPayment)
	})

	r.Post("/analysis", s.handleAnalyze)
	r.Route("/analysis-history", func(r chi.Router) {
		r.Post("/", s.handleAppendAnalysis)
		r.Get("/", s.handleListAnalysis)
		r.Get("/latest", s.handleLatestAnalysis)
	})
	r.Get("/analysis-summary/{email}", s.handleAnalysisSummary)
	r.Get("/prediction-mapping", s.handlePredictionMapping)

	r.Get("/recommendations/{email}", s.handleRecommendations)
	r.Get("/activity/{email}", s.handleActivity)

	r.Route("/admin", func(r chi.Router) {
		r.Patch("/consultations/{id}", s.handleUpdateConsultation)
		r.Delete("/consultations/{id}", s.handleDeleteConsultation)
		r.Patch("/analysis-history/{id}", s.handleUpdateAnalysis)
	})

	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
