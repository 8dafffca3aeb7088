package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/config"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MetadataKind           = "kind"
	MetadataUserEmail      = "user_email"
	MetadataConsultationID = "consultation_id"

	KindCart         = "cart"
	KindConsultation = "consultation"

	// MaxAmount is the largest charge, in minor units, the provider accepts
	// for one line.
	MaxAmount int64 = 99999999
)

// CartItem is one line submitted for checkout.
type CartItem struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Gateway turns carts and consultations into provider checkout sessions.
type Gateway struct {
	provider      Provider
	currency      string
	timeout       time.Duration
	frontendURL   string
	webhookSecret string
	logger        *zap.Logger
}

func NewGateway(provider Provider, cfg config.PaymentsConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		provider:      provider,
		currency:      currency,
		timeout:       timeout,
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
		webhookSecret: cfg.StripeWebhookSecret,
		logger:        logger,
	}
}

// MinorUnits converts an amount to the currency's smallest unit, rounding
// half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// lineAmount converts price to minor units and rejects lines whose unit
// price or line total exceeds MaxAmount.
func lineAmount(price decimal.Decimal, quantity int64) (int64, bool) {
	limit := decimal.NewFromInt(MaxAmount)
	unit := price.Shift(2).Round(0)
	if unit.GreaterThan(limit) || unit.Mul(decimal.NewFromInt(quantity)).GreaterThan(limit) {
		return 0, false
	}
	return MinorUnits(price), true
}

// CartSession creates a session with one line per item.
func (g *Gateway) CartSession(ctx context.Context, userEmail string, items []CartItem) (CheckoutSession, error) {
	if len(items) == 0 {
		return CheckoutSession{}, apperr.EmptyCart("Cart is empty")
	}

	lines := make([]LineItem, 0, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			return CheckoutSession{}, apperr.Validation(fmt.Sprintf("items[%d].product_name is required.", i))
		}
		if item.Quantity <= 0 {
			return CheckoutSession{}, apperr.Validation(fmt.Sprintf("items[%d].quantity must be positive.", i))
		}
		if item.Price.IsNegative() {
			return CheckoutSession{}, apperr.Validation(fmt.Sprintf("items[%d].price cannot be negative.", i))
		}
		unit, ok := lineAmount(item.Price, int64(item.Quantity))
		if !ok {
			return CheckoutSession{}, apperr.Validation(fmt.Sprintf("items[%d] amount is too large.", i))
		}
		lines = append(lines, LineItem{
			Name:       name,
			UnitAmount: unit,
			Quantity:   int64(item.Quantity),
		})
	}

	metadata := map[string]string{MetadataKind: KindCart}
	if email := strings.TrimSpace(userEmail); email != "" {
		metadata[MetadataUserEmail] = email
	}

	return g.create(ctx, CheckoutSessionRequest{
		Items:          lines,
		Currency:       g.currency,
		CustomerEmail:  userEmail,
		SuccessURL:     g.frontendURL + "/checkout?success=true",
		CancelURL:      g.frontendURL + "/checkout?canceled=true",
		Metadata:       metadata,
		IdempotencyKey: uuid.NewString(),
	})
}

// ConsultationSession charges the consultation fee set by an admin.
func (g *Gateway) ConsultationSession(ctx context.Context, c models.ConsultationRequest) (CheckoutSession, error) {
	if !c.HasFee() {
		return CheckoutSession{}, apperr.FeeNotSet("Fee not set")
	}

	unit, ok := lineAmount(*c.Fee, 1)
	if !ok {
		return CheckoutSession{}, apperr.Validation("Consultation fee is too large.")
	}

	id := strconv.FormatInt(c.ID, 10)

	consultant := strings.TrimSpace(c.AssignedConsultant)
	if consultant == "" {
		consultant = "a specialist"
	}

	return g.create(ctx, CheckoutSessionRequest{
		Items: []LineItem{{
			Name:       "Consultation with " + consultant,
			UnitAmount: unit,
			Quantity:   1,
		}},
		Currency:      g.currency,
		CustomerEmail: c.Email,
		SuccessURL:    g.frontendURL + "/payment-success?consultation_id=" + id,
		CancelURL:     g.frontendURL + "/welcome",
		Metadata: map[string]string{
			MetadataKind:           KindConsultation,
			MetadataConsultationID: id,
			MetadataUserEmail:      c.Email,
		},
		IdempotencyKey: uuid.NewString(),
	})
}

func (g *Gateway) create(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	session, err := g.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		g.logger.Error("checkout session failed",
			zap.String("kind", req.Metadata[MetadataKind]),
			zap.Int("lines", len(req.Items)),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return CheckoutSession{}, apperr.PaymentGateway("payment provider timed out", err)
		}
		return CheckoutSession{}, apperr.PaymentGateway("payment provider unavailable", err)
	}

	g.logger.Info("checkout session created",
		zap.String("kind", req.Metadata[MetadataKind]),
		zap.String("session_id", session.ID),
	)

	return session, nil
}
