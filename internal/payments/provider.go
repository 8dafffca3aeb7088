package payments

import (
	"context"
	"errors"
	"time"
)

// ErrProviderNotConfigured is returned by the provider used when no PSP
// credentials are present.
var ErrProviderNotConfigured = errors.New("payments: provider not configured")

// LineItem is one priced line in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutSessionRequest captures the payload required to create a checkout session.
type CheckoutSessionRequest struct {
	Items          []LineItem
	Currency       string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

// CheckoutSession is the opaque handle returned to the client.
type CheckoutSession struct {
	ID          string    `json:"id"`
	RedirectURL string    `json:"url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Provider defines the contract for PSP adapters to implement.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
}

type unconfiguredProvider struct{}

// UnconfiguredProvider fails every call. It keeps the API serving cart and
// order traffic when no PSP key is set.
func UnconfiguredProvider() Provider {
	return unconfiguredProvider{}
}

func (unconfiguredProvider) CreateCheckoutSession(context.Context, CheckoutSessionRequest) (CheckoutSession, error) {
	return CheckoutSession{}, ErrProviderNotConfigured
}
