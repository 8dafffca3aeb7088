package payments

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const eventCheckoutCompleted = "checkout.session.completed"

// WebhookEvent is the part of a provider notification the API acts on.
type WebhookEvent struct {
	ID             string
	Type           string
	SessionID      string
	Kind           string
	ConsultationID int64
	Paid           bool
}

// CheckoutCompleted reports whether the event settles a checkout session.
func (e WebhookEvent) CheckoutCompleted() bool {
	return e.Type == eventCheckoutCompleted && e.Paid
}

// ParseWebhook verifies the signature header and decodes the event.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if g.webhookSecret == "" {
		return WebhookEvent{}, apperr.PaymentGateway("webhook secret not configured", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookEvent{}, apperr.Validation("Invalid webhook signature.")
	}

	parsed := WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if parsed.Type != eventCheckoutCompleted || event.Data == nil {
		return parsed, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return WebhookEvent{}, apperr.Validation("Malformed checkout session payload.")
	}

	parsed.SessionID = session.ID
	parsed.Paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	parsed.Kind = session.Metadata[MetadataKind]
	if raw := session.Metadata[MetadataConsultationID]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return WebhookEvent{}, apperr.Validation(fmt.Sprintf("Invalid consultation id %q.", raw))
		}
		parsed.ConsultationID = id
	}

	return parsed, nil
}
