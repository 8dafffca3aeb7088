package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/config"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/shopspring/decimal"
)

type fakeProvider struct {
	calls   int
	lastReq CheckoutSessionRequest
	session CheckoutSession
	err     error
	block   bool
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	f.calls++
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return CheckoutSession{}, ctx.Err()
	}
	return f.session, f.err
}

func newTestGateway(p Provider) *Gateway {
	return NewGateway(p, config.PaymentsConfig{
		Currency:            "USD",
		Timeout:             time.Second,
		FrontendURL:         "https://shop.example/",
		StripeWebhookSecret: "whsec_test",
	}, nil)
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"12.50":  1250,
		"0.1":    10,
		"19.999": 2000,
		"0.005":  1,
		"100":    10000,
	}
	for in, want := range cases {
		if got := MinorUnits(decimal.RequireFromString(in)); got != want {
			t.Fatalf("MinorUnits(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestCartSessionBuildsLineItems(t *testing.T) {
	provider := &fakeProvider{session: CheckoutSession{ID: "cs_1", RedirectURL: "https://checkout.stripe.com/cs_1"}}
	gw := newTestGateway(provider)

	session, err := gw.CartSession(context.Background(), "a@x.io", []CartItem{
		{ProductName: "Serum", Price: decimal.RequireFromString("12.50"), Quantity: 2},
		{ProductName: "Cream", Price: decimal.RequireFromString("7.25"), Quantity: 1},
	})
	if err != nil {
		t.Fatalf("cart session: %v", err)
	}
	if session.ID != "cs_1" {
		t.Fatalf("expected session id cs_1, got %q", session.ID)
	}

	req := provider.lastReq
	if req.Currency != "usd" {
		t.Fatalf("expected lowercase currency, got %q", req.Currency)
	}
	if len(req.Items) != 2 || req.Items[0].UnitAmount != 1250 || req.Items[0].Quantity != 2 || req.Items[1].UnitAmount != 725 {
		t.Fatalf("unexpected line items: %+v", req.Items)
	}
	if req.SuccessURL != "https://shop.example/checkout?success=true" {
		t.Fatalf("unexpected success url %q", req.SuccessURL)
	}
	if req.CancelURL != "https://shop.example/checkout?canceled=true" {
		t.Fatalf("unexpected cancel url %q", req.CancelURL)
	}
	if req.Metadata[MetadataKind] != KindCart || req.Metadata[MetadataUserEmail] != "a@x.io" {
		t.Fatalf("unexpected metadata %+v", req.Metadata)
	}
	if req.IdempotencyKey == "" {
		t.Fatalf("expected idempotency key")
	}
}

func TestCartSessionRejectsEmptyCart(t *testing.T) {
	provider := &fakeProvider{}
	gw := newTestGateway(provider)

	_, err := gw.CartSession(context.Background(), "a@x.io", nil)
	if apperr.KindOf(err) != apperr.KindEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if apperr.Message(err) != "Cart is empty" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
	if provider.calls != 0 {
		t.Fatalf("provider must not be called for an empty cart")
	}
}

func TestCartSessionRejectsBadQuantity(t *testing.T) {
	gw := newTestGateway(&fakeProvider{})

	_, err := gw.CartSession(context.Background(), "", []CartItem{
		{ProductName: "Serum", Price: decimal.NewFromInt(5), Quantity: 0},
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCartSessionRejectsOversizedAmounts(t *testing.T) {
	provider := &fakeProvider{}
	gw := newTestGateway(provider)

	cases := []CartItem{
		{ProductName: "Serum", Price: decimal.RequireFromString("100000000000000000"), Quantity: 1},
		{ProductName: "Serum", Price: decimal.RequireFromString("1000000"), Quantity: 1},
		{ProductName: "Serum", Price: decimal.RequireFromString("500000"), Quantity: 3},
	}
	for _, item := range cases {
		_, err := gw.CartSession(context.Background(), "", []CartItem{item})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("price %s x %d: expected validation error, got %v", item.Price, item.Quantity, err)
		}
	}
	if provider.calls != 0 {
		t.Fatalf("provider must not see oversized amounts, got %d calls", provider.calls)
	}

	_, err := gw.CartSession(context.Background(), "", []CartItem{
		{ProductName: "Serum", Price: decimal.RequireFromString("999999.99"), Quantity: 1},
	})
	if err != nil {
		t.Fatalf("largest accepted amount: %v", err)
	}
	if provider.lastReq.Items[0].UnitAmount != MaxAmount {
		t.Fatalf("expected unit amount %d, got %d", MaxAmount, provider.lastReq.Items[0].UnitAmount)
	}
}

func TestProviderFailureIsGatewayError(t *testing.T) {
	cause := errors.New("card_declined")
	gw := newTestGateway(&fakeProvider{err: cause})

	_, err := gw.CartSession(context.Background(), "", []CartItem{
		{ProductName: "Serum", Price: decimal.NewFromInt(5), Quantity: 1},
	})
	if apperr.KindOf(err) != apperr.KindPaymentGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped")
	}
}

func TestProviderTimeout(t *testing.T) {
	gw := NewGateway(&fakeProvider{block: true}, config.PaymentsConfig{
		Currency: "usd",
		Timeout:  20 * time.Millisecond,
	}, nil)

	_, err := gw.CartSession(context.Background(), "", []CartItem{
		{ProductName: "Serum", Price: decimal.NewFromInt(5), Quantity: 1},
	})
	if apperr.KindOf(err) != apperr.KindPaymentGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if apperr.Message(err) != "payment provider timed out" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
}

func TestConsultationSessionRequiresFee(t *testing.T) {
	provider := &fakeProvider{}
	gw := newTestGateway(provider)

	zero := decimal.Zero
	for _, fee := range []*decimal.Decimal{nil, &zero} {
		_, err := gw.ConsultationSession(context.Background(), models.ConsultationRequest{ID: 9, Fee: fee})
		if apperr.KindOf(err) != apperr.KindFeeNotSet {
			t.Fatalf("expected fee not set, got %v", err)
		}
	}
	if provider.calls != 0 {
		t.Fatalf("provider must not be called without a fee")
	}
}

func TestConsultationSession(t *testing.T) {
	provider := &fakeProvider{session: CheckoutSession{ID: "cs_c"}}
	gw := newTestGateway(provider)

	fee := decimal.RequireFromString("49.90")
	_, err := gw.ConsultationSession(context.Background(), models.ConsultationRequest{
		ID: 9, Email: "b@x.io", AssignedConsultant: "Dr. Lee", Fee: &fee,
	})
	if err != nil {
		t.Fatalf("consultation session: %v", err)
	}

	req := provider.lastReq
	if len(req.Items) != 1 || req.Items[0].UnitAmount != 4990 || req.Items[0].Quantity != 1 {
		t.Fatalf("unexpected line items: %+v", req.Items)
	}
	if req.Items[0].Name != "Consultation with Dr. Lee" {
		t.Fatalf("unexpected line name %q", req.Items[0].Name)
	}
	if req.CustomerEmail != "b@x.io" {
		t.Fatalf("unexpected customer email %q", req.CustomerEmail)
	}
	if req.SuccessURL != "https://shop.example/payment-success?consultation_id=9" {
		t.Fatalf("unexpected success url %q", req.SuccessURL)
	}
	if req.CancelURL != "https://shop.example/welcome" {
		t.Fatalf("unexpected cancel url %q", req.CancelURL)
	}
	if req.Metadata[MetadataKind] != KindConsultation || req.Metadata[MetadataConsultationID] != "9" {
		t.Fatalf("unexpected metadata %+v", req.Metadata)
	}
}

func TestUnconfiguredProvider(t *testing.T) {
	gw := newTestGateway(UnconfiguredProvider())

	_, err := gw.CartSession(context.Background(), "", []CartItem{
		{ProductName: "Serum", Price: decimal.NewFromInt(5), Quantity: 1},
	})
	if !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected not configured error, got %v", err)
	}
}
