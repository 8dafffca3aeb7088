package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Confirmed ")
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("shipped")
	require.Error(t, err)

	_, err = ParseStatus("")
	require.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPending, true},
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusPending, StatusCompleted, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusConfirmed, StatusPending, false},
		{StatusPending, Status("cancelled"), false},
		{Status("draft"), StatusPending, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentUnpaid, PaymentUnpaid, true},
		{PaymentUnpaid, PaymentAwaitingPayment, true},
		{PaymentUnpaid, PaymentPaid, true},
		{PaymentAwaitingPayment, PaymentPaid, true},
		{PaymentPaid, PaymentPaid, true},
		{PaymentPaid, PaymentUnpaid, false},
		{PaymentPaid, PaymentAwaitingPayment, false},
		{PaymentAwaitingPayment, PaymentUnpaid, false},
		{PaymentUnpaid, PaymentStatus("refunded"), false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CanTransitionPayment(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderDeletable(t *testing.T) {
	require.True(t, OrderDeletable(StatusPending))
	require.False(t, OrderDeletable(StatusConfirmed))
	require.False(t, OrderDeletable(StatusCompleted))
}

func TestConsultationDeletable(t *testing.T) {
	require.True(t, ConsultationDeletable(ConsultationRequest{Status: StatusPending}))
	require.False(t, ConsultationDeletable(ConsultationRequest{Status: StatusPending, PaymentConfirmed: true}))
	require.False(t, ConsultationDeletable(ConsultationRequest{Status: StatusConfirmed}))
}

func TestConsultationHasFee(t *testing.T) {
	zero := decimal.Zero
	fee := decimal.RequireFromString("45.00")

	require.False(t, ConsultationRequest{}.HasFee())
	require.False(t, ConsultationRequest{Fee: &zero}.HasFee())
	require.True(t, ConsultationRequest{Fee: &fee}.HasFee())
}

func TestCartLineSubtotal(t *testing.T) {
	line := CartLine{ProductPrice: decimal.RequireFromString("19.99"), Quantity: 3}
	require.True(t, line.Subtotal().Equal(decimal.RequireFromString("59.97")))
}

func TestParsePaymentStatusAndMeetingType(t *testing.T) {
	ps, err := ParsePaymentStatus("PAID")
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, ps)
	_, err = ParsePaymentStatus("refunded")
	require.Error(t, err)

	mt, err := ParseMeetingType("online")
	require.NoError(t, err)
	require.Equal(t, MeetingOnline, mt)
	_, err = ParseMeetingType("phone")
	require.Error(t, err)
}
