package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle shared by orders and consultation requests.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
)

var statusOrder = map[Status]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusCompleted: 2,
}

// ParseStatus normalises s and rejects anything outside the enumeration.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusOrder[status]; !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransition allows staying put or moving exactly one step forward.
func CanTransition(from, to Status) bool {
	fromIdx, ok := statusOrder[from]
	if !ok {
		return false
	}
	toIdx, ok := statusOrder[to]
	if !ok {
		return false
	}
	return toIdx == fromIdx || toIdx == fromIdx+1
}

// OrderDeletable reports whether an order in status s may be deleted.
func OrderDeletable(s Status) bool {
	return s == StatusPending
}

// ConsultationDeletable only lets untouched requests go: still pending and
// not yet paid for.
func ConsultationDeletable(c ConsultationRequest) bool {
	return c.Status == StatusPending && !c.PaymentConfirmed
}

type PaymentStatus string

const (
	PaymentUnpaid          PaymentStatus = "unpaid"
	PaymentAwaitingPayment PaymentStatus = "awaiting_payment"
	PaymentPaid            PaymentStatus = "paid"
)

var paymentOrder = map[PaymentStatus]int{
	PaymentUnpaid:          0,
	PaymentAwaitingPayment: 1,
	PaymentPaid:            2,
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := paymentOrder[ps]; !ok {
		return "", fmt.Errorf("unknown payment status %q", s)
	}
	return ps, nil
}

// CanTransitionPayment only moves payment forward. A paid order never goes
// back to unpaid; an admin may mark an unpaid order paid directly.
func CanTransitionPayment(from, to PaymentStatus) bool {
	fromIdx, ok := paymentOrder[from]
	if !ok {
		return false
	}
	toIdx, ok := paymentOrder[to]
	if !ok {
		return false
	}
	return toIdx >= fromIdx
}

type MeetingType string

const (
	MeetingOnline   MeetingType = "online"
	MeetingPhysical MeetingType = "physical"
)

func ParseMeetingType(s string) (MeetingType, error) {
	switch mt := MeetingType(strings.ToLower(strings.TrimSpace(s))); mt {
	case MeetingOnline, MeetingPhysical:
		return mt, nil
	}
	return "", fmt.Errorf("unknown meeting type %q", s)
}
