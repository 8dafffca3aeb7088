// Package apperr defines the error taxonomy shared by the store, the payment
// gateway and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindEmptyCart
	KindFeeNotSet
	KindPaymentGateway
	KindClassifierUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindEmptyCart:
		return "empty_cart"
	case KindFeeNotSet:
		return "fee_not_set"
	case KindPaymentGateway:
		return "payment_gateway"
	case KindClassifierUnavailable:
		return "classifier_unavailable"
	default:
		return "internal"
	}
}

// Error is a classified failure whose Message is safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func EmptyCart(msg string) *Error { return &Error{Kind: KindEmptyCart, Message: msg} }

func FeeNotSet(msg string) *Error { return &Error{Kind: KindFeeNotSet, Message: msg} }

// PaymentGateway wraps a provider failure. The cause is kept for logging only.
func PaymentGateway(msg string, cause error) *Error {
	return &Error{Kind: KindPaymentGateway, Message: msg, Err: cause}
}

func ClassifierUnavailable(msg string, cause error) *Error {
	return &Error{Kind: KindClassifierUnavailable, Message: msg, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus maps a kind onto the response status. Conflicts answer 400 so
// existing clients keep seeing the status they already handle.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict, KindEmptyCart, KindFeeNotSet:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindClassifierUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
