package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/safar/aurora-commerce/internal/apperr"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		}
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// IsNoRows reports whether err is the driver's empty-result sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports a 23505 on the given constraint, or on any
// constraint when name is empty.
func IsUniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return name == "" || pqErr.Constraint == name
}

var (
	ErrProductNotFound      = apperr.NotFound("Product not found.")
	ErrProductRequired      = apperr.Validation("Product is required.")
	ErrUnknownProduct       = apperr.Validation("Product does not exist.")
	ErrUserEmailRequired    = apperr.Validation("User email is required.")
	ErrInvalidQuantity      = apperr.Validation("Quantity must be a positive integer.")
	ErrCartLineNotFound     = apperr.NotFound("Cart item not found.")
	ErrCartLineConsumed     = apperr.Conflict("Cannot modify an item that has already been ordered.")
	ErrCartLineDeleteLocked = apperr.Conflict("Cannot delete an item that has already been ordered.")
	ErrEmptyCart            = apperr.EmptyCart("No items in cart")
	ErrOrderNotFound        = apperr.NotFound("Order not found.")
	ErrOrderNotPending      = apperr.Conflict("Cannot delete an order that is already in progress.")
	ErrShippingLocked       = apperr.Conflict("Shipping details can only be changed while the order is pending.")
	ErrSessionRequired      = apperr.Validation("checkout_session_id is required.")
	ErrSessionUsed          = apperr.Conflict("This checkout session already has an order.")
	ErrConsultationNotFound = apperr.NotFound("Consultation not found")
	ErrConsultationLocked   = apperr.Conflict("Cannot delete a consultation that is confirmed or paid.")
	ErrAnalysisNotFound     = apperr.NotFound("Analysis not found.")
	ErrOptimisticLockFailed = apperr.Conflict("The record was modified concurrently, retry the request.")
)
