package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := Conflict("Cannot delete an order that is already in progress.")
	wrapped := fmt.Errorf("delete order: %w", base)

	require.Equal(t, KindConflict, KindOf(wrapped))
	require.True(t, errors.Is(wrapped, base))
	require.Equal(t, "Cannot delete an order that is already in progress.", Message(wrapped))
	require.Equal(t, http.StatusBadRequest, HTTPStatus(KindOf(wrapped)))
}

func TestUnclassifiedErrorsAreOpaque(t *testing.T) {
	err := errors.New("pq: relation \"orders\" does not exist")

	require.Equal(t, KindInternal, KindOf(err))
	require.Equal(t, "internal server error", Message(err))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(KindOf(err)))
}

func TestPaymentGatewayKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("card_declined")
	err := PaymentGateway("payment provider unavailable", cause)

	require.Equal(t, "payment provider unavailable", Message(err))
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(err.Kind))
}

func TestHTTPStatusTable(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:            http.StatusBadRequest,
		KindNotFound:              http.StatusNotFound,
		KindEmptyCart:             http.StatusBadRequest,
		KindFeeNotSet:             http.StatusBadRequest,
		KindClassifierUnavailable: http.StatusServiceUnavailable,
		KindInternal:              http.StatusInternalServerError,
	}
	for kind, want := range cases {
		require.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}
