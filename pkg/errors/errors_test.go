package pkgerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", NewValidationError("bad input", nil), http.StatusBadRequest},
		{"json", NewJSONParsingError(errors.New("eof")), http.StatusBadRequest},
		{"not found", NewNotFoundError("payment not found"), http.StatusNotFound},
		{"signature", NewSignatureError("invalid signature"), http.StatusUnauthorized},
		{"provider", NewProviderError("initialize failed", errors.New("timeout")), http.StatusBadGateway},
		{"persistence", NewPersistenceError(errors.New("conn refused")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, HTTPStatus(tc.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("reconcile: %w", NewSignatureError("invalid signature"))

	assert.True(t, IsSignatureError(err))
	assert.False(t, IsNotFoundError(err))
	assert.Equal(t, CodeSignature, GetErrorCode(err))
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := NewPersistenceError(errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	assert.Equal(t, "storage unavailable", PublicMessage(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "internal server error", PublicMessage(errors.New("secret detail")))
}

func TestDuplicateKeyIsPersistence(t *testing.T) {
	err := NewDuplicateKeyError(errors.New("23505"))

	assert.True(t, IsDuplicateKeyError(err))
	assert.True(t, IsPersistenceError(err))
}

func TestConstructorsKeepDistinctCodes(t *testing.T) {
	assert.Equal(t, CodeNonExistingKey, GetErrorCode(NewNotFoundError("Payment not found")))
	assert.Equal(t, CodeJSONParsing, GetErrorCode(NewJSONParsingError(errors.New("eof"))))
	assert.Equal(t, CodeDuplicateKey, GetErrorCode(NewDuplicateKeyError(errors.New("23505"))))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("boom")))
}
