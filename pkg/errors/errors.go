package pkgerrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNonExistingKey = -1001
	CodeJSONParsing    = -1002
	CodeDuplicateKey   = -1003
	CodeValidation     = -1004
	CodeProvider       = -1005
	CodeSignature      = -1006
	CodePersistence    = -1007
	CodeUnknown        = -9999
)

// Kind is the machine-readable error category returned to API callers.
type Kind string

const (
	KindValidation  Kind = "validation_error"
	KindNotFound    Kind = "not_found"
	KindProvider    Kind = "provider_error"
	KindSignature   Kind = "signature_error"
	KindPersistence Kind = "persistence_error"
	KindInternal    Kind = "internal_error"
)

type AppError struct {
	Code    int
	Kind    Kind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewDuplicateKeyError(err error) *AppError {
	return &AppError{
		Code:    CodeDuplicateKey,
		Kind:    KindPersistence,
		Message: "duplicate key violation",
		Err:     err,
	}
}

func NewJSONParsingError(err error) *AppError {
	return &AppError{
		Code:    CodeJSONParsing,
		Kind:    KindValidation,
		Message: "failed to parse JSON",
		Err:     err,
	}
}

// NewNotFoundError reports a missing entity with a message safe to show callers.
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    CodeNonExistingKey,
		Kind:    KindNotFound,
		Message: message,
	}
}

// NewValidationError carries every violated field, not only the first one.
func NewValidationError(message string, fields map[string][]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Kind:    KindValidation,
		Message: message,
		Fields:  fields,
	}
}

func NewProviderError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeProvider,
		Kind:    KindProvider,
		Message: message,
		Err:     err,
	}
}

func NewSignatureError(message string) *AppError {
	return &AppError{
		Code:    CodeSignature,
		Kind:    KindSignature,
		Message: message,
	}
}

func NewPersistenceError(err error) *AppError {
	return &AppError{
		Code:    CodePersistence,
		Kind:    KindPersistence,
		Message: "storage unavailable",
		Err:     err,
	}
}

func IsDuplicateKeyError(err error) bool {
	return GetErrorCode(err) == CodeDuplicateKey
}

func IsValidationError(err error) bool {
	return GetKind(err) == KindValidation
}

func IsNotFoundError(err error) bool {
	return GetKind(err) == KindNotFound
}

func IsProviderError(err error) bool {
	return GetKind(err) == KindProvider
}

func IsSignatureError(err error) bool {
	return GetKind(err) == KindSignature
}

func IsPersistenceError(err error) bool {
	return GetKind(err) == KindPersistence
}

func GetErrorCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the API layer responds with.
func HTTPStatus(err error) int {
	switch GetKind(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSignature:
		return http.StatusUnauthorized
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing message without wrapped causes.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
