package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type paymentResponse struct {
	ID                       string  `json:"id"`
	CustomerName             string  `json:"customer_name"`
	CustomerEmail            string  `json:"customer_email"`
	PhoneNumber              string  `json:"phone_number"`
	State                    string  `json:"state"`
	Country                  string  `json:"country"`
	Amount                   string  `json:"amount"`
	Currency                 string  `json:"currency"`
	Status                   string  `json:"status"`
	PaystackReference        *string `json:"paystack_reference"`
	PaystackTransactionID    *string `json:"paystack_transaction_id"`
	PaystackAuthorizationURL *string `json:"paystack_authorization_url"`
	CreatedAt                string  `json:"created_at"`
	UpdatedAt                string  `json:"updated_at"`
}

type paymentEnvelope struct {
	Status  string          `json:"status"`
	Payment paymentResponse `json:"payment"`
	Message string          `json:"message"`
}

type messageEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Status  string              `json:"status"`
	Kind    pkgerrors.Kind      `json:"kind"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func toPaymentResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:                       p.ID.String(),
		CustomerName:             p.CustomerName,
		CustomerEmail:            p.CustomerEmail,
		PhoneNumber:              p.PhoneNumber,
		State:                    p.State,
		Country:                  p.Country,
		Amount:                   p.Amount.StringFixed(2),
		Currency:                 p.Currency,
		Status:                   string(p.Status),
		PaystackReference:        nullable(p.ProviderReference),
		PaystackTransactionID:    nullable(p.ProviderTransactionID),
		PaystackAuthorizationURL: nullable(p.AuthorizationURL),
		CreatedAt:                p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:                p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError writes the public form of err. Wrapped causes only go to the log.
func respondError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	status := pkgerrors.HTTPStatus(err)
	body := errorEnvelope{
		Status:  statusError,
		Kind:    pkgerrors.GetKind(err),
		Message: pkgerrors.PublicMessage(err),
	}

	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) && appErr.Kind == pkgerrors.KindValidation {
		body.Errors = appErr.Fields
	}

	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("status", status).Error("HTTP:REQUEST_FAILED")
	}
	respondJSON(w, status, body)
}
