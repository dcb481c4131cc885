package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	paymentapp "github.com/k-code-yt/paystack-payments/internal/application/payment"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	"github.com/k-code-yt/paystack-payments/internal/infrastructure/paystack"
	"github.com/k-code-yt/paystack-payments/internal/validation"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type PaymentService interface {
	Create(ctx context.Context, in validation.CreatePaymentInput) (*payment.Payment, error)
	GetByRawID(ctx context.Context, rawID string) (*payment.Payment, error)
	Reconcile(ctx context.Context, body []byte, signature string) (*paymentapp.ReconcileResult, error)
	Ping(ctx context.Context) error
}

type Handlers struct {
	service PaymentService
	logger  logrus.FieldLogger
}

func NewHandlers(service PaymentService, logger logrus.FieldLogger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// createPaymentRequest accepts amount as either a JSON string or number.
type createPaymentRequest struct {
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	PhoneNumber   string          `json:"phone_number"`
	State         string          `json:"state"`
	Country       string          `json:"country"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
}

func (req createPaymentRequest) toInput() validation.CreatePaymentInput {
	return validation.CreatePaymentInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PhoneNumber:   req.PhoneNumber,
		State:         req.State,
		Country:       req.Country,
		Amount:        rawAmount(req.Amount),
		Currency:      req.Currency,
	}
}

func rawAmount(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (h *Handlers) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, h.logger, pkgerrors.NewJSONParsingError(err))
		return
	}

	p, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, paymentEnvelope{
		Status:  statusSuccess,
		Payment: toPaymentResponse(p),
		Message: "Payment created successfully",
	})
}

func (h *Handlers) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByRawID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, paymentEnvelope{
		Status:  statusSuccess,
		Payment: toPaymentResponse(p),
		Message: "Payment details retrieved successfully",
	})
}

// paystackWebhook needs the exact raw body: the signature covers its bytes.
func (h *Handlers) paystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, h.logger, pkgerrors.NewValidationError("request body too large", nil))
			return
		}
		respondError(w, h.logger, pkgerrors.NewJSONParsingError(err))
		return
	}

	if _, err := h.service.Reconcile(r.Context(), body, r.Header.Get(paystack.SignatureHeader)); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, messageEnvelope{
		Status:  statusSuccess,
		Message: "Webhook processed successfully",
	})
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.WithError(err).Error("HEALTH:PROBE_FAILED")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
