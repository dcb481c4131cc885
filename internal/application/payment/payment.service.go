package payment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	"github.com/k-code-yt/paystack-payments/internal/metrics"
	"github.com/k-code-yt/paystack-payments/internal/validation"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

const referencePrefix = "PAY-"

type Config struct {
	WebhookSecret       string
	CallbackURL         string
	SupportedCurrencies []string
}

type PaymentService struct {
	cfg       Config
	repo      payment.Repository
	provider  payment.Provider
	validator *validation.PaymentValidator
	logger    logrus.FieldLogger
}

func NewPaymentService(cfg Config, repo payment.Repository, provider payment.Provider, logger logrus.FieldLogger) *PaymentService {
	return &PaymentService{
		cfg:       cfg,
		repo:      repo,
		provider:  provider,
		validator: validation.NewPaymentValidator(cfg.SupportedCurrencies),
		logger:    logger.WithField("component", "payment-service"),
	}
}

// Create validates the input, stores a pending payment and initiates the charge.
// If initiation fails the payment is marked failed and a ProviderError returned.
func (s *PaymentService) Create(ctx context.Context, in validation.CreatePaymentInput) (*payment.Payment, error) {
	params, err := s.validator.CreatePayment(in)
	if err != nil {
		return nil, err
	}

	p := payment.NewPayment(params)
	if err := s.repo.Insert(ctx, p); err != nil {
		s.logger.WithError(err).WithField("paymentID", p.ID).Error("PAYMENT:INSERT_FAILED")
		return nil, err
	}

	reference := GenerateReference()
	res, err := s.provider.Initiate(ctx, payment.InitiateRequest{
		Reference:      reference,
		AmountSubunits: p.Subunits(),
		Currency:       p.Currency,
		Email:          p.CustomerEmail,
		CallbackURL:    s.cfg.CallbackURL,
		Metadata: map[string]string{
			"customer_name": p.CustomerName,
			"phone_number":  p.PhoneNumber,
			"state":         p.State,
			"country":       p.Country,
			"payment_id":    p.ID.String(),
		},
	})
	if err != nil {
		metrics.ProviderError()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"paymentID": p.ID,
			"reference": reference,
		}).Error("PAYMENT:INITIATE_FAILED")
		s.markFailed(ctx, p)

		if !pkgerrors.IsProviderError(err) {
			err = pkgerrors.NewProviderError("failed to initialize payment with provider", err)
		}
		return nil, err
	}

	updated, err := s.repo.AttachAuthorization(ctx, p.ID, res.Reference, res.AuthorizationURL)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"paymentID": p.ID,
			"reference": res.Reference,
		}).Error("PAYMENT:ATTACH_FAILED")
		s.markFailed(ctx, p)
		return nil, err
	}

	metrics.PaymentCreated(updated.Currency)
	s.logger.WithFields(logrus.Fields{
		"paymentID": updated.ID,
		"reference": updated.ProviderReference,
		"amount":    updated.Amount.StringFixed(2),
		"currency":  updated.Currency,
	}).Info("PAYMENT:CREATED")
	return updated, nil
}

func (s *PaymentService) Get(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return s.repo.Get(ctx, id)
}

// GetByRawID treats an unparseable id the same as an unknown one.
func (s *PaymentService) GetByRawID(ctx context.Context, rawID string) (*payment.Payment, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, pkgerrors.NewNotFoundError("Payment not found")
	}
	return s.Get(ctx, id)
}

type webhookEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		ID        any    `json:"id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

type ReconcileResult struct {
	Event     string
	Reference string
	Payment   *payment.Payment
	Applied   bool
	Outcome   string
}

// Reconcile verifies and applies a provider webhook. It changes state at most
// once per payment; replays and late conflicting events are acknowledged
// without a write.
func (s *PaymentService) Reconcile(ctx context.Context, body []byte, signature string) (*ReconcileResult, error) {
	if !s.provider.VerifySignature(body, signature, s.cfg.WebhookSecret) {
		metrics.WebhookEvent("", metrics.WebhookInvalidSignature)
		s.logger.WithField("bodySize", len(body)).Warn("WEBHOOK:SIGNATURE_INVALID")
		return nil, pkgerrors.NewSignatureError("Invalid signature")
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	reference := strings.TrimSpace(env.Data.Reference)
	if reference == "" {
		return nil, pkgerrors.NewValidationError("Invalid webhook payload",
			map[string][]string{"data.reference": {"This field is required."}})
	}

	log := s.logger.WithFields(logrus.Fields{
		"event":     env.Event,
		"reference": reference,
	})
	result := &ReconcileResult{Event: env.Event, Reference: reference}

	current, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if pkgerrors.IsNotFoundError(err) {
			metrics.WebhookEvent(env.Event, metrics.WebhookNotFound)
			log.Warn("WEBHOOK:UNKNOWN_REFERENCE")
		} else {
			metrics.WebhookEvent(env.Event, metrics.WebhookError)
			log.WithError(err).Error("WEBHOOK:LOOKUP_FAILED")
		}
		return nil, err
	}
	result.Payment = current

	if current.Status.IsTerminal() {
		result.Outcome = metrics.WebhookAlreadyTerminal
		metrics.WebhookEvent(env.Event, result.Outcome)
		log.WithField("status", current.Status).Info("WEBHOOK:ALREADY_TERMINAL")
		return result, nil
	}

	target, ok := payment.StatusForEvent(env.Event)
	if !ok {
		result.Outcome = metrics.WebhookIgnored
		metrics.WebhookEvent(env.Event, result.Outcome)
		log.Info("WEBHOOK:EVENT_IGNORED")
		return result, nil
	}

	transactionID, _ := cast.ToStringE(env.Data.ID)
	updated, applied, err := s.repo.ApplyByReference(ctx, reference, target, transactionID)
	if err != nil {
		metrics.WebhookEvent(env.Event, metrics.WebhookError)
		log.WithError(err).Error("WEBHOOK:APPLY_FAILED")
		return nil, err
	}

	result.Payment = updated
	result.Applied = applied
	result.Outcome = metrics.WebhookAlreadyTerminal
	if applied {
		result.Outcome = metrics.WebhookApplied
	}
	metrics.WebhookEvent(env.Event, result.Outcome)
	log.WithFields(logrus.Fields{
		"paymentID": updated.ID,
		"status":    updated.Status,
		"applied":   applied,
	}).Info("WEBHOOK:RECONCILED")
	return result, nil
}

func (s *PaymentService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// markFailed runs even when the request context is already cancelled.
func (s *PaymentService) markFailed(ctx context.Context, p *payment.Payment) {
	if err := s.repo.MarkFailed(context.WithoutCancel(ctx), p.ID); err != nil {
		s.logger.WithError(err).WithField("paymentID", p.ID).Error("PAYMENT:MARK_FAILED_FAILED")
	}
}

// GenerateReference returns a merchant reference such as PAY-1A2B3C4D.
func GenerateReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id[:8])
}
