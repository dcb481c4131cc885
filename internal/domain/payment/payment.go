package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID                    uuid.UUID       `db:"id"`
	CustomerName          string          `db:"customer_name"`
	CustomerEmail         string          `db:"customer_email"`
	PhoneNumber           string          `db:"phone_number"`
	State                 string          `db:"state"`
	Country               string          `db:"country"`
	Amount                decimal.Decimal `db:"amount"`
	Currency              string          `db:"currency"`
	Status                Status          `db:"status"`
	ProviderReference     string          `db:"provider_reference"`
	ProviderTransactionID string          `db:"provider_transaction_id"`
	AuthorizationURL      string          `db:"authorization_url"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
}

// NewPaymentParams is the validated, normalized creation input.
type NewPaymentParams struct {
	CustomerName  string
	CustomerEmail string
	PhoneNumber   string
	State         string
	Country       string
	Amount        decimal.Decimal
	Currency      string
}

func NewPayment(params NewPaymentParams) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:            uuid.New(),
		CustomerName:  params.CustomerName,
		CustomerEmail: params.CustomerEmail,
		PhoneNumber:   params.PhoneNumber,
		State:         params.State,
		Country:       params.Country,
		Amount:        params.Amount,
		Currency:      params.Currency,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Subunits returns the amount in the currency's minor unit.
func (p *Payment) Subunits() int64 {
	return p.Amount.Shift(2).Round(0).IntPart()
}

// Metadata is the snapshot attached to outbox events.
func (p *Payment) Metadata() map[string]any {
	return map[string]any{
		"id":                 p.ID.String(),
		"status":             string(p.Status),
		"amount":             p.Amount.StringFixed(2),
		"currency":           p.Currency,
		"customer_email":     p.CustomerEmail,
		"provider_reference": p.ProviderReference,
		"transaction_id":     p.ProviderTransactionID,
	}
}
