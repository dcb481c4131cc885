package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository owns persisted Payment state. Every state change also records
// an outbox event in the same unit of work.
type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByReference(ctx context.Context, reference string) (*Payment, error)

	// AttachAuthorization sets the provider reference and authorization URL on a
	// pending payment that has none yet.
	AttachAuthorization(ctx context.Context, id uuid.UUID, reference, authorizationURL string) (*Payment, error)

	// ApplyByReference moves a pending payment to a terminal status as one atomic
	// compare-and-swap. applied is false when the payment was already terminal.
	ApplyByReference(ctx context.Context, reference string, to Status, transactionID string) (p *Payment, applied bool, err error)

	// MarkFailed fails a pending payment whose initiation never completed.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
}
