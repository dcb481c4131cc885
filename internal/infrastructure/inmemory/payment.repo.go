package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
)

// PaymentRepository keeps payments and their outbox events behind one mutex,
// so a status change and its event are always visible together.
type PaymentRepository struct {
	mu         sync.RWMutex
	payments   map[uuid.UUID]*payment.Payment
	references map[string]uuid.UUID
	events     map[string]*outbox.Event
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments:   make(map[uuid.UUID]*payment.Payment),
		references: make(map[string]uuid.UUID),
		events:     make(map[string]*outbox.Event),
	}
}

func (r *PaymentRepository) Insert(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; exists {
		return pkgerrors.NewDuplicateKeyError(fmt.Errorf("payment %s already exists", p.ID))
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *PaymentRepository) Get(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("Payment not found")
	}
	cp := *p
	return &cp, nil
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	r.mu.RLock()
	id, ok := r.references[reference]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("Payment not found")
	}
	return r.Get(ctx, id)
}

func (r *PaymentRepository) AttachAuthorization(_ context.Context, id uuid.UUID, reference, authorizationURL string) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("Payment not found")
	}
	if p.Status != payment.StatusPending || p.ProviderReference != "" {
		return nil, pkgerrors.NewPersistenceError(
			fmt.Errorf("payment %s is %s with reference %q, cannot attach %q", id, p.Status, p.ProviderReference, reference))
	}
	if _, taken := r.references[reference]; taken {
		return nil, pkgerrors.NewDuplicateKeyError(fmt.Errorf("reference %s already attached", reference))
	}

	p.ProviderReference = reference
	p.AuthorizationURL = authorizationURL
	p.UpdatedAt = time.Now().UTC()
	r.references[reference] = id

	if err := r.recordEvent(outbox.EventType_PaymentCreated, p); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (r *PaymentRepository) ApplyByReference(_ context.Context, reference string, to payment.Status, transactionID string) (*payment.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.references[reference]
	if !ok {
		return nil, false, pkgerrors.NewNotFoundError("Payment not found")
	}
	p := r.payments[id]
	if !p.Status.CanTransitionTo(to) {
		cp := *p
		return &cp, false, nil
	}

	p.Status = to
	if transactionID != "" {
		p.ProviderTransactionID = transactionID
	}
	p.UpdatedAt = time.Now().UTC()

	eventType := outbox.EventType_PaymentFailed
	if to == payment.StatusCompleted {
		eventType = outbox.EventType_PaymentCompleted
	}
	if err := r.recordEvent(eventType, p); err != nil {
		return nil, false, err
	}
	cp := *p
	return &cp, true, nil
}

func (r *PaymentRepository) MarkFailed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return pkgerrors.NewNotFoundError("Payment not found")
	}
	if !p.Status.CanTransitionTo(payment.StatusFailed) {
		return nil
	}
	p.Status = payment.StatusFailed
	p.UpdatedAt = time.Now().UTC()
	return r.recordEvent(outbox.EventType_PaymentFailed, p)
}

func (r *PaymentRepository) Ping(context.Context) error {
	return nil
}

func (r *PaymentRepository) Pending(_ context.Context, limit int) ([]*outbox.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*outbox.Event, 0, len(r.events))
	for _, e := range r.events {
		if e.Status == outbox.EventStatus_Pending {
			cp := *e
			events = append(events, &cp)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *PaymentRepository) MarkProduced(_ context.Context, eventIds []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	marked := 0
	for _, id := range eventIds {
		if e, ok := r.events[id]; ok && e.Status != outbox.EventStatus_Produced {
			e.Status = outbox.EventStatus_Produced
			marked++
		}
	}
	return marked, nil
}

// recordEvent must be called with the write lock held.
func (r *PaymentRepository) recordEvent(eventType outbox.EventType, p *payment.Payment) error {
	e, err := outbox.NewEvent(eventType, p.ID.String(), outbox.EventParentType_Payment, p.Metadata())
	if err != nil {
		return err
	}
	r.events[e.EventId] = e
	return nil
}
