package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatus_Pending  EventStatus = "pending"
	EventStatus_Produced EventStatus = "produced"
)

type EventParentType string

const (
	EventParentType_Payment EventParentType = "payment"
)

type EventType string

const (
	EventType_PaymentCreated   EventType = "payment_created"
	EventType_PaymentCompleted EventType = "payment_completed"
	EventType_PaymentFailed    EventType = "payment_failed"
)

type Event struct {
	EventId   string      `db:"event_id" json:"event_id"`
	EventType EventType   `db:"event_type" json:"event_type"`
	Timestamp time.Time   `db:"timestamp" json:"timestamp"`
	Status    EventStatus `db:"status" json:"status"`

	ParentId   string          `db:"parent_id" json:"parent_id"`
	ParentType EventParentType `db:"parent_type" json:"parent_type"`
	// ParentMetadata holds a JSON document.
	ParentMetadata string `db:"parent_metadata" json:"parent_metadata"`
}

func NewEvent(eventType EventType, parentId string, parentType EventParentType, metadata any) (*Event, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	return &Event{
		EventId:        uuid.NewString(),
		EventType:      eventType,
		Timestamp:      time.Now().UTC(),
		Status:         EventStatus_Pending,
		ParentId:       parentId,
		ParentType:     parentType,
		ParentMetadata: string(raw),
	}, nil
}

// Store is the relay's view of the outbox table.
type Store interface {
	Pending(ctx context.Context, limit int) ([]*Event, error)
	MarkProduced(ctx context.Context, eventIds []string) (int, error)
}
