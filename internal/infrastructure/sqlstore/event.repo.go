package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
)

const eventsTable = "events"

type EventRepo struct {
	repo      *sqlx.DB
	tableName string
}

func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{
		repo:      db,
		tableName: eventsTable,
	}
}

// Insert runs inside the caller's transaction so the event commits with the state change.
func (r *EventRepo) Insert(ctx context.Context, tx *sqlx.Tx, e *outbox.Event) (string, error) {
	query := fmt.Sprintf(`INSERT INTO %s (event_id, event_type, timestamp, status, parent_id, parent_type, parent_metadata)
		VALUES (:event_id, :event_type, :timestamp, :status, :parent_id, :parent_type, :parent_metadata)`, r.tableName)
	if _, err := tx.NamedExecContext(ctx, query, e); err != nil {
		return "", fmt.Errorf("failed to insert event %s: %w", e.EventType, err)
	}
	return e.EventId, nil
}

func (r *EventRepo) Pending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	events := []*outbox.Event{}
	query := r.repo.Rebind(fmt.Sprintf(`SELECT event_id, event_type, timestamp, status, parent_id, parent_type, parent_metadata
		FROM %s WHERE status = ? ORDER BY timestamp LIMIT ?`, r.tableName))

	if err := r.repo.SelectContext(ctx, &events, query, outbox.EventStatus_Pending, limit); err != nil {
		return nil, fmt.Errorf("failed to load pending events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) MarkProduced(ctx context.Context, eventIds []string) (int, error) {
	if len(eventIds) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf("UPDATE %s SET status = ? WHERE event_id IN (?)", r.tableName), outbox.EventStatus_Produced, eventIds)
	if err != nil {
		return 0, err
	}

	res, err := r.repo.ExecContext(ctx, r.repo.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark events produced: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
