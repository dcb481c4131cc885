package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	pkgdb "github.com/k-code-yt/paystack-payments/pkg/db"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
)

const (
	paymentsTable = "payments"

	paymentColumns = `id, customer_name, customer_email, phone_number, state, country, amount, currency, status,
		COALESCE(provider_reference, '') AS provider_reference,
		COALESCE(provider_transaction_id, '') AS provider_transaction_id,
		COALESCE(authorization_url, '') AS authorization_url,
		created_at, updated_at`
)

var errPaymentNotFound = pkgerrors.NewNotFoundError("Payment not found")

type PaymentRepo struct {
	repo      *sqlx.DB
	events    *EventRepo
	tableName string
}

func NewPaymentRepo(db *sqlx.DB, events *EventRepo) *PaymentRepo {
	return &PaymentRepo{
		repo:      db,
		events:    events,
		tableName: paymentsTable,
	}
}

func (r *PaymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	query := r.repo.Rebind(fmt.Sprintf(`INSERT INTO %s
		(id, customer_name, customer_email, phone_number, state, country, amount, currency, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName))

	_, err := r.repo.ExecContext(ctx, query,
		p.ID, p.CustomerName, p.CustomerEmail, p.PhoneNumber, p.State, p.Country,
		p.Amount, p.Currency, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("failed to insert payment %s: %w", p.ID, err))
	}
	return nil
}

func (r *PaymentRepo) Get(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, err := r.getBy(ctx, r.repo, "id", id)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (r *PaymentRepo) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	p, err := r.getBy(ctx, r.repo, "provider_reference", reference)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (r *PaymentRepo) AttachAuthorization(ctx context.Context, id uuid.UUID, reference, authorizationURL string) (*payment.Payment, error) {
	p, err := pkgdb.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (*payment.Payment, error) {
		now := time.Now().UTC()
		query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET provider_reference = ?, authorization_url = ?, updated_at = ?
			WHERE id = ? AND status = ? AND provider_reference IS NULL`, r.tableName))

		rows, err := execRows(ctx, tx, query, reference, authorizationURL, now, id, payment.StatusPending)
		if err != nil {
			return nil, err
		}

		p, err := r.getBy(ctx, tx, "id", id)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, fmt.Errorf("payment %s is %s with reference %q, cannot attach %q", id, p.Status, p.ProviderReference, reference)
		}

		if err := r.recordEvent(ctx, tx, outbox.EventType_PaymentCreated, p); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

type applyResult struct {
	payment *payment.Payment
	applied bool
}

func (r *PaymentRepo) ApplyByReference(ctx context.Context, reference string, to payment.Status, transactionID string) (*payment.Payment, bool, error) {
	res, err := pkgdb.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (applyResult, error) {
		current, err := r.getBy(ctx, tx, "provider_reference", reference)
		if err != nil {
			return applyResult{}, err
		}
		if !current.Status.CanTransitionTo(to) {
			return applyResult{payment: current}, nil
		}

		// status = pending in the WHERE clause is the compare-and-swap; a
		// concurrent writer that got there first leaves zero rows affected.
		query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET status = ?, provider_transaction_id = COALESCE(CAST(? AS TEXT), provider_transaction_id), updated_at = ?
			WHERE provider_reference = ? AND status = ?`, r.tableName))

		rows, err := execRows(ctx, tx, query, to, nullIfEmpty(transactionID), time.Now().UTC(), reference, payment.StatusPending)
		if err != nil {
			return applyResult{}, err
		}

		latest, err := r.getBy(ctx, tx, "provider_reference", reference)
		if err != nil {
			return applyResult{}, err
		}
		if rows == 0 {
			return applyResult{payment: latest}, nil
		}

		if err := r.recordEvent(ctx, tx, eventTypeFor(to), latest); err != nil {
			return applyResult{}, err
		}
		return applyResult{payment: latest, applied: true}, nil
	})
	if err != nil {
		return nil, false, classify(err)
	}
	return res.payment, res.applied, nil
}

func (r *PaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := pkgdb.TxClosure(ctx, r.repo, func(ctx context.Context, tx *sqlx.Tx) (int64, error) {
		query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, r.tableName))

		rows, err := execRows(ctx, tx, query, payment.StatusFailed, time.Now().UTC(), id, payment.StatusPending)
		if err != nil || rows == 0 {
			return rows, err
		}

		p, err := r.getBy(ctx, tx, "id", id)
		if err != nil {
			return rows, err
		}
		return rows, r.recordEvent(ctx, tx, outbox.EventType_PaymentFailed, p)
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (r *PaymentRepo) Ping(ctx context.Context) error {
	return r.repo.PingContext(ctx)
}

func (r *PaymentRepo) getBy(ctx context.Context, q sqlx.QueryerContext, column string, value any) (*payment.Payment, error) {
	p := &payment.Payment{}
	query := sqlx.Rebind(sqlx.BindType(r.repo.DriverName()),
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", paymentColumns, r.tableName, column))

	if err := sqlx.GetContext(ctx, q, p, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment by %s: %w", column, err)
	}
	return p, nil
}

func (r *PaymentRepo) recordEvent(ctx context.Context, tx *sqlx.Tx, eventType outbox.EventType, p *payment.Payment) error {
	e, err := outbox.NewEvent(eventType, p.ID.String(), outbox.EventParentType_Payment, p.Metadata())
	if err != nil {
		return err
	}
	_, err = r.events.Insert(ctx, tx, e)
	return err
}

func execRows(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func eventTypeFor(status payment.Status) outbox.EventType {
	if status == payment.StatusCompleted {
		return outbox.EventType_PaymentCompleted
	}
	return outbox.EventType_PaymentFailed
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// classify keeps AppErrors as they are and turns raw storage errors into
// persistence errors so driver detail never reaches callers.
func classify(err error) error {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if pkgdb.IsDuplicateKeyErr(err) {
		return pkgerrors.NewDuplicateKeyError(err)
	}
	return pkgerrors.NewPersistenceError(err)
}
