package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists payments. The payments table carries a partial unique
// index on utr (WHERE utr <> '') so settled UTRs can never be reused.
type Repository interface {
	Insert(ctx context.Context, p Payment) (int64, error)
	Get(ctx context.Context, id int64) (Payment, error)
	// Settle flips a pending payment to RECEIVED with its UTR. It reports
	// ErrAlreadySettled when the row is not pending and ErrDuplicateUTR when
	// the UTR is taken.
	Settle(ctx context.Context, id int64, utr string, receivedAt time.Time) error
	// ListOutstanding returns pending payments whose due date has passed the
	// cutoff, oldest first.
	ListOutstanding(ctx context.Context, dueBefore time.Time) ([]Payment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (kind, sales_order_id, amount, utr, status, due_date, received_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		string(p.Kind), p.SalesOrderID, p.Amount, p.UTR, string(p.Status),
		p.DueDate, p.ReceivedAt, p.CreatedBy, p.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateUTR
		}
		return 0, fmt.Errorf("payments: insert payment: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `
		SELECT id, kind, sales_order_id, amount, utr, status, due_date, received_at, created_by, created_at
		FROM payments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("payments: get payment: %w", err)
	}
	return p, nil
}

func (r *repository) Settle(ctx context.Context, id int64, utr string, receivedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET utr = $1, status = $2, received_at = $3
		WHERE id = $4 AND status = $5`,
		utr, string(StatusReceived), receivedAt, id, string(StatusPending))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUTR
		}
		return fmt.Errorf("payments: settle payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadySettled
	}
	return nil
}

func (r *repository) ListOutstanding(ctx context.Context, dueBefore time.Time) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, sales_order_id, amount, utr, status, due_date, received_at, created_by, created_at
		FROM payments
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date ASC, id ASC`,
		string(StatusPending), dueBefore)
	if err != nil {
		return nil, fmt.Errorf("payments: list outstanding: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("payments: scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		p      Payment
		kind   string
		status string
	)
	err := row.Scan(&p.ID, &kind, &p.SalesOrderID, &p.Amount, &p.UTR, &status,
		&p.DueDate, &p.ReceivedAt, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Kind = Kind(kind)
	p.Status = Status(status)
	return p, nil
}
