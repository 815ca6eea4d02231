package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists contracts.
type Repository interface {
	Insert(ctx context.Context, c Contract) (int64, error)
	Get(ctx context.Context, id int64) (Contract, error)
	// Transition moves a contract from one status to another. The update is
	// conditional on the current status so concurrent decisions cannot clash;
	// a stale transition reports ErrInvalidTransition.
	Transition(ctx context.Context, id int64, from, to Status, update TransitionUpdate) error
}

// TransitionUpdate carries the columns a transition may touch.
type TransitionUpdate struct {
	SubmittedAt  *time.Time
	DecidedBy    int64
	DecidedAt    *time.Time
	RejectReason string
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, c Contract) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contracts (reference, sales_order_id, party_name, party_email, contract_value, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		c.Reference, c.SalesOrderID, c.PartyName, c.PartyEmail, c.ContractValue,
		string(c.Status), c.CreatedBy, c.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("contracts: insert contract: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Contract, error) {
	var (
		c      Contract
		status string
		reason *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, reference, sales_order_id, party_name, party_email, contract_value, status, reject_reason, created_by, created_at, submitted_at, decided_by, decided_at
		FROM contracts WHERE id = $1`, id,
	).Scan(&c.ID, &c.Reference, &c.SalesOrderID, &c.PartyName, &c.PartyEmail,
		&c.ContractValue, &status, &reason, &c.CreatedBy, &c.CreatedAt,
		&c.SubmittedAt, &c.DecidedBy, &c.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrNotFound
		}
		return Contract{}, fmt.Errorf("contracts: get contract: %w", err)
	}
	c.Status = Status(status)
	if reason != nil {
		c.RejectReason = *reason
	}
	return c, nil
}

func (r *repository) Transition(ctx context.Context, id int64, from, to Status, update TransitionUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts
		SET status = $1,
		    submitted_at = COALESCE($2, submitted_at),
		    decided_by = CASE WHEN $3::bigint <> 0 THEN $3 ELSE decided_by END,
		    decided_at = COALESCE($4, decided_at),
		    reject_reason = CASE WHEN $5 <> '' THEN $5 ELSE reject_reason END
		WHERE id = $6 AND status = $7`,
		string(to), update.SubmittedAt, update.DecidedBy, update.DecidedAt,
		update.RejectReason, id, string(from))
	if err != nil {
		return fmt.Errorf("contracts: transition contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: expected %s", ErrInvalidTransition, from)
	}
	return nil
}
