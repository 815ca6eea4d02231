package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kapas-trade/kapas-trade/internal/platform/db"
)

// Repository provides inventory lot persistence.
type Repository interface {
	Insert(ctx context.Context, lot Lot) (int64, error)
	Get(ctx context.Context, id int64) (Lot, error)
	List(ctx context.Context, filter Filter) ([]Lot, error)
	// ListAvailable returns AVAILABLE lots matching the filter ordered by
	// (created_at, id) ascending so selection is FIFO and deterministic.
	ListAvailable(ctx context.Context, filter Filter) ([]Lot, error)
	// MarkAllocated conditionally moves lots from AVAILABLE to BLOCKED. The
	// update is atomic: when any target lot is no longer AVAILABLE the whole
	// batch rolls back with ErrConflict.
	MarkAllocated(ctx context.Context, ids []int64, ref string) error
	// Release returns BLOCKED lots to AVAILABLE, e.g. on order cancellation.
	Release(ctx context.Context, ids []int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, lot Lot) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_lots (lot_number, branch, variety, fibre_length, bid_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		lot.LotNumber, lot.Branch, lot.Variety, lot.FibreLength, lot.BidPrice, string(lot.Status), lot.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateLotNumber
		}
		return 0, fmt.Errorf("inventory: insert lot: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Lot, error) {
	lot, err := r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, lot_number, branch, variety, fibre_length, bid_price, status, created_at
		FROM inventory_lots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lot{}, ErrNotFound
		}
		return Lot{}, fmt.Errorf("inventory: get lot: %w", err)
	}
	return lot, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Lot, error) {
	query, args := buildListQuery(filter)
	return r.queryLots(ctx, query, args)
}

func (r *repository) ListAvailable(ctx context.Context, filter Filter) ([]Lot, error) {
	filter.Status = StatusAvailable
	query, args := buildListQuery(filter)
	return r.queryLots(ctx, query, args)
}

func buildListQuery(filter Filter) (string, []any) {
	var conditions []string
	var args []any
	argPos := 1

	add := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Branch != "" {
		add("branch = $%d", filter.Branch)
	}
	if filter.Variety != "" {
		add("variety = $%d", filter.Variety)
	}
	if filter.FibreLength != "" {
		add("fibre_length = $%d", filter.FibreLength)
	}

	query := `SELECT id, lot_number, branch, variety, fibre_length, bid_price, status, created_at FROM inventory_lots`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
	}
	return query, args
}

func (r *repository) queryLots(ctx context.Context, query string, args []any) ([]Lot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inventory: list lots: %w", err)
	}
	defer rows.Close()

	var lots []Lot
	for rows.Next() {
		lot, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("inventory: scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inventory: iterate lots: %w", err)
	}
	return lots, nil
}

func (r *repository) scanOne(row pgx.Row) (Lot, error) {
	var (
		lot    Lot
		status string
	)
	if err := row.Scan(&lot.ID, &lot.LotNumber, &lot.Branch, &lot.Variety, &lot.FibreLength, &lot.BidPrice, &status, &lot.CreatedAt); err != nil {
		return Lot{}, err
	}
	lot.Status = LotStatus(status)
	return lot, nil
}

func (r *repository) MarkAllocated(ctx context.Context, ids []int64, ref string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE inventory_lots
			SET status = $1, allocation_ref = $2, updated_at = $3
			WHERE id = ANY($4) AND status = $5`,
			string(StatusBlocked), ref, time.Now().UTC(), ids, string(StatusAvailable))
		if err != nil {
			return fmt.Errorf("inventory: mark allocated: %w", err)
		}
		if tag.RowsAffected() != int64(len(ids)) {
			return ErrConflict
		}
		return nil
	})
}

func (r *repository) Release(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE inventory_lots
		SET status = $1, allocation_ref = NULL, updated_at = $2
		WHERE id = ANY($3) AND status = $4`,
		string(StatusAvailable), time.Now().UTC(), ids, string(StatusBlocked))
	if err != nil {
		return fmt.Errorf("inventory: release lots: %w", err)
	}
	return nil
}
