package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists sales configurations and orders.
type Repository interface {
	InsertConfig(ctx context.Context, cfg Configuration) (int64, error)
	GetConfig(ctx context.Context, id int64) (Configuration, error)
	InsertOrder(ctx context.Context, order Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus, confirmedAt *time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) InsertConfig(ctx context.Context, cfg Configuration) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sales_configurations (name, requested_quantity, priority_branch, variety, fibre_length, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		cfg.Name, cfg.RequestedQuantity, cfg.PriorityBranch, cfg.Variety, cfg.FibreLength, cfg.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert config: %w", err)
	}
	return id, nil
}

func (r *repository) GetConfig(ctx context.Context, id int64) (Configuration, error) {
	var cfg Configuration
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, requested_quantity, priority_branch, variety, fibre_length, created_at
		FROM sales_configurations WHERE id = $1`, id,
	).Scan(&cfg.ID, &cfg.Name, &cfg.RequestedQuantity, &cfg.PriorityBranch, &cfg.Variety, &cfg.FibreLength, &cfg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Configuration{}, ErrNotFound
		}
		return Configuration{}, fmt.Errorf("sales: get config: %w", err)
	}
	return cfg, nil
}

func (r *repository) InsertOrder(ctx context.Context, order Order) (int64, error) {
	proposalJSON, err := json.Marshal(order.Proposal)
	if err != nil {
		return 0, fmt.Errorf("sales: marshal proposal: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO sales_orders (sales_config_id, requested_qty, status, proposal, total_value, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		order.ConfigID, order.RequestedQty, string(order.Status), proposalJSON, order.TotalValue, order.CreatedBy, order.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("sales: insert order: %w", err)
	}
	return id, nil
}

func (r *repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var (
		order        Order
		status       string
		proposalJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, sales_config_id, requested_qty, status, proposal, total_value, created_by, created_at, confirmed_at
		FROM sales_orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.ConfigID, &order.RequestedQty, &status, &proposalJSON, &order.TotalValue, &order.CreatedBy, &order.CreatedAt, &order.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("sales: get order: %w", err)
	}
	order.Status = OrderStatus(status)
	if err := json.Unmarshal(proposalJSON, &order.Proposal); err != nil {
		return Order{}, fmt.Errorf("sales: unmarshal proposal: %w", err)
	}
	return order, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus, confirmedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sales_orders SET status = $1, confirmed_at = COALESCE($2, confirmed_at) WHERE id = $3`,
		string(status), confirmedAt, id)
	if err != nil {
		return fmt.Errorf("sales: update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
