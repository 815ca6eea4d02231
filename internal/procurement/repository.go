package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kapas-trade/kapas-trade/internal/dospec"
)

// Repository persists cost sheets.
type Repository interface {
	Insert(ctx context.Context, sheet CostSheet) (int64, error)
	Get(ctx context.Context, id int64) (CostSheet, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, sheet CostSheet) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO procurement_cost_sheets
			(lots, candy_rate, zone, assumed_weight_kg, cotton_value, emd_rate, emd_amount, gst_amount, total_payable, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		sheet.Lots, sheet.CandyRate, string(sheet.Zone), sheet.AssumedWeightKg,
		sheet.CottonValue, sheet.EMDRate, sheet.EMDAmount, sheet.GSTAmount,
		sheet.TotalPayable, sheet.CreatedBy, sheet.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("procurement: insert cost sheet: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (CostSheet, error) {
	var (
		sheet CostSheet
		zone  string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, lots, candy_rate, zone, assumed_weight_kg, cotton_value, emd_rate, emd_amount, gst_amount, total_payable, created_by, created_at
		FROM procurement_cost_sheets
		WHERE id = $1`, id,
	).Scan(&sheet.ID, &sheet.Lots, &sheet.CandyRate, &zone, &sheet.AssumedWeightKg,
		&sheet.CottonValue, &sheet.EMDRate, &sheet.EMDAmount, &sheet.GSTAmount,
		&sheet.TotalPayable, &sheet.CreatedBy, &sheet.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CostSheet{}, ErrNotFound
		}
		return CostSheet{}, fmt.Errorf("procurement: get cost sheet: %w", err)
	}
	sheet.Zone = dospec.Zone(zone)
	return sheet, nil
}
