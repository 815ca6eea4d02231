package dospec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing calculation record.
var ErrNotFound = errors.New("dospec: record not found")

// CalculationResults bundles the per-lot results with the aggregate summary,
// persisted as one immutable JSON document next to the request.
type CalculationResults struct {
	Lots    []LotResult `json:"lots"`
	Summary Summary     `json:"summary"`
}

// Record is a persisted DO-spec calculation.
type Record struct {
	ID          int64              `json:"id"`
	CustomerID  int64              `json:"customer_id"`
	TotalLots   int                `json:"total_lots"`
	BidPrice    float64            `json:"bid_price"`
	EMDAmount   float64            `json:"emd_amount"`
	CottonValue float64            `json:"cotton_value"`
	GSTRate     float64            `json:"gst_rate"`
	Zone        Zone               `json:"zone"`
	Lots        []Lot              `json:"lots"`
	Results     CalculationResults `json:"calculation_results"`
	CreatedBy   int64              `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Repository persists calculation records.
type Repository interface {
	Insert(ctx context.Context, rec Record) (int64, error)
	Get(ctx context.Context, id int64) (Record, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, rec Record) (int64, error) {
	lotsJSON, err := json.Marshal(rec.Lots)
	if err != nil {
		return 0, fmt.Errorf("dospec: marshal lots: %w", err)
	}
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return 0, fmt.Errorf("dospec: marshal results: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO do_spec_calculations
			(customer_id, total_lots, bid_price, emd_amount, cotton_value, gst_rate, zone, lots, calculation_results, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		rec.CustomerID, rec.TotalLots, rec.BidPrice, rec.EMDAmount, rec.CottonValue,
		rec.GSTRate, string(rec.Zone), lotsJSON, resultsJSON, rec.CreatedBy, rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("dospec: insert calculation: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Record, error) {
	var (
		rec         Record
		zone        string
		lotsJSON    []byte
		resultsJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, total_lots, bid_price, emd_amount, cotton_value, gst_rate, zone, lots, calculation_results, created_by, created_at
		FROM do_spec_calculations
		WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.CustomerID, &rec.TotalLots, &rec.BidPrice, &rec.EMDAmount,
		&rec.CottonValue, &rec.GSTRate, &zone, &lotsJSON, &resultsJSON, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("dospec: get calculation: %w", err)
	}
	rec.Zone = Zone(zone)
	if err := json.Unmarshal(lotsJSON, &rec.Lots); err != nil {
		return Record{}, fmt.Errorf("dospec: unmarshal lots: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &rec.Results); err != nil {
		return Record{}, fmt.Errorf("dospec: unmarshal results: %w", err)
	}
	return rec, nil
}
