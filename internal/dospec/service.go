package dospec

import (
	"context"
	"fmt"
	"time"

	"github.com/kapas-trade/kapas-trade/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against duplicate submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates DO-spec calculations and their persistence.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
}

// NewService builds the Service.
func NewService(repo Repository, audit AuditPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idempotency}
}

// Calculate runs the settlement computation and persists the result as an
// immutable record. idemKey may be empty when the client sends no
// Idempotency-Key header.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest, actorID int64, idemKey string) (Record, error) {
	lots, zone, err := req.ToDomain()
	if err != nil {
		return Record{}, err
	}

	results, summary, err := Calculate(lots, req.BidPrice, req.CottonValue, req.GSTRate, zone)
	if err != nil {
		return Record{}, err
	}

	if s.idempotency != nil && idemKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "dospec"); err != nil {
			return Record{}, err
		}
	}

	rec := Record{
		CustomerID:  req.CustomerID,
		TotalLots:   req.TotalLots,
		BidPrice:    req.BidPrice,
		EMDAmount:   req.EMDAmount,
		CottonValue: req.CottonValue,
		GSTRate:     req.GSTRate,
		Zone:        zone,
		Lots:        lots,
		Results:     CalculationResults{Lots: results, Summary: summary},
		CreatedBy:   actorID,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := s.repo.Insert(ctx, rec)
	if err != nil {
		if s.idempotency != nil && idemKey != "" {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return Record{}, err
	}
	rec.ID = id

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "dospec.calculate",
			Entity:   "do_spec_calculation",
			EntityID: fmt.Sprintf("%d", id),
			Meta: map[string]any{
				"customer_id": req.CustomerID,
				"total_lots":  req.TotalLots,
				"zone":        string(zone),
			},
		})
	}

	return rec, nil
}

// Get loads a persisted calculation.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	return s.repo.Get(ctx, id)
}
