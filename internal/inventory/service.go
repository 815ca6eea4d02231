package inventory

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

// IdempotencyPort guards against duplicate intake submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates inventory operations.
type Service struct {
	repo        Repository
	audit       AuditPort
	idempotency IdempotencyPort
}

// NewService builds the Service.
func NewService(repo Repository, audit AuditPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idempotency}
}

// Intake registers a new AVAILABLE lot.
func (s *Service) Intake(ctx context.Context, input IntakeInput, actorID int64) (Lot, error) {
	if s.idempotency != nil {
		key := fmt.Sprintf("intake:%s", input.LotNumber)
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return Lot{}, err
		}
	}

	lot := Lot{
		LotNumber:   input.LotNumber,
		Branch:      input.Branch,
		Variety:     input.Variety,
		FibreLength: input.FibreLength,
		BidPrice:    input.BidPrice,
		Status:      StatusAvailable,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := s.repo.Insert(ctx, lot)
	if err != nil {
		if s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, fmt.Sprintf("intake:%s", input.LotNumber))
		}
		return Lot{}, err
	}
	lot.ID = id

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory.intake",
			Entity:   "inventory_lot",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"lot_number": input.LotNumber, "branch": input.Branch},
		})
	}
	return lot, nil
}

// Get loads one lot.
func (s *Service) Get(ctx context.Context, id int64) (Lot, error) {
	return s.repo.Get(ctx, id)
}

// List returns lots matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Lot, error) {
	return s.repo.List(ctx, filter)
}
