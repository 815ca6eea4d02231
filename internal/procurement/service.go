package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/kapas-trade/kapas-trade/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service builds and persists cost sheets.
type Service struct {
	policy Policy
	repo   Repository
	audit  AuditPort
}

// NewService wires the cost-sheet service.
func NewService(policy Policy, repo Repository, audit AuditPort) *Service {
	return &Service{policy: policy, repo: repo, audit: audit}
}

// Create prices the commitment and stores the resulting sheet.
func (s *Service) Create(ctx context.Context, input CostSheetInput, actorID int64) (CostSheet, error) {
	sheet, err := BuildCostSheet(s.policy, input)
	if err != nil {
		return CostSheet{}, err
	}
	sheet.CreatedBy = actorID
	sheet.CreatedAt = time.Now().UTC()

	id, err := s.repo.Insert(ctx, sheet)
	if err != nil {
		return CostSheet{}, err
	}
	sheet.ID = id

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "procurement.costsheet.create",
			Entity:   "cost_sheet",
			EntityID: fmt.Sprintf("%d", id),
			Meta: map[string]any{
				"lots":         sheet.Lots,
				"cotton_value": sheet.CottonValue,
				"emd_amount":   sheet.EMDAmount,
			},
		})
	}
	return sheet, nil
}

// Get fetches one stored cost sheet.
func (s *Service) Get(ctx context.Context, id int64) (CostSheet, error) {
	return s.repo.Get(ctx, id)
}
