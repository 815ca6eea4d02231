package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/kapas-trade/kapas-trade/internal/allocation"
	"github.com/kapas-trade/kapas-trade/internal/shared"
)

// InventoryPort is the commit-side capability the service needs: the
// conditional status flip that turns a proposal into blocked stock.
type InventoryPort interface {
	MarkAllocated(ctx context.Context, ids []int64, ref string) error
	Release(ctx context.Context, ids []int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates sales configurations and order processing.
type Service struct {
	repo      Repository
	cache     *ConfigCache
	allocator *allocation.Allocator
	inventory InventoryPort
	audit     AuditPort
}

// NewService builds the Service.
func NewService(repo Repository, cache *ConfigCache, allocator *allocation.Allocator, inv InventoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, cache: cache, allocator: allocator, inventory: inv, audit: audit}
}

// CreateConfig registers a sales configuration.
func (s *Service) CreateConfig(ctx context.Context, input CreateConfigInput) (Configuration, error) {
	cfg := Configuration{
		Name:              input.Name,
		RequestedQuantity: input.RequestedQuantity,
		PriorityBranch:    input.PriorityBranch,
		Variety:           input.Variety,
		FibreLength:       input.FibreLength,
		CreatedAt:         time.Now().UTC(),
	}
	id, err := s.repo.InsertConfig(ctx, cfg)
	if err != nil {
		return Configuration{}, err
	}
	cfg.ID = id
	return cfg, nil
}

// GetConfig loads a configuration through the cache.
func (s *Service) GetConfig(ctx context.Context, id int64) (Configuration, error) {
	return s.cache.Get(ctx, id, func(ctx context.Context) (Configuration, error) {
		return s.repo.GetConfig(ctx, id)
	})
}

// ProcessOrder runs the allocator against a configuration and persists the
// resulting proposal. The inventory is not touched; an out-of-stock proposal
// is a normal PROPOSED order whose result says so.
func (s *Service) ProcessOrder(ctx context.Context, input ProcessOrderInput, actorID int64) (Order, error) {
	cfg, err := s.GetConfig(ctx, input.SalesConfigID)
	if err != nil {
		return Order{}, err
	}

	qty := input.RequestedQty
	if qty <= 0 {
		qty = cfg.RequestedQuantity
	}

	result, err := s.allocator.AutoSelect(ctx, allocation.Request{
		RequestedQty:   qty,
		PriorityBranch: cfg.PriorityBranch,
		Variety:        cfg.Variety,
		FibreLength:    cfg.FibreLength,
	})
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ConfigID:     cfg.ID,
		RequestedQty: qty,
		Status:       OrderStatusProposed,
		Proposal:     result,
		TotalValue:   result.TotalValue,
		CreatedBy:    actorID,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.repo.InsertOrder(ctx, order)
	if err != nil {
		return Order{}, err
	}
	order.ID = id

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sales.order.propose",
			Entity:   "sales_order",
			EntityID: fmt.Sprintf("%d", id),
			Meta: map[string]any{
				"sales_config_id": cfg.ID,
				"requested_qty":   qty,
				"selected":        len(result.AutoSelected),
				"out_of_stock":    result.OutOfStock,
			},
		})
	}
	return order, nil
}

// Confirm commits a proposed order: every proposed lot is atomically flipped
// from AVAILABLE to BLOCKED. Losing the race to another order surfaces
// inventory.ErrConflict so the caller can re-run the proposal.
func (s *Service) Confirm(ctx context.Context, orderID, actorID int64) (Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.Status != OrderStatusProposed {
		return Order{}, fmt.Errorf("%w: cannot confirm %s order", ErrInvalidStatus, order.Status)
	}
	if order.Proposal.OutOfStock || len(order.Proposal.AutoSelected) == 0 {
		return Order{}, ErrNothingSelected
	}

	ids := make([]int64, 0, len(order.Proposal.AutoSelected))
	for _, lot := range order.Proposal.AutoSelected {
		ids = append(ids, lot.ID)
	}
	if err := s.inventory.MarkAllocated(ctx, ids, fmt.Sprintf("SO-%d", orderID)); err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateOrderStatus(ctx, orderID, OrderStatusConfirmed, &now); err != nil {
		// Undo the block so the lots are not stranded behind a failed order.
		_ = s.inventory.Release(ctx, ids)
		return Order{}, err
	}
	order.Status = OrderStatusConfirmed
	order.ConfirmedAt = &now

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sales.order.confirm",
			Entity:   "sales_order",
			EntityID: fmt.Sprintf("%d", orderID),
			Meta:     map[string]any{"lots": len(ids)},
		})
	}
	return order, nil
}

// Cancel releases a confirmed order's lots and marks the order cancelled.
// Proposed orders just flip status.
func (s *Service) Cancel(ctx context.Context, orderID, actorID int64) (Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	switch order.Status {
	case OrderStatusProposed:
		// Nothing blocked yet.
	case OrderStatusConfirmed:
		ids := make([]int64, 0, len(order.Proposal.AutoSelected))
		for _, lot := range order.Proposal.AutoSelected {
			ids = append(ids, lot.ID)
		}
		if err := s.inventory.Release(ctx, ids); err != nil {
			return Order{}, err
		}
	default:
		return Order{}, fmt.Errorf("%w: cannot cancel %s order", ErrInvalidStatus, order.Status)
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, OrderStatusCancelled, nil); err != nil {
		return Order{}, err
	}
	order.Status = OrderStatusCancelled

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sales.order.cancel",
			Entity:   "sales_order",
			EntityID: fmt.Sprintf("%d", orderID),
		})
	}
	return order, nil
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}
