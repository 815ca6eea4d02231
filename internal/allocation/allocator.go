package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/kapas-trade/kapas-trade/internal/inventory"
)

// CandidateSource supplies AVAILABLE lots. The production implementation is
// the inventory repository; tests inject an in-memory fake.
type CandidateSource interface {
	ListAvailable(ctx context.Context, filter inventory.Filter) ([]inventory.Lot, error)
}

// Allocator implements the lot auto-selection procedure.
type Allocator struct {
	source CandidateSource
}

// NewAllocator builds the allocator.
func NewAllocator(source CandidateSource) *Allocator {
	return &Allocator{source: source}
}

// surplusTolerance is the fraction of the requested quantity the selection
// may exceed it by, floor-rounded.
const surplusTolerance = 0.2

// maxAllowedFor computes the selection ceiling for a required quantity.
func maxAllowedFor(required int) int {
	return required + int(float64(required)*surplusTolerance)
}

// AutoSelect proposes a lot selection for the request. It never mutates
// inventory; an empty candidate pool is the OutOfStock result, not an error.
func (a *Allocator) AutoSelect(ctx context.Context, req Request) (Result, error) {
	if req.RequestedQty <= 0 {
		return Result{}, ErrInvalidRequest
	}

	required := req.RequestedQty
	maxAllowed := maxAllowedFor(required)
	limits := SelectionLimits{Requested: req.RequestedQty, Required: required, MaxAllowed: maxAllowed}

	baseFilter := inventory.Filter{Variety: req.Variety, FibreLength: req.FibreLength}

	// Priority tier: the configured branch alone, oldest stock first.
	if req.PriorityBranch != "" {
		branchFilter := baseFilter
		branchFilter.Branch = req.PriorityBranch
		branchFilter.Limit = maxAllowed
		branchLots, err := a.source.ListAvailable(ctx, branchFilter)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInfrastructure, err)
		}
		if len(branchLots) >= required {
			all, err := a.source.ListAvailable(ctx, baseFilter)
			if err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrInfrastructure, err)
			}
			selected := sortFIFO(branchLots)
			limits.AutoSelectedCount = len(selected)
			return Result{
				AvailableLots:      sortFIFO(all),
				AutoSelected:       selected,
				Limits:             limits,
				TotalValue:         totalValue(selected),
				PriorityBranchUsed: true,
			}, nil
		}
	}

	// Fallback tier: every matching branch, FIFO, priority lots first.
	all, err := a.source.ListAvailable(ctx, baseFilter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInfrastructure, err)
	}
	all = sortFIFO(all)

	if len(all) < required {
		return Result{
			AvailableLots: all,
			AutoSelected:  []inventory.Lot{},
			Limits:        limits,
			OutOfStock:    true,
		}, nil
	}

	selected := make([]inventory.Lot, 0, maxAllowed)
	if req.PriorityBranch != "" {
		for _, lot := range all {
			if len(selected) == maxAllowed {
				break
			}
			if lot.Branch == req.PriorityBranch {
				selected = append(selected, lot)
			}
		}
	}
	for _, lot := range all {
		if len(selected) == maxAllowed {
			break
		}
		if req.PriorityBranch != "" && lot.Branch == req.PriorityBranch {
			continue
		}
		selected = append(selected, lot)
	}

	limits.AutoSelectedCount = len(selected)
	return Result{
		AvailableLots: all,
		AutoSelected:  selected,
		Limits:        limits,
		TotalValue:    totalValue(selected),
	}, nil
}

// sortFIFO orders lots by (CreatedAt, ID) ascending. The store already orders
// this way; sorting again makes the selection deterministic even against
// sources without a stable sort.
func sortFIFO(lots []inventory.Lot) []inventory.Lot {
	out := make([]inventory.Lot, len(lots))
	copy(out, lots)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func totalValue(lots []inventory.Lot) float64 {
	var sum float64
	for _, lot := range lots {
		sum += lot.BidPrice
	}
	return sum
}
