// Package allocation picks concrete inventory lots to satisfy a sales order:
// priority-branch first, global FIFO fallback, capped at a 20% surplus over
// the requested quantity. It only proposes a selection; committing the lots
// is the caller's responsibility.
package allocation

import (
	"errors"

	"github.com/kapas-trade/kapas-trade/internal/inventory"
)

// Request carries the parameters of one auto-selection run.
type Request struct {
	RequestedQty   int
	PriorityBranch string
	Variety        string
	FibreLength    string
}

// SelectionLimits reports the quantities that bounded the selection.
type SelectionLimits struct {
	Requested         int `json:"requested"`
	Required          int `json:"required"`
	MaxAllowed        int `json:"max_allowed"`
	AutoSelectedCount int `json:"auto_selected_count"`
}

// Result is the outcome of one auto-selection run. AvailableLots always holds
// the full branch-unrestricted candidate set so callers can override the
// automatic choice manually.
type Result struct {
	AvailableLots      []inventory.Lot `json:"available_lots"`
	AutoSelected       []inventory.Lot `json:"auto_selected"`
	Limits             SelectionLimits `json:"selection_limits"`
	TotalValue         float64         `json:"total_value"`
	OutOfStock         bool            `json:"out_of_stock"`
	PriorityBranchUsed bool            `json:"priority_branch_used"`
}

var (
	// ErrInvalidRequest indicates a non-positive requested quantity.
	ErrInvalidRequest = errors.New("allocation: requested quantity must be positive")
	// ErrInfrastructure wraps inventory query failures. The run is
	// idempotent, so callers may retry the whole request.
	ErrInfrastructure = errors.New("allocation: inventory unavailable")
)
