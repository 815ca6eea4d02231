// Package sales manages sales configurations and sales orders. Order
// processing runs the lot allocator to build a proposal; confirming an order
// commits the proposed lots through a conditional inventory update.
package sales

import (
	"errors"
	"time"

	"github.com/kapas-trade/kapas-trade/internal/allocation"
)

// Configuration captures how a customer's orders should be filled.
type Configuration struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	RequestedQuantity int       `json:"requested_quantity"`
	PriorityBranch    string    `json:"priority_branch,omitempty"`
	Variety           string    `json:"variety,omitempty"`
	FibreLength       string    `json:"fibre_length,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// OrderStatus enumerates sales order states.
type OrderStatus string

const (
	// OrderStatusProposed holds an uncommitted allocation proposal.
	OrderStatusProposed OrderStatus = "PROPOSED"
	// OrderStatusConfirmed means the proposed lots were blocked in inventory.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusCancelled releases any blocked lots.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is a sales order with its allocation proposal.
type Order struct {
	ID           int64             `json:"id"`
	ConfigID     int64             `json:"sales_config_id"`
	RequestedQty int               `json:"requested_qty"`
	Status       OrderStatus       `json:"status"`
	Proposal     allocation.Result `json:"proposal"`
	TotalValue   float64           `json:"total_value"`
	CreatedBy    int64             `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	ConfirmedAt  *time.Time        `json:"confirmed_at,omitempty"`
}

// CreateConfigInput is the JSON body for creating a configuration.
type CreateConfigInput struct {
	Name              string `json:"name" validate:"required"`
	RequestedQuantity int    `json:"requested_quantity" validate:"required,min=1"`
	PriorityBranch    string `json:"priority_branch"`
	Variety           string `json:"variety"`
	FibreLength       string `json:"fibre_length"`
}

// ProcessOrderInput is the JSON body for processing a sales order.
type ProcessOrderInput struct {
	SalesConfigID int64 `json:"sales_config_id" validate:"required,gt=0"`
	RequestedQty  int   `json:"requested_qty" validate:"min=0"`
}

var (
	// ErrNotFound indicates a missing configuration or order.
	ErrNotFound = errors.New("sales: not found")
	// ErrInvalidStatus indicates a forbidden order status transition.
	ErrInvalidStatus = errors.New("sales: invalid status transition")
	// ErrNothingSelected indicates confirming an order whose proposal holds
	// no lots (out of stock or manual zero selection).
	ErrNothingSelected = errors.New("sales: proposal has no selected lots")
)
