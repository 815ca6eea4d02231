// Package inventory tracks physical cotton lots available for sale.
package inventory

import (
	"errors"
	"time"
)

// LotStatus enumerates the lifecycle states of an inventory lot.
type LotStatus string

const (
	// StatusAvailable marks a lot open for allocation.
	StatusAvailable LotStatus = "AVAILABLE"
	// StatusBlocked marks a lot held against a confirmed sales order.
	StatusBlocked LotStatus = "BLOCKED"
	// StatusSold marks a lot delivered and settled.
	StatusSold LotStatus = "SOLD"
)

// Lot is one available unit of stock.
type Lot struct {
	ID          int64     `json:"id"`
	LotNumber   string    `json:"lot_number"`
	Branch      string    `json:"branch"`
	Variety     string    `json:"variety"`
	FibreLength string    `json:"fibre_length"`
	BidPrice    float64   `json:"bid_price"`
	Status      LotStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows candidate queries. Zero values mean "no restriction".
type Filter struct {
	Branch      string
	Variety     string
	FibreLength string
	Status      LotStatus
	Limit       int
}

// IntakeInput describes a new lot entering stock.
type IntakeInput struct {
	LotNumber   string  `json:"lot_number" validate:"required"`
	Branch      string  `json:"branch" validate:"required"`
	Variety     string  `json:"variety" validate:"required"`
	FibreLength string  `json:"fibre_length" validate:"required"`
	BidPrice    float64 `json:"bid_price" validate:"required,gt=0"`
}

var (
	// ErrNotFound indicates a missing lot.
	ErrNotFound = errors.New("inventory: lot not found")
	// ErrConflict indicates a conditional status update lost the race: at
	// least one targeted lot was no longer AVAILABLE.
	ErrConflict = errors.New("inventory: lot status changed concurrently")
	// ErrDuplicateLotNumber indicates intake of an already-registered lot.
	ErrDuplicateLotNumber = errors.New("inventory: duplicate lot number")
)
