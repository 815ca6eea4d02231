// Package payments tracks EMD and DO money movements against sales orders,
// keyed by bank UTR references once funds land.
package payments

import (
	"errors"
	"time"
)

// Kind distinguishes what the money settles.
type Kind string

const (
	// KindEMD is the earnest-money deposit paid after winning a bid.
	KindEMD Kind = "EMD"
	// KindDO is an instalment against the delivery-order value.
	KindDO Kind = "DO"
)

// Status tracks whether the money has actually arrived.
type Status string

const (
	// StatusPending means the payment is expected but no UTR recorded yet.
	StatusPending Status = "PENDING"
	// StatusReceived means the bank UTR confirmed the credit.
	StatusReceived Status = "RECEIVED"
)

// Payment is one expected or settled money movement.
type Payment struct {
	ID           int64      `json:"id"`
	Kind         Kind       `json:"kind"`
	SalesOrderID int64      `json:"sales_order_id"`
	Amount       float64    `json:"amount"`
	UTR          string     `json:"utr,omitempty"`
	Status       Status     `json:"status"`
	DueDate      time.Time  `json:"due_date"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RecordInput creates a payment. A present UTR records it as received
// immediately; an empty UTR books an expected payment against the due date.
type RecordInput struct {
	Kind         string  `json:"kind" validate:"required,oneof=EMD DO"`
	SalesOrderID int64   `json:"sales_order_id" validate:"required,min=1"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	UTR          string  `json:"utr" validate:"omitempty,min=6,max=40"`
	DueDate      string  `json:"due_date" validate:"required"`
}

// SettleInput marks a pending payment received.
type SettleInput struct {
	UTR string `json:"utr" validate:"required,min=6,max=40"`
}

// Sentinel errors for the payments package.
var (
	ErrNotFound       = errors.New("payments: payment not found")
	ErrDuplicateUTR   = errors.New("payments: utr already recorded")
	ErrAlreadySettled = errors.New("payments: payment already settled")
	ErrInvalidInput   = errors.New("payments: invalid input")
)
