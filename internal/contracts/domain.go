// Package contracts manages the purchase contract lifecycle from draft through
// approval, with downstream dispatch once a contract is approved.
package contracts

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a contract.
type Status string

const (
	// StatusDraft is an editable contract not yet sent for approval.
	StatusDraft Status = "DRAFT"
	// StatusPendingApproval awaits an approver's decision.
	StatusPendingApproval Status = "PENDING_APPROVAL"
	// StatusApproved contracts are dispatched to the counterparty.
	StatusApproved Status = "APPROVED"
	// StatusRejected contracts go back to the trader with a reason.
	StatusRejected Status = "REJECTED"
)

// Contract is one purchase contract against a confirmed sales order.
type Contract struct {
	ID            int64      `json:"id"`
	Reference     string     `json:"reference"`
	SalesOrderID  int64      `json:"sales_order_id"`
	PartyName     string     `json:"party_name"`
	PartyEmail    string     `json:"party_email"`
	ContractValue float64    `json:"contract_value"`
	Status        Status     `json:"status"`
	RejectReason  string     `json:"reject_reason,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	DecidedBy     int64      `json:"decided_by,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

// CreateInput creates a draft contract.
type CreateInput struct {
	SalesOrderID  int64   `json:"sales_order_id" validate:"required,min=1"`
	PartyName     string  `json:"party_name" validate:"required,min=2,max=120"`
	PartyEmail    string  `json:"party_email" validate:"required,email"`
	ContractValue float64 `json:"contract_value" validate:"required,gt=0"`
}

// RejectInput records why an approver bounced a contract.
type RejectInput struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// Sentinel errors for the contracts package.
var (
	ErrNotFound          = errors.New("contracts: contract not found")
	ErrInvalidTransition = errors.New("contracts: invalid status transition")
)
