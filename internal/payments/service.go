package payments

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

// Service records and settles payments.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService wires the payments service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Record books a payment. A UTR present in the input settles it on the spot;
// otherwise the payment stays pending until Settle is called.
func (s *Service) Record(ctx context.Context, input RecordInput, actorID int64) (Payment, error) {
	due, err := time.Parse("2006-01-02", input.DueDate)
	if err != nil {
		return Payment{}, fmt.Errorf("%w: due_date: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	p := Payment{
		Kind:         Kind(input.Kind),
		SalesOrderID: input.SalesOrderID,
		Amount:       input.Amount,
		UTR:          input.UTR,
		Status:       StatusPending,
		DueDate:      due,
		CreatedBy:    actorID,
		CreatedAt:    now,
	}
	if input.UTR != "" {
		p.Status = StatusReceived
		p.ReceivedAt = &now
	}

	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		return Payment{}, err
	}
	p.ID = id

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "payments.record",
			Entity:   "payment",
			EntityID: fmt.Sprintf("%d", id),
			Meta: map[string]any{
				"kind":           p.Kind,
				"sales_order_id": p.SalesOrderID,
				"amount":         p.Amount,
				"status":         p.Status,
			},
		})
	}
	return p, nil
}

// Settle marks a pending payment received against its bank UTR.
func (s *Service) Settle(ctx context.Context, id int64, input SettleInput, actorID int64) (Payment, error) {
	if err := s.repo.Settle(ctx, id, input.UTR, time.Now().UTC()); err != nil {
		return Payment{}, err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "payments.settle",
			Entity:   "payment",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"utr": input.UTR},
		})
	}
	return p, nil
}

// Get fetches one payment.
func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

// Outstanding lists pending payments whose due date passed the cutoff.
func (s *Service) Outstanding(ctx context.Context, dueBefore time.Time) ([]Payment, error) {
	return s.repo.ListOutstanding(ctx, dueBefore)
}
