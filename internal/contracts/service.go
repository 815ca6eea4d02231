package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/kapas-trade/kapas-trade/internal/notify"
	"github.com/kapas-trade/kapas-trade/internal/shared"
	"github.com/kapas-trade/kapas-trade/jobs"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// WebhookPort pushes events to the workflow engine.
type WebhookPort interface {
	Send(ctx context.Context, event notify.Event) error
}

// DispatchPort enqueues the counterparty dispatch task.
type DispatchPort interface {
	EnqueueContractDispatch(ctx context.Context, payload jobs.ContractDispatchPayload) (*asynq.TaskInfo, error)
}

// Service drives the contract lifecycle.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	audit    AuditPort
	webhook  WebhookPort
	dispatch DispatchPort
}

// NewService wires the contracts service. webhook and dispatch may be nil in
// environments without a workflow engine or a job queue.
func NewService(logger *slog.Logger, repo Repository, audit AuditPort, webhook WebhookPort, dispatch DispatchPort) *Service {
	return &Service{logger: logger, repo: repo, audit: audit, webhook: webhook, dispatch: dispatch}
}

// Create registers a draft contract with a generated reference.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID int64) (Contract, error) {
	c := Contract{
		Reference:     "CT-" + uuid.NewString()[:8],
		SalesOrderID:  input.SalesOrderID,
		PartyName:     input.PartyName,
		PartyEmail:    input.PartyEmail,
		ContractValue: input.ContractValue,
		Status:        StatusDraft,
		CreatedBy:     actorID,
		CreatedAt:     time.Now().UTC(),
	}
	id, err := s.repo.Insert(ctx, c)
	if err != nil {
		return Contract{}, err
	}
	c.ID = id
	s.recordAudit(ctx, actorID, "contracts.create", id, map[string]any{
		"reference":      c.Reference,
		"sales_order_id": c.SalesOrderID,
	})
	return c, nil
}

// Submit sends a draft for approval.
func (s *Service) Submit(ctx context.Context, id, actorID int64) (Contract, error) {
	now := time.Now().UTC()
	err := s.repo.Transition(ctx, id, StatusDraft, StatusPendingApproval, TransitionUpdate{
		SubmittedAt: &now,
	})
	if err != nil {
		return Contract{}, err
	}
	s.recordAudit(ctx, actorID, "contracts.submit", id, nil)
	return s.repo.Get(ctx, id)
}

// Approve records the decision, notifies the workflow engine and queues the
// counterparty dispatch. Webhook or queue failures are logged, not fatal: the
// approval already happened.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (Contract, error) {
	now := time.Now().UTC()
	err := s.repo.Transition(ctx, id, StatusPendingApproval, StatusApproved, TransitionUpdate{
		DecidedBy: actorID,
		DecidedAt: &now,
	})
	if err != nil {
		return Contract{}, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Contract{}, err
	}

	s.recordAudit(ctx, actorID, "contracts.approve", id, map[string]any{
		"reference": c.Reference,
	})
	if s.webhook != nil {
		err := s.webhook.Send(ctx, notify.Event{
			Type: "contract.approved",
			Data: map[string]any{
				"contract_id":    c.ID,
				"reference":      c.Reference,
				"sales_order_id": c.SalesOrderID,
				"contract_value": c.ContractValue,
			},
		})
		if err != nil {
			s.logger.Warn("contract approved webhook", slog.Int64("contract_id", c.ID), slog.Any("error", err))
		}
	}
	if s.dispatch != nil {
		_, err := s.dispatch.EnqueueContractDispatch(ctx, jobs.ContractDispatchPayload{
			ContractID: c.ID,
			Reference:  c.Reference,
			PartyEmail: c.PartyEmail,
		})
		if err != nil {
			s.logger.Warn("contract dispatch enqueue", slog.Int64("contract_id", c.ID), slog.Any("error", err))
		}
	}
	return c, nil
}

// Reject bounces a pending contract back with a reason.
func (s *Service) Reject(ctx context.Context, id, actorID int64, input RejectInput) (Contract, error) {
	now := time.Now().UTC()
	err := s.repo.Transition(ctx, id, StatusPendingApproval, StatusRejected, TransitionUpdate{
		DecidedBy:    actorID,
		DecidedAt:    &now,
		RejectReason: input.Reason,
	})
	if err != nil {
		return Contract{}, err
	}
	s.recordAudit(ctx, actorID, "contracts.reject", id, map[string]any{
		"reason": input.Reason,
	})
	return s.repo.Get(ctx, id)
}

// Get fetches one contract.
func (s *Service) Get(ctx context.Context, id int64) (Contract, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "contract",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
