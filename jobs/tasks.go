// Package jobs holds the background task definitions and the Asynq worker
// plumbing shared by the API server and the worker binary.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kapas-trade/kapas-trade/internal/notify"
	"github.com/kapas-trade/kapas-trade/internal/payments"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeContractDispatch notifies counterparties of an approved contract.
	TaskTypeContractDispatch = "contract:dispatch"
	// TaskTypePaymentReminder scans for overdue payments and nudges traders.
	TaskTypePaymentReminder = "payment:reminder"
)

// ContractDispatchPayload carries the approved contract to the dispatcher.
type ContractDispatchPayload struct {
	ContractID int64  `json:"contract_id"`
	Reference  string `json:"reference"`
	PartyEmail string `json:"party_email"`
}

// NewContractDispatchTask constructs an Asynq task.
func NewContractDispatchTask(payload ContractDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeContractDispatch, data), nil
}

// NewContractDispatchHandler processes contract dispatch tasks by pushing a
// contract.dispatched event to the workflow engine, which owns the actual
// email delivery.
func NewContractDispatchHandler(logger *slog.Logger, webhook *notify.Client) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ContractDispatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		err := webhook.Send(ctx, notify.Event{
			Type: "contract.dispatched",
			Data: map[string]any{
				"contract_id": payload.ContractID,
				"reference":   payload.Reference,
				"party_email": payload.PartyEmail,
			},
		})
		if err != nil {
			logger.Warn("contract dispatch", slog.Int64("contract_id", payload.ContractID), slog.Any("error", err))
			return err
		}
		logger.Info("contract dispatched", slog.Int64("contract_id", payload.ContractID))
		return nil
	}
}

// NewPaymentReminderTask constructs the cron-driven reminder task. The payload
// is empty; the handler derives the cutoff at run time.
func NewPaymentReminderTask() *asynq.Task {
	return asynq.NewTask(TaskTypePaymentReminder, nil)
}

// OutstandingLister is the slice of the payments service the reminder needs.
type OutstandingLister interface {
	Outstanding(ctx context.Context, dueBefore time.Time) ([]payments.Payment, error)
}

// NewPaymentReminderHandler scans overdue payments and emits one reminder
// event per payment. overdueAfter is the grace window behind now.
func NewPaymentReminderHandler(logger *slog.Logger, lister OutstandingLister, webhook *notify.Client, overdueAfter time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := time.Now().UTC().Add(-overdueAfter)
		overdue, err := lister.Outstanding(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, p := range overdue {
			err := webhook.Send(ctx, notify.Event{
				Type: "payment.reminder",
				Data: map[string]any{
					"payment_id":     p.ID,
					"sales_order_id": p.SalesOrderID,
					"kind":           p.Kind,
					"amount":         p.Amount,
					"due_date":       p.DueDate.Format("2006-01-02"),
				},
			})
			if err != nil {
				logger.Warn("payment reminder", slog.Int64("payment_id", p.ID), slog.Any("error", err))
			}
		}
		logger.Info("payment reminder sweep", slog.Int("overdue", len(overdue)))
		return nil
	}
}
