package payments

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapas-trade/kapas-trade/internal/shared"
)

type memoryRepo struct {
	payments map[int64]Payment
	utrs     map[string]bool
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{payments: make(map[int64]Payment), utrs: make(map[string]bool)}
}

func (m *memoryRepo) Insert(ctx context.Context, p Payment) (int64, error) {
	if p.UTR != "" {
		if m.utrs[p.UTR] {
			return 0, ErrDuplicateUTR
		}
		m.utrs[p.UTR] = true
	}
	m.nextID++
	p.ID = m.nextID
	m.payments[p.ID] = p
	return p.ID, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Settle(ctx context.Context, id int64, utr string, receivedAt time.Time) error {
	p, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != StatusPending {
		return ErrAlreadySettled
	}
	if m.utrs[utr] {
		return ErrDuplicateUTR
	}
	m.utrs[utr] = true
	p.UTR = utr
	p.Status = StatusReceived
	p.ReceivedAt = &receivedAt
	m.payments[id] = p
	return nil
}

func (m *memoryRepo) ListOutstanding(ctx context.Context, dueBefore time.Time) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.Status == StatusPending && p.DueDate.Before(dueBefore) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryAudit struct {
	entries []shared.AuditLog
}

func (m *memoryAudit) Record(ctx context.Context, entry shared.AuditLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func TestRecordWithUTRSettlesImmediately(t *testing.T) {
	audit := &memoryAudit{}
	svc := NewService(newMemoryRepo(), audit)

	p, err := svc.Record(context.Background(), RecordInput{
		Kind: "EMD", SalesOrderID: 1, Amount: 85000, UTR: "UTR123456", DueDate: "2024-03-10",
	}, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, p.Status)
	require.NotNil(t, p.ReceivedAt)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "payments.record", audit.entries[0].Action)
}

func TestRecordWithoutUTRStaysPending(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	p, err := svc.Record(context.Background(), RecordInput{
		Kind: "DO", SalesOrderID: 1, Amount: 250000, DueDate: "2024-03-20",
	}, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Nil(t, p.ReceivedAt)
}

func TestDuplicateUTRRejected(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Record(context.Background(), RecordInput{
		Kind: "EMD", SalesOrderID: 1, Amount: 100, UTR: "UTR777777", DueDate: "2024-03-10",
	}, 1)
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), RecordInput{
		Kind: "DO", SalesOrderID: 2, Amount: 200, UTR: "UTR777777", DueDate: "2024-03-12",
	}, 1)
	require.ErrorIs(t, err, ErrDuplicateUTR)
}

func TestSettlePendingPayment(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	p, err := svc.Record(context.Background(), RecordInput{
		Kind: "DO", SalesOrderID: 3, Amount: 500, DueDate: "2024-04-01",
	}, 1)
	require.NoError(t, err)

	settled, err := svc.Settle(context.Background(), p.ID, SettleInput{UTR: "UTR999999"}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, settled.Status)
	assert.Equal(t, "UTR999999", settled.UTR)

	_, err = svc.Settle(context.Background(), p.ID, SettleInput{UTR: "UTR888888"}, 1)
	require.ErrorIs(t, err, ErrAlreadySettled)
}

func TestRecordRejectsBadDueDate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.Record(context.Background(), RecordInput{
		Kind: "DO", SalesOrderID: 1, Amount: 100, DueDate: "20-03-2024",
	}, 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOutstandingFiltersByDueDate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	for _, due := range []string{"2024-03-01", "2024-03-15", "2024-04-01"} {
		_, err := svc.Record(context.Background(), RecordInput{
			Kind: "DO", SalesOrderID: 1, Amount: 100, DueDate: due,
		}, 1)
		require.NoError(t, err)
	}
	// A settled payment never shows up as outstanding.
	_, err := svc.Record(context.Background(), RecordInput{
		Kind: "DO", SalesOrderID: 1, Amount: 100, UTR: "UTR111111", DueDate: "2024-03-02",
	}, 1)
	require.NoError(t, err)

	cutoff := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	out, err := svc.Outstanding(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].DueDate.Before(out[1].DueDate))
}
