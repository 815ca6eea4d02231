package inventory

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
	lots   map[int64]Lot
	byNum  map[string]int64
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{lots: make(map[int64]Lot), byNum: make(map[string]int64)}
}

func (m *memoryRepo) Insert(ctx context.Context, lot Lot) (int64, error) {
	if _, ok := m.byNum[lot.LotNumber]; ok {
		return 0, ErrDuplicateLotNumber
	}
	m.nextID++
	lot.ID = m.nextID
	m.lots[lot.ID] = lot
	m.byNum[lot.LotNumber] = lot.ID
	return lot.ID, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Lot, error) {
	lot, ok := m.lots[id]
	if !ok {
		return Lot{}, ErrNotFound
	}
	return lot, nil
}

func (m *memoryRepo) List(ctx context.Context, filter Filter) ([]Lot, error) {
	var out []Lot
	for _, lot := range m.lots {
		if filter.Status != "" && lot.Status != filter.Status {
			continue
		}
		if filter.Branch != "" && lot.Branch != filter.Branch {
			continue
		}
		if filter.Variety != "" && lot.Variety != filter.Variety {
			continue
		}
		if filter.FibreLength != "" && lot.FibreLength != filter.FibreLength {
			continue
		}
		out = append(out, lot)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryRepo) ListAvailable(ctx context.Context, filter Filter) ([]Lot, error) {
	filter.Status = StatusAvailable
	return m.List(ctx, filter)
}

func (m *memoryRepo) MarkAllocated(ctx context.Context, ids []int64, ref string) error {
	for _, id := range ids {
		lot, ok := m.lots[id]
		if !ok || lot.Status != StatusAvailable {
			return ErrConflict
		}
	}
	for _, id := range ids {
		lot := m.lots[id]
		lot.Status = StatusBlocked
		m.lots[id] = lot
	}
	return nil
}

func (m *memoryRepo) Release(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		lot, ok := m.lots[id]
		if ok && lot.Status == StatusBlocked {
			lot.Status = StatusAvailable
			m.lots[id] = lot
		}
	}
	return nil
}

type noopAudit struct{ count int }

func (n *noopAudit) Record(ctx context.Context, log shared.AuditLog) error {
	n.count++
	return nil
}

func TestIntakeRegistersAvailableLot(t *testing.T) {
	repo := newMemoryRepo()
	audit := &noopAudit{}
	svc := NewService(repo, audit, nil)

	lot, err := svc.Intake(context.Background(), IntakeInput{
		LotNumber:   "GNT-0001",
		Branch:      "Guntur",
		Variety:     "MCU-5",
		FibreLength: "29.5",
		BidPrice:    52000,
	}, 9)
	require.NoError(t, err)
	assert.NotZero(t, lot.ID)
	assert.Equal(t, StatusAvailable, lot.Status)
	assert.Equal(t, 1, audit.count)
}

func TestIntakeRejectsDuplicateLotNumber(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	input := IntakeInput{LotNumber: "GNT-0001", Branch: "Guntur", Variety: "MCU-5", FibreLength: "29.5", BidPrice: 52000}

	_, err := svc.Intake(context.Background(), input, 1)
	require.NoError(t, err)
	_, err = svc.Intake(context.Background(), input, 1)
	require.ErrorIs(t, err, ErrDuplicateLotNumber)
}

func TestMarkAllocatedIsAllOrNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	var ids []int64
	for _, num := range []string{"A-1", "A-2", "A-3"} {
		lot, err := svc.Intake(context.Background(), IntakeInput{LotNumber: num, Branch: "Akola", Variety: "V", FibreLength: "28", BidPrice: 1000}, 1)
		require.NoError(t, err)
		ids = append(ids, lot.ID)
	}

	// Block one lot out-of-band, then the batch must fail whole.
	require.NoError(t, repo.MarkAllocated(context.Background(), ids[:1], "other-order"))
	err := repo.MarkAllocated(context.Background(), ids, "so-1")
	require.ErrorIs(t, err, ErrConflict)

	lot, err := svc.Get(context.Background(), ids[1])
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, lot.Status)
}

func TestListAvailableIsFIFOOrdered(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.Insert(context.Background(), Lot{
			LotNumber: string(rune('A' + i)),
			Branch:    "Guntur",
			Status:    StatusAvailable,
			CreatedAt: base.Add(time.Duration(5-i) * time.Hour),
		})
		require.NoError(t, err)
	}

	lots, err := repo.ListAvailable(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, lots, 5)
	for i := 1; i < len(lots); i++ {
		assert.False(t, lots[i].CreatedAt.Before(lots[i-1].CreatedAt))
	}
}
