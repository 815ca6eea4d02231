package sales

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapas-trade/kapas-trade/internal/allocation"
	"github.com/kapas-trade/kapas-trade/internal/inventory"
)

// memoryStock doubles as candidate source and commit target so the tests
// exercise the full propose/commit handshake.
type memoryStock struct {
	lots map[int64]inventory.Lot
}

func newMemoryStock() *memoryStock {
	return &memoryStock{lots: make(map[int64]inventory.Lot)}
}

func (m *memoryStock) add(id int64, branch string, createdAt time.Time) {
	m.lots[id] = inventory.Lot{
		ID: id, Branch: branch, BidPrice: 1000,
		Status: inventory.StatusAvailable, CreatedAt: createdAt,
	}
}

func (m *memoryStock) ListAvailable(ctx context.Context, filter inventory.Filter) ([]inventory.Lot, error) {
	var out []inventory.Lot
	for _, lot := range m.lots {
		if lot.Status != inventory.StatusAvailable {
			continue
		}
		if filter.Branch != "" && lot.Branch != filter.Branch {
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

func (m *memoryStock) MarkAllocated(ctx context.Context, ids []int64, ref string) error {
	for _, id := range ids {
		lot, ok := m.lots[id]
		if !ok || lot.Status != inventory.StatusAvailable {
			return inventory.ErrConflict
		}
	}
	for _, id := range ids {
		lot := m.lots[id]
		lot.Status = inventory.StatusBlocked
		m.lots[id] = lot
	}
	return nil
}

func (m *memoryStock) Release(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		lot, ok := m.lots[id]
		if ok && lot.Status == inventory.StatusBlocked {
			lot.Status = inventory.StatusAvailable
			m.lots[id] = lot
		}
	}
	return nil
}

type memorySalesRepo struct {
	configs map[int64]Configuration
	orders  map[int64]Order
	nextID  int64
}

func newMemorySalesRepo() *memorySalesRepo {
	return &memorySalesRepo{configs: make(map[int64]Configuration), orders: make(map[int64]Order)}
}

func (m *memorySalesRepo) InsertConfig(ctx context.Context, cfg Configuration) (int64, error) {
	m.nextID++
	cfg.ID = m.nextID
	m.configs[cfg.ID] = cfg
	return cfg.ID, nil
}

func (m *memorySalesRepo) GetConfig(ctx context.Context, id int64) (Configuration, error) {
	cfg, ok := m.configs[id]
	if !ok {
		return Configuration{}, ErrNotFound
	}
	return cfg, nil
}

func (m *memorySalesRepo) InsertOrder(ctx context.Context, order Order) (int64, error) {
	m.nextID++
	order.ID = m.nextID
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memorySalesRepo) GetOrder(ctx context.Context, id int64) (Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return order, nil
}

func (m *memorySalesRepo) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus, confirmedAt *time.Time) error {
	order, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	if confirmedAt != nil {
		order.ConfirmedAt = confirmedAt
	}
	m.orders[id] = order
	return nil
}

func newTestService(stock *memoryStock) (*Service, *memorySalesRepo) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, NewConfigCache(nil, 0), allocation.NewAllocator(stock), stock, nil)
	return svc, repo
}

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestProcessOrderBuildsProposal(t *testing.T) {
	stock := newMemoryStock()
	for i := int64(1); i <= 15; i++ {
		stock.add(i, "Guntur", base.Add(time.Duration(i)*time.Minute))
	}
	svc, _ := newTestService(stock)

	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{
		Name: "Spinner A", RequestedQuantity: 10, PriorityBranch: "Guntur",
	})
	require.NoError(t, err)

	order, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 3)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusProposed, order.Status)
	assert.True(t, order.Proposal.PriorityBranchUsed)
	assert.Len(t, order.Proposal.AutoSelected, 12) // maxAllowed = 12
	assert.False(t, order.Proposal.OutOfStock)

	// Proposing never mutates stock.
	lots, err := stock.ListAvailable(context.Background(), inventory.Filter{})
	require.NoError(t, err)
	assert.Len(t, lots, 15)
}

func TestProcessOrderOutOfStock(t *testing.T) {
	stock := newMemoryStock()
	stock.add(1, "Guntur", base)
	svc, _ := newTestService(stock)

	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{Name: "Spinner B", RequestedQuantity: 5})
	require.NoError(t, err)

	order, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 1)
	require.NoError(t, err)
	assert.True(t, order.Proposal.OutOfStock)
	assert.Empty(t, order.Proposal.AutoSelected)
}

func TestProcessOrderUnknownConfig(t *testing.T) {
	svc, _ := newTestService(newMemoryStock())
	_, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: 404}, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmBlocksProposedLots(t *testing.T) {
	stock := newMemoryStock()
	for i := int64(1); i <= 10; i++ {
		stock.add(i, "Guntur", base.Add(time.Duration(i)*time.Minute))
	}
	svc, _ := newTestService(stock)

	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{Name: "Spinner C", RequestedQuantity: 5})
	require.NoError(t, err)
	order, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 1)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// The proposed lots are gone from the available pool.
	lots, err := stock.ListAvailable(context.Background(), inventory.Filter{})
	require.NoError(t, err)
	assert.Len(t, lots, 10-len(order.Proposal.AutoSelected))
}

func TestConfirmLosesRaceSurfacesConflict(t *testing.T) {
	stock := newMemoryStock()
	for i := int64(1); i <= 6; i++ {
		stock.add(i, "Guntur", base.Add(time.Duration(i)*time.Minute))
	}
	svc, _ := newTestService(stock)

	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{Name: "Spinner D", RequestedQuantity: 5})
	require.NoError(t, err)

	// Two orders proposed over the same pool: the classic race window.
	first, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 1)
	require.NoError(t, err)
	second, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 2)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), first.ID, 1)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), second.ID, 2)
	require.ErrorIs(t, err, inventory.ErrConflict)
}

func TestConfirmRejectsOutOfStockProposal(t *testing.T) {
	stock := newMemoryStock()
	svc, _ := newTestService(stock)

	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{Name: "Spinner E", RequestedQuantity: 5})
	require.NoError(t, err)
	order, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 1)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrNothingSelected)
}

func TestConfirmTwiceRejected(t *testing.T) {
	stock := newMemoryStock()
	for i := int64(1); i <= 6; i++ {
		stock.add(i, "Guntur", base.Add(time.Duration(i)*time.Minute))
	}
	svc, _ := newTestService(stock)
	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{Name: "Spinner F", RequestedQuantity: 5})
	require.NoError(t, err)
	order, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 1)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), order.ID, 1)
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancelReleasesConfirmedLots(t *testing.T) {
	stock := newMemoryStock()
	for i := int64(1); i <= 6; i++ {
		stock.add(i, "Guntur", base.Add(time.Duration(i)*time.Minute))
	}
	svc, _ := newTestService(stock)
	cfg, err := svc.CreateConfig(context.Background(), CreateConfigInput{Name: "Spinner G", RequestedQuantity: 5})
	require.NoError(t, err)
	order, err := svc.ProcessOrder(context.Background(), ProcessOrderInput{SalesConfigID: cfg.ID}, 1)
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), order.ID, 1)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)

	lots, err := stock.ListAvailable(context.Background(), inventory.Filter{})
	require.NoError(t, err)
	assert.Len(t, lots, 6)
}
