package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fabrika-mes/fabrika/internal/shared"
	"github.com/fabrika-mes/fabrika/internal/stock"
)

type memStore struct {
	orders    map[int64]SalesOrder
	items     map[int64][]Item
	stock     map[int64]int64
	logs      []stock.Movement
	nextID    int64
	nextLogID int64
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[int64]SalesOrder{},
		items:  map[int64][]Item{},
		stock:  map[int64]int64{},
		nextID: 1,
	}
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.nextID = s.nextID
	cp.nextLogID = s.nextLogID
	for id, so := range s.orders {
		cp.orders[id] = so
	}
	for id, items := range s.items {
		cp.items[id] = append([]Item(nil), items...)
	}
	for id, qty := range s.stock {
		cp.stock[id] = qty
	}
	cp.logs = append([]stock.Movement(nil), s.logs...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.orders = from.orders
	s.items = from.items
	s.stock = from.stock
	s.logs = from.logs
	s.nextID = from.nextID
	s.nextLogID = from.nextLogID
}

type fakeRepo struct {
	store *memStore
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := r.store.snapshot()
	if err := fn(ctx, &fakeTx{store: r.store}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (SalesOrder, error) {
	so, ok := r.store.orders[id]
	if !ok {
		return SalesOrder{}, fmt.Errorf("%w: sales order %d", shared.ErrNotFound, id)
	}
	so.Items = append([]Item(nil), r.store.items[id]...)
	return so, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error) {
	out := []SalesOrder{}
	for _, so := range r.store.orders {
		if filter.Status != "" && so.Status != filter.Status {
			continue
		}
		out = append(out, so)
	}
	return out, len(out), nil
}

type fakeTx struct {
	store *memStore
}

func (t *fakeTx) GetForUpdate(ctx context.Context, id int64) (SalesOrder, error) {
	so, ok := t.store.orders[id]
	if !ok {
		return SalesOrder{}, fmt.Errorf("%w: sales order %d", shared.ErrNotFound, id)
	}
	return so, nil
}

func (t *fakeTx) GetItems(ctx context.Context, soID int64) ([]Item, error) {
	return append([]Item(nil), t.store.items[soID]...), nil
}

func (t *fakeTx) Create(ctx context.Context, so SalesOrder) (int64, error) {
	id := t.store.nextID
	t.store.nextID++
	so.ID = id
	t.store.orders[id] = so
	return id, nil
}

func (t *fakeTx) InsertItem(ctx context.Context, item Item) error {
	t.store.items[item.SOID] = append(t.store.items[item.SOID], item)
	return nil
}

func (t *fakeTx) DeleteItems(ctx context.Context, soID int64) error {
	delete(t.store.items, soID)
	return nil
}

func (t *fakeTx) UpdateHeader(ctx context.Context, so SalesOrder) error {
	so.Items = nil
	t.store.orders[so.ID] = so
	return nil
}

func (t *fakeTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	so := t.store.orders[id]
	so.Status = status
	t.store.orders[id] = so
	return nil
}

func (t *fakeTx) Delete(ctx context.Context, id int64) error {
	delete(t.store.orders, id)
	return nil
}

func (t *fakeTx) Ledger() stock.TxLedger {
	return &fakeLedger{store: t.store}
}

type fakeLedger struct {
	store *memStore
}

func (l *fakeLedger) AdjustStock(ctx context.Context, itemType stock.ItemType, itemID int64, direction stock.Direction, qty int64) (int64, error) {
	current, ok := l.store.stock[itemID]
	if !ok {
		return 0, fmt.Errorf("%w: %s %d", shared.ErrNotFound, itemType, itemID)
	}
	delta := qty
	if direction == stock.DirectionOut {
		delta = -qty
	}
	updated := current + delta
	if updated < 0 {
		return 0, fmt.Errorf("%w: %s %d has %d, need %d", shared.ErrInsufficientStock, itemType, itemID, current, qty)
	}
	l.store.stock[itemID] = updated
	return updated, nil
}

func (l *fakeLedger) LogMovement(ctx context.Context, m stock.Movement) (int64, error) {
	l.store.nextLogID++
	l.store.logs = append(l.store.logs, m)
	return l.store.nextLogID, nil
}

func seedOrder(store *memStore, status Status, items ...Item) int64 {
	id := store.nextID
	store.nextID++
	store.orders[id] = SalesOrder{ID: id, SONumber: fmt.Sprintf("SO-%d", 2000+id), CustomerID: 1, Status: status}
	for i := range items {
		items[i].SOID = id
	}
	store.items[id] = items
	return id
}

func newFixture() (*Service, *memStore) {
	store := newMemStore()
	return NewService(&fakeRepo{store: store}, nil), store
}

func TestShipDecrementsStockAndLogs(t *testing.T) {
	svc, store := newFixture()
	store.stock[10] = 8
	store.stock[11] = 2
	id := seedOrder(store, StatusConfirmed,
		Item{ProductID: 10, Quantity: 5},
		Item{ProductID: 11, Quantity: 2},
	)

	result, err := svc.Ship(context.Background(), id, 4)
	require.NoError(t, err)
	require.Equal(t, StatusShipped, result.Status)
	require.Len(t, result.StockLogIDs, 2)

	require.Equal(t, int64(3), store.stock[10])
	require.Equal(t, int64(0), store.stock[11])
	require.Equal(t, StatusShipped, store.orders[id].Status)

	require.Len(t, store.logs, 2)
	first := store.logs[0]
	require.Equal(t, stock.ItemTypeProduct, first.ItemType)
	require.Equal(t, stock.MovementOut, first.MovementType)
	require.Equal(t, stock.ReferenceSO, first.ReferenceType)
	require.Equal(t, id, first.ReferenceID)
	require.Equal(t, int64(4), first.CreatedBy)
	require.Contains(t, first.Notes, store.orders[id].SONumber)
}

func TestShipFailsOnInsufficientStock(t *testing.T) {
	svc, store := newFixture()
	store.stock[10] = 8
	store.stock[11] = 1
	id := seedOrder(store, StatusConfirmed,
		Item{ProductID: 10, Quantity: 5},
		Item{ProductID: 11, Quantity: 2},
	)

	_, err := svc.Ship(context.Background(), id, 4)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.Equal(t, int64(8), store.stock[10], "first line must be rolled back")
	require.Equal(t, int64(1), store.stock[11])
	require.Equal(t, StatusConfirmed, store.orders[id].Status)
	require.Empty(t, store.logs)
}

func TestShipRejectsWrongStatus(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusShipped, StatusCompleted, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			svc, store := newFixture()
			store.stock[10] = 8
			id := seedOrder(store, status, Item{ProductID: 10, Quantity: 5})

			_, err := svc.Ship(context.Background(), id, 4)
			require.ErrorIs(t, err, shared.ErrInvalidTransition)
			require.Equal(t, int64(8), store.stock[10])
			require.Empty(t, store.logs)
		})
	}
}

func TestCompleteMovesNoStock(t *testing.T) {
	svc, store := newFixture()
	store.stock[10] = 8
	id := seedOrder(store, StatusShipped, Item{ProductID: 10, Quantity: 5})

	so, err := svc.Complete(context.Background(), id, 4)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, so.Status)
	require.Equal(t, int64(8), store.stock[10])
	require.Empty(t, store.logs)
}

func TestCancelOnlyBeforeShipping(t *testing.T) {
	cases := []struct {
		status Status
		ok     bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusShipped, false},
		{StatusCompleted, false},
		{StatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			svc, store := newFixture()
			id := seedOrder(store, tc.status, Item{ProductID: 10, Quantity: 1})

			_, err := svc.Cancel(context.Background(), id, 4)
			if tc.ok {
				require.NoError(t, err)
				require.Equal(t, StatusCancelled, store.orders[id].Status)
			} else {
				require.ErrorIs(t, err, shared.ErrInvalidTransition)
				require.Equal(t, tc.status, store.orders[id].Status)
			}
		})
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc, store := newFixture()

	so, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		CreatedBy:  4,
		Items: []ItemInput{
			{ProductID: 10, Quantity: 2, Price: decimal.RequireFromString("19.99")},
			{ProductID: 11, Quantity: 1, Price: decimal.RequireFromString("5.02")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, so.Status)
	require.NotEmpty(t, so.SONumber)
	require.True(t, so.Total.Equal(decimal.RequireFromString("45.00")), "total %s", so.Total)
	require.Len(t, store.items[so.ID], 2)
}

func TestUpdateRefusesShippedOrders(t *testing.T) {
	for _, status := range []Status{StatusShipped, StatusCompleted, StatusCancelled} {
		svc, store := newFixture()
		id := seedOrder(store, status, Item{ProductID: 10, Quantity: 1})

		_, err := svc.Update(context.Background(), id, UpdateInput{Notes: "changed"})
		require.ErrorIs(t, err, shared.ErrInvalidTransition)
	}
}
