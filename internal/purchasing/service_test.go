package purchasing

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
	orders    map[int64]PurchaseOrder
	items     map[int64][]Item
	stock     map[int64]int64
	logs      []stock.Movement
	nextID    int64
	nextLogID int64
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[int64]PurchaseOrder{},
		items:  map[int64][]Item{},
		stock:  map[int64]int64{},
		nextID: 1,
	}
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.nextID = s.nextID
	cp.nextLogID = s.nextLogID
	for id, po := range s.orders {
		cp.orders[id] = po
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

func (r *fakeRepo) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, ok := r.store.orders[id]
	if !ok {
		return PurchaseOrder{}, fmt.Errorf("%w: purchase order %d", shared.ErrNotFound, id)
	}
	po.Items = append([]Item(nil), r.store.items[id]...)
	return po, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	out := []PurchaseOrder{}
	for _, po := range r.store.orders {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		out = append(out, po)
	}
	return out, len(out), nil
}

type fakeTx struct {
	store *memStore
}

func (t *fakeTx) GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, ok := t.store.orders[id]
	if !ok {
		return PurchaseOrder{}, fmt.Errorf("%w: purchase order %d", shared.ErrNotFound, id)
	}
	return po, nil
}

func (t *fakeTx) GetItems(ctx context.Context, poID int64) ([]Item, error) {
	return append([]Item(nil), t.store.items[poID]...), nil
}

func (t *fakeTx) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	id := t.store.nextID
	t.store.nextID++
	po.ID = id
	t.store.orders[id] = po
	return id, nil
}

func (t *fakeTx) InsertItem(ctx context.Context, item Item) error {
	t.store.items[item.POID] = append(t.store.items[item.POID], item)
	return nil
}

func (t *fakeTx) DeleteItems(ctx context.Context, poID int64) error {
	delete(t.store.items, poID)
	return nil
}

func (t *fakeTx) UpdateHeader(ctx context.Context, po PurchaseOrder) error {
	po.Items = nil
	t.store.orders[po.ID] = po
	return nil
}

func (t *fakeTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	po := t.store.orders[id]
	po.Status = status
	t.store.orders[id] = po
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
	store.orders[id] = PurchaseOrder{ID: id, PONumber: fmt.Sprintf("PO-%d", 1000+id), SupplierID: 1, Status: status}
	for i := range items {
		items[i].POID = id
	}
	store.items[id] = items
	return id
}

func newFixture() (*Service, *memStore) {
	store := newMemStore()
	return NewService(&fakeRepo{store: store}, nil), store
}

func TestReceiveIncrementsStockAndLogs(t *testing.T) {
	svc, store := newFixture()
	store.stock[1] = 3
	store.stock[2] = 0
	id := seedOrder(store, StatusApproved,
		Item{MaterialID: 1, Quantity: 10},
		Item{MaterialID: 2, Quantity: 5},
	)

	result, err := svc.Receive(context.Background(), id, 7)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, result.Status)
	require.Len(t, result.StockLogIDs, 2)

	require.Equal(t, int64(13), store.stock[1])
	require.Equal(t, int64(5), store.stock[2])
	require.Equal(t, StatusReceived, store.orders[id].Status)

	require.Len(t, store.logs, 2)
	first := store.logs[0]
	require.Equal(t, stock.ItemTypeMaterial, first.ItemType)
	require.Equal(t, stock.MovementIn, first.MovementType)
	require.Equal(t, stock.ReferencePO, first.ReferenceType)
	require.Equal(t, id, first.ReferenceID)
	require.Equal(t, int64(7), first.CreatedBy)
	require.Contains(t, first.Notes, store.orders[id].PONumber)
}

func TestReceiveRejectsWrongStatus(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusReceived, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			svc, store := newFixture()
			store.stock[1] = 3
			id := seedOrder(store, status, Item{MaterialID: 1, Quantity: 10})

			_, err := svc.Receive(context.Background(), id, 7)
			require.ErrorIs(t, err, shared.ErrInvalidTransition)
			require.Equal(t, int64(3), store.stock[1])
			require.Equal(t, status, store.orders[id].Status)
			require.Empty(t, store.logs)
		})
	}
}

func TestReceiveRollsBackWhenLineFails(t *testing.T) {
	svc, store := newFixture()
	store.stock[1] = 3
	id := seedOrder(store, StatusApproved,
		Item{MaterialID: 1, Quantity: 10},
		Item{MaterialID: 99, Quantity: 5},
	)

	_, err := svc.Receive(context.Background(), id, 7)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Equal(t, int64(3), store.stock[1], "first line must be rolled back")
	require.Equal(t, StatusApproved, store.orders[id].Status)
	require.Empty(t, store.logs)
}

func TestReceiveRequiresItems(t *testing.T) {
	svc, store := newFixture()
	id := seedOrder(store, StatusApproved)

	_, err := svc.Receive(context.Background(), id, 7)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, StatusApproved, store.orders[id].Status)
}

func TestApproveAndCancelTransitions(t *testing.T) {
	svc, store := newFixture()
	id := seedOrder(store, StatusPending, Item{MaterialID: 1, Quantity: 1})

	po, err := svc.Approve(context.Background(), id, 7)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, po.Status)

	_, err = svc.Approve(context.Background(), id, 7)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	po, err = svc.Cancel(context.Background(), id, 7)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, po.Status)

	_, err = svc.Cancel(context.Background(), id, 7)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCreateComputesTotals(t *testing.T) {
	svc, store := newFixture()

	po, err := svc.Create(context.Background(), CreateInput{
		SupplierID: 1,
		CreatedBy:  7,
		Items: []ItemInput{
			{MaterialID: 1, Quantity: 4, Price: decimal.RequireFromString("2.50")},
			{MaterialID: 2, Quantity: 3, Price: decimal.RequireFromString("1.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, po.Status)
	require.NotEmpty(t, po.PONumber)
	require.True(t, po.Total.Equal(decimal.RequireFromString("13.00")), "total %s", po.Total)
	require.Len(t, po.Items, 2)
	require.True(t, po.Items[0].Subtotal.Equal(decimal.RequireFromString("10.00")))
	require.Len(t, store.items[po.ID], 2)
}

func TestCreateRejectsBadItems(t *testing.T) {
	svc, _ := newFixture()

	cases := []struct {
		name  string
		items []ItemInput
	}{
		{"empty", nil},
		{"zero quantity", []ItemInput{{MaterialID: 1, Quantity: 0, Price: decimal.NewFromInt(1)}}},
		{"negative price", []ItemInput{{MaterialID: 1, Quantity: 1, Price: decimal.NewFromInt(-1)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateInput{SupplierID: 1, Items: tc.items})
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestUpdateRefusesClosedOrders(t *testing.T) {
	for _, status := range []Status{StatusReceived, StatusCancelled} {
		svc, store := newFixture()
		id := seedOrder(store, status, Item{MaterialID: 1, Quantity: 1})

		_, err := svc.Update(context.Background(), id, UpdateInput{Notes: "changed"})
		require.ErrorIs(t, err, shared.ErrInvalidTransition)
	}
}

func TestDeleteRefusesReceived(t *testing.T) {
	svc, store := newFixture()
	id := seedOrder(store, StatusReceived, Item{MaterialID: 1, Quantity: 1})

	err := svc.Delete(context.Background(), id)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Contains(t, store.orders, id)

	pending := seedOrder(store, StatusPending, Item{MaterialID: 1, Quantity: 1})
	require.NoError(t, svc.Delete(context.Background(), pending))
	require.NotContains(t, store.orders, pending)
}
