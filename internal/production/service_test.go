package production

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabrika-mes/fabrika/internal/shared"
	"github.com/fabrika-mes/fabrika/internal/stock"
)

type memStore struct {
	orders    map[int64]WorkOrder
	bom       map[int64][]BOMLine
	materials map[int64]int64
	products  map[int64]int64
	logs      []stock.Movement
	nextID    int64
	nextLogID int64
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[int64]WorkOrder{},
		bom:       map[int64][]BOMLine{},
		materials: map[int64]int64{},
		products:  map[int64]int64{},
		nextID:    1,
	}
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.nextID = s.nextID
	cp.nextLogID = s.nextLogID
	for id, wo := range s.orders {
		cp.orders[id] = wo
	}
	for id, lines := range s.bom {
		cp.bom[id] = append([]BOMLine(nil), lines...)
	}
	for id, qty := range s.materials {
		cp.materials[id] = qty
	}
	for id, qty := range s.products {
		cp.products[id] = qty
	}
	cp.logs = append([]stock.Movement(nil), s.logs...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.orders = from.orders
	s.bom = from.bom
	s.materials = from.materials
	s.products = from.products
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

func (r *fakeRepo) Get(ctx context.Context, id int64) (WorkOrder, error) {
	wo, ok := r.store.orders[id]
	if !ok {
		return WorkOrder{}, fmt.Errorf("%w: work order %d", shared.ErrNotFound, id)
	}
	return wo, nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error) {
	out := []WorkOrder{}
	for _, wo := range r.store.orders {
		if filter.Status != "" && wo.Status != filter.Status {
			continue
		}
		out = append(out, wo)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Requirements(ctx context.Context, id int64) ([]Requirement, error) {
	wo, ok := r.store.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: work order %d", shared.ErrNotFound, id)
	}
	reqs := []Requirement{}
	for _, line := range r.store.bom[wo.ProductID] {
		required := line.Quantity * wo.QuantityPlanned
		current := r.store.materials[line.MaterialID]
		shortage := required - current
		if shortage < 0 {
			shortage = 0
		}
		reqs = append(reqs, Requirement{
			MaterialID:       line.MaterialID,
			RequiredQuantity: required,
			CurrentStock:     current,
			Shortage:         shortage,
		})
	}
	return reqs, nil
}

type fakeTx struct {
	store *memStore
}

func (t *fakeTx) GetForUpdate(ctx context.Context, id int64) (WorkOrder, error) {
	wo, ok := t.store.orders[id]
	if !ok {
		return WorkOrder{}, fmt.Errorf("%w: work order %d", shared.ErrNotFound, id)
	}
	return wo, nil
}

func (t *fakeTx) BOMLines(ctx context.Context, productID int64) ([]BOMLine, error) {
	return append([]BOMLine(nil), t.store.bom[productID]...), nil
}

func (t *fakeTx) Create(ctx context.Context, wo WorkOrder) (int64, error) {
	id := t.store.nextID
	t.store.nextID++
	wo.ID = id
	t.store.orders[id] = wo
	return id, nil
}

func (t *fakeTx) UpdateHeader(ctx context.Context, wo WorkOrder) error {
	t.store.orders[wo.ID] = wo
	return nil
}

func (t *fakeTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	wo := t.store.orders[id]
	wo.Status = status
	t.store.orders[id] = wo
	return nil
}

func (t *fakeTx) MarkStarted(ctx context.Context, id int64) error {
	return t.UpdateStatus(ctx, id, StatusInProgress)
}

func (t *fakeTx) MarkCompleted(ctx context.Context, id int64, produced int64) error {
	wo := t.store.orders[id]
	wo.Status = StatusCompleted
	wo.QuantityProduced = produced
	t.store.orders[id] = wo
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
	table := l.store.materials
	if itemType == stock.ItemTypeProduct {
		table = l.store.products
	}
	current, ok := table[itemID]
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
	table[itemID] = updated
	return updated, nil
}

func (l *fakeLedger) LogMovement(ctx context.Context, m stock.Movement) (int64, error) {
	l.store.nextLogID++
	l.store.logs = append(l.store.logs, m)
	return l.store.nextLogID, nil
}

func seedOrder(store *memStore, status Status, productID, planned int64) int64 {
	id := store.nextID
	store.nextID++
	store.orders[id] = WorkOrder{
		ID:              id,
		WONumber:        fmt.Sprintf("WO-%d", 3000+id),
		ProductID:       productID,
		QuantityPlanned: planned,
		Status:          status,
	}
	return id
}

func newFixture() (*Service, *memStore) {
	store := newMemStore()
	return NewService(&fakeRepo{store: store}, nil), store
}

func TestCompleteConsumesMaterialsAndProducesStock(t *testing.T) {
	svc, store := newFixture()
	store.bom[1] = []BOMLine{{MaterialID: 5, Quantity: 2}}
	store.materials[5] = 25
	store.products[1] = 0
	id := seedOrder(store, StatusInProgress, 1, 10)

	result, err := svc.Complete(context.Background(), id, 9, 10)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, int64(10), result.QuantityProduced)
	require.Len(t, result.StockLogIDs, 2)

	require.Equal(t, int64(5), store.materials[5])
	require.Equal(t, int64(10), store.products[1])

	wo := store.orders[id]
	require.Equal(t, StatusCompleted, wo.Status)
	require.Equal(t, int64(10), wo.QuantityProduced)

	require.Len(t, store.logs, 2)
	consume, produce := store.logs[0], store.logs[1]
	require.Equal(t, stock.ItemTypeMaterial, consume.ItemType)
	require.Equal(t, stock.MovementOut, consume.MovementType)
	require.Equal(t, int64(20), consume.Quantity)
	require.Equal(t, stock.ReferenceWO, consume.ReferenceType)
	require.Equal(t, stock.ItemTypeProduct, produce.ItemType)
	require.Equal(t, stock.MovementIn, produce.MovementType)
	require.Equal(t, int64(10), produce.Quantity)
	require.Equal(t, int64(9), produce.CreatedBy)
}

func TestCompleteRejectsQuantityOutOfRange(t *testing.T) {
	for _, produced := range []int64{0, -1, 15} {
		t.Run(fmt.Sprintf("produced=%d", produced), func(t *testing.T) {
			svc, store := newFixture()
			store.bom[1] = []BOMLine{{MaterialID: 5, Quantity: 2}}
			store.materials[5] = 100
			store.products[1] = 0
			id := seedOrder(store, StatusInProgress, 1, 10)

			_, err := svc.Complete(context.Background(), id, 9, produced)
			require.ErrorIs(t, err, shared.ErrValidation)
			require.Equal(t, int64(100), store.materials[5])
			require.Equal(t, StatusInProgress, store.orders[id].Status)
			require.Empty(t, store.logs)
		})
	}
}

func TestCompleteBlocksOnMaterialShortage(t *testing.T) {
	svc, store := newFixture()
	store.bom[1] = []BOMLine{
		{MaterialID: 5, Quantity: 2},
		{MaterialID: 6, Quantity: 3},
	}
	store.materials[5] = 100
	store.materials[6] = 10
	store.products[1] = 0
	id := seedOrder(store, StatusInProgress, 1, 10)

	_, err := svc.Complete(context.Background(), id, 9, 10)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.Equal(t, int64(100), store.materials[5], "first line must be rolled back")
	require.Equal(t, int64(10), store.materials[6])
	require.Equal(t, int64(0), store.products[1])
	require.Equal(t, StatusInProgress, store.orders[id].Status)
	require.Empty(t, store.logs)
}

func TestCompleteRejectsWrongStatus(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusCompleted, StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			svc, store := newFixture()
			store.bom[1] = []BOMLine{{MaterialID: 5, Quantity: 2}}
			store.materials[5] = 100
			store.products[1] = 0
			id := seedOrder(store, status, 1, 10)

			_, err := svc.Complete(context.Background(), id, 9, 10)
			require.ErrorIs(t, err, shared.ErrInvalidTransition)
			require.Empty(t, store.logs)
		})
	}
}

func TestStartAndCancel(t *testing.T) {
	svc, store := newFixture()
	id := seedOrder(store, StatusPending, 1, 10)

	wo, err := svc.Start(context.Background(), id, 9)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, wo.Status)

	_, err = svc.Cancel(context.Background(), id, 9)
	require.ErrorIs(t, err, shared.ErrInvalidTransition, "running orders cannot be cancelled")

	pending := seedOrder(store, StatusPending, 1, 10)
	wo, err = svc.Cancel(context.Background(), pending, 9)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, wo.Status)
}

func TestRequirementsComputesShortage(t *testing.T) {
	svc, store := newFixture()
	store.bom[1] = []BOMLine{
		{MaterialID: 5, Quantity: 2},
		{MaterialID: 6, Quantity: 1},
	}
	store.materials[5] = 15
	store.materials[6] = 30
	id := seedOrder(store, StatusPending, 1, 10)

	reqs, err := svc.Requirements(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	require.Equal(t, int64(20), reqs[0].RequiredQuantity)
	require.Equal(t, int64(5), reqs[0].Shortage)
	require.Equal(t, int64(10), reqs[1].RequiredQuantity)
	require.Equal(t, int64(0), reqs[1].Shortage)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Create(context.Background(), CreateInput{ProductID: 0, QuantityPlanned: 5})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{ProductID: 1, QuantityPlanned: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	wo, err := svc.Create(context.Background(), CreateInput{ProductID: 1, QuantityPlanned: 5, CreatedBy: 9})
	require.NoError(t, err)
	require.Equal(t, StatusPending, wo.Status)
	require.NotEmpty(t, wo.WONumber)
}
