package materials

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

type fakeRepo struct {
	byID   map[int64]RawMaterial
	bySKU  map[string]int64
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[int64]RawMaterial{}, bySKU: map[string]int64{}, nextID: 1}
}

func (r *fakeRepo) List(ctx context.Context, filters mdshared.ListFilters) ([]RawMaterial, int, error) {
	out := []RawMaterial{}
	for _, m := range r.byID {
		if filters.LowStock && m.Stock > m.MinStock {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (RawMaterial, error) {
	m, ok := r.byID[id]
	if !ok {
		return RawMaterial{}, fmt.Errorf("%w: raw material %d", shared.ErrNotFound, id)
	}
	return m, nil
}

func (r *fakeRepo) Create(ctx context.Context, m RawMaterial) (RawMaterial, error) {
	if _, exists := r.bySKU[m.SKU]; exists {
		return RawMaterial{}, fmt.Errorf("%w: sku %s", shared.ErrDuplicate, m.SKU)
	}
	m.ID = r.nextID
	r.nextID++
	r.byID[m.ID] = m
	r.bySKU[m.SKU] = m.ID
	return m, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int64, m RawMaterial) error {
	old, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: raw material %d", shared.ErrNotFound, id)
	}
	m.ID = id
	m.Stock = old.Stock
	r.byID[id] = m
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: raw material %d", shared.ErrNotFound, id)
	}
	delete(r.byID, id)
	return nil
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(newFakeRepo())

	cases := []struct {
		name string
		m    RawMaterial
	}{
		{"missing sku", RawMaterial{Name: "Steel", Unit: "kg"}},
		{"missing name", RawMaterial{SKU: "MAT-1", Unit: "kg"}},
		{"missing unit", RawMaterial{SKU: "MAT-1", Name: "Steel"}},
		{"negative price", RawMaterial{SKU: "MAT-1", Name: "Steel", Unit: "kg", UnitPrice: decimal.NewFromInt(-1)}},
		{"negative min stock", RawMaterial{SKU: "MAT-1", Name: "Steel", Unit: "kg", MinStock: -1}},
		{"bad status", RawMaterial{SKU: "MAT-1", Name: "Steel", Unit: "kg", Status: "archived"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.m)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	svc := NewService(newFakeRepo())

	m, err := svc.Create(context.Background(), RawMaterial{SKU: "MAT-1", Name: "Steel", Unit: "kg"})
	require.NoError(t, err)
	require.Equal(t, mdshared.StatusActive, m.Status)

	_, err = svc.Create(context.Background(), RawMaterial{SKU: "MAT-1", Name: "Copper", Unit: "kg"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdatePreservesStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	m, err := svc.Create(context.Background(), RawMaterial{SKU: "MAT-1", Name: "Steel", Unit: "kg", Stock: 40})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), m.ID, RawMaterial{SKU: "MAT-1", Name: "Steel Rod", Unit: "kg", Stock: 999})
	require.NoError(t, err)
	require.Equal(t, "Steel Rod", updated.Name)
	require.Equal(t, int64(40), updated.Stock, "stock only changes through the movement ledger")
}

func TestListLowStockFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), RawMaterial{SKU: "MAT-1", Name: "Steel", Unit: "kg", Stock: 5, MinStock: 10})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), RawMaterial{SKU: "MAT-2", Name: "Copper", Unit: "kg", Stock: 50, MinStock: 10})
	require.NoError(t, err)

	low, total, err := svc.List(context.Background(), mdshared.ListFilters{LowStock: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "MAT-1", low[0].SKU)
}
