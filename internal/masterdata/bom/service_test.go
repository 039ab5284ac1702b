package bom

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

type memRepo struct {
	lines  map[int64]Line
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{lines: map[int64]Line{}, nextID: 1}
}

func (m *memRepo) ListByProduct(_ context.Context, productID int64) ([]Line, error) {
	out := []Line{}
	for _, l := range m.lines {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Line, error) {
	l, ok := m.lines[id]
	if !ok {
		return Line{}, fmt.Errorf("%w: bom line %d", shared.ErrNotFound, id)
	}
	return l, nil
}

func (m *memRepo) Create(_ context.Context, line Line) (Line, error) {
	for _, existing := range m.lines {
		if existing.ProductID == line.ProductID && existing.MaterialID == line.MaterialID {
			return Line{}, fmt.Errorf("%w: product %d already has a bom line for material %d",
				shared.ErrDuplicate, line.ProductID, line.MaterialID)
		}
	}
	line.ID = m.nextID
	m.nextID++
	m.lines[line.ID] = line
	return line, nil
}

func (m *memRepo) Update(_ context.Context, id int64, quantity int64) error {
	l, ok := m.lines[id]
	if !ok {
		return fmt.Errorf("%w: bom line %d", shared.ErrNotFound, id)
	}
	l.Quantity = quantity
	m.lines[id] = l
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.lines[id]; !ok {
		return fmt.Errorf("%w: bom line %d", shared.ErrNotFound, id)
	}
	delete(m.lines, id)
	return nil
}

func TestCreateRejectsDuplicatePair(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Create(context.Background(), Line{ProductID: 1, MaterialID: 5, Quantity: 2})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Line{ProductID: 1, MaterialID: 5, Quantity: 3})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Create(context.Background(), Line{ProductID: 2, MaterialID: 5, Quantity: 3})
	require.NoError(t, err)
}

func TestCreateValidatesLine(t *testing.T) {
	svc := NewService(newMemRepo())

	cases := []Line{
		{ProductID: 0, MaterialID: 5, Quantity: 2},
		{ProductID: 1, MaterialID: 0, Quantity: 2},
		{ProductID: 1, MaterialID: 5, Quantity: 0},
	}
	for _, line := range cases {
		_, err := svc.Create(context.Background(), line)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestUpdateOnlyChangesQuantity(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Line{ProductID: 1, MaterialID: 5, Quantity: 2})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), updated.Quantity)
	require.Equal(t, created.ProductID, updated.ProductID)
	require.Equal(t, created.MaterialID, updated.MaterialID)

	_, err = svc.Update(context.Background(), created.ID, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListByProductRequiresID(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.ListByProduct(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}
