package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExportLogsBuildsWorkbook(t *testing.T) {
	repo := &fakeRepo{
		ledger: newMemLedger(),
		logs: []Log{
			{ID: 1, ItemType: ItemTypeMaterial, ItemID: 4, MovementType: MovementIn, Quantity: 10, ReferenceType: ReferencePO, ReferenceID: 2, Notes: "Received for PO: PO-1", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
			{ID: 2, ItemType: ItemTypeProduct, ItemID: 7, MovementType: MovementOut, Quantity: 3, ReferenceType: ReferenceSO, ReferenceID: 5, Notes: "Shipped for SO: SO-1", CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		},
	}
	svc := NewService(repo, &memAudit{}, nil)

	f, err := svc.ExportLogs(context.Background(), LogFilter{})
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	rows, err := f.GetRows("Stock Logs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Item Type", rows[0][1])
	require.Equal(t, "material", rows[1][1])
	require.Equal(t, "out", rows[2][3])
}

func TestExportLogsEmptyLedger(t *testing.T) {
	svc := NewService(&fakeRepo{ledger: newMemLedger()}, &memAudit{}, nil)

	f, err := svc.ExportLogs(context.Background(), LogFilter{})
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	rows, err := f.GetRows("Stock Logs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
