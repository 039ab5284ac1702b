package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

// TxLedger exposes the ledger-writer contract inside one database
// transaction. Order modules obtain a TxLedger bound to their own transaction
// via NewTxLedger so a receive/ship/complete commits stock, ledger and status
// together or not at all.
type TxLedger interface {
	// AdjustStock locks the item row, applies the delta and returns the
	// updated stock. The counter is never allowed below zero.
	AdjustStock(ctx context.Context, itemType ItemType, itemID int64, direction Direction, qty int64) (int64, error)
	// LogMovement appends one immutable ledger row and returns its id. Every
	// successful AdjustStock must be paired with exactly one LogMovement in
	// the same transaction.
	LogMovement(ctx context.Context, m Movement) (int64, error)
}

type txLedger struct {
	tx pgx.Tx
}

// NewTxLedger binds a ledger writer to an open transaction.
func NewTxLedger(tx pgx.Tx) TxLedger {
	return &txLedger{tx: tx}
}

func stockTable(itemType ItemType) (string, error) {
	switch itemType {
	case ItemTypeMaterial:
		return "raw_materials", nil
	case ItemTypeProduct:
		return "products", nil
	default:
		return "", fmt.Errorf("%w: unknown item type %q", shared.ErrValidation, itemType)
	}
}

func (l *txLedger) AdjustStock(ctx context.Context, itemType ItemType, itemID int64, direction Direction, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	table, err := stockTable(itemType)
	if err != nil {
		return 0, err
	}

	var current int64
	err = l.tx.QueryRow(ctx, `SELECT stock FROM `+table+` WHERE id=$1 FOR UPDATE`, itemID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s %d", shared.ErrNotFound, itemType, itemID)
		}
		return 0, err
	}

	updated := current + qty
	if direction == DirectionOut {
		updated = current - qty
	}
	if updated < 0 {
		return 0, fmt.Errorf("%w: %s %d has %d, need %d", shared.ErrInsufficientStock, itemType, itemID, current, qty)
	}

	if _, err := l.tx.Exec(ctx, `UPDATE `+table+` SET stock=$1, updated_at=NOW() WHERE id=$2`, updated, itemID); err != nil {
		return 0, err
	}
	return updated, nil
}

func (l *txLedger) LogMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := l.tx.QueryRow(ctx, `INSERT INTO stock_logs (item_type, item_id, movement_type, quantity, reference_type, reference_id, notes, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW()) RETURNING id`,
		string(m.ItemType), m.ItemID, string(m.MovementType), m.Quantity, string(m.ReferenceType), nullInt(m.ReferenceID), m.Notes, nullInt(m.CreatedBy)).Scan(&id)
	return id, err
}

// Repository persists stock ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction with a
// ledger writer bound to it. Used by manual adjustments; order modules run
// their own transactions and call NewTxLedger directly.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, NewTxLedger(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ListLogs returns ledger rows newest first.
func (r *Repository) ListLogs(ctx context.Context, filter LogFilter) ([]Log, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filter.ItemType != "" {
		n++
		where += ` AND item_type=$` + strconv.Itoa(n)
		args = append(args, string(filter.ItemType))
	}
	if filter.ItemID != 0 {
		n++
		where += ` AND item_id=$` + strconv.Itoa(n)
		args = append(args, filter.ItemID)
	}
	if filter.MovementType != "" {
		n++
		where += ` AND movement_type=$` + strconv.Itoa(n)
		args = append(args, string(filter.MovementType))
	}
	if filter.ReferenceType != "" {
		n++
		where += ` AND reference_type=$` + strconv.Itoa(n)
		args = append(args, string(filter.ReferenceType))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT id, item_type, item_id, movement_type, quantity, reference_type, COALESCE(reference_id,0), notes, COALESCE(created_by,0), created_at FROM stock_logs` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.ItemType, &l.ItemID, &l.MovementType, &l.Quantity, &l.ReferenceType, &l.ReferenceID, &l.Notes, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

// MovementsByItem returns the full ledger of one item oldest first, so the
// running balance can be reconstructed client side.
func (r *Repository) MovementsByItem(ctx context.Context, itemType ItemType, itemID int64) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, item_type, item_id, movement_type, quantity, reference_type, COALESCE(reference_id,0), notes, COALESCE(created_by,0), created_at
FROM stock_logs WHERE item_type=$1 AND item_id=$2 ORDER BY created_at ASC, id ASC`, string(itemType), itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.ItemType, &l.ItemID, &l.MovementType, &l.Quantity, &l.ReferenceType, &l.ReferenceID, &l.Notes, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Summary lists current stock per item across both tables.
func (r *Repository) Summary(ctx context.Context) ([]ItemSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT 'material', id, sku, name, stock, min_stock FROM raw_materials WHERE status='active'
UNION ALL
SELECT 'product', id, sku, name, stock, min_stock FROM products WHERE status='active'
ORDER BY 1, 3`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ItemSummary{}
	for rows.Next() {
		var s ItemSummary
		if err := rows.Scan(&s.ItemType, &s.ItemID, &s.SKU, &s.Name, &s.Stock, &s.MinStock); err != nil {
			return nil, err
		}
		s.LowStock = s.Stock <= s.MinStock
		items = append(items, s)
	}
	return items, rows.Err()
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
