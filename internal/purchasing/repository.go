package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabrika-mes/fabrika/internal/shared"
	"github.com/fabrika-mes/fabrika/internal/stock"
)

// TxRepository exposes transactional operations used by the service. Ledger
// returns a stock writer bound to the same database transaction, so a receive
// commits status, stock and ledger rows atomically.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	GetItems(ctx context.Context, poID int64) ([]Item, error)
	Create(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertItem(ctx context.Context, item Item) error
	DeleteItems(ctx context.Context, poID int64) error
	UpdateHeader(ctx context.Context, po PurchaseOrder) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	Ledger() stock.TxLedger
}

// Repository persists purchase orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const poColumns = `id, po_number, supplier_id, order_date, status, total, COALESCE(notes,''), created_by, created_at, updated_at`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.OrderDate, &po.Status, &po.Total, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, fmt.Errorf("%w: purchase order", shared.ErrNotFound)
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

// Get returns a purchase order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanPO(r.pool.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		return PurchaseOrder{}, err
	}
	items, err := queryItems(ctx, r.pool, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Items = items
	return po, nil
}

// List returns purchase orders newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filter.Status != "" {
		n++
		where += ` AND status=$` + strconv.Itoa(n)
		args = append(args, string(filter.Status))
	}
	if filter.SupplierID != 0 {
		n++
		where += ` AND supplier_id=$` + strconv.Itoa(n)
		args = append(args, filter.SupplierID)
	}
	if filter.Search != "" {
		n++
		where += ` AND po_number ILIKE $` + strconv.Itoa(n)
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT ` + poColumns + ` FROM purchase_orders` + where +
		` ORDER BY order_date DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []PurchaseOrder{}
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.OrderDate, &po.Status, &po.Total, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, po)
	}
	return orders, total, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, poID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, po_id, material_id, quantity, price, subtotal FROM po_items WHERE po_id=$1 ORDER BY id`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.POID, &item.MaterialID, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	return scanPO(r.tx.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetItems(ctx context.Context, poID int64) ([]Item, error) {
	return queryItems(ctx, r.tx, poID)
}

func (r *txRepository) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_orders (po_number, supplier_id, order_date, status, total, notes, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,NOW(),NOW()) RETURNING id`,
		po.PONumber, po.SupplierID, po.OrderDate, string(po.Status), po.Total, po.Notes, po.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: po_number %s", shared.ErrDuplicate, po.PONumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) InsertItem(ctx context.Context, item Item) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO po_items (po_id, material_id, quantity, price, subtotal)
VALUES ($1,$2,$3,$4,$5)`, item.POID, item.MaterialID, item.Quantity, item.Price, item.Subtotal)
	return err
}

func (r *txRepository) DeleteItems(ctx context.Context, poID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM po_items WHERE po_id=$1`, poID)
	return err
}

func (r *txRepository) UpdateHeader(ctx context.Context, po PurchaseOrder) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET supplier_id=$1, order_date=$2, total=$3, notes=NULLIF($4,''), updated_at=NOW() WHERE id=$5`,
		po.SupplierID, po.OrderDate, po.Total, po.Notes, po.ID)
	return err
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET status=$1, updated_at=NOW() WHERE id=$2`, string(status), id)
	return err
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id=$1`, id)
	return err
}

func (r *txRepository) Ledger() stock.TxLedger {
	return stock.NewTxLedger(r.tx)
}
