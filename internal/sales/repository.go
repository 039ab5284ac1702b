package sales

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
// returns a stock writer bound to the same database transaction, so a shipment
// commits status, stock and ledger rows atomically.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (SalesOrder, error)
	GetItems(ctx context.Context, soID int64) ([]Item, error)
	Create(ctx context.Context, so SalesOrder) (int64, error)
	InsertItem(ctx context.Context, item Item) error
	DeleteItems(ctx context.Context, soID int64) error
	UpdateHeader(ctx context.Context, so SalesOrder) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	Ledger() stock.TxLedger
}

// Repository persists sales orders in PostgreSQL.
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

const soColumns = `id, so_number, customer_id, order_date, status, total, COALESCE(notes,''), created_by, created_at, updated_at`

func scanSO(row pgx.Row) (SalesOrder, error) {
	var so SalesOrder
	err := row.Scan(&so.ID, &so.SONumber, &so.CustomerID, &so.OrderDate, &so.Status, &so.Total, &so.Notes, &so.CreatedBy, &so.CreatedAt, &so.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, fmt.Errorf("%w: sales order", shared.ErrNotFound)
		}
		return SalesOrder{}, err
	}
	return so, nil
}

// Get returns a sales order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (SalesOrder, error) {
	so, err := scanSO(r.pool.QueryRow(ctx, `SELECT `+soColumns+` FROM sales_orders WHERE id=$1`, id))
	if err != nil {
		return SalesOrder{}, err
	}
	items, err := queryItems(ctx, r.pool, id)
	if err != nil {
		return SalesOrder{}, err
	}
	so.Items = items
	return so, nil
}

// List returns sales orders newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filter.Status != "" {
		n++
		where += ` AND status=$` + strconv.Itoa(n)
		args = append(args, string(filter.Status))
	}
	if filter.CustomerID != 0 {
		n++
		where += ` AND customer_id=$` + strconv.Itoa(n)
		args = append(args, filter.CustomerID)
	}
	if filter.Search != "" {
		n++
		where += ` AND so_number ILIKE $` + strconv.Itoa(n)
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT ` + soColumns + ` FROM sales_orders` + where +
		` ORDER BY order_date DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []SalesOrder{}
	for rows.Next() {
		var so SalesOrder
		if err := rows.Scan(&so.ID, &so.SONumber, &so.CustomerID, &so.OrderDate, &so.Status, &so.Total, &so.Notes, &so.CreatedBy, &so.CreatedAt, &so.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, so)
	}
	return orders, total, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, soID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, so_id, product_id, quantity, price, subtotal FROM so_items WHERE so_id=$1 ORDER BY id`, soID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.SOID, &item.ProductID, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (SalesOrder, error) {
	return scanSO(r.tx.QueryRow(ctx, `SELECT `+soColumns+` FROM sales_orders WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) GetItems(ctx context.Context, soID int64) ([]Item, error) {
	return queryItems(ctx, r.tx, soID)
}

func (r *txRepository) Create(ctx context.Context, so SalesOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_orders (so_number, customer_id, order_date, status, total, notes, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,NOW(),NOW()) RETURNING id`,
		so.SONumber, so.CustomerID, so.OrderDate, string(so.Status), so.Total, so.Notes, so.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: so_number %s", shared.ErrDuplicate, so.SONumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) InsertItem(ctx context.Context, item Item) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO so_items (so_id, product_id, quantity, price, subtotal)
VALUES ($1,$2,$3,$4,$5)`, item.SOID, item.ProductID, item.Quantity, item.Price, item.Subtotal)
	return err
}

func (r *txRepository) DeleteItems(ctx context.Context, soID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM so_items WHERE so_id=$1`, soID)
	return err
}

func (r *txRepository) UpdateHeader(ctx context.Context, so SalesOrder) error {
	_, err := r.tx.Exec(ctx, `UPDATE sales_orders SET customer_id=$1, order_date=$2, total=$3, notes=NULLIF($4,''), updated_at=NOW() WHERE id=$5`,
		so.CustomerID, so.OrderDate, so.Total, so.Notes, so.ID)
	return err
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE sales_orders SET status=$1, updated_at=NOW() WHERE id=$2`, string(status), id)
	return err
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM sales_orders WHERE id=$1`, id)
	return err
}

func (r *txRepository) Ledger() stock.TxLedger {
	return stock.NewTxLedger(r.tx)
}
