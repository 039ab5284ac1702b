package production

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
// returns a stock writer bound to the same database transaction, so a
// completion commits status, material consumption and product receipt
// atomically.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (WorkOrder, error)
	BOMLines(ctx context.Context, productID int64) ([]BOMLine, error)
	Create(ctx context.Context, wo WorkOrder) (int64, error)
	UpdateHeader(ctx context.Context, wo WorkOrder) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	MarkStarted(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, produced int64) error
	Delete(ctx context.Context, id int64) error
	Ledger() stock.TxLedger
}

// Repository persists work orders in PostgreSQL.
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

const woColumns = `id, wo_number, product_id, quantity_planned, quantity_produced, status, start_date, completion_date, COALESCE(notes,''), created_by, created_at, updated_at`

func scanWO(row pgx.Row) (WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(&wo.ID, &wo.WONumber, &wo.ProductID, &wo.QuantityPlanned, &wo.QuantityProduced, &wo.Status, &wo.StartDate, &wo.CompletionDate, &wo.Notes, &wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorkOrder{}, fmt.Errorf("%w: work order", shared.ErrNotFound)
		}
		return WorkOrder{}, err
	}
	return wo, nil
}

// Get returns one work order.
func (r *Repository) Get(ctx context.Context, id int64) (WorkOrder, error) {
	return scanWO(r.pool.QueryRow(ctx, `SELECT `+woColumns+` FROM work_orders WHERE id=$1`, id))
}

// List returns work orders newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]WorkOrder, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filter.Status != "" {
		n++
		where += ` AND status=$` + strconv.Itoa(n)
		args = append(args, string(filter.Status))
	}
	if filter.ProductID != 0 {
		n++
		where += ` AND product_id=$` + strconv.Itoa(n)
		args = append(args, filter.ProductID)
	}
	if filter.Search != "" {
		n++
		where += ` AND wo_number ILIKE $` + strconv.Itoa(n)
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM work_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := `SELECT ` + woColumns + ` FROM work_orders` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []WorkOrder{}
	for rows.Next() {
		var wo WorkOrder
		if err := rows.Scan(&wo.ID, &wo.WONumber, &wo.ProductID, &wo.QuantityPlanned, &wo.QuantityProduced, &wo.Status, &wo.StartDate, &wo.CompletionDate, &wo.Notes, &wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, wo)
	}
	return orders, total, rows.Err()
}

// Requirements computes the material preview for a work order without
// touching any state. Shortage is clamped at zero.
func (r *Repository) Requirements(ctx context.Context, id int64) ([]Requirement, error) {
	wo, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT b.material_id, m.name, b.quantity * $1, m.stock,
GREATEST(b.quantity * $1 - m.stock, 0)
FROM bom_lines b JOIN raw_materials m ON m.id = b.material_id
WHERE b.product_id = $2 ORDER BY b.material_id`, wo.QuantityPlanned, wo.ProductID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := []Requirement{}
	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.MaterialID, &req.MaterialName, &req.RequiredQuantity, &req.CurrentStock, &req.Shortage); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (WorkOrder, error) {
	return scanWO(r.tx.QueryRow(ctx, `SELECT `+woColumns+` FROM work_orders WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) BOMLines(ctx context.Context, productID int64) ([]BOMLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT material_id, quantity FROM bom_lines WHERE product_id=$1 ORDER BY material_id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []BOMLine{}
	for rows.Next() {
		var line BOMLine
		if err := rows.Scan(&line.MaterialID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *txRepository) Create(ctx context.Context, wo WorkOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO work_orders (wo_number, product_id, quantity_planned, quantity_produced, status, notes, created_by, created_at, updated_at)
VALUES ($1,$2,$3,0,$4,NULLIF($5,''),$6,NOW(),NOW()) RETURNING id`,
		wo.WONumber, wo.ProductID, wo.QuantityPlanned, string(wo.Status), wo.Notes, wo.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: wo_number %s", shared.ErrDuplicate, wo.WONumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) UpdateHeader(ctx context.Context, wo WorkOrder) error {
	_, err := r.tx.Exec(ctx, `UPDATE work_orders SET product_id=$1, quantity_planned=$2, notes=NULLIF($3,''), updated_at=NOW() WHERE id=$4`,
		wo.ProductID, wo.QuantityPlanned, wo.Notes, wo.ID)
	return err
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE work_orders SET status=$1, updated_at=NOW() WHERE id=$2`, string(status), id)
	return err
}

func (r *txRepository) MarkStarted(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE work_orders SET status=$1, start_date=NOW(), updated_at=NOW() WHERE id=$2`, string(StatusInProgress), id)
	return err
}

func (r *txRepository) MarkCompleted(ctx context.Context, id int64, produced int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE work_orders SET status=$1, quantity_produced=$2, completion_date=NOW(), updated_at=NOW() WHERE id=$3`,
		string(StatusCompleted), produced, id)
	return err
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM work_orders WHERE id=$1`, id)
	return err
}

func (r *txRepository) Ledger() stock.TxLedger {
	return stock.NewTxLedger(r.tx)
}
