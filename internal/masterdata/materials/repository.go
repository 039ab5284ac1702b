package materials

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/fabrika-mes/fabrika/internal/masterdata/shared"
	"github.com/fabrika-mes/fabrika/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]RawMaterial, int, error)
	Get(ctx context.Context, id int64) (RawMaterial, error)
	Create(ctx context.Context, m RawMaterial) (RawMaterial, error)
	Update(ctx context.Context, id int64, m RawMaterial) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, sku, name, unit, unit_price, stock, min_stock, supplier_id, status, created_at, updated_at`

func scan(row pgx.Row) (RawMaterial, error) {
	var m RawMaterial
	err := row.Scan(&m.ID, &m.SKU, &m.Name, &m.Unit, &m.UnitPrice, &m.Stock, &m.MinStock, &m.SupplierID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RawMaterial{}, fmt.Errorf("%w: raw material", shared.ErrNotFound)
		}
		return RawMaterial{}, err
	}
	return m, nil
}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]RawMaterial, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filters.Search != "" {
		n++
		where += ` AND (name ILIKE $` + strconv.Itoa(n) + ` OR sku ILIKE $` + strconv.Itoa(n) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		n++
		where += ` AND status=$` + strconv.Itoa(n)
		args = append(args, filters.Status)
	}
	if filters.SupplierID != nil {
		n++
		where += ` AND supplier_id=$` + strconv.Itoa(n)
		args = append(args, *filters.SupplierID)
	}
	if filters.LowStock {
		where += ` AND stock <= min_stock`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM raw_materials`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM raw_materials` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []RawMaterial{}
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(&m.ID, &m.SKU, &m.Name, &m.Unit, &m.UnitPrice, &m.Stock, &m.MinStock, &m.SupplierID, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (RawMaterial, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM raw_materials WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, m RawMaterial) (RawMaterial, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO raw_materials (sku, name, unit, unit_price, stock, min_stock, supplier_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		m.SKU, m.Name, m.Unit, m.UnitPrice, m.Stock, m.MinStock, m.SupplierID, m.Status).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return RawMaterial{}, mapPgError(err, m.SKU)
	}
	return m, nil
}

// Update never touches the stock column; stock changes only go through the
// movement ledger.
func (r *repository) Update(ctx context.Context, id int64, m RawMaterial) error {
	tag, err := r.db.Exec(ctx, `UPDATE raw_materials SET sku=$1, name=$2, unit=$3, unit_price=$4, min_stock=$5, supplier_id=$6, status=$7, updated_at=NOW() WHERE id=$8`,
		m.SKU, m.Name, m.Unit, m.UnitPrice, m.MinStock, m.SupplierID, m.Status, id)
	if err != nil {
		return mapPgError(err, m.SKU)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: raw material %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM raw_materials WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: raw material is referenced by orders or BOM lines", shared.ErrValidation)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: raw material %d", shared.ErrNotFound, id)
	}
	return nil
}

func mapPgError(err error, sku string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: sku %s", shared.ErrDuplicate, sku)
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == mdshared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "sku":
		return "sku " + dir
	case "stock":
		return "stock " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
