package products

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
	List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, p Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, sku, name, COALESCE(type,''), unit_price, stock, min_stock, status, created_at, updated_at`

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Type, &p.UnitPrice, &p.Stock, &p.MinStock, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product", shared.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error) {
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
	if filters.LowStock {
		where += ` AND stock <= min_stock`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM products` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Type, &p.UnitPrice, &p.Stock, &p.MinStock, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO products (sku, name, type, unit_price, stock, min_stock, status, created_at, updated_at)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		p.SKU, p.Name, p.Type, p.UnitPrice, p.Stock, p.MinStock, p.Status).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapPgError(err, p.SKU)
	}
	return p, nil
}

// Update never touches the stock column; stock changes only go through the
// movement ledger.
func (r *repository) Update(ctx context.Context, id int64, p Product) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET sku=$1, name=$2, type=NULLIF($3,''), unit_price=$4, min_stock=$5, status=$6, updated_at=NOW() WHERE id=$7`,
		p.SKU, p.Name, p.Type, p.UnitPrice, p.MinStock, p.Status, id)
	if err != nil {
		return mapPgError(err, p.SKU)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: product is referenced by orders or BOM lines", shared.ErrValidation)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
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
