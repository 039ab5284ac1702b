package bom

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

type Repository interface {
	ListByProduct(ctx context.Context, productID int64) ([]Line, error)
	Get(ctx context.Context, id int64) (Line, error)
	Create(ctx context.Context, line Line) (Line, error)
	Update(ctx context.Context, id int64, quantity int64) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `b.id, b.product_id, b.material_id, m.name, m.unit, b.quantity, b.created_at, b.updated_at`

func (r *repository) ListByProduct(ctx context.Context, productID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM bom_lines b
JOIN raw_materials m ON m.id = b.material_id
WHERE b.product_id=$1 ORDER BY b.material_id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.MaterialName, &line.MaterialUnit, &line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Line, error) {
	var line Line
	err := r.db.QueryRow(ctx, `SELECT `+columns+` FROM bom_lines b
JOIN raw_materials m ON m.id = b.material_id
WHERE b.id=$1`, id).Scan(&line.ID, &line.ProductID, &line.MaterialID, &line.MaterialName, &line.MaterialUnit, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, fmt.Errorf("%w: bom line", shared.ErrNotFound)
		}
		return Line{}, err
	}
	return line, nil
}

func (r *repository) Create(ctx context.Context, line Line) (Line, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO bom_lines (product_id, material_id, quantity, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		line.ProductID, line.MaterialID, line.Quantity).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Line{}, fmt.Errorf("%w: product %d already has a bom line for material %d", shared.ErrDuplicate, line.ProductID, line.MaterialID)
			case "23503":
				return Line{}, fmt.Errorf("%w: product or material does not exist", shared.ErrValidation)
			}
		}
		return Line{}, err
	}
	return line, nil
}

func (r *repository) Update(ctx context.Context, id int64, quantity int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE bom_lines SET quantity=$1, updated_at=NOW() WHERE id=$2`, quantity, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bom line %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bom_lines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bom line %d", shared.ErrNotFound, id)
	}
	return nil
}
