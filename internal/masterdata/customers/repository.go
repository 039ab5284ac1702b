package customers

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
	List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, s Customer) (Customer, error)
	Update(ctx context.Context, id int64, s Customer) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, COALESCE(contact_person,''), COALESCE(email,''), COALESCE(phone,''), COALESCE(address,''), status, created_at, updated_at`

func scan(row pgx.Row) (Customer, error) {
	var s Customer
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, fmt.Errorf("%w: customer", shared.ErrNotFound)
		}
		return Customer{}, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filters.Search != "" {
		n++
		where += ` AND (name ILIKE $` + strconv.Itoa(n) + ` OR email ILIKE $` + strconv.Itoa(n) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != "" {
		n++
		where += ` AND status=$` + strconv.Itoa(n)
		args = append(args, filters.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM customers` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		var s Customer
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, s Customer) (Customer, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO customers (name, contact_person, email, phone, address, status, created_at, updated_at)
VALUES ($1,NULLIF($2,''),NULLIF($3,''),NULLIF($4,''),NULLIF($5,''),$6,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Customer{}, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, id int64, s Customer) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET name=$1, contact_person=NULLIF($2,''), email=NULLIF($3,''), phone=NULLIF($4,''), address=NULLIF($5,''), status=$6, updated_at=NOW() WHERE id=$7`,
		s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.Status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: customer is referenced by sales orders", shared.ErrValidation)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == mdshared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
