package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajesharora27/dap-sub001/internal/shared"
)

// Repository provides read-only catalog queries. A nil ids slice means
// no id filter; catalog writes belong to the CRUD services, not here.
type Repository interface {
	ListProducts(ctx context.Context, ids []string) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ListSolutions(ctx context.Context, ids []string) ([]Solution, error)
	GetSolution(ctx context.Context, id string) (Solution, error)
	ListCustomers(ctx context.Context, ids []string) ([]Customer, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListProducts(ctx context.Context, ids []string) ([]Product, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM products
		WHERE deleted_at IS NULL`
	args := []any{}
	if ids != nil {
		query += ` AND id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id string) (Product, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM products
		WHERE id = $1 AND deleted_at IS NULL`
	var p Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) ListSolutions(ctx context.Context, ids []string) ([]Solution, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM solutions
		WHERE deleted_at IS NULL`
	args := []any{}
	if ids != nil {
		query += ` AND id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var solutions []Solution
	for rows.Next() {
		var s Solution
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		solutions = append(solutions, s)
	}
	return solutions, rows.Err()
}

func (r *repository) GetSolution(ctx context.Context, id string) (Solution, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM solutions
		WHERE id = $1 AND deleted_at IS NULL`
	var s Solution
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Solution{}, shared.ErrNotFound
		}
		return Solution{}, err
	}

	const linkQuery = `SELECT product_id FROM solution_products WHERE solution_id = $1`
	rows, err := r.pool.Query(ctx, linkQuery, id)
	if err != nil {
		return Solution{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var productID string
		if err := rows.Scan(&productID); err != nil {
			return Solution{}, err
		}
		s.ProductIDs = append(s.ProductIDs, productID)
	}
	return s, rows.Err()
}

func (r *repository) ListCustomers(ctx context.Context, ids []string) ([]Customer, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM customers
		WHERE deleted_at IS NULL`
	args := []any{}
	if ids != nil {
		query += ` AND id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
