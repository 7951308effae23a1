package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Product is a catalog item (chemical or equipment) with stock and cost.
// The catalog is shared across all operators.
type Product struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	UnitCostCents uint32    `json:"unit_cost_cents"`
	Stock         int       `json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	// ErrProductNotFound is returned when a product cannot be found.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductNameExists is returned on a duplicate catalog name.
	ErrProductNameExists = errors.New("product name already exists")
)

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "id, name, description, unit_cost_cents, stock, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var (
		p    Product
		desc sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &desc, &p.UnitCostCents, &p.Stock,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = desc.String
	return &p, nil
}

// Create inserts a catalog item and merges the assigned id back.
func (r *ProductRepo) Create(ctx context.Context, p *Product) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (name, description, unit_cost_cents, stock) VALUES (?,?,?,?)",
		p.Name, p.Description, p.UnitCostCents, p.Stock)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrProductNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	row := r.DB.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id=?", p.ID)
	got, err := scanProduct(row)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID fetches one product.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*Product, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+productCols+" FROM products WHERE id=?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// List returns the whole catalog ordered by name.
func (r *ProductRepo) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+productCols+" FROM products ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites the full field set of a product.
func (r *ProductRepo) Update(ctx context.Context, p *Product) error {
	if _, err := r.GetByID(ctx, p.ID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, description=?, unit_cost_cents=?, stock=? WHERE id=?",
		p.Name, p.Description, p.UnitCostCents, p.Stock, p.ID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrProductNameExists
		}
		return err
	}
	return nil
}

// Delete removes a product.  Fails with ErrConflict when visit history still
// references it.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		if strings.Contains(err.Error(), "1451") { // FK restraint from visit_products
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
