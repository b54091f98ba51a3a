package products

import (
	"context"
	"errors"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence contract the catalog needs.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in CreateInput) (*Product, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
}

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, name, description, brand, model, sku, category, price, stock,
	warehouse_stock, minimum_stock, warehouse_location, created_at, updated_at`

func scan(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &p.Model, &p.SKU, &p.Category, &p.Price,
		&p.Stock, &p.WarehouseStock, &p.MinimumStock, &p.WarehouseLocation, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store("query products", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, apperr.Store("scan product", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	return r.query(ctx, `SELECT `+columns+` FROM products ORDER BY name ASC`)
}

func (r *Repo) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.query(ctx, `SELECT `+columns+` FROM products WHERE category=$1 ORDER BY name ASC`, category)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Product, error) {
	return r.one(ctx, id, `SELECT `+columns+` FROM products WHERE id=$1`, id)
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Product, error) {
	minimum := DefaultMinimumStock
	if in.MinimumStock != nil {
		minimum = *in.MinimumStock
	}
	p, err := scan(r.DB.QueryRow(ctx, `
		INSERT INTO products (name, description, brand, model, sku, category, price, stock,
		                      warehouse_stock, minimum_stock, warehouse_location)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+columns,
		in.Name, in.Description, in.Brand, in.Model, in.SKU, in.Category, in.Price, in.Stock,
		in.WarehouseStock, minimum, in.WarehouseLocation))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperr.Invalid("sku", "already in use")
		}
		return nil, apperr.Store("insert product", err)
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, id int64, in UpdateInput) (*Product, error) {
	p, err := r.one(ctx, id, `
		UPDATE products SET
			name               = COALESCE($2, name),
			description        = COALESCE($3, description),
			brand              = COALESCE($4, brand),
			model              = COALESCE($5, model),
			sku                = COALESCE($6, sku),
			category           = COALESCE($7, category),
			price              = COALESCE($8, price),
			stock              = COALESCE($9, stock),
			warehouse_stock    = COALESCE($10, warehouse_stock),
			minimum_stock      = COALESCE($11, minimum_stock),
			warehouse_location = COALESCE($12, warehouse_location),
			updated_at         = NOW()
		WHERE id=$1
		RETURNING `+columns,
		id, in.Name, in.Description, in.Brand, in.Model, in.SKU, in.Category, in.Price, in.Stock,
		in.WarehouseStock, in.MinimumStock, in.WarehouseLocation)
	if err != nil && postgres.IsUniqueViolation(err) {
		return nil, apperr.Invalid("sku", "already in use")
	}
	return p, err
}

func (r *Repo) Delete(ctx context.Context, id int64) (*Product, error) {
	p, err := r.one(ctx, id, `DELETE FROM products WHERE id=$1 RETURNING `+columns, id)
	if err != nil && postgres.IsForeignKeyViolation(err) {
		return nil, apperr.InvalidState("delete product", "referenced by orders or stock requests")
	}
	return p, err
}

func (r *Repo) one(ctx context.Context, id int64, sql string, args ...any) (*Product, error) {
	p, err := scan(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("product", id)
	}
	if err != nil {
		return nil, apperr.Store("product", err)
	}
	return p, nil
}
