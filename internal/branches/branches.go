package branches

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Manager   string    `json:"manager"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"max=255"`
	Phone   string `json:"phone" validate:"max=50"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Manager string `json:"manager" validate:"max=255"`
}

type UpdateInput struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Manager *string `json:"manager" validate:"omitempty,max=255"`
}

type Store interface {
	List(ctx context.Context) ([]Branch, error)
	Get(ctx context.Context, id int64) (*Branch, error)
	Create(ctx context.Context, in CreateInput) (*Branch, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Branch, error)
	Delete(ctx context.Context, id int64) (*Branch, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const columns = `id, name, address, phone, email, manager, created_at, updated_at`

func scan(row pgx.Row) (*Branch, error) {
	var b Branch
	if err := row.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Email, &b.Manager, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) List(ctx context.Context) ([]Branch, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+columns+` FROM branches ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Store("list branches", err)
	}
	defer rows.Close()

	out := []Branch{}
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, apperr.Store("scan branch", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (*Branch, error) {
	return r.one(ctx, id, `SELECT `+columns+` FROM branches WHERE id=$1`, id)
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Branch, error) {
	return r.one(ctx, 0, `
		INSERT INTO branches (name, address, phone, email, manager)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+columns, in.Name, in.Address, in.Phone, in.Email, in.Manager)
}

func (r *Repo) Update(ctx context.Context, id int64, in UpdateInput) (*Branch, error) {
	return r.one(ctx, id, `
		UPDATE branches SET
			name       = COALESCE($2, name),
			address    = COALESCE($3, address),
			phone      = COALESCE($4, phone),
			email      = COALESCE($5, email),
			manager    = COALESCE($6, manager),
			updated_at = NOW()
		WHERE id=$1
		RETURNING `+columns, id, in.Name, in.Address, in.Phone, in.Email, in.Manager)
}

func (r *Repo) Delete(ctx context.Context, id int64) (*Branch, error) {
	b, err := r.one(ctx, id, `DELETE FROM branches WHERE id=$1 RETURNING `+columns, id)
	if err != nil && postgres.IsForeignKeyViolation(err) {
		return nil, apperr.InvalidState("delete branch", "referenced by stock requests")
	}
	return b, err
}

func (r *Repo) one(ctx context.Context, id int64, sql string, args ...any) (*Branch, error) {
	b, err := scan(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("branch", id)
	}
	if err != nil {
		return nil, apperr.Store("branch", err)
	}
	return b, nil
}
