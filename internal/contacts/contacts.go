// Package contacts stores messages sent through the storefront contact form.
package contacts

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const StatusNew = "new"

type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Answered  bool      `json:"answered"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=50"`
	Subject string `json:"subject" validate:"max=255"`
	Message string `json:"message" validate:"required"`
}

type Store interface {
	List(ctx context.Context) ([]Contact, error)
	Get(ctx context.Context, id int64) (*Contact, error)
	Create(ctx context.Context, in CreateInput) (*Contact, error)
	Delete(ctx context.Context, id int64) (*Contact, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const columns = `id, name, email, phone, subject, message, status, answered, created_at`

func scan(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Subject, &c.Message, &c.Status, &c.Answered, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns messages newest first.
func (r *Repo) List(ctx context.Context) ([]Contact, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+columns+` FROM contacts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, apperr.Store("list contacts", err)
	}
	defer rows.Close()

	out := []Contact{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, apperr.Store("scan contact", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (*Contact, error) {
	return r.one(ctx, id, `SELECT `+columns+` FROM contacts WHERE id=$1`, id)
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Contact, error) {
	return r.one(ctx, 0, `
		INSERT INTO contacts (name, email, phone, subject, message, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+columns, in.Name, in.Email, in.Phone, in.Subject, in.Message, StatusNew)
}

func (r *Repo) Delete(ctx context.Context, id int64) (*Contact, error) {
	return r.one(ctx, id, `DELETE FROM contacts WHERE id=$1 RETURNING `+columns, id)
}

func (r *Repo) one(ctx context.Context, id int64, sql string, args ...any) (*Contact, error) {
	c, err := scan(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("contact", id)
	}
	if err != nil {
		return nil, apperr.Store("contact", err)
	}
	return c, nil
}
