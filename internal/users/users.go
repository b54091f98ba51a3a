package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	RoleAdmin     = "admin"
	RoleWarehouse = "warehouse"
	RoleBranch    = "branch"
	RoleClient    = "client"
)

type User struct {
	ID          int64     `json:"id"`
	FirebaseUID *string   `json:"firebase_uid,omitempty"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateInput struct {
	FirebaseUID *string `json:"firebase_uid" validate:"omitempty,max=128"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"max=100"`
	Role        string  `json:"role" validate:"omitempty,oneof=admin warehouse branch client"`
}

type UpdateInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin warehouse branch client"`
	Active    *bool   `json:"active"`
}

type Store interface {
	Get(ctx context.Context, id int64) (*User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, in CreateInput) (*User, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*User, error)
	Delete(ctx context.Context, id int64) (*User, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const columns = `id, firebase_uid, email, first_name, last_name, role, active, created_at, updated_at`

func scan(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*User, error) {
	return r.one(ctx, id, `SELECT `+columns+` FROM users WHERE id=$1`, id)
}

func (r *Repo) GetByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	return r.one(ctx, uid, `SELECT `+columns+` FROM users WHERE firebase_uid=$1`, uid)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, email, `SELECT `+columns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*User, error) {
	role := in.Role
	if role == "" {
		role = RoleClient
	}
	u, err := r.one(ctx, in.Email, `
		INSERT INTO users (firebase_uid, email, first_name, last_name, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+columns, in.FirebaseUID, in.Email, in.FirstName, in.LastName, role)
	if err != nil && postgres.IsUniqueViolation(err) {
		return nil, conflict(err)
	}
	return u, err
}

func (r *Repo) Update(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	u, err := r.one(ctx, id, `
		UPDATE users SET
			email      = COALESCE($2, email),
			first_name = COALESCE($3, first_name),
			last_name  = COALESCE($4, last_name),
			role       = COALESCE($5, role),
			active     = COALESCE($6, active),
			updated_at = NOW()
		WHERE id=$1
		RETURNING `+columns, id, in.Email, in.FirstName, in.LastName, in.Role, in.Active)
	if err != nil && postgres.IsUniqueViolation(err) {
		return nil, conflict(err)
	}
	return u, err
}

func (r *Repo) Delete(ctx context.Context, id int64) (*User, error) {
	u, err := r.one(ctx, id, `DELETE FROM users WHERE id=$1 RETURNING `+columns, id)
	if err != nil && postgres.IsForeignKeyViolation(err) {
		return nil, apperr.InvalidState("delete user", "referenced by orders or stock requests")
	}
	return u, err
}

// conflict covers both unique columns: email and firebase uid.
func conflict(err error) error {
	return fmt.Errorf("user already registered (%s): %w", postgres.Constraint(err), apperr.ErrConflict)
}

func (r *Repo) one(ctx context.Context, key any, sql string, args ...any) (*User, error) {
	u, err := scan(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user", key)
	}
	if err != nil {
		return nil, apperr.Store("user", err)
	}
	return u, nil
}
