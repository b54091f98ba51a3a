package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, in CreateInput) (*Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Order, error)
	Delete(ctx context.Context, id int64) (*Order, error)
	FindByToken(ctx context.Context, token string) (*Order, error)
	FindByBuyOrder(ctx context.Context, buyOrder string) (*Order, error)
	UpdatePayment(ctx context.Context, id int64, u PaymentUpdate) (*Order, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const selectJoined = `
	SELECT o.id, o.product_id, o.user_id, o.quantity, o.amount, o.status, o.payment_token, o.payment_status,
	       o.buy_order, o.ordered_at, o.created_at, o.updated_at,
	       COALESCE(p.name, ''), COALESCE(TRIM(u.first_name || ' ' || u.last_name), '')
	FROM orders o
	LEFT JOIN products p ON p.id = o.product_id
	LEFT JOIN users u ON u.id = o.user_id`

func scan(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.ProductID, &o.UserID, &o.Quantity, &o.Amount, &status, &o.PaymentToken,
		&o.PaymentStatus, &o.BuyOrder, &o.OrderedAt, &o.CreatedAt, &o.UpdatedAt, &o.ProductName, &o.UserName)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*Order, error) {
	var id int64
	// amount falls back to the current list price
	err := r.DB.QueryRow(ctx, `
		INSERT INTO orders (product_id, user_id, quantity, amount, status)
		SELECT p.id, $2::bigint, $3::int, COALESCE($4::numeric, p.price * $3::int), $5
		FROM products p WHERE p.id = $1
		RETURNING id`,
		in.ProductID, in.UserID, in.Quantity, in.Amount, string(StatusPending),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("product", in.ProductID)
	}
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("user", in.UserID)
		}
		return nil, apperr.Store("insert order", err)
	}
	return r.Get(ctx, id)
}

func (r *Repo) Get(ctx context.Context, id int64) (*Order, error) {
	return r.one(ctx, "order", id, selectJoined+` WHERE o.id = $1`, id)
}

func (r *Repo) FindByToken(ctx context.Context, token string) (*Order, error) {
	return r.one(ctx, "order with token", token, selectJoined+` WHERE o.payment_token = $1 ORDER BY o.updated_at DESC LIMIT 1`, token)
}

func (r *Repo) FindByBuyOrder(ctx context.Context, buyOrder string) (*Order, error) {
	return r.one(ctx, "order with buy order", buyOrder, selectJoined+` WHERE o.buy_order = $1`, buyOrder)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.DB.Query(ctx, selectJoined+` WHERE o.user_id = $1 ORDER BY o.ordered_at DESC`, userID)
	if err != nil {
		return nil, apperr.Store("list orders", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, apperr.Store("scan order", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id int64, in UpdateInput) (*Order, error) {
	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET
			amount     = COALESCE((SELECT p.price * $2::int FROM products p WHERE p.id = orders.product_id), amount),
			quantity   = COALESCE($2, quantity),
			status     = COALESCE($3, status),
			updated_at = NOW()
		WHERE id = $1`, id, in.Quantity, status)
	if err != nil {
		return nil, apperr.Store("update order", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperr.NotFound("order", id)
	}
	return r.Get(ctx, id)
}

func (r *Repo) UpdatePayment(ctx context.Context, id int64, u PaymentUpdate) (*Order, error) {
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET
			status         = COALESCE($2, status),
			payment_token  = COALESCE($3, payment_token),
			payment_status = COALESCE($4, payment_status),
			buy_order      = COALESCE($5, buy_order),
			updated_at     = NOW()
		WHERE id = $1`, id, status, u.PaymentToken, u.PaymentStatus, u.BuyOrder)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperr.Invalid("buy_order", "already used by another order")
		}
		return nil, apperr.Store("update order payment", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperr.NotFound("order", id)
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id int64) (*Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return nil, apperr.Store("delete order", err)
	}
	return o, nil
}

func (r *Repo) one(ctx context.Context, what string, key any, sql string, args ...any) (*Order, error) {
	o, err := scan(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(what, key)
	}
	if err != nil {
		return nil, apperr.Store("get order", err)
	}
	return o, nil
}
