package stockrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const selectJoined = `
	SELECT sr.id, sr.branch_id, sr.product_id, sr.quantity, sr.status, sr.requested_by, sr.responded_by,
	       sr.notes, sr.submitted_at, sr.responded_at, sr.shipped_at, sr.received_at, p.name, b.name
	FROM stock_requests sr
	JOIN products p ON p.id = sr.product_id
	JOIN branches b ON b.id = sr.branch_id`

func scanJoined(row pgx.Row) (*StockRequest, error) {
	var sr StockRequest
	var status string
	err := row.Scan(&sr.ID, &sr.BranchID, &sr.ProductID, &sr.Quantity, &status, &sr.RequestedBy, &sr.RespondedBy,
		&sr.Notes, &sr.SubmittedAt, &sr.RespondedAt, &sr.ShippedAt, &sr.ReceivedAt, &sr.ProductName, &sr.BranchName)
	if err != nil {
		return nil, err
	}
	sr.Status = Status(status)
	return &sr, nil
}

func (r *Repo) Insert(ctx context.Context, in CreateInput) (*StockRequest, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO stock_requests (branch_id, product_id, quantity, status, requested_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		in.BranchID, in.ProductID, in.Quantity, string(StatusPending), in.RequestedBy, in.Notes,
	).Scan(&id)
	if err != nil {
		return nil, insertError(err, in)
	}
	return r.Get(ctx, id)
}

// insertError turns a missing product/branch/user reference into ErrNotFound.
func insertError(err error, in CreateInput) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "product"):
			return apperr.NotFound("product", in.ProductID)
		case strings.Contains(pgErr.ConstraintName, "branch"):
			return apperr.NotFound("branch", in.BranchID)
		case strings.Contains(pgErr.ConstraintName, "requested_by"):
			return apperr.NotFound("user", *in.RequestedBy)
		}
	}
	return apperr.Store("insert stock request", err)
}

func (r *Repo) Get(ctx context.Context, id int64) (*StockRequest, error) {
	sr, err := scanJoined(r.DB.QueryRow(ctx, selectJoined+` WHERE sr.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("stock request", id)
	}
	if err != nil {
		return nil, apperr.Store("get stock request", err)
	}
	return sr, nil
}

func (r *Repo) List(ctx context.Context, f Filter) ([]StockRequest, error) {
	var where []string
	var args []any
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("sr.status = $%d", len(args)))
	}
	if f.BranchID != nil {
		args = append(args, *f.BranchID)
		where = append(where, fmt.Sprintf("sr.branch_id = $%d", len(args)))
	}
	sql := selectJoined
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY sr.submitted_at DESC, sr.id DESC"

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store("list stock requests", err)
	}
	defer rows.Close()

	out := []StockRequest{}
	for rows.Next() {
		sr, err := scanJoined(rows)
		if err != nil {
			return nil, apperr.Store("scan stock request", err)
		}
		out = append(out, *sr)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list stock requests", err)
	}
	return out, nil
}

func (r *Repo) Transition(ctx context.Context, id int64, from, to Status, ch Change) (*StockRequest, error) {
	var sql string
	args := []any{id, string(from), string(to)}
	switch to {
	case StatusRejected:
		sql = `UPDATE stock_requests
		       SET status = $3, responded_by = $4, responded_at = $5, notes = COALESCE(NULLIF($6::text, ''), notes)
		       WHERE id = $1 AND status = $2`
		args = append(args, ch.RespondedBy, ch.At, ch.Reason)
	case StatusShipped:
		sql = `UPDATE stock_requests SET status = $3, shipped_at = $4 WHERE id = $1 AND status = $2`
		args = append(args, ch.At)
	case StatusReceived:
		sql = `UPDATE stock_requests SET status = $3, received_at = $4 WHERE id = $1 AND status = $2`
		args = append(args, ch.At)
	default:
		return nil, fmt.Errorf("transition to %s is not a single-statement change", to)
	}

	ct, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Store("update stock request", err)
	}
	if ct.RowsAffected() == 0 {
		// lost a race with another transition
		return nil, r.staleError(ctx, id, string(to))
	}
	return r.Get(ctx, id)
}

func (r *Repo) DeletePending(ctx context.Context, id int64) (*StockRequest, error) {
	sr, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM stock_requests WHERE id = $1 AND status = $2`, id, string(StatusPending))
	if err != nil {
		return nil, apperr.Store("delete stock request", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, r.staleError(ctx, id, "delete")
	}
	return sr, nil
}

func (r *Repo) staleError(ctx context.Context, id int64, action string) error {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return apperr.InvalidState(action, cur.Status)
}

// InTx runs fn at read committed. Rows locked through Tx stay locked until commit or rollback,
// and the deferred rollback returns the connection to the pool on every path.
func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperr.Store("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Store("commit tx", err)
	}
	return nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) LockRequest(ctx context.Context, id int64) (*StockRequest, error) {
	var sr StockRequest
	var status string
	err := t.tx.QueryRow(ctx, `
		SELECT id, branch_id, product_id, quantity, status, notes
		FROM stock_requests WHERE id = $1 FOR UPDATE`, id,
	).Scan(&sr.ID, &sr.BranchID, &sr.ProductID, &sr.Quantity, &status, &sr.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("stock request", id)
	}
	if err != nil {
		return nil, apperr.Store("lock stock request", err)
	}
	sr.Status = Status(status)
	return &sr, nil
}

func (t *pgTx) LockWarehouseStock(ctx context.Context, productID int64) (WarehouseStock, error) {
	ws := WarehouseStock{ProductID: productID}
	err := t.tx.QueryRow(ctx, `SELECT warehouse_stock, minimum_stock FROM products WHERE id = $1 FOR UPDATE`, productID).
		Scan(&ws.Available, &ws.Minimum)
	if errors.Is(err, pgx.ErrNoRows) {
		return ws, apperr.NotFound("product", productID)
	}
	if err != nil {
		return ws, apperr.Store("lock product stock", err)
	}
	return ws, nil
}

func (t *pgTx) DecrementWarehouseStock(ctx context.Context, productID int64, qty int) (int, error) {
	var remaining int
	err := t.tx.QueryRow(ctx, `
		UPDATE products SET warehouse_stock = warehouse_stock - $2, updated_at = NOW()
		WHERE id = $1
		RETURNING warehouse_stock`, productID, qty).Scan(&remaining)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return 0, fmt.Errorf("warehouse stock would go negative: %w", apperr.ErrInsufficientStock)
		}
		return 0, apperr.Store("decrement warehouse stock", err)
	}
	return remaining, nil
}

func (t *pgTx) MarkApproved(ctx context.Context, id int64, respondedBy *int64, at time.Time) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE stock_requests SET status = $2, responded_by = $3, responded_at = $4
		WHERE id = $1`, id, string(StatusApproved), respondedBy, at)
	if err != nil {
		return apperr.Store("approve stock request", err)
	}
	if ct.RowsAffected() != 1 {
		return apperr.NotFound("stock request", id)
	}
	return nil
}
