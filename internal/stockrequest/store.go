package stockrequest

import (
	"context"
	"time"
)

// Store persists stock requests. Every method except InTx is a single statement.
type Store interface {
	Insert(ctx context.Context, in CreateInput) (*StockRequest, error)
	Get(ctx context.Context, id int64) (*StockRequest, error)
	List(ctx context.Context, f Filter) ([]StockRequest, error)
	// Transition moves id from -> to only if it is still in from.
	Transition(ctx context.Context, id int64, from, to Status, ch Change) (*StockRequest, error)
	// DeletePending removes id only while it is pending.
	DeletePending(ctx context.Context, id int64) (*StockRequest, error)
	// InTx runs fn in one transaction; any error from fn rolls everything back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the multi-statement scope used by Approve. Lock methods hold row locks until commit.
type Tx interface {
	LockRequest(ctx context.Context, id int64) (*StockRequest, error)
	LockWarehouseStock(ctx context.Context, productID int64) (WarehouseStock, error)
	DecrementWarehouseStock(ctx context.Context, productID int64, qty int) (remaining int, err error)
	MarkApproved(ctx context.Context, id int64, respondedBy *int64, at time.Time) error
}
