// Package checkout runs payment sessions for orders against the card gateway and
// reconciles the gateway's return callback with the stored order.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Transaction statuses reported by Webpay.
const (
	GatewayInitialized        = "INITIALIZED"
	GatewayCreated            = "CREATED"
	GatewayAuthorized         = "AUTHORIZED"
	GatewayFailed             = "FAILED"
	GatewayReversed           = "REVERSED"
	GatewayNullified          = "NULLIFIED"
	GatewayPartiallyNullified = "PARTIALLY_NULLIFIED"
	GatewayCaptured           = "CAPTURED"
)

// Resumable reports whether a session in this gateway status can still take the buyer to the payment form.
func Resumable(status string) bool {
	return status == GatewayInitialized || status == GatewayCreated
}

type Gateway interface {
	Create(ctx context.Context, buyOrder, sessionID string, amount decimal.Decimal, returnURL string) (CreateResult, error)
	Status(ctx context.Context, token string) (StatusResult, error)
	Commit(ctx context.Context, token string) (CommitResult, error)
}

type CreateResult struct {
	Token string
	URL   string
}

// Transaction is the gateway's view of one payment attempt.
type Transaction struct {
	Status            string
	BuyOrder          string
	SessionID         string
	Amount            decimal.Decimal
	ResponseCode      *int
	AuthorizationCode string
}

// StatusResult carries the form URL only while the session is resumable.
type StatusResult struct {
	Transaction
	URL string
}

type CommitResult struct {
	Transaction
}
