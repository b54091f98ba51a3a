package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StockRequestCreated  = "StockRequestCreated"
	StockRequestApproved = "StockRequestApproved"
	StockRequestRejected = "StockRequestRejected"
	StockRequestShipped  = "StockRequestShipped"
	StockRequestReceived = "StockRequestReceived"
	StockRequestDeleted  = "StockRequestDeleted"

	PaymentAuthorized = "PaymentAuthorized"
	PaymentFailed     = "PaymentFailed"

	LowStockDetected = "LowStockDetected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type StockRequestPayload struct {
	RequestID   int64  `json:"request_id"`
	BranchID    int64  `json:"branch_id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
	RespondedBy *int64 `json:"responded_by,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// StockRequestApprovedPayload carries the warehouse level left after the transfer.
type StockRequestApprovedPayload struct {
	StockRequestPayload
	WarehouseStock int `json:"warehouse_stock"`
	MinimumStock   int `json:"minimum_stock"`
}

type PaymentPayload struct {
	OrderID      int64           `json:"order_id"`
	BuyOrder     string          `json:"buy_order"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	ResponseCode *int            `json:"response_code,omitempty"`
}

type LowStockPayload struct {
	ProductID      int64 `json:"product_id"`
	WarehouseStock int   `json:"warehouse_stock"`
	MinimumStock   int   `json:"minimum_stock"`
	RequestID      int64 `json:"request_id"`
}
