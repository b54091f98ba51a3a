package stockrequest

import "time"

// StockRequest asks the central warehouse to send units of one product to a branch.
// Quantity never changes after creation; status only moves through validNext.
type StockRequest struct {
	ID          int64      `json:"id"`
	BranchID    int64      `json:"branch_id"`
	ProductID   int64      `json:"product_id"`
	Quantity    int        `json:"quantity"`
	Status      Status     `json:"status"`
	RequestedBy *int64     `json:"requested_by"`
	RespondedBy *int64     `json:"responded_by"`
	Notes       string     `json:"notes"`
	SubmittedAt time.Time  `json:"submitted_at"`
	RespondedAt *time.Time `json:"responded_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	ReceivedAt  *time.Time `json:"received_at"`

	// Joined for display.
	ProductName string `json:"product_name,omitempty"`
	BranchName  string `json:"branch_name,omitempty"`
}

type CreateInput struct {
	BranchID    int64  `json:"branch_id" validate:"required,gt=0"`
	ProductID   int64  `json:"product_id" validate:"required,gt=0"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	Notes       string `json:"notes" validate:"max=2000"`
	RequestedBy *int64 `json:"requested_by" validate:"omitempty,gt=0"`
	// Status is accepted for compatibility and ignored: new requests always start pending.
	Status string `json:"status"`
}

type Filter struct {
	Status   *Status
	BranchID *int64
}

// Change carries the fields a single-statement transition writes.
type Change struct {
	RespondedBy *int64
	Reason      string
	At          time.Time
}

// WarehouseStock is the locked stock row of a product inside an approval.
type WarehouseStock struct {
	ProductID int64
	Available int
	Minimum   int
}
