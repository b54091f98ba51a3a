package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            int64               `json:"id"`
	ProductID     int64               `json:"product_id"`
	UserID        int64               `json:"user_id"`
	Quantity      int                 `json:"quantity"`
	Amount        decimal.NullDecimal `json:"amount"`
	Status        Status              `json:"status"`
	PaymentToken  *string             `json:"payment_token,omitempty"`
	PaymentStatus *string             `json:"payment_status,omitempty"`
	BuyOrder      *string             `json:"buy_order,omitempty"`
	OrderedAt     time.Time           `json:"ordered_at"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`

	ProductName string `json:"product_name,omitempty"`
	UserName    string `json:"user_name,omitempty"`
}

type CreateInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	UserID    int64 `json:"user_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
	// Amount defaults to price * quantity.
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
}

type UpdateInput struct {
	Quantity *int    `json:"quantity" validate:"omitempty,gt=0"`
	Status   *Status `json:"status"`
}

// PaymentUpdate touches only the checkout-owned columns. Nil fields are left as they are.
type PaymentUpdate struct {
	Status        *Status
	PaymentToken  *string
	PaymentStatus *string
	BuyOrder      *string
}
