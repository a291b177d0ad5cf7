package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the processing state of a laundry order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// LineItem is one service performed within an order, optionally bundled with
// a goods item. Subtotal is always UnitPrice * Quantity.
type LineItem struct {
	ServiceID string
	GoodsID   string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Note      string
}

// Totals are the derived monetary fields of a composition.
type Totals struct {
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	AmountPaid     decimal.Decimal
}

// Details are the order fields owned by the surrounding form rather than the
// pricing engine.
type Details struct {
	StoreID         string    `validate:"required"`
	CustomerID      string    `validate:"required"`
	StaffID         string    `validate:"required"`
	ReceivedAt      time.Time `validate:"required"`
	ReturnAt        time.Time `validate:"required,gtefield=ReceivedAt"`
	PickupAddress   string    `validate:"max=500"`
	DeliveryAddress string    `validate:"max=500"`
	Status          Status    `validate:"omitempty,oneof=pending processing completed delivered cancelled"`
}

// Snapshot is the finalized, submission-ready state of a composition.
type Snapshot struct {
	Details
	Totals
	LineItems   []LineItem
	PromotionID string
}

// Order is a persisted laundry order.
type Order struct {
	ID string
	Snapshot
	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
}
