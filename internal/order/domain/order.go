package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// IsTerminal reports whether the status is never mutated again by this
// subsystem. Transitions are monotone: PENDING -> CONFIRMED | CANCELLED.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusCancelled || s == OrderStatusFailed
}

type Order struct {
	ID        string      `db:"id"`
	UserID    string      `db:"user_id"`
	ProductID string      `db:"product_id"`
	Quantity  int64       `db:"quantity"`
	Status    OrderStatus `db:"status"`
	Reason    *string     `db:"reason"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
