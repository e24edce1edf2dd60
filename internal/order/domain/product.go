package domain

import "time"

// Product is read-only for the order service: stock mutations belong to the
// inventory service.
type Product struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  *string `db:"description"`
	Price        float64 `db:"price"`
	InitialStock int64   `db:"initial_stock"`
	CurrentStock int64   `db:"current_stock"`

	CreatedAt time.Time `db:"created_at"`
}
