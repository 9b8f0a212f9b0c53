package domain

import "time"

// Product is the catalog entry customers browse and order.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
