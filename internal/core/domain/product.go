package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is catalog master data. The catalog store is the single source of
// truth for price and stock; carts and orders never cache either.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	PriceUnit   string          `json:"price_unit"` // unit the price applies to, e.g. "kg" or "piece"
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	IsOrganic   bool            `json:"is_organic"`
	CategoryID  string          `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Category is immutable reference data.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
