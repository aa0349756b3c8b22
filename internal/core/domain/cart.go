package domain

// CartLine is one product/quantity pair in a user's cart. It references the
// product by id only; price is always resolved from the live catalog.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
