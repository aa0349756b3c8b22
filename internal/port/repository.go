package port

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogRepository interface {
	// GetProduct retrieves a product by its business key
	GetProduct(ctx context.Context, id string) (domain.Product, error)

	// ListProducts returns every product, active or not
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// SaveProduct inserts or fully replaces a product by id
	SaveProduct(ctx context.Context, p domain.Product) error

	// DeleteProduct removes a product, returns domain.ErrNotFound on miss
	DeleteProduct(ctx context.Context, id string) error

	GetCategory(ctx context.Context, id string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	SaveCategory(ctx context.Context, c domain.Category) error
}

type OrderRepository interface {
	// CreateOrder persists the order with its lines and decrements stock for
	// every line as one atomic unit. If any line exceeds live stock the whole
	// operation fails with domain.InsufficientStockError and no state changes.
	CreateOrder(ctx context.Context, order domain.Order) error

	GetOrder(ctx context.Context, id int64) (domain.Order, error)

	ListOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateOrderStatus writes the status and delivery stamp of an existing
	// order; everything else on the order is immutable
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, deliveredAt *time.Time) error

	// HasOrdersForProduct reports whether any committed order line references
	// the product (used to refuse hard deletes of purchased products)
	HasOrdersForProduct(ctx context.Context, productID string) (bool, error)
}

type UserRepository interface {
	// CreateUser inserts a new user, rejecting an already registered email
	// with domain.ErrDuplicateEmail
	CreateUser(ctx context.Context, u domain.User) error

	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}
