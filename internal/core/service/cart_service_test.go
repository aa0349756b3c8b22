package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestCartAddWithinStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 4)

	require.NoError(t, env.cart.Add(ctx, 1, p.ID, 3))

	lines := env.cart.Lines(1)
	require.Len(t, lines, 1)
	assert.Equal(t, p.ID, lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3, env.cart.ItemCount(1))
}

func TestCartAddExceedingStockFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 4)

	err := env.cart.Add(ctx, 1, p.ID, 5)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 4, stockErr.Available)

	assert.Empty(t, env.cart.Lines(1))
}

func TestCartAddAccumulates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 4)

	require.NoError(t, env.cart.Add(ctx, 1, p.ID, 2))
	require.NoError(t, env.cart.Add(ctx, 1, p.ID, 2))
	assert.Equal(t, 4, env.cart.ItemCount(1))

	// one more unit would exceed live stock
	err := env.cart.Add(ctx, 1, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 4, env.cart.ItemCount(1))
}

func TestCartAddValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 4)

	assert.ErrorIs(t, env.cart.Add(ctx, 1, p.ID, 0), domain.ErrInvalidArgument)
	assert.ErrorIs(t, env.cart.Add(ctx, 1, p.ID, -1), domain.ErrInvalidArgument)
	assert.ErrorIs(t, env.cart.Add(ctx, 1, "PR999", 1), domain.ErrNotFound)
}

func TestCartHidesInactiveProducts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 4)

	_, err := env.catalog.ToggleActive(ctx, p.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.cart.Add(ctx, 1, p.ID, 1), domain.ErrNotFound)
}

func TestCartSetQuantity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 10)

	require.NoError(t, env.cart.Add(ctx, 1, p.ID, 2))
	require.NoError(t, env.cart.SetQuantity(ctx, 1, p.ID, 7))
	assert.Equal(t, 7, env.cart.ItemCount(1))

	err := env.cart.SetQuantity(ctx, 1, p.ID, 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 7, env.cart.ItemCount(1))

	// zero removes the line entirely
	require.NoError(t, env.cart.SetQuantity(ctx, 1, p.ID, 0))
	assert.Empty(t, env.cart.Lines(1))
}

func TestCartRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 10)

	require.NoError(t, env.cart.Add(ctx, 1, p.ID, 2))
	env.cart.Remove(1, p.ID)
	assert.Empty(t, env.cart.Lines(1))

	env.cart.Remove(1, p.ID)
	env.cart.Remove(1, "PR999")
	env.cart.Remove(42, p.ID)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.mustProduct(t, "Carrot", 1200, 10)

	require.NoError(t, env.cart.Add(ctx, 1, p.ID, 2))
	require.NoError(t, env.cart.Add(ctx, 2, p.ID, 5))

	assert.Equal(t, 2, env.cart.ItemCount(1))
	assert.Equal(t, 5, env.cart.ItemCount(2))

	env.cart.Clear(1)
	assert.Empty(t, env.cart.Lines(1))
	assert.Equal(t, 5, env.cart.ItemCount(2))
}

func TestCartTotalPricesFromLiveCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	carrot := env.mustProduct(t, "Carrot", 1200, 10)
	tomato := env.mustProduct(t, "Tomato", 2500, 10)

	require.NoError(t, env.cart.Add(ctx, 1, carrot.ID, 3))
	require.NoError(t, env.cart.Add(ctx, 1, tomato.ID, 2))

	total, err := env.cart.Total(ctx, 1)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(3*1200+2*2500)), "got %s", total)

	// a price change is reflected immediately
	_, err = env.catalog.UpdateProduct(ctx, carrot.ID, ProductInput{
		Name: "Carrot", Price: decimal.NewFromInt(2000), PriceUnit: "kg", Stock: 10,
	})
	require.NoError(t, err)

	total, err = env.cart.Total(ctx, 1)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(3*2000+2*2500)), "got %s", total)
}

func TestCartLinesSortedByProductID(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p1 := env.mustProduct(t, "A", 100, 10) // PR001
	p2 := env.mustProduct(t, "B", 100, 10) // PR002
	p3 := env.mustProduct(t, "C", 100, 10) // PR003

	require.NoError(t, env.cart.Add(ctx, 1, p3.ID, 1))
	require.NoError(t, env.cart.Add(ctx, 1, p1.ID, 1))
	require.NoError(t, env.cart.Add(ctx, 1, p2.ID, 1))

	lines := env.cart.Lines(1)
	require.Len(t, lines, 3)
	assert.Equal(t, p1.ID, lines[0].ProductID)
	assert.Equal(t, p2.ID, lines[1].ProductID)
	assert.Equal(t, p3.ID, lines[2].ProductID)
}
