package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStockErrorMatching(t *testing.T) {
	err := &InsufficientStockError{ProductID: "PR001", Requested: 5, Available: 4}

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "PR001")
	assert.Contains(t, err.Error(), "requested 5")

	// wrapped errors still match, and the typed error stays reachable
	wrapped := fmt.Errorf("place order: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))

	var stockErr *InsufficientStockError
	require.True(t, errors.As(wrapped, &stockErr))
	assert.Equal(t, "PR001", stockErr.ProductID)
	assert.Equal(t, 4, stockErr.Available)
}

func TestInvalidTransitionErrorMatching(t *testing.T) {
	err := &InvalidTransitionError{From: OrderStatusDelivered, To: OrderStatusPending}

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "DELIVERED")
	assert.Contains(t, err.Error(), "PENDING")
}
