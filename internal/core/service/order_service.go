package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/sequence"
)

// PricingConfig holds the delivery fee tier. Orders at or above the threshold
// ship free; everything below pays the flat fee.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
}

func (c PricingConfig) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.DeliveryFee
}

func DefaultPricing() PricingConfig {
	return PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(50000),
		DeliveryFee:           decimal.NewFromInt(3000),
	}
}

// OrderService turns carts into committed orders and drives orders through
// their status lifecycle.
type OrderService struct {
	mu      sync.Mutex // serializes status transitions
	catalog port.CatalogRepository
	orders  port.OrderRepository
	cart    *CartService
	seq     *sequence.Sequencer
	pricing PricingConfig
	events  port.EventPublisher
	log     *zap.Logger
}

func NewOrderService(catalog port.CatalogRepository, orders port.OrderRepository,
	cart *CartService, seq *sequence.Sequencer, pricing PricingConfig,
	events port.EventPublisher, log *zap.Logger) *OrderService {
	return &OrderService{
		catalog: catalog,
		orders:  orders,
		cart:    cart,
		seq:     seq,
		pricing: pricing,
		events:  events,
		log:     log,
	}
}

// PlaceOrder commits the user's cart as an order. Prices are captured from
// the live catalog at this moment and never recomputed afterwards. Stock
// validation, stock decrement and order persistence happen as one atomic unit
// inside the repository; if any line fails, nothing changes and the cart is
// left intact. The cart is cleared only after the order committed.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, deliveryAddress string) (domain.Order, error) {
	deliveryAddress = strings.TrimSpace(deliveryAddress)
	if deliveryAddress == "" {
		return domain.Order{}, domain.ErrMissingAddress
	}

	cartLines := s.cart.Lines(userID)
	if len(cartLines) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	now := time.Now()
	orderID := s.seq.NextOrderID()
	subtotal := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(cartLines))

	for _, cl := range cartLines {
		p, err := s.catalog.GetProduct(ctx, cl.ProductID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("resolve product %s: %w", cl.ProductID, err)
		}
		if !p.IsActive {
			return domain.Order{}, fmt.Errorf("product %s is no longer available: %w", cl.ProductID, domain.ErrNotFound)
		}

		lineSubtotal := p.Price.Mul(decimal.NewFromInt(int64(cl.Quantity)))
		lines = append(lines, domain.OrderLine{
			OrderID:     orderID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    cl.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    lineSubtotal,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}

	fee := s.pricing.FeeFor(subtotal)
	order := domain.Order{
		ID:              orderID,
		UserID:          userID,
		DeliveryAddress: deliveryAddress,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Total:           subtotal.Add(fee),
		Status:          domain.OrderStatusPending,
		Lines:           lines,
		CreatedAt:       now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}

	s.cart.Clear(userID)

	s.log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.Total.String()))
	s.publish(ctx, domain.NewEvent(domain.EventOrderPlaced, strconv.FormatInt(order.ID, 10)))

	return order, nil
}

// Transition moves an order to newStatus along the enforced lifecycle.
// Entering DELIVERED stamps DeliveredAt; no other transition touches it.
func (s *OrderService) Transition(ctx context.Context, orderID int64, newStatus domain.OrderStatus) (domain.Order, error) {
	if !newStatus.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, string(newStatus))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !o.Status.CanTransitionTo(newStatus) {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: newStatus}
	}

	deliveredAt := o.DeliveredAt
	if newStatus == domain.OrderStatusDelivered {
		now := time.Now()
		deliveredAt = &now
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, newStatus, deliveredAt); err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", o.Status.String()),
		zap.String("to", newStatus.String()))
	s.publish(ctx, domain.NewEvent(domain.EventOrderStatusChanged, strconv.FormatInt(orderID, 10)))

	o.Status = newStatus
	o.DeliveredAt = deliveredAt
	return o, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx)
}

func (s *OrderService) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed",
			zap.String("type", string(e.Type)), zap.Error(err))
	}
}
