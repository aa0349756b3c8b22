package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// SalesSummary aggregates committed (non-cancelled) orders in a time range.
type SalesSummary struct {
	OrderCount int
	Revenue    decimal.Decimal
}

// ReportService answers read-only questions over the catalog and order set.
// It recomputes on demand and never mutates either store.
type ReportService struct {
	catalog port.CatalogRepository
	orders  port.OrderRepository
}

func NewReportService(catalog port.CatalogRepository, orders port.OrderRepository) *ReportService {
	return &ReportService{catalog: catalog, orders: orders}
}

// CriticalStock lists active products at or below the threshold, lowest
// stock first.
func (s *ReportService) CriticalStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	var critical []domain.Product
	for _, p := range products {
		if p.IsActive && p.Stock <= threshold {
			critical = append(critical, p)
		}
	}
	sort.Slice(critical, func(i, j int) bool { return critical[i].Stock < critical[j].Stock })
	return critical, nil
}

// SalesInRange counts orders created in [start, end) and sums their totals.
// Cancelled orders do not count as sales.
func (s *ReportService) SalesInRange(ctx context.Context, start, end time.Time) (SalesSummary, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return SalesSummary{}, err
	}

	summary := SalesSummary{Revenue: decimal.Zero}
	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		if o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		summary.OrderCount++
		summary.Revenue = summary.Revenue.Add(o.Total)
	}
	return summary, nil
}

// TotalInventoryValue sums price x stock across the whole catalog.
func (s *ReportService) TotalInventoryValue(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	return total, nil
}

// TopMovers ranks active products by ascending remaining stock. Low stock is
// used as a proxy for sales velocity; this is a documented heuristic, not a
// real sales count.
func (s *ReportService) TopMovers(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	var active []domain.Product
	for _, p := range products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Stock < active[j].Stock })

	if limit > 0 && limit < len(active) {
		active = active[:limit]
	}
	return active, nil
}

func (s *ReportService) OrderCountsByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[domain.OrderStatus]int{
		domain.OrderStatusPending:   0,
		domain.OrderStatusPreparing: 0,
		domain.OrderStatusShipped:   0,
		domain.OrderStatusDelivered: 0,
		domain.OrderStatusCancelled: 0,
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts, nil
}
