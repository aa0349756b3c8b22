package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CartService holds one mutable cart per user. A cart never caches stock or
// price: every mutation re-reads live stock from the catalog, and the final
// authority on stock is the order placement itself, which re-checks under the
// store's own lock.
type CartService struct {
	mu      sync.Mutex
	carts   map[int64]map[string]int // userID -> productID -> quantity
	catalog port.CatalogRepository
}

func NewCartService(catalog port.CatalogRepository) *CartService {
	return &CartService{
		carts:   make(map[int64]map[string]int),
		catalog: catalog,
	}
}

// Add upserts a line. The combined quantity (existing + added) must not
// exceed the product's live stock.
func (s *CartService) Add(ctx context.Context, userID int64, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}

	p, err := s.sellableProduct(ctx, productID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.carts[userID][productID]
	if existing+quantity > p.Stock {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: existing + quantity,
			Available: p.Stock,
		}
	}

	if s.carts[userID] == nil {
		s.carts[userID] = make(map[string]int)
	}
	s.carts[userID][productID] = existing + quantity
	return nil
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID int64, productID string, quantity int) error {
	if quantity <= 0 {
		s.Remove(userID, productID)
		return nil
	}

	p, err := s.sellableProduct(ctx, productID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity > p.Stock {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: p.Stock,
		}
	}

	if s.carts[userID] == nil {
		s.carts[userID] = make(map[string]int)
	}
	s.carts[userID][productID] = quantity
	return nil
}

// Remove is idempotent; removing an absent line is not an error.
func (s *CartService) Remove(userID int64, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts[userID], productID)
	if len(s.carts[userID]) == 0 {
		delete(s.carts, userID)
	}
}

func (s *CartService) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
}

// Lines returns a snapshot of the user's cart, ordered by product id.
func (s *CartService) Lines(userID int64) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]domain.CartLine, 0, len(s.carts[userID]))
	for productID, quantity := range s.carts[userID] {
		lines = append(lines, domain.CartLine{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

func (s *CartService) ItemCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, quantity := range s.carts[userID] {
		count += quantity
	}
	return count
}

// Total prices the cart from the live catalog. This is a display value; the
// authoritative total is computed at placement time.
func (s *CartService) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range s.Lines(userID) {
		p, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price cart line %s: %w", line.ProductID, err)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}

// sellableProduct resolves a product that can currently be bought. Inactive
// products are invisible to carts, same as unknown ones.
func (s *CartService) sellableProduct(ctx context.Context, productID string) (domain.Product, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.IsActive {
		return domain.Product{}, fmt.Errorf("product %s is not available: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}
