package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MemoryStore keeps the whole catalog, order set and user registry in process
// memory behind one lock. It is the reference implementation of the storage
// ports: CreateOrder validates and decrements stock for all lines inside a
// single critical section, so two concurrent orders can never over-sell the
// same unit.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[string]*domain.Product
	categories map[string]*domain.Category
	orders     map[int64]*domain.Order
	users      map[int64]*domain.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[string]*domain.Product),
		categories: make(map[string]*domain.Category),
		orders:     make(map[int64]*domain.Order),
		users:      make(map[int64]*domain.User),
	}
}

func (s *MemoryStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return *p, nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) SaveProduct(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := p
	s.products[p.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return *c, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) SaveCategory(ctx context.Context, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := c
	s.categories[c.ID] = &cp
	return nil
}

// CreateOrder commits the order and its stock decrements all-or-nothing.
// First pass validates every line against live stock, second pass mutates;
// both happen under the write lock, so no partial state is ever observable.
func (s *MemoryStore) CreateOrder(ctx context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range order.Lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		if p.Stock < line.Quantity {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: p.Stock,
			}
		}
	}

	for _, line := range order.Lines {
		p := s.products[line.ProductID]
		p.Stock -= line.Quantity
		p.UpdatedAt = order.CreatedAt
	}

	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return *copyOrder(*o), nil
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		result = append(result, *copyOrder(*o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus, deliveredAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.DeliveredAt = deliveredAt
	return nil
}

func (s *MemoryStore) HasOrdersForProduct(ctx context.Context, productID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		for _, line := range o.Lines {
			if line.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	cp := u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return *u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return *u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// copyOrder detaches the lines slice so callers cannot reach into the store.
func copyOrder(o domain.Order) *domain.Order {
	cp := o
	cp.Lines = make([]domain.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		cp.DeliveredAt = &t
	}
	return &cp
}
