package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/sequence"
)

// ProductInput carries the caller-editable fields of a product; ids and
// timestamps are assigned by the service.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	PriceUnit   string
	Stock       int
	IsOrganic   bool
	CategoryID  string
}

// CatalogService owns product and category master data. Every mutation is
// visible to reads issued after it returns, and publishes an event.
type CatalogService struct {
	repo   port.CatalogRepository
	orders port.OrderRepository
	seq    *sequence.Sequencer
	events port.EventPublisher
	log    *zap.Logger
}

func NewCatalogService(repo port.CatalogRepository, orders port.OrderRepository,
	seq *sequence.Sequencer, events port.EventPublisher, log *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, orders: orders, seq: seq, events: events, log: log}
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := s.validateInput(ctx, in); err != nil {
		return domain.Product{}, err
	}

	now := time.Now()
	p := domain.Product{
		ID:          s.seq.NextProductID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		PriceUnit:   in.PriceUnit,
		Stock:       in.Stock,
		IsActive:    true,
		IsOrganic:   in.IsOrganic,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.log.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("name", p.Name),
		zap.String("price", p.Price.String()))
	s.publish(ctx, domain.NewEvent(domain.EventProductCreated, p.ID))
	return p, nil
}

// UpdateProduct fully replaces the editable fields of an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	if err := s.validateInput(ctx, in); err != nil {
		return domain.Product{}, err
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.PriceUnit = in.PriceUnit
	p.Stock = in.Stock
	p.IsOrganic = in.IsOrganic
	p.CategoryID = in.CategoryID
	p.UpdatedAt = time.Now()

	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventProductUpdated, p.ID))
	return p, nil
}

func (s *CatalogService) SetStock(ctx context.Context, id string, stock int) (domain.Product, error) {
	if stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidArgument)
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()

	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("set stock: %w", err)
	}

	s.log.Info("stock updated", zap.String("product_id", id), zap.Int("stock", stock))
	s.publish(ctx, domain.NewEvent(domain.EventStockChanged, p.ID))
	return p, nil
}

func (s *CatalogService) ToggleActive(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.IsActive = !p.IsActive
	p.UpdatedAt = time.Now()

	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("toggle active: %w", err)
	}

	s.publish(ctx, domain.NewEvent(domain.EventProductUpdated, p.ID))
	return p, nil
}

// DeleteProduct removes a product from the catalog. A product referenced by
// committed order lines is never hard-deleted; it is deactivated instead so
// historical orders keep a resolvable product id.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.orders.HasOrdersForProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("check order references: %w", err)
	}
	if referenced {
		p.IsActive = false
		p.UpdatedAt = time.Now()
		if err := s.repo.SaveProduct(ctx, p); err != nil {
			return fmt.Errorf("deactivate product: %w", err)
		}
		s.log.Info("product referenced by orders, deactivated instead of deleted",
			zap.String("product_id", id))
		s.publish(ctx, domain.NewEvent(domain.EventProductUpdated, id))
		return nil
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.NewEvent(domain.EventProductDeleted, id))
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) ListActive(ctx context.Context) ([]domain.Product, error) {
	all, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *CatalogService) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	all, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	var result []domain.Product
	for _, p := range all {
		if p.CategoryID == categoryID && p.IsActive {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
		return domain.Category{}, fmt.Errorf("%w: category id and name are required", domain.ErrInvalidArgument)
	}
	if err := s.repo.SaveCategory(ctx, c); err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) validateInput(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrInvalidArgument)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidArgument)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidArgument)
	}
	if in.CategoryID != "" {
		if _, err := s.repo.GetCategory(ctx, in.CategoryID); err != nil {
			return fmt.Errorf("category %s: %w", in.CategoryID, err)
		}
	}
	return nil
}

func (s *CatalogService) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed",
			zap.String("type", string(e.Type)), zap.Error(err))
	}
}
