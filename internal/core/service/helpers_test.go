package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/sequence"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *capturePublisher) Publish(ctx context.Context, e domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) byType(t domain.EventType) []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the full service graph over the in-memory store.
type testEnv struct {
	store   *storage.MemoryStore
	seq     *sequence.Sequencer
	events  *capturePublisher
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
	reports *ReportService
	users   *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryStore()
	seq := sequence.New()
	events := &capturePublisher{}
	log := zap.NewNop()

	cart := NewCartService(store)
	return &testEnv{
		store:   store,
		seq:     seq,
		events:  events,
		catalog: NewCatalogService(store, store, seq, events, log),
		cart:    cart,
		orders:  NewOrderService(store, store, cart, seq, DefaultPricing(), events, log),
		reports: NewReportService(store, store),
		users:   NewUserService(store, seq, events, log),
	}
}

// mustProduct creates an active product and returns it.
func (e *testEnv) mustProduct(t *testing.T, name string, price int64, stock int) domain.Product {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), ProductInput{
		Name:      name,
		Price:     decimal.NewFromInt(price),
		PriceUnit: "kg",
		Stock:     stock,
	})
	require.NoError(t, err)
	return p
}
