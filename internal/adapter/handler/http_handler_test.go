package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/metrics"
	"github.com/rl1809/storefront/internal/sequence"
)

func TestMain(m *testing.M) {
	// handlers touch the metric collectors, which must exist exactly once
	metrics.Init("handler_test")
	os.Exit(m.Run())
}

type fixture struct {
	e       *echo.Echo
	catalog *service.CatalogService
	cart    *service.CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := storage.NewMemoryStore()
	seq := sequence.New()
	log := zap.NewNop()

	catalog := service.NewCatalogService(store, store, seq, nil, log)
	cart := service.NewCartService(store)
	orders := service.NewOrderService(store, store, cart, seq, service.DefaultPricing(), nil, log)
	reports := service.NewReportService(store, store)
	users := service.NewUserService(store, seq, nil, log)

	e := echo.New()
	NewHTTPHandler(catalog, cart, orders, reports, users, log).Register(e)
	return &fixture{e: e, catalog: catalog, cart: cart}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) mustProduct(t *testing.T, name string, price int64, stock int) domain.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), service.ProductInput{
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/products",
		`{"name":"Carrot","price":"1200","price_unit":"kg","stock":150}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "PR001", created.ID)
	assert.Equal(t, 150, created.Stock)

	rec = f.do(http.MethodGet, "/api/products/PR001", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/products/PR999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProductValidationStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/products", `{"name":"","price":"100"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/products", `{"name":"X","price":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartEndpoints(t *testing.T) {
	f := newFixture(t)
	p := f.mustProduct(t, "Carrot", 1200, 4)

	rec := f.do(http.MethodPost, "/api/users/1/cart/items",
		`{"product_id":"`+p.ID+`","quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// over live stock: conflict
	rec = f.do(http.MethodPost, "/api/users/1/cart/items",
		`{"product_id":"`+p.ID+`","quantity":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/api/users/1/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		ItemCount int             `json:"item_count"`
		Total     decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(3600)))

	rec = f.do(http.MethodDelete, "/api/users/1/cart/items/"+p.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlaceOrderEndpoint(t *testing.T) {
	f := newFixture(t)
	p := f.mustProduct(t, "Carrot", 1200, 150)
	require.NoError(t, f.cart.Add(context.Background(), 1, p.ID, 3))

	rec := f.do(http.MethodPost, "/api/orders",
		`{"user_id":1,"delivery_address":"12 Market Street"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(6600)))

	// the cart is now empty, a second placement fails
	rec = f.do(http.MethodPost, "/api/orders",
		`{"user_id":1,"delivery_address":"12 Market Street"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrderMissingAddressStatus(t *testing.T) {
	f := newFixture(t)
	p := f.mustProduct(t, "Carrot", 1200, 150)
	require.NoError(t, f.cart.Add(context.Background(), 1, p.ID, 1))

	rec := f.do(http.MethodPost, "/api/orders", `{"user_id":1,"delivery_address":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransitionEndpoint(t *testing.T) {
	f := newFixture(t)
	p := f.mustProduct(t, "Carrot", 1200, 150)
	require.NoError(t, f.cart.Add(context.Background(), 1, p.ID, 1))

	rec := f.do(http.MethodPost, "/api/orders", `{"user_id":1,"delivery_address":"addr"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPut, "/api/orders/1/status", `{"status":"PREPARING"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// skipping ahead is a conflict
	rec = f.do(http.MethodPut, "/api/orders/1/status", `{"status":"DELIVERED"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown status value is a bad request
	rec = f.do(http.MethodPut, "/api/orders/1/status", `{"status":"SHIPPING"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/api/orders/999/status", `{"status":"PREPARING"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterUserEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/users",
		`{"email":"an@example.com","name":"An"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// duplicate email maps to conflict
	rec = f.do(http.MethodPost, "/api/users",
		`{"email":"an@example.com","name":"Other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/users", `{"email":"bad","name":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsEndpoints(t *testing.T) {
	f := newFixture(t)
	f.mustProduct(t, "Low", 100, 2)
	f.mustProduct(t, "Plenty", 100, 50)

	rec := f.do(http.MethodGet, "/api/reports/critical-stock?threshold=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []domain.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Low", products[0].Name)

	rec = f.do(http.MethodGet, "/api/reports/inventory-value", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/reports/order-counts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
