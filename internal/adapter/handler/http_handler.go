package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/metrics"
)

// HTTPHandler exposes the storefront core over HTTP. It only translates
// between wire requests and core operations; all invariants live below.
type HTTPHandler struct {
	catalog *service.CatalogService
	cart    *service.CartService
	orders  *service.OrderService
	reports *service.ReportService
	users   *service.UserService
	log     *zap.Logger
}

func NewHTTPHandler(catalog *service.CatalogService, cart *service.CartService,
	orders *service.OrderService, reports *service.ReportService,
	users *service.UserService, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		catalog: catalog,
		cart:    cart,
		orders:  orders,
		reports: reports,
		users:   users,
		log:     log,
	}
}

func (h *HTTPHandler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)

	products := e.Group("/api/products")
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)
	products.POST("", h.CreateProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)
	products.PUT("/:id/stock", h.SetStock)
	products.POST("/:id/toggle", h.ToggleActive)

	categories := e.Group("/api/categories")
	categories.GET("", h.ListCategories)
	categories.GET("/:id", h.GetCategory)
	categories.POST("", h.CreateCategory)

	cart := e.Group("/api/users/:userID/cart")
	cart.GET("", h.GetCart)
	cart.POST("/items", h.AddCartItem)
	cart.PUT("/items/:productID", h.SetCartItemQuantity)
	cart.DELETE("/items/:productID", h.RemoveCartItem)
	cart.DELETE("", h.ClearCart)

	orders := e.Group("/api/orders")
	orders.POST("", h.PlaceOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PUT("/:id/status", h.TransitionOrder)

	reports := e.Group("/api/reports")
	reports.GET("/critical-stock", h.CriticalStock)
	reports.GET("/sales", h.SalesInRange)
	reports.GET("/inventory-value", h.TotalInventoryValue)
	reports.GET("/top-movers", h.TopMovers)
	reports.GET("/order-counts", h.OrderCountsByStatus)

	e.POST("/api/users", h.RegisterUser)
	e.GET("/api/users/:userID", h.GetUser)
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	PriceUnit   string          `json:"price_unit"`
	Stock       int             `json:"stock"`
	IsOrganic   bool            `json:"is_organic"`
	CategoryID  string          `json:"category_id"`
}

func (r productRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		PriceUnit:   r.PriceUnit,
		Stock:       r.Stock,
		IsOrganic:   r.IsOrganic,
		CategoryID:  r.CategoryID,
	}
}

func (h *HTTPHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		products, err := h.catalog.ListByCategory(ctx, categoryID)
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, products)
	}

	if c.QueryParam("all") == "true" {
		products, err := h.catalog.ListAll(ctx)
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, products)
	}

	products, err := h.catalog.ListActive(ctx)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(c echo.Context) error {
	p, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *HTTPHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	p, err := h.catalog.CreateProduct(c.Request().Context(), req.toInput())
	if err != nil {
		return h.errorResponse(c, err)
	}
	metrics.UpdateProductStock(p.ID, p.Stock)
	return c.JSON(http.StatusCreated, p)
}

func (h *HTTPHandler) UpdateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	p, err := h.catalog.UpdateProduct(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return h.errorResponse(c, err)
	}
	metrics.UpdateProductStock(p.ID, p.Stock)
	return c.JSON(http.StatusOK, p)
}

func (h *HTTPHandler) DeleteProduct(c echo.Context) error {
	if err := h.catalog.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product removed"})
}

func (h *HTTPHandler) SetStock(c echo.Context) error {
	var req struct {
		Stock int `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	p, err := h.catalog.SetStock(c.Request().Context(), c.Param("id"), req.Stock)
	if err != nil {
		return h.errorResponse(c, err)
	}
	metrics.UpdateProductStock(p.ID, p.Stock)
	return c.JSON(http.StatusOK, p)
}

func (h *HTTPHandler) ToggleActive(c echo.Context) error {
	p, err := h.catalog.ToggleActive(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *HTTPHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *HTTPHandler) GetCategory(c echo.Context) error {
	category, err := h.catalog.GetCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *HTTPHandler) CreateCategory(c echo.Context) error {
	var req domain.Category
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	category, err := h.catalog.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

type cartView struct {
	UserID    int64             `json:"user_id"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Total     decimal.Decimal   `json:"total"`
}

func (h *HTTPHandler) GetCart(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	total, err := h.cart.Total(c.Request().Context(), userID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cartView{
		UserID:    userID,
		Lines:     h.cart.Lines(userID),
		ItemCount: h.cart.ItemCount(userID),
		Total:     total,
	})
}

func (h *HTTPHandler) AddCartItem(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req domain.CartLine
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.cart.Add(c.Request().Context(), userID, req.ProductID, req.Quantity); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "item added"})
}

func (h *HTTPHandler) SetCartItemQuantity(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.cart.SetQuantity(c.Request().Context(), userID, c.Param("productID"), req.Quantity); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "quantity updated"})
}

func (h *HTTPHandler) RemoveCartItem(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	h.cart.Remove(userID, c.Param("productID"))
	return c.JSON(http.StatusOK, echo.Map{"message": "item removed"})
}

func (h *HTTPHandler) ClearCart(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	h.cart.Clear(userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

type placeOrderRequest struct {
	UserID          int64  `json:"user_id"`
	DeliveryAddress string `json:"delivery_address"`
}

func (h *HTTPHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	order, err := h.orders.PlaceOrder(c.Request().Context(), req.UserID, req.DeliveryAddress)
	if err != nil {
		metrics.RecordOrderRejected(rejectionReason(err))
		return h.errorResponse(c, err)
	}

	metrics.RecordOrderPlaced()
	return c.JSON(http.StatusCreated, order)
}

func (h *HTTPHandler) ListOrders(c echo.Context) error {
	orders, err := h.orders.ListOrders(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	order, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) TransitionOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	order, err := h.orders.Transition(c.Request().Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) CriticalStock(c echo.Context) error {
	threshold := 5
	if v := c.QueryParam("threshold"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid threshold"})
		}
		threshold = parsed
	}

	products, err := h.reports.CriticalStock(c.Request().Context(), threshold)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) SalesInRange(c echo.Context) error {
	start, err := parseTimeParam(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start time"})
	}
	end, err := parseTimeParam(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end time"})
	}

	summary, err := h.reports.SalesInRange(c.Request().Context(), start, end)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_count": summary.OrderCount,
		"revenue":     summary.Revenue,
	})
}

func (h *HTTPHandler) TotalInventoryValue(c echo.Context) error {
	value, err := h.reports.TotalInventoryValue(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_value": value})
}

func (h *HTTPHandler) TopMovers(c echo.Context) error {
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = parsed
	}

	products, err := h.reports.TopMovers(c.Request().Context(), limit)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) OrderCountsByStatus(c echo.Context) error {
	counts, err := h.reports.OrderCountsByStatus(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}

type registerUserRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (h *HTTPHandler) RegisterUser(c echo.Context) error {
	var req registerUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	u, err := h.users.Register(c.Request().Context(), req.Email, req.Name, req.Address, req.Phone)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *HTTPHandler) GetUser(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	u, err := h.users.GetUser(c.Request().Context(), userID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// errorResponse maps the core error taxonomy to HTTP statuses.
func (h *HTTPHandler) errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrMissingAddress):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.Request().URL.Path), zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrMissingAddress):
		return "missing_address"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}

func pathUserID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("userID"), 10, 64)
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
