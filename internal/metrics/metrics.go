package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Order metrics
	OrdersPlacedTotal   prometheus.Counter
	OrdersRejectedTotal prometheus.CounterVec

	// Inventory metrics
	ProductStockGauge prometheus.GaugeVec
)

// Init initializes Prometheus metrics with the configured prefix
func Init(prefix string) {
	HTTPRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	OrdersPlacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_placed_total",
			Help: "Total number of successfully placed orders",
		},
	)

	OrdersRejectedTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_orders_rejected_total",
			Help: "Total number of rejected order placements",
		},
		[]string{"reason"},
	)

	ProductStockGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_product_stock",
			Help: "Current stock level per product",
		},
		[]string{"product_id"},
	)
}

// RecordOrderPlaced increments the placed-order counter
func RecordOrderPlaced() {
	OrdersPlacedTotal.Inc()
}

// RecordOrderRejected increments the rejected-order counter for a reason
func RecordOrderRejected(reason string) {
	OrdersRejectedTotal.WithLabelValues(reason).Inc()
}

// UpdateProductStock updates the stock gauge for a product
func UpdateProductStock(productID string, stock int) {
	ProductStockGauge.WithLabelValues(productID).Set(float64(stock))
}

// Middleware returns an Echo middleware that records request metrics
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		status := strconv.Itoa(c.Response().Status)
		path := c.Path()
		HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request().Method, path, status).
			Observe(time.Since(start).Seconds())

		return err
	}
}
