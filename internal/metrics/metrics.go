// Package metrics owns the Prometheus registry for HTTP traffic and
// production, order and stock events. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	batchTransitions *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
	stockAlerts      *prometheus.CounterVec
	unitsCompleted   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rajdhani_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rajdhani_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	batchTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rajdhani_production_batch_transitions_total",
			Help: "Production batch status changes",
		},
		[]string{"status"},
	)
	orderTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rajdhani_order_transitions_total",
			Help: "Customer order status changes",
		},
		[]string{"status"},
	)
	stockAlerts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rajdhani_stock_alerts_total",
			Help: "Low stock notifications raised",
		},
		[]string{"item_type"},
	)
	unitsCompleted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rajdhani_individual_products_total",
			Help: "Individual products created at batch completion",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		batchTransitions,
		orderTransitions,
		stockAlerts,
		unitsCompleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:         registry,
		httpRequests:     httpRequests,
		httpDuration:     httpDuration,
		batchTransitions: batchTransitions,
		orderTransitions: orderTransitions,
		stockAlerts:      stockAlerts,
		unitsCompleted:   unitsCompleted,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

func (m *Metrics) BatchTransition(status string) {
	if m == nil {
		return
	}
	m.batchTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) OrderTransition(status string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) StockAlert(itemType string) {
	if m == nil {
		return
	}
	m.stockAlerts.WithLabelValues(itemType).Inc()
}

func (m *Metrics) UnitsCompleted(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unitsCompleted.WithLabelValues(status).Add(float64(n))
}
