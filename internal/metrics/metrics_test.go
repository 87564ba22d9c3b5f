package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.BatchTransition("in_production")
	m.BatchTransition("in_production")
	m.OrderTransition("dispatched")
	m.StockAlert("raw_material")
	m.UnitsCompleted("available", 2)
	m.UnitsCompleted("damaged", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.batchTransitions.WithLabelValues("in_production")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderTransitions.WithLabelValues("dispatched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stockAlerts.WithLabelValues("raw_material")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unitsCompleted.WithLabelValues("available")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BatchTransition("completed")
	m.ObserveRequest("GET", "/x", 200, time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/v1/products", 200, 15*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rajdhani_http_requests_total{method="GET",route="/api/v1/products",status="200"} 1`)
}
