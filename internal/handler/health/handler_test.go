package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func newEngine(deps map[string]Pinger, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(deps, reg).RegisterRoutes(r.Group(""))
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	broken := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	w := get(newEngine(map[string]Pinger{"postgres": healthy}, prometheus.NewRegistry()), "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(newEngine(map[string]Pinger{"postgres": healthy, "redis": broken}, prometheus.NewRegistry()), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
	assert.NotContains(t, w.Body.String(), "postgres")
}

func TestLivenessAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "companion_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	r := newEngine(nil, reg)
	assert.Equal(t, http.StatusOK, get(r, "/health/live").Code)

	w := get(r, "/health/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "companion_test_total 1")
}
