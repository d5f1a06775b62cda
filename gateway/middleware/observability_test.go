package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObservabilityMiddlewareRecordsRequest(t *testing.T) {
	obs := NewObservability(ObservabilityConfig{
		ServiceName: "novaperp-gateway-test",
		Enabled:     true,
	}, nil)

	handler := obs.Middleware("orders.place")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(obs.requests.WithLabelValues("orders.place", "2xx")))
}

func TestObservabilityMiddlewareDisabledPassesThrough(t *testing.T) {
	obs := NewObservability(ObservabilityConfig{ServiceName: "novaperp-gateway-test"}, nil)

	called := false
	handler := obs.Middleware("orders.place")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, float64(0), testutil.ToFloat64(obs.requests.WithLabelValues("orders.place", "2xx")))
}

func TestMetricsHandlerServesPrometheusFormat(t *testing.T) {
	obs := NewObservability(ObservabilityConfig{ServiceName: "novaperp-gateway-test", Enabled: true}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	obs.MetricsHandler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
