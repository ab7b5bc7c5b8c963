package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwessel/graphdrive/internal/instrumentation"
)

func newTestProvider(t *testing.T, enabled bool) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:    "test-service",
		ServiceVersion: "test",
		Enabled:        enabled,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    ":9191",
		InstrumentationProvider: newTestProvider(t, true),
	})
	require.NoError(t, err)
	assert.Equal(t, ":9191", srv.Addr())
}

func TestNewMetricsServerDefaultAddr(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: newTestProvider(t, true),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsAddr, srv.Addr())
}

func TestNewMetricsServerRequiresProvider(t *testing.T) {
	_, err := NewMetricsServer(MetricsServerConfig{Addr: ":9191"})
	require.Error(t, err)
}

func TestNewMetricsServerRequiresEnabledProvider(t *testing.T) {
	_, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    ":9191",
		InstrumentationProvider: newTestProvider(t, false),
	})
	require.Error(t, err)
}

func TestMetricsServerServes(t *testing.T) {
	provider := newTestProvider(t, true)
	provider.Metrics().RecordToolInvocation(context.Background(), "auth_status", instrumentation.StatusSuccess, time.Millisecond)

	sc := newTestContext(t, nil)
	srv, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    "127.0.0.1:0",
		InstrumentationProvider: provider,
		HealthChecker:           NewHealthChecker(sc),
	})
	require.NoError(t, err)

	// Exercise the handler wiring directly instead of binding a port.
	mux := http.NewServeMux()
	mux.Handle("/metrics", provider.PrometheusHandler())
	NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mcp_tool_invocations_total")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, srv.Shutdown(context.Background()), "shutdown before start is a no-op")
}
