package instrumentation

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	config := Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	}

	provider, err := NewProvider(context.Background(), config)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected no prometheus handler when disabled")
	}

	// Recording on a disabled provider must be a silent no-op.
	provider.Metrics().RecordToolInvocation(context.Background(), "search_files", StatusSuccess, time.Second)

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_Enabled(t *testing.T) {
	config := Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil")
	}
	if provider.PrometheusHandler() == nil {
		t.Error("expected PrometheusHandler to be non-nil")
	}
}

func TestNewProvider_RepeatedCreation(t *testing.T) {
	// Each provider owns its registry, so creating several in one
	// process must not collide.
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		provider, err := NewProvider(ctx, Config{
			ServiceName:    "test-service",
			ServiceVersion: "1.0.0",
			Enabled:        true,
		})
		if err != nil {
			t.Fatalf("creation %d failed: %v", i, err)
		}
		_ = provider.Shutdown(ctx)
	}
}

func TestPrometheusHandlerServesMetrics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        true,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordToolInvocation(ctx, "search_files", StatusSuccess, 120*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	provider.PrometheusHandler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "mcp_tool_invocations_total") {
		t.Errorf("metrics output missing tool invocation counter:\n%s", body)
	}
}
