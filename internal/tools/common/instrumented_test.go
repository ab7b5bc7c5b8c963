package common

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/mwessel/graphdrive/internal/config"
	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc, err := server.NewServerContext(context.Background(), config.Default(), logger)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)

	result, err := wrapped(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)

	_, err := wrapped(ctx, mcp.CallToolRequest{})
	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("error message"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)

	result, err := wrapped(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if !result.IsError {
		t.Error("expected result.IsError to be true")
	}
}

func TestInstrumentedToolHandler_AuditLog(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	sc.SetInstrumentation(sc.Metrics(), audit)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := InstrumentedToolHandler("auth_status", sc, handler)
	if _, err := wrapped(ctx, mcp.CallToolRequest{}); err != nil {
		t.Fatalf("wrapped handler returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("audit log missing tool_executed event: %s", out)
	}
	if !strings.Contains(out, `"tool":"auth_status"`) {
		t.Errorf("audit log missing tool name: %s", out)
	}
}

func TestInstrumentedToolHandler_AuditLogsFailure(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	sc.SetInstrumentation(sc.Metrics(), audit)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("graph unavailable")
	}

	wrapped := InstrumentedToolHandler("search_files", sc, handler)
	_, _ = wrapped(ctx, mcp.CallToolRequest{})

	out := buf.String()
	if !strings.Contains(out, "tool_failed") {
		t.Errorf("audit log missing tool_failed event: %s", out)
	}
	if !strings.Contains(out, "graph unavailable") {
		t.Errorf("audit log missing error message: %s", out)
	}
}

func TestInstrumentedToolHandlerWithOperation(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := instrumentation.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	sc.SetInstrumentation(metrics, sc.Audit())

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandlerWithOperation("list_recent_files", instrumentation.OperationList, sc, handler)

	// With a noop meter we only verify the code path executes cleanly.
	result, err := wrapped(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}
