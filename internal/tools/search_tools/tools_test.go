package search_tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwessel/graphdrive/internal/config"
	"github.com/mwessel/graphdrive/internal/search"
	"github.com/mwessel/graphdrive/internal/server"
)

func newTestContext(t *testing.T, handler http.HandlerFunc) *server.ServerContext {
	t.Helper()

	cfg := config.Default()
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		cfg.GraphBaseURL = srv.URL
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc, err := server.NewServerContext(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func authenticate(sc *server.ServerContext) {
	sc.Session().SetTokens("tok", "refresh", time.Now().Add(time.Hour))
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

// searchFixture serves a OneDrive with two files: one matching by name,
// one matching by content.
func searchFixture() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/drive":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id": "d1", "name": "OneDrive", "driveType": "personal"}`)
		case "/drives/d1/items/root/children":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"value": [
				{"id": "f1", "name": "report_2024.txt", "file": {"mimeType": "text/plain"}},
				{"id": "f2", "name": "notes.md", "file": {"mimeType": "text/markdown"}}
			]}`)
		case "/drives/d1/items/f1/content":
			fmt.Fprint(w, "nothing relevant here")
		case "/drives/d1/items/f2/content":
			fmt.Fprint(w, "meeting notes\nquarterly report summary\naction items")
		default:
			http.NotFound(w, r)
		}
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(map[string]interface{}{
		"query":         "report",
		"searchDepth":   "content",
		"maxResults":    20.0,
		"includeShared": true,
		"fileTypes":     "txt,md",
	})
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if opts.Query != "report" || opts.Depth != search.DepthContent {
		t.Errorf("opts = %+v", opts)
	}
	if opts.MaxResults != 20 || !opts.IncludeShared {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.FileTypes) != 2 {
		t.Errorf("FileTypes = %v", opts.FileTypes)
	}
}

func TestParseOptionsRequiresQuery(t *testing.T) {
	if _, err := parseOptions(map[string]interface{}{}); err == nil {
		t.Error("expected error for missing query")
	}
}

func TestParseOptionsRejectsBadDepth(t *testing.T) {
	_, err := parseOptions(map[string]interface{}{
		"query":       "report",
		"searchDepth": "everything",
	})
	if err == nil {
		t.Error("expected error for invalid searchDepth")
	}
}

func TestHandleSearchMyFiles(t *testing.T) {
	sc := newTestContext(t, searchFixture())
	authenticate(sc)

	result, err := handleSearch(context.Background(), toolRequest(map[string]interface{}{
		"query":       "report",
		"searchDepth": "content",
	}), sc, myDrive)
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.HasPrefix(text, "Found 2 results:") {
		t.Errorf("unexpected reply prefix: %s", text)
	}
	if !strings.Contains(text, "report_2024.txt") || !strings.Contains(text, "notes.md") {
		t.Errorf("reply missing expected results: %s", text)
	}
	if !strings.Contains(text, "quarterly report summary") {
		t.Errorf("reply missing content match snippet: %s", text)
	}
}

func TestHandleSearchRequiresAuth(t *testing.T) {
	sc := newTestContext(t, searchFixture())

	result, err := handleSearch(context.Background(), toolRequest(map[string]interface{}{
		"query": "report",
	}), sc, myDrive)
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result without authentication")
	}
	if text := resultText(t, result); !strings.Contains(text, "Not authenticated") {
		t.Errorf("error reply should mention authentication: %s", text)
	}
}

func TestHandleSearchSiteRequiresSiteURL(t *testing.T) {
	sc := newTestContext(t, searchFixture())
	authenticate(sc)

	result, err := handleSearch(context.Background(), toolRequest(map[string]interface{}{
		"query": "report",
	}), sc, siteDrive)
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result without a site URL")
	}
	if text := resultText(t, result); !strings.Contains(text, "set_site_url") {
		t.Errorf("error reply should point at set_site_url: %s", text)
	}
}

func TestHandleSearchSiteDrive(t *testing.T) {
	sc := newTestContext(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/sites/contoso.sharepoint.com:/sites/engineering":
			fmt.Fprint(w, `{"id": "site1", "name": "engineering"}`)
		case "/sites/site1/drive":
			fmt.Fprint(w, `{"id": "sd1", "name": "Documents", "driveType": "documentLibrary"}`)
		case "/drives/sd1/root/search(q='spec')":
			fmt.Fprint(w, `{"value": [
				{"id": "f1", "name": "spec.docx", "file": {"mimeType": "application/msword"}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	})
	authenticate(sc)
	if err := sc.Session().SetSiteURL("https://contoso.sharepoint.com/sites/engineering"); err != nil {
		t.Fatalf("SetSiteURL() error = %v", err)
	}

	result, err := handleSearch(context.Background(), toolRequest(map[string]interface{}{
		"query":       "spec",
		"searchDepth": "filename",
	}), sc, siteDrive)
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "spec.docx") {
		t.Errorf("reply missing filename match: %s", text)
	}
}
