package explore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwessel/graphdrive/internal/graph"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *graph.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return graph.NewClient(srv.URL, srv.Client(), staticToken("tok"), discardLogger())
}

// treeFixture serves:
//
//	root/
//	  zebra.txt
//	  Docs/
//	    readme.md
//	    Archive/
//	      old.txt
func treeFixture() http.HandlerFunc {
	item := func(id, name string, folder bool) string {
		facet := `"file": {"mimeType": "text/plain"}`
		if folder {
			facet = `"folder": {"childCount": 1}`
		}
		return fmt.Sprintf(`{"id": %q, "name": %q, "size": 42, %s,
			"parentReference": {"driveId": "d1", "path": "/drive/root:"},
			"lastModifiedDateTime": "2024-01-15T09:00:00Z"}`, id, name, facet)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/drives/d1/root/children":
			fmt.Fprintf(w, `{"value": [%s, %s]}`,
				item("z1", "zebra.txt", false),
				item("docs", "Docs", true),
			)
		case "/drives/d1/root:/Docs:/children":
			fmt.Fprintf(w, `{"value": [%s, %s]}`,
				item("r1", "readme.md", false),
				item("arch", "Archive", true),
			)
		case "/drives/d1/root:/Docs/Archive:/children":
			fmt.Fprintf(w, `{"value": [%s]}`, item("o1", "old.txt", false))
		default:
			http.NotFound(w, r)
		}
	}
}

func TestBuildTree(t *testing.T) {
	client := newTestClient(t, treeFixture())

	nodes, err := BuildTree(context.Background(), client, discardLogger(), "d1", "", 3)
	require.NoError(t, err)

	require.Len(t, nodes, 2)

	// Folders sort before files.
	assert.Equal(t, "Docs", nodes[0].Name)
	assert.Equal(t, "folder", nodes[0].Type)
	assert.Equal(t, "zebra.txt", nodes[1].Name)
	assert.Equal(t, "file", nodes[1].Type)
	assert.Equal(t, int64(42), nodes[1].Size)
	assert.Nil(t, nodes[1].Children)

	docs := nodes[0].Children
	require.Len(t, docs, 2)
	assert.Equal(t, "Archive", docs[0].Name)
	assert.Equal(t, "readme.md", docs[1].Name)

	archive := docs[0].Children
	require.Len(t, archive, 1)
	assert.Equal(t, "old.txt", archive[0].Name)
	assert.Nil(t, archive[0].Children, "file nodes never carry children")
}

func TestBuildTreeDepthLimit(t *testing.T) {
	client := newTestClient(t, treeFixture())

	nodes, err := BuildTree(context.Background(), client, discardLogger(), "d1", "", 1)
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Nil(t, nodes[0].Children, "depth 1 must not descend into folders")
}

func TestBuildTreeSubfolderStart(t *testing.T) {
	client := newTestClient(t, treeFixture())

	nodes, err := BuildTree(context.Background(), client, discardLogger(), "d1", "Docs", 1)
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Equal(t, "Archive", nodes[0].Name)
	assert.Equal(t, "readme.md", nodes[1].Name)
}

func TestBuildTreeUnreadableSubfolder(t *testing.T) {
	fixture := treeFixture()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/drives/d1/root:/Docs:/children" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error": {"code": "accessDenied", "message": "denied"}}`)
			return
		}
		fixture(w, r)
	})

	nodes, err := BuildTree(context.Background(), client, discardLogger(), "d1", "", 3)
	require.NoError(t, err, "unreadable subfolder must not fail the walk")

	require.Len(t, nodes, 2)
	assert.Equal(t, "Docs", nodes[0].Name)
	assert.Nil(t, nodes[0].Children)
}

func TestBuildTreeRootError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": "itemNotFound", "message": "no such folder"}}`)
	})

	_, err := BuildTree(context.Background(), client, discardLogger(), "d1", "Missing", 2)
	require.Error(t, err, "errors on the starting folder itself are fatal")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestClampDepth(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultDepth},
		{-3, MinDepth},
		{1, 1},
		{3, 3},
		{5, 5},
		{9, MaxDepth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDepth(tt.in))
	}
}
