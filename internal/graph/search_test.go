package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedWithMe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/drive/sharedWithMe", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("$top"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value": [
			{"id": "s1", "name": "roadmap.pptx",
			 "remoteItem": {"id": "r1", "size": 9000, "file": {"mimeType": "application/vnd.ms-powerpoint"},
			  "parentReference": {"driveId": "OtherDrive"}},
			 "shared": {"sharedBy": {"user": {"displayName": "Jordan Lee"}},
			  "sharedDateTime": "2024-03-05T11:00:00Z"}}
		]}`)
	})

	shared, err := c.SharedWithMe(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, shared, 1)

	s := shared[0]
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "roadmap.pptx", s.Name)
	assert.Equal(t, int64(9000), s.Size)
	assert.Equal(t, "otherdrive", s.DriveID)
	assert.Equal(t, "Jordan Lee", s.SharedBy)
	assert.Equal(t, time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC), s.SharedAt)
}

func TestRecent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/drive/recent", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("$top"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value": [{"id": "f1", "name": "latest.docx", "file": {}}]}`)
	})

	items, err := c.Recent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "latest.docx", items[0].Name)
}

func TestQueryIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search/query", r.URL.Path)

		var payload struct {
			Requests []struct {
				EntityTypes []string `json:"entityTypes"`
				Query       struct {
					QueryString string `json:"queryString"`
				} `json:"query"`
				Size int `json:"size"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Requests, 1)
		assert.Equal(t, []string{"driveItem"}, payload.Requests[0].EntityTypes)
		assert.Equal(t, "budget", payload.Requests[0].Query.QueryString)
		assert.Equal(t, 10, payload.Requests[0].Size)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value": [{"hitsContainers": [{"hits": [
			{"resource": {"id": "h1", "name": "budget.xlsx", "file": {}}},
			{"resource": {"id": "h2", "name": "forecast.xlsx", "file": {}}}
		]}]}]}`)
	})

	items, err := c.QueryIndex(context.Background(), "budget", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "budget.xlsx", items[0].Name)
	assert.Equal(t, "forecast.xlsx", items[1].Name)
}

func TestSearchByNameEscapesQuery(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"value": []}`)
	})

	_, err := c.SearchByName(context.Background(), "d1", "q1 report")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "search(q='q1%20report')")
}
