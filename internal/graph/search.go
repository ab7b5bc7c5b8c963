package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SearchByName runs the drive's name-search endpoint for the query.
func (c *Client) SearchByName(ctx context.Context, driveID, query string) ([]Item, error) {
	path := fmt.Sprintf("/drives/%s/root/search(q='%s')", driveID, url.PathEscape(query))
	return c.getItems(ctx, path)
}

// Recent lists the authenticated user's recently used files, newest
// first, capped at top entries.
func (c *Client) Recent(ctx context.Context, top int) ([]Item, error) {
	return c.getItems(ctx, fmt.Sprintf("/me/drive/recent?$top=%d", top))
}

// SharedWithMe lists items other users have shared with the
// authenticated user, capped at top entries.
func (c *Client) SharedWithMe(ctx context.Context, top int) ([]SharedItem, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/me/drive/sharedWithMe?$top=%d", top), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list itemListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("graph: decoding shared items: %w", err)
	}

	shared := make([]SharedItem, 0, len(list.Value))
	for i := range list.Value {
		raw := &list.Value[i]
		si := SharedItem{Item: raw.toItem(c.logger)}
		if raw.Shared != nil {
			if raw.Shared.SharedBy != nil {
				si.SharedBy = raw.Shared.SharedBy.User.DisplayName
			}
			si.SharedAt = parseTimestamp(raw.Shared.SharedDateTime, "sharedDateTime", raw.ID, c.logger)
		}
		shared = append(shared, si)
	}
	return shared, nil
}

// searchQueryRequest is the POST /search/query payload for the
// enterprise search index.
type searchQueryRequest struct {
	Requests []searchRequestEntry `json:"requests"`
}

type searchRequestEntry struct {
	EntityTypes []string          `json:"entityTypes"`
	Query       searchQueryString `json:"query"`
	Size        int               `json:"size"`
}

type searchQueryString struct {
	QueryString string `json:"queryString"`
}

type searchQueryResponse struct {
	Value []struct {
		HitsContainers []struct {
			Hits []struct {
				Resource driveItemResponse `json:"resource"`
			} `json:"hits"`
		} `json:"hitsContainers"`
	} `json:"value"`
}

// QueryIndex runs the enterprise search index (POST /search/query).
// It fails for personal accounts and tenants without the search
// workload; callers fall back to the crawl-based content search.
func (c *Client) QueryIndex(ctx context.Context, query string, size int) ([]Item, error) {
	payload := searchQueryRequest{
		Requests: []searchRequestEntry{{
			EntityTypes: []string{"driveItem"},
			Query:       searchQueryString{QueryString: query},
			Size:        size,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("graph: encoding search query: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/search/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result searchQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("graph: decoding search response: %w", err)
	}

	var items []Item
	for _, v := range result.Value {
		for _, hc := range v.HitsContainers {
			for i := range hc.Hits {
				items = append(items, hc.Hits[i].Resource.toItem(c.logger))
			}
		}
	}
	return items, nil
}
