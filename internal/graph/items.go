package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// encodePathSegments URL-encodes each segment of a slash-separated path.
// Characters like #, ?, %, and spaces are encoded per-segment so the
// resulting path is safe for interpolation into Graph API URLs.
func encodePathSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// driveItemResponse mirrors the Graph API driveItem JSON.
// Unexported; callers use Item via toItem() normalization.
type driveItemResponse struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Size                 int64        `json:"size"`
	WebURL               string       `json:"webUrl"`
	Description          string       `json:"description"`
	CreatedDateTime      string       `json:"createdDateTime"`
	LastModifiedDateTime string       `json:"lastModifiedDateTime"`
	ParentReference      *parentRef   `json:"parentReference"`
	File                 *fileFacet   `json:"file"`
	Folder               *folderFacet `json:"folder"`
	CreatedBy            *identitySet `json:"createdBy"`
	LastModifiedBy       *identitySet `json:"lastModifiedBy"`
	RemoteItem           *remoteItem  `json:"remoteItem"`
	Shared               *sharedFacet `json:"shared"`
}

type parentRef struct {
	ID      string `json:"id"`
	DriveID string `json:"driveId"`
	Path    string `json:"path"`
}

type fileFacet struct {
	MimeType string `json:"mimeType"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type identitySet struct {
	User struct {
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

// remoteItem appears on sharedWithMe entries; the real item lives in
// the sharing user's drive.
type remoteItem struct {
	ID              string       `json:"id"`
	Size            int64        `json:"size"`
	WebURL          string       `json:"webUrl"`
	ParentReference *parentRef   `json:"parentReference"`
	File            *fileFacet   `json:"file"`
	Folder          *folderFacet `json:"folder"`
}

type sharedFacet struct {
	SharedBy       *identitySet `json:"sharedBy"`
	SharedDateTime string       `json:"sharedDateTime"`
}

type itemListResponse struct {
	Value    []driveItemResponse `json:"value"`
	NextLink string              `json:"@odata.nextLink"`
}

// toItem normalizes a Graph API driveItem response into our Item type.
func (d *driveItemResponse) toItem(logger *slog.Logger) Item {
	item := Item{
		ID:          d.ID,
		Name:        d.Name,
		Size:        d.Size,
		IsFolder:    d.Folder != nil,
		WebURL:      d.WebURL,
		Description: d.Description,
	}

	if d.ParentReference != nil {
		item.ParentID = d.ParentReference.ID
		// Drive IDs come back with inconsistent casing across endpoints.
		item.DriveID = strings.ToLower(d.ParentReference.DriveID)
		item.Path = itemPath(d.ParentReference.Path, d.Name)
	}

	if d.File != nil {
		item.MimeType = d.File.MimeType
	}

	if d.LastModifiedBy != nil && d.LastModifiedBy.User.DisplayName != "" {
		item.Author = d.LastModifiedBy.User.DisplayName
	} else if d.CreatedBy != nil {
		item.Author = d.CreatedBy.User.DisplayName
	}

	// Items shared from another drive carry their facets on remoteItem.
	if d.RemoteItem != nil {
		if item.ID == "" {
			item.ID = d.RemoteItem.ID
		}
		if item.Size == 0 {
			item.Size = d.RemoteItem.Size
		}
		if item.WebURL == "" {
			item.WebURL = d.RemoteItem.WebURL
		}
		if d.RemoteItem.Folder != nil {
			item.IsFolder = true
		}
		if d.RemoteItem.File != nil && item.MimeType == "" {
			item.MimeType = d.RemoteItem.File.MimeType
		}
		if d.RemoteItem.ParentReference != nil && item.DriveID == "" {
			item.DriveID = strings.ToLower(d.RemoteItem.ParentReference.DriveID)
		}
	}

	item.CreatedAt = parseTimestamp(d.CreatedDateTime, "createdDateTime", d.ID, logger)
	item.ModifiedAt = parseTimestamp(d.LastModifiedDateTime, "lastModifiedDateTime", d.ID, logger)

	return item
}

// itemPath joins the Graph parentReference.path with the item name and
// strips the "/drive/root:" prefix, yielding a human-readable path like
// "Documents/Reports/q1.docx".
func itemPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	if idx := strings.Index(parentPath, "root:"); idx >= 0 {
		parentPath = parentPath[idx+len("root:"):]
	}
	parentPath = strings.TrimPrefix(parentPath, "/")
	if parentPath == "" {
		return name
	}
	if decoded, err := url.PathUnescape(parentPath); err == nil {
		parentPath = decoded
	}
	return parentPath + "/" + name
}

// parseTimestamp parses an RFC3339 timestamp. Missing or malformed
// timestamps are logged and replaced with the zero time.
func parseTimestamp(raw, field, itemID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("invalid timestamp in Graph response",
			slog.String("field", field),
			slog.String("item_id", itemID),
			slog.String("value", raw),
		)
		return time.Time{}
	}
	return t
}

// getItems fetches a URL returning an item collection and normalizes it.
func (c *Client) getItems(ctx context.Context, path string) ([]Item, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list itemListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("graph: decoding item list: %w", err)
	}

	items := make([]Item, 0, len(list.Value))
	for i := range list.Value {
		items = append(items, list.Value[i].toItem(c.logger))
	}
	return items, nil
}

// Children lists the children of the folder with the given item ID.
// Pass "root" for the drive root. Only the first page is returned; very
// large folders are truncated at the API's default page size.
func (c *Client) Children(ctx context.Context, driveID, itemID string) ([]Item, error) {
	if itemID == "" {
		itemID = "root"
	}
	return c.getItems(ctx, fmt.Sprintf("/drives/%s/items/%s/children", driveID, itemID))
}

// ChildrenByPath lists the children of the folder at the given relative
// path. An empty path lists the drive root.
func (c *Client) ChildrenByPath(ctx context.Context, driveID, folderPath string) ([]Item, error) {
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return c.getItems(ctx, fmt.Sprintf("/drives/%s/root/children", driveID))
	}
	return c.getItems(ctx, fmt.Sprintf("/drives/%s/root:/%s:/children", driveID, encodePathSegments(folderPath)))
}

// Item fetches the metadata for a single drive item.
func (c *Client) Item(ctx context.Context, driveID, itemID string) (*Item, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/drives/%s/items/%s", driveID, itemID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw driveItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("graph: decoding item: %w", err)
	}

	item := raw.toItem(c.logger)
	return &item, nil
}

// Download fetches the raw content of a file, capped at maxBytes.
// A cap of 0 means no limit.
func (c *Client) Download(ctx context.Context, driveID, itemID string, maxBytes int64) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/drives/%s/items/%s/content", driveID, itemID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("graph: reading content: %w", err)
	}
	return data, nil
}

// ContentAsHTML fetches a file rendered as HTML, used for best-effort
// text extraction from Office documents.
func (c *Client) ContentAsHTML(ctx context.Context, driveID, itemID string) (string, error) {
	path := fmt.Sprintf("/drives/%s/items/%s/content?format=html", driveID, itemID)
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("graph: reading HTML content: %w", err)
	}
	return string(data), nil
}
