package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
)

// ErrInvalidSiteURL is returned when a SharePoint site URL does not
// contain a /sites/<name> path segment.
var ErrInvalidSiteURL = errors.New("graph: site URL must contain a /sites/<name> path")

var sitePathPattern = regexp.MustCompile(`/sites/([^/]+)`)

// ParseSiteURL extracts the hostname and site name from a SharePoint
// site URL like https://contoso.sharepoint.com/sites/engineering.
func ParseSiteURL(siteURL string) (hostname, siteName string, err error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return "", "", fmt.Errorf("graph: parsing site URL: %w", err)
	}

	m := sitePathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", "", ErrInvalidSiteURL
	}
	return u.Hostname(), m[1], nil
}

// siteResponse mirrors the Graph API site JSON.
type siteResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

func (s *siteResponse) toSite() Site {
	return Site{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
		WebURL:      s.WebURL,
	}
}

// driveResponse mirrors the Graph API drive JSON.
type driveResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	DriveType string      `json:"driveType"`
	Owner     *ownerFacet `json:"owner"`
}

type ownerFacet struct {
	User struct {
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

func (d *driveResponse) toDrive() Drive {
	drive := Drive{
		ID:        d.ID,
		Name:      d.Name,
		DriveType: d.DriveType,
	}
	if d.Owner != nil {
		drive.OwnerName = d.Owner.User.DisplayName
	}
	return drive
}

// Site resolves a SharePoint site by hostname and site name.
func (c *Client) Site(ctx context.Context, hostname, siteName string) (*Site, error) {
	path := fmt.Sprintf("/sites/%s:/sites/%s", hostname, url.PathEscape(siteName))
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw siteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("graph: decoding site: %w", err)
	}

	site := raw.toSite()
	return &site, nil
}

// SiteDrive resolves the default document library of a site.
func (c *Client) SiteDrive(ctx context.Context, siteID string) (*Drive, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/sites/%s/drive", siteID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw driveResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("graph: decoding drive: %w", err)
	}

	drive := raw.toDrive()
	return &drive, nil
}

// MyDrive resolves the authenticated user's OneDrive.
func (c *Client) MyDrive(ctx context.Context) (*Drive, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/me/drive", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw driveResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("graph: decoding drive: %w", err)
	}

	drive := raw.toDrive()
	return &drive, nil
}
