package graph

import "time"

// Item is the normalized view of a Graph driveItem (file or folder).
// Callers never see raw API JSON.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path,omitempty"`
	DriveID     string    `json:"driveId,omitempty"`
	ParentID    string    `json:"parentId,omitempty"`
	Size        int64     `json:"size"`
	IsFolder    bool      `json:"isFolder"`
	MimeType    string    `json:"mimeType,omitempty"`
	WebURL      string    `json:"webUrl,omitempty"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdTime"`
	ModifiedAt  time.Time `json:"lastModifiedTime"`
}

// Extension returns the lowercase file extension including the dot,
// or the empty string when the name has none.
func (i Item) Extension() string {
	for idx := len(i.Name) - 1; idx >= 0; idx-- {
		switch i.Name[idx] {
		case '.':
			return lowerASCII(i.Name[idx:])
		case '/', '\\':
			return ""
		}
	}
	return ""
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// SharedItem is an item from the "shared with me" listing, annotated
// with the user who shared it.
type SharedItem struct {
	Item
	SharedBy string    `json:"sharedBy,omitempty"`
	SharedAt time.Time `json:"sharedTime,omitempty"`
}

// Site is the normalized view of a SharePoint site.
type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	WebURL      string `json:"webUrl,omitempty"`
}

// Drive is the normalized view of a drive (document library or OneDrive).
type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType,omitempty"`
	OwnerName string `json:"ownerName,omitempty"`
}
