package explore

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mwessel/graphdrive/internal/graph"
)

// Depth bounds for a tree walk. Depth counts levels of children below
// the starting folder.
const (
	MinDepth     = 1
	MaxDepth     = 5
	DefaultDepth = 2
)

// Node is one entry in a folder tree. Children is nil for files and for
// folders at the depth limit, so the output distinguishes "empty" from
// "not descended".
type Node struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Type     string    `json:"type"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified,omitzero"`
	Children []Node    `json:"children,omitempty"`
}

// ClampDepth forces depth into the supported range, defaulting when
// unset.
func ClampDepth(depth int) int {
	switch {
	case depth == 0:
		return DefaultDepth
	case depth < MinDepth:
		return MinDepth
	case depth > MaxDepth:
		return MaxDepth
	default:
		return depth
	}
}

// BuildTree lists a folder recursively down to the given depth. An
// empty folderPath starts at the drive root. Folders sort before files,
// alphabetically within each group.
func BuildTree(ctx context.Context, client *graph.Client, logger *slog.Logger, driveID, folderPath string, depth int) ([]Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	depth = ClampDepth(depth)
	return walk(ctx, client, logger, driveID, folderPath, depth)
}

func walk(ctx context.Context, client *graph.Client, logger *slog.Logger, driveID, folderPath string, depth int) ([]Node, error) {
	items, err := client.ChildrenByPath(ctx, driveID, folderPath)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsFolder != items[j].IsFolder {
			return items[i].IsFolder
		}
		return items[i].Name < items[j].Name
	})

	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		node := Node{
			Name:     item.Name,
			Path:     item.Path,
			Size:     item.Size,
			Modified: item.ModifiedAt,
		}

		if !item.IsFolder {
			node.Type = "file"
			nodes = append(nodes, node)
			continue
		}

		node.Type = "folder"
		if depth > 1 {
			children, err := walk(ctx, client, logger, driveID, childPath(folderPath, item.Name), depth-1)
			if err != nil {
				// One unreadable subfolder should not blank the whole
				// tree; report it as a leaf.
				logger.Warn("skipping unreadable folder",
					slog.String("path", node.Path),
					slog.String("error", err.Error()),
				)
			} else {
				node.Children = children
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func childPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return name
	}
	return parent + "/" + name
}
