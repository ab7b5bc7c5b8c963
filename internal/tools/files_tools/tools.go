package files_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/server"
	"github.com/mwessel/graphdrive/internal/tools/common"
)

const (
	// defaultListLimit bounds listing tools when the caller gives no limit.
	defaultListLimit = 10

	// maxListLimit is the hard ceiling for listing tools.
	maxListLimit = 50

	// maxContentBytes caps how much of a file get_file_content downloads.
	maxContentBytes = 1 << 20
)

// requireAuth runs the token guard shared by every file tool. A non-nil
// result is the error reply to return to the caller.
func requireAuth(sc *server.ServerContext) *mcp.CallToolResult {
	if err := sc.Session().RequireAuth(); err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return nil
}

// resolveDriveID picks the drive an item-scoped tool operates on: an
// explicit driveId argument wins, then the selected SharePoint site's
// document library, then the caller's own OneDrive.
func resolveDriveID(ctx context.Context, sc *server.ServerContext, args map[string]interface{}) (string, error) {
	if driveID := common.GetStringArg(args, "driveId", ""); driveID != "" {
		return driveID, nil
	}

	if sc.Session().RequireSite() == nil {
		drive, err := sc.ResolveSiteDrive(ctx)
		if err != nil {
			return "", err
		}
		return drive.ID, nil
	}

	drive, err := sc.MyDrive(ctx)
	if err != nil {
		return "", err
	}
	return drive.ID, nil
}

// clampLimit normalizes a caller-supplied limit into [1, maxListLimit],
// falling back to defaultListLimit when absent or nonsensical.
func clampLimit(args map[string]interface{}) int {
	limit := common.GetIntArg(args, "limit", defaultListLimit)
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// RegisterFileTools registers all file and folder tools with the MCP server.
func RegisterFileTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerContentTools(s, sc); err != nil {
		return fmt.Errorf("failed to register content tools: %w", err)
	}
	if err := registerFolderTools(s, sc); err != nil {
		return fmt.Errorf("failed to register folder tools: %w", err)
	}
	if err := registerListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register list tools: %w", err)
	}
	return nil
}
