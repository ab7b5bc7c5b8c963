package files_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/server"
	"github.com/mwessel/graphdrive/internal/tools/common"
)

// registerListTools registers the listing tools: recent files, shared
// files, and the caller's own OneDrive contents.
func registerListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	recentTool := mcp.NewTool("list_recent_files",
		mcp.WithDescription("List files the signed-in user recently accessed, most recent first"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of files to return (default: %d, max: %d)", defaultListLimit, maxListLimit)),
		),
	)

	s.AddTool(recentTool, common.InstrumentedToolHandlerWithOperation(
		"list_recent_files", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListRecentFiles(ctx, request, sc)
		}))

	sharedTool := mcp.NewTool("list_shared_files",
		mcp.WithDescription("List files other people shared with the signed-in user"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of files to return (default: %d, max: %d)", defaultListLimit, maxListLimit)),
		),
	)

	s.AddTool(sharedTool, common.InstrumentedToolHandlerWithOperation(
		"list_shared_files", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListSharedFiles(ctx, request, sc)
		}))

	myFilesTool := mcp.NewTool("list_my_files",
		mcp.WithDescription("List the contents of a folder in the signed-in user's own OneDrive. Works without a SharePoint site."),
		mcp.WithString("folderPath",
			mcp.Description("Folder to list, relative to the OneDrive root (default: the root)"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of entries to return (default: %d, max: %d)", defaultListLimit, maxListLimit)),
		),
	)

	s.AddTool(myFilesTool, common.InstrumentedToolHandlerWithOperation(
		"list_my_files", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMyFiles(ctx, request, sc)
		}))

	return nil
}

func handleListRecentFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if reply := requireAuth(sc); reply != nil {
		return reply, nil
	}

	limit := clampLimit(request.GetArguments())
	items, err := sc.Graph().Recent(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list recent files: %v", err)), nil
	}

	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Found %d recent files:\n%s", len(items), out)), nil
}

func handleListSharedFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if reply := requireAuth(sc); reply != nil {
		return reply, nil
	}

	limit := clampLimit(request.GetArguments())
	items, err := sc.Graph().SharedWithMe(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list shared files: %v", err)), nil
	}

	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Found %d shared files:\n%s", len(items), out)), nil
}

func handleListMyFiles(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if reply := requireAuth(sc); reply != nil {
		return reply, nil
	}

	args := request.GetArguments()
	folderPath := common.GetStringArg(args, "folderPath", "")
	limit := clampLimit(args)

	drive, err := sc.MyDrive(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, err := sc.Graph().ChildrenByPath(ctx, drive.ID, folderPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list folder: %v", err)), nil
	}
	if len(items) > limit {
		items = items[:limit]
	}

	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Found %d entries:\n%s", len(items), out)), nil
}
