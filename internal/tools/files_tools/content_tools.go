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

// registerContentTools registers the single-file tools: content download
// and metadata inspection.
func registerContentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getFileContentTool := mcp.NewTool("get_file_content",
		mcp.WithDescription("Download the text content of a single file. Content larger than 1 MiB is truncated."),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The Graph item ID of the file"),
		),
		mcp.WithString("driveId",
			mcp.Description("Drive containing the file. Defaults to the selected SharePoint site's document library, or the caller's OneDrive when no site is set."),
		),
	)

	s.AddTool(getFileContentTool, common.InstrumentedToolHandlerWithOperation(
		"get_file_content", instrumentation.OperationDownload, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFileContent(ctx, request, sc)
		}))

	inspectTool := mcp.NewTool("inspect_file_metadata",
		mcp.WithDescription("Fetch the metadata of a single file or folder: name, path, size, timestamps, and author"),
		mcp.WithString("fileId",
			mcp.Required(),
			mcp.Description("The Graph item ID of the file or folder"),
		),
		mcp.WithString("driveId",
			mcp.Description("Drive containing the item. Defaults to the selected SharePoint site's document library, or the caller's OneDrive when no site is set."),
		),
	)

	s.AddTool(inspectTool, common.InstrumentedToolHandlerWithOperation(
		"inspect_file_metadata", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleInspectFileMetadata(ctx, request, sc)
		}))

	return nil
}

func handleGetFileContent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if reply := requireAuth(sc); reply != nil {
		return reply, nil
	}

	args := request.GetArguments()
	fileID := common.GetStringArg(args, "fileId", "")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	driveID, err := resolveDriveID(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content, err := sc.Graph().Download(ctx, driveID, fileID, maxContentBytes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to download file: %v", err)), nil
	}

	return mcp.NewToolResultText(string(content)), nil
}

func handleInspectFileMetadata(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if reply := requireAuth(sc); reply != nil {
		return reply, nil
	}

	args := request.GetArguments()
	fileID := common.GetStringArg(args, "fileId", "")
	if fileID == "" {
		return mcp.NewToolResultError("fileId is required"), nil
	}

	driveID, err := resolveDriveID(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, err := sc.Graph().Item(ctx, driveID, fileID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch item metadata: %v", err)), nil
	}

	out, _ := json.MarshalIndent(item, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
