package files_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/explore"
	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/server"
	"github.com/mwessel/graphdrive/internal/tools/common"
)

// registerFolderTools registers the folder tree tool.
func registerFolderTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	tool := mcp.NewTool("get_folder_structure",
		mcp.WithDescription("List the folder tree of the selected SharePoint site's document library. Requires set_site_url."),
		mcp.WithString("folderPath",
			mcp.Description("Folder to start from, relative to the library root (default: the root)"),
		),
		mcp.WithNumber("depth",
			mcp.Description("How many folder levels to descend, between 1 and 5 (default: 2)"),
		),
	)

	s.AddTool(tool, common.InstrumentedToolHandlerWithOperation(
		"get_folder_structure", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetFolderStructure(ctx, request, sc)
		}))

	return nil
}

func handleGetFolderStructure(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if reply := requireAuth(sc); reply != nil {
		return reply, nil
	}

	args := request.GetArguments()
	folderPath := common.GetStringArg(args, "folderPath", "")
	depth := explore.ClampDepth(common.GetIntArg(args, "depth", 0))

	drive, err := sc.ResolveSiteDrive(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	nodes, err := explore.BuildTree(ctx, sc.Graph(), sc.Logger(), drive.ID, folderPath, depth)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list folder structure: %v", err)), nil
	}

	out, _ := json.MarshalIndent(nodes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
