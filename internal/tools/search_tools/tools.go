package search_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/search"
	"github.com/mwessel/graphdrive/internal/server"
	"github.com/mwessel/graphdrive/internal/tools/common"
)

// driveResolver picks the drive a search runs against. The two search
// tools differ only in this choice.
type driveResolver func(ctx context.Context, sc *server.ServerContext) (string, error)

func siteDrive(ctx context.Context, sc *server.ServerContext) (string, error) {
	drive, err := sc.ResolveSiteDrive(ctx)
	if err != nil {
		return "", err
	}
	return drive.ID, nil
}

func myDrive(ctx context.Context, sc *server.ServerContext) (string, error) {
	drive, err := sc.MyDrive(ctx)
	if err != nil {
		return "", err
	}
	return drive.ID, nil
}

// RegisterSearchTools registers the file search tools with the MCP server.
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registerSearchTool(s, sc, "search_files",
		"Search files in the selected SharePoint site's document library. Requires set_site_url.",
		siteDrive)

	registerSearchTool(s, sc, "search_my_files",
		"Search files in the signed-in user's own OneDrive. Works without a SharePoint site.",
		myDrive)

	return nil
}

// parseOptions extracts search options from tool arguments. The query
// must be present; everything else has defaults.
func parseOptions(args map[string]interface{}) (search.Options, error) {
	query := common.GetStringArg(args, "query", "")
	if query == "" {
		return search.Options{}, fmt.Errorf("query is required")
	}

	depth, err := search.ParseDepth(common.GetStringArg(args, "searchDepth", ""))
	if err != nil {
		return search.Options{}, err
	}

	return search.Options{
		Query:         query,
		Depth:         depth,
		MaxResults:    common.GetIntArg(args, "maxResults", 0),
		IncludeShared: common.GetBoolArg(args, "includeShared", false),
		FileTypes:     common.GetStringSliceArg(args, "fileTypes"),
	}, nil
}

func registerSearchTool(s *mcpserver.MCPServer, sc *server.ServerContext, name, description string, resolve driveResolver) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for in file names and contents"),
		),
		mcp.WithString("searchDepth",
			mcp.Description("How thoroughly to search: 'filename' (names only), 'content' (download and scan file contents), or 'auto' (search index with content fallback, the default)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default: 10, max: 50)"),
		),
		mcp.WithBoolean("includeShared",
			mcp.Description("Also match against files shared with the signed-in user (default: false)"),
		),
		mcp.WithString("fileTypes",
			mcp.Description("Comma-separated list of file extensions to restrict the search to (e.g., 'docx,pdf,txt')"),
		),
	)

	s.AddTool(tool, common.InstrumentedToolHandlerWithOperation(
		name, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc, resolve)
		}))
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, resolve driveResolver) (*mcp.CallToolResult, error) {
	if err := sc.Session().RequireAuth(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts, err := parseOptions(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	driveID, err := resolve(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := sc.Search().Search(ctx, driveID, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	sc.Metrics().RecordSearchScan(ctx, string(report.Mode), report.FilesCrawled)

	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(fmt.Sprintf("Found %d results:\n%s", len(report.Results), out)), nil
}
