package auth_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwessel/graphdrive/internal/instrumentation"
	"github.com/mwessel/graphdrive/internal/msauth"
	"github.com/mwessel/graphdrive/internal/server"
	"github.com/mwessel/graphdrive/internal/tools/common"
)

// RegisterAuthTools registers the authentication and session tools with
// the MCP server.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	deviceTool := mcp.NewTool("authenticate_device",
		mcp.WithDescription("Sign in to Microsoft 365 with the OAuth device code flow. Blocks until the sign-in completes on a second device, the code expires, or the request is cancelled."),
		mcp.WithString("clientId",
			mcp.Description("Azure AD application (client) ID. Defaults to the built-in public client."),
		),
		mcp.WithString("tenantId",
			mcp.Description("Azure AD tenant ID (default: 'common' for multi-tenant sign-in)"),
		),
	)
	s.AddTool(deviceTool, common.InstrumentedToolHandler("authenticate_device", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthenticateDevice(ctx, request, sc)
		}))

	browserTool := mcp.NewTool("authenticate_browser",
		mcp.WithDescription("Sign in to Microsoft 365 by opening the system browser and waiting for the OAuth redirect on a local callback port."),
		mcp.WithString("clientId",
			mcp.Description("Azure AD application (client) ID. Defaults to the built-in public client."),
		),
		mcp.WithString("tenantId",
			mcp.Description("Azure AD tenant ID (default: 'common' for multi-tenant sign-in)"),
		),
	)
	s.AddTool(browserTool, common.InstrumentedToolHandler("authenticate_browser", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthenticateBrowser(ctx, request, sc)
		}))

	siteTool := mcp.NewTool("set_site_url",
		mcp.WithDescription("Select the SharePoint site that site-scoped tools (search_files, get_folder_structure) operate on"),
		mcp.WithString("siteUrl",
			mcp.Required(),
			mcp.Description("Full SharePoint site URL (e.g., 'https://contoso.sharepoint.com/sites/engineering')"),
		),
	)
	s.AddTool(siteTool, common.InstrumentedToolHandler("set_site_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetSiteURL(ctx, request, sc)
		}))

	statusTool := mcp.NewTool("auth_status",
		mcp.WithDescription("Report the current authentication state: whether a token is held, when it expires, and which SharePoint site is selected"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	logoutTool := mcp.NewTool("logout",
		mcp.WithDescription("Clear the in-memory token set and site selection"),
	)
	s.AddTool(logoutTool, common.InstrumentedToolHandler("logout", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogout(ctx, request, sc)
		}))

	return nil
}

// deviceFlowFor returns the shared device flow, or a fresh one when the
// caller overrides the client or tenant for this attempt.
func deviceFlowFor(sc *server.ServerContext, clientID, tenantID string) *msauth.DeviceCodeFlow {
	base := sc.DeviceFlow()
	if clientID == "" && tenantID == "" {
		return base
	}

	flow := msauth.NewDeviceCodeFlow(clientID, tenantID, sc.Logger())
	flow.LoginBase = base.LoginBase
	flow.Display = base.Display
	return flow
}

func handleAuthenticateDevice(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	flow := deviceFlowFor(sc,
		common.GetStringArg(args, "clientId", ""),
		common.GetStringArg(args, "tenantId", ""),
	)

	dc, err := flow.Run(ctx, sc.Session())
	if err != nil {
		sc.Metrics().RecordAuthAttempt(ctx, instrumentation.FlowDeviceCode, instrumentation.AuthResultFailure)
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}
	sc.Metrics().RecordAuthAttempt(ctx, instrumentation.FlowDeviceCode, instrumentation.AuthResultSuccess)

	sc.Logger().Info("device code authentication completed",
		slog.String("verification_uri", dc.VerificationURI))
	return mcp.NewToolResultText("Successfully authenticated with Microsoft 365 via device code"), nil
}

func handleAuthenticateBrowser(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	clientID := common.GetStringArg(args, "clientId", "")
	tenantID := common.GetStringArg(args, "tenantId", "")

	if err := sc.BrowserFlow().Authenticate(ctx, sc.Session(), clientID, tenantID); err != nil {
		sc.Metrics().RecordAuthAttempt(ctx, instrumentation.FlowBrowser, instrumentation.AuthResultFailure)
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}
	sc.Metrics().RecordAuthAttempt(ctx, instrumentation.FlowBrowser, instrumentation.AuthResultSuccess)

	return mcp.NewToolResultText("Successfully authenticated with Microsoft 365 via browser sign-in"), nil
}

func handleSetSiteURL(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	siteURL := common.GetStringArg(args, "siteUrl", "")
	if siteURL == "" {
		return mcp.NewToolResultError("siteUrl is required"), nil
	}

	if err := sc.Session().SetSiteURL(siteURL); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc.Logger().Info("site selected", slog.String("site_url", siteURL))
	return mcp.NewToolResultText(fmt.Sprintf("SharePoint site set to %s", siteURL)), nil
}

func handleAuthStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	status := sc.Session().Status()

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleLogout(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	sc.Session().Clear()
	return mcp.NewToolResultText("Logged out. Tokens and site selection cleared."), nil
}
