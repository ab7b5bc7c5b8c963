// Package auth_tools provides MCP tools for Microsoft 365
// authentication and session management: the device code and browser
// sign-in flows, SharePoint site selection, status reporting, and
// logout.
package auth_tools
