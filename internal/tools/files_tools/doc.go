// Package files_tools provides the MCP file tools: folder tree
// listing, single-file content download and metadata inspection, and
// the recent/shared/OneDrive listing tools. Every tool runs the token
// guard before touching the Graph API.
package files_tools
