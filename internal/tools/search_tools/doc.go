// Package search_tools provides the MCP search tools. search_files
// runs against the selected SharePoint site's document library;
// search_my_files runs against the caller's own OneDrive. Both share
// one option surface and one engine.
package search_tools
