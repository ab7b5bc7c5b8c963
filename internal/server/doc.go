// Package server provides the MCP server context and the dedicated
// metrics listener for the graphdrive application.
//
// # Key Components
//
// ServerContext holds the process-wide state every tool handler needs:
// the single in-memory auth session, the Graph client bound to it, the
// device-code and browser auth flows, the search engine, and the
// instrumentation hooks. Site-to-drive resolution goes through
// ServerContext.ResolveSiteDrive and is intentionally uncached so that
// a set_site_url call takes effect on the very next operation.
//
// MetricsServer serves Prometheus metrics and health probes on a
// separate port from the MCP transport, so operational endpoints are
// never exposed to MCP clients.
package server
