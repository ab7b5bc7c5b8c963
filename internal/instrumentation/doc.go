// Package instrumentation provides OpenTelemetry metrics and audit
// logging for the graphdrive server.
//
// Metrics are exported through a dedicated Prometheus registry served
// by the metrics HTTP server. Recorded signals:
//
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//   - graph_api_operations_total / graph_api_operation_duration_seconds
//   - auth_attempts_total (by flow and result)
//   - search_files_scanned
//   - http_requests_total / http_request_duration_seconds
//
// Audit logging produces one structured log record per tool invocation,
// keyed by a generated invocation ID. Tokens and file contents are
// never written to the audit stream.
package instrumentation
