// Package common provides shared helpers for MCP tool handlers: typed
// argument extraction from tool requests and an instrumentation wrapper
// that adds metrics and audit logging around a handler.
package common
