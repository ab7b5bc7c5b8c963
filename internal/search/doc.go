// Package search implements file search over a Graph drive at three
// depths: filename (server-side name matching), content (bounded
// breadth-first crawl plus line-by-line scanning), and auto (tenant
// search index with a content-scan fallback).
//
// Content scanning is fault tolerant per file: unreadable folders,
// failed downloads, and unextractable documents become skip outcomes in
// the report instead of failing the whole search.
package search
