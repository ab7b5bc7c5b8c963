package search

import (
	"fmt"

	"github.com/mwessel/graphdrive/internal/graph"
)

// Depth selects how hard the engine works for matches.
type Depth string

const (
	// DepthFilename matches file names only, via the drive's search endpoint.
	DepthFilename Depth = "filename"

	// DepthContent crawls the drive and scans file content line by line.
	DepthContent Depth = "content"

	// DepthAuto tries the enterprise search index first and falls back
	// to DepthContent when the index is unavailable.
	DepthAuto Depth = "auto"
)

// ParseDepth validates a searchDepth argument. An empty string selects auto.
func ParseDepth(s string) (Depth, error) {
	switch Depth(s) {
	case "":
		return DepthAuto, nil
	case DepthFilename, DepthContent, DepthAuto:
		return Depth(s), nil
	default:
		return "", fmt.Errorf("invalid searchDepth %q: must be filename, content, or auto", s)
	}
}

// MatchType records which part of a file matched the query.
type MatchType string

const (
	MatchFilename MatchType = "filename"
	MatchContent  MatchType = "content"
	MatchBoth     MatchType = "both"
)

// LineMatch is a single matching line inside a file.
type LineMatch struct {
	Line    int    `json:"lineNumber"`
	Snippet string `json:"snippet"`
}

// Result is one search hit.
type Result struct {
	graph.Item
	MatchType      MatchType   `json:"matchType"`
	Score          int         `json:"relevanceScore"`
	ContentMatches []LineMatch `json:"contentMatches,omitempty"`
	Preview        string      `json:"preview,omitempty"`
	SharedBy       string      `json:"sharedBy,omitempty"`
}

// Outcome is the tri-state disposition of a candidate file. Skips carry
// a reason so callers can see why a file was excluded instead of the
// engine silently discarding it.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeNoMatch Outcome = "no-match"
	OutcomeSkipped Outcome = "skipped"
)

// Skip reasons recorded in FileOutcome.
const (
	SkipPattern        = "skip-pattern"
	SkipTypeFilter     = "type-filter"
	SkipNotSearchable  = "extension-not-searchable"
	SkipDownloadFailed = "download-failed"
	SkipNoText         = "no-extractable-text"
	SkipFolderFetch    = "folder-fetch-failed"
)

// FileOutcome records what happened to one candidate during a content
// search.
type FileOutcome struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Options parameterize a search.
type Options struct {
	Query         string
	MaxResults    int
	Depth         Depth
	IncludeShared bool
	FileTypes     []string
}

// Report is the full output of a search: the ranked results plus the
// per-file dispositions from the content-scan path.
type Report struct {
	Results []Result `json:"results"`

	// Mode is the depth that actually produced the results; auto reports
	// content after falling back.
	Mode Depth `json:"mode"`

	FilesCrawled   int           `json:"filesCrawled,omitempty"`
	CrawlTruncated bool          `json:"crawlTruncated,omitempty"`
	Outcomes       []FileOutcome `json:"outcomes,omitempty"`
}
