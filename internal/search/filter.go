package search

import (
	"strings"

	"github.com/mwessel/graphdrive/internal/graph"
)

// Skip patterns: transient, generated, or tooling files that are never
// worth scanning.
var (
	skipNamePrefixes = []string{".", "~$"}

	skipNameSuffixes = []string{
		".tmp", ".temp", ".bak", ".old", ".swp", ".lock",
		".min.js", ".min.css", ".map", ".pyc", ".class",
	}

	skipPathSegments = []string{
		".git", ".svn", ".hg",
		"node_modules", "bower_components", "vendor",
		"__pycache__", ".venv", ".cache",
	}
)

// searchableExtensions are plain-text formats the content scanner reads
// directly.
var searchableExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true,
	".html": true, ".htm": true, ".log": true, ".ini": true,
	".cfg": true, ".conf": true, ".sh": true, ".ps1": true,
	".js": true, ".ts": true, ".go": true, ".py": true,
	".rb": true, ".java": true, ".c": true, ".cpp": true,
	".h": true, ".cs": true, ".sql": true, ".php": true,
}

// officeExtensions route through best-effort HTML text extraction
// instead of a raw download.
var officeExtensions = map[string]bool{
	".docx": true, ".doc": true,
	".xlsx": true, ".xls": true,
	".pptx": true, ".ppt": true,
}

// shouldSkip reports whether a file matches the fixed skip patterns.
func shouldSkip(item graph.Item) bool {
	name := strings.ToLower(item.Name)

	for _, prefix := range skipNamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, suffix := range skipNameSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	path := strings.ToLower(item.Path)
	for _, segment := range strings.Split(path, "/") {
		for _, skip := range skipPathSegments {
			if segment == skip {
				return true
			}
		}
	}
	return false
}

// isSearchable reports whether the extension is content-scannable,
// either directly or via Office text extraction.
func isSearchable(ext string) bool {
	return searchableExtensions[ext] || officeExtensions[ext]
}

// isOfficeDocument reports whether the extension needs the extraction path.
func isOfficeDocument(ext string) bool {
	return officeExtensions[ext]
}

// matchesTypeFilter applies the caller's optional extension allow-list.
// Entries may be given with or without the leading dot.
func matchesTypeFilter(ext string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		if f == ext {
			return true
		}
	}
	return false
}
