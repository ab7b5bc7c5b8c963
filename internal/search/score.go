package search

import (
	"strings"
	"time"

	"github.com/mwessel/graphdrive/internal/graph"
)

// Relevance weights. Exact and substring name matches are mutually
// exclusive; the word bonus stacks on top of either.
const (
	scoreExactName    = 100
	scoreNameContains = 50
	scoreWordInName   = 10
	scorePathContains = 20
	scoreRecentWeek   = 10
	scoreRecentMonth  = 5
)

// minScoreWordLen excludes short stopword-ish query terms from the
// per-word bonus.
const minScoreWordLen = 2

// score computes the relevance of an item for a query. Higher is more
// relevant; zero means nothing about the name, path, or recency relates
// to the query.
func score(item graph.Item, query string, now time.Time) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	name := strings.ToLower(item.Name)

	s := 0
	switch {
	case name == q || strings.TrimSuffix(name, item.Extension()) == q:
		s += scoreExactName
	case strings.Contains(name, q):
		s += scoreNameContains
	}

	for _, word := range strings.Fields(q) {
		if len(word) > minScoreWordLen && strings.Contains(name, word) {
			s += scoreWordInName
		}
	}

	if strings.Contains(strings.ToLower(item.Path), q) {
		s += scorePathContains
	}

	if !item.ModifiedAt.IsZero() {
		age := now.Sub(item.ModifiedAt)
		switch {
		case age <= 7*24*time.Hour:
			s += scoreRecentWeek
		case age <= 30*24*time.Hour:
			s += scoreRecentMonth
		}
	}

	return s
}
