package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwessel/graphdrive/internal/graph"
)

// Engine limits.
const (
	defaultMaxResults = 10
	maxResultsCap     = 50

	// crawlCap bounds how many files a content crawl enumerates before
	// stopping, regardless of drive size.
	crawlCap = 5000

	// lowRelevanceCap bounds the second scanning pass over zero-score
	// files.
	lowRelevanceCap = 200

	// sharedListingCap is how many shared-with-me entries the shared
	// extension examines.
	sharedListingCap = 100

	// contentByteCap bounds each file download during scanning.
	contentByteCap = 1 << 20

	maxLineMatches = 5
	snippetMaxLen  = 300
	previewMaxLen  = 200
)

// Engine runs file searches against a drive. It is stateless between
// calls and safe for concurrent use.
type Engine struct {
	client *graph.Client
	logger *slog.Logger

	// Injectable for tests.
	now      func() time.Time
	crawlCap int
}

// NewEngine creates a search engine over the given Graph client.
func NewEngine(client *graph.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:   client,
		logger:   logger,
		now:      time.Now,
		crawlCap: crawlCap,
	}
}

// Search runs a query against the drive using the requested depth and
// returns ranked results. Individual file failures during a content
// scan never fail the search; they are recorded as skipped outcomes.
func (e *Engine) Search(ctx context.Context, driveID string, opts Options) (*Report, error) {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MaxResults > maxResultsCap {
		opts.MaxResults = maxResultsCap
	}
	if opts.Depth == "" {
		opts.Depth = DepthAuto
	}

	switch opts.Depth {
	case DepthFilename:
		return e.filenameSearch(ctx, driveID, opts)
	case DepthAuto:
		report, err := e.indexSearch(ctx, opts)
		if err == nil {
			return report, nil
		}
		e.logger.Warn("search index unavailable, falling back to content scan",
			slog.String("error", err.Error()),
		)
		return e.contentSearch(ctx, driveID, opts)
	default:
		return e.contentSearch(ctx, driveID, opts)
	}
}

// filenameSearch delegates name matching to the drive's search endpoint
// and ranks locally.
func (e *Engine) filenameSearch(ctx context.Context, driveID string, opts Options) (*Report, error) {
	items, err := e.client.SearchByName(ctx, driveID, opts.Query)
	if err != nil {
		return nil, err
	}

	report := &Report{Mode: DepthFilename, Results: []Result{}}
	for _, item := range items {
		if item.IsFolder || !matchesTypeFilter(item.Extension(), opts.FileTypes) {
			continue
		}
		report.Results = append(report.Results, Result{
			Item:      item,
			MatchType: MatchFilename,
			Score:     score(item, opts.Query, e.now()),
		})
	}

	sortResults(report.Results)
	if len(report.Results) > opts.MaxResults {
		report.Results = report.Results[:opts.MaxResults]
	}

	if opts.IncludeShared {
		e.extendWithShared(ctx, report, opts, nil)
	}
	return report, nil
}

// indexSearch queries the tenant search index. Any error is returned to
// the caller so auto mode can fall back to a content scan.
func (e *Engine) indexSearch(ctx context.Context, opts Options) (*Report, error) {
	items, err := e.client.QueryIndex(ctx, opts.Query, opts.MaxResults)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(opts.Query)
	report := &Report{Mode: DepthAuto, Results: []Result{}}
	for _, item := range items {
		if item.IsFolder || !matchesTypeFilter(item.Extension(), opts.FileTypes) {
			continue
		}

		// The index matches both names and content but does not say
		// which; infer the filename case from the name itself.
		matchType := MatchContent
		if strings.Contains(strings.ToLower(item.Name), q) {
			matchType = MatchFilename
		}

		report.Results = append(report.Results, Result{
			Item:      item,
			MatchType: matchType,
			Score:     score(item, opts.Query, e.now()),
		})
	}

	sortResults(report.Results)
	if len(report.Results) > opts.MaxResults {
		report.Results = report.Results[:opts.MaxResults]
	}

	if opts.IncludeShared {
		e.extendWithShared(ctx, report, opts, nil)
	}
	return report, nil
}

// contentSearch crawls the drive, ranks candidates by name relevance,
// and scans file content in relevance order until maxResults matches
// are found.
func (e *Engine) contentSearch(ctx context.Context, driveID string, opts Options) (*Report, error) {
	report := &Report{Mode: DepthContent, Results: []Result{}}

	files, err := e.crawl(ctx, driveID, report)
	if err != nil {
		return nil, err
	}
	report.FilesCrawled = len(files)

	var relevant, remainder []graph.Item
	scores := make(map[string]int, len(files))
	for _, f := range files {
		if shouldSkip(f) {
			report.Outcomes = append(report.Outcomes, FileOutcome{
				Path: f.Path, Outcome: OutcomeSkipped, Reason: SkipPattern,
			})
			continue
		}
		s := score(f, opts.Query, e.now())
		scores[f.ID] = s
		if s > 0 {
			relevant = append(relevant, f)
		} else {
			remainder = append(remainder, f)
		}
	}

	// High-relevance candidates first, best score first.
	sort.SliceStable(relevant, func(i, j int) bool {
		return scores[relevant[i].ID] > scores[relevant[j].ID]
	})

	e.scanFiles(ctx, driveID, relevant, scores, opts, report)

	// Zero-score files can still match on content, but scanning all of
	// them would be unbounded on large drives.
	if len(report.Results) < opts.MaxResults {
		if len(remainder) > lowRelevanceCap {
			remainder = remainder[:lowRelevanceCap]
		}
		e.scanFiles(ctx, driveID, remainder, scores, opts, report)
	}

	sortResults(report.Results)

	if opts.IncludeShared {
		e.extendWithShared(ctx, report, opts, scores)
	}
	return report, nil
}

// crawl walks the drive breadth-first from the root, collecting files up
// to crawlCap. A visited set guards against item graphs that reach the
// same folder twice. Folder listing failures are recorded and skipped,
// not fatal.
func (e *Engine) crawl(ctx context.Context, driveID string, report *Report) ([]graph.Item, error) {
	var files []graph.Item
	visited := map[string]bool{}
	queue := []graph.Item{{ID: "root", Path: "/"}}

	for len(queue) > 0 && len(files) < e.crawlCap {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		folder := queue[0]
		queue = queue[1:]
		if visited[folder.ID] {
			continue
		}
		visited[folder.ID] = true

		children, err := e.client.Children(ctx, driveID, folder.ID)
		if err != nil {
			e.logger.Warn("skipping unreadable folder",
				slog.String("path", folder.Path),
				slog.String("error", err.Error()),
			)
			report.Outcomes = append(report.Outcomes, FileOutcome{
				Path: folder.Path, Outcome: OutcomeSkipped, Reason: SkipFolderFetch,
			})
			continue
		}

		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			if child.IsFolder {
				queue = append(queue, child)
				continue
			}
			visited[child.ID] = true
			files = append(files, child)
			if len(files) >= e.crawlCap {
				report.CrawlTruncated = true
				break
			}
		}
	}
	if len(queue) > 0 && report.CrawlTruncated {
		e.logger.Warn("crawl cap reached, search results may be incomplete",
			slog.Int("cap", e.crawlCap),
		)
	}
	return files, nil
}

// scanFiles evaluates candidates in order, appending results and
// outcomes, until the report holds maxResults results.
func (e *Engine) scanFiles(ctx context.Context, driveID string, files []graph.Item, scores map[string]int, opts Options, report *Report) {
	q := strings.ToLower(opts.Query)

	for _, f := range files {
		if len(report.Results) >= opts.MaxResults {
			return
		}

		ext := f.Extension()
		if !matchesTypeFilter(ext, opts.FileTypes) {
			report.Outcomes = append(report.Outcomes, FileOutcome{
				Path: f.Path, Outcome: OutcomeSkipped, Reason: SkipTypeFilter,
			})
			continue
		}

		nameMatched := q != "" && strings.Contains(strings.ToLower(f.Name), q)

		if !isSearchable(ext) {
			// Not content-scannable, but a name hit still counts.
			if nameMatched {
				report.Results = append(report.Results, Result{
					Item: f, MatchType: MatchFilename, Score: scores[f.ID],
				})
				report.Outcomes = append(report.Outcomes, FileOutcome{Path: f.Path, Outcome: OutcomeMatched})
			} else {
				report.Outcomes = append(report.Outcomes, FileOutcome{
					Path: f.Path, Outcome: OutcomeSkipped, Reason: SkipNotSearchable,
				})
			}
			continue
		}

		text, reason := e.fileText(ctx, driveID, f)
		if reason != "" {
			if nameMatched {
				report.Results = append(report.Results, Result{
					Item: f, MatchType: MatchFilename, Score: scores[f.ID],
				})
				report.Outcomes = append(report.Outcomes, FileOutcome{Path: f.Path, Outcome: OutcomeMatched})
			} else {
				report.Outcomes = append(report.Outcomes, FileOutcome{
					Path: f.Path, Outcome: OutcomeSkipped, Reason: reason,
				})
			}
			continue
		}

		matches, preview := scanText(text, q)
		switch {
		case len(matches) > 0 && nameMatched:
			report.Results = append(report.Results, Result{
				Item: f, MatchType: MatchBoth, Score: scores[f.ID],
				ContentMatches: matches, Preview: preview,
			})
			report.Outcomes = append(report.Outcomes, FileOutcome{Path: f.Path, Outcome: OutcomeMatched})
		case len(matches) > 0:
			report.Results = append(report.Results, Result{
				Item: f, MatchType: MatchContent, Score: scores[f.ID],
				ContentMatches: matches, Preview: preview,
			})
			report.Outcomes = append(report.Outcomes, FileOutcome{Path: f.Path, Outcome: OutcomeMatched})
		case nameMatched:
			report.Results = append(report.Results, Result{
				Item: f, MatchType: MatchFilename, Score: scores[f.ID],
			})
			report.Outcomes = append(report.Outcomes, FileOutcome{Path: f.Path, Outcome: OutcomeMatched})
		default:
			report.Outcomes = append(report.Outcomes, FileOutcome{Path: f.Path, Outcome: OutcomeNoMatch})
		}
	}
}

// fileText fetches a file's text for scanning. Office documents go
// through the HTML rendering endpoint; plain-text formats are
// downloaded directly. A non-empty reason means the text is unavailable.
func (e *Engine) fileText(ctx context.Context, driveID string, f graph.Item) (string, string) {
	if isOfficeDocument(f.Extension()) {
		doc, err := e.client.ContentAsHTML(ctx, f.DriveID, f.ID)
		if err != nil {
			e.logger.Debug("office text extraction failed",
				slog.String("path", f.Path),
				slog.String("error", err.Error()),
			)
			// Last resort: the description metadata sometimes carries a
			// summary worth matching.
			if f.Description != "" {
				return f.Description, ""
			}
			return "", SkipNoText
		}
		text := htmlToText(doc)
		if text == "" {
			return "", SkipNoText
		}
		return text, ""
	}

	id := f.DriveID
	if id == "" {
		id = driveID
	}
	data, err := e.client.Download(ctx, id, f.ID, contentByteCap)
	if err != nil {
		e.logger.Debug("download failed during scan",
			slog.String("path", f.Path),
			slog.String("error", err.Error()),
		)
		return "", SkipDownloadFailed
	}
	return string(data), ""
}

// scanText finds up to maxLineMatches case-insensitive hits of q in
// text, line by line. The preview is taken from the first matching line.
func scanText(text, q string) ([]LineMatch, string) {
	if q == "" {
		return nil, ""
	}

	var matches []LineMatch
	preview := ""

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.Contains(strings.ToLower(line), q) {
			continue
		}

		snippet := truncate(strings.TrimSpace(line), snippetMaxLen)
		matches = append(matches, LineMatch{Line: i + 1, Snippet: snippet})

		if preview == "" {
			preview = truncate(snippet, previewMaxLen)
		}
		if len(matches) >= maxLineMatches {
			break
		}
	}
	return matches, preview
}

// extendWithShared appends matches from the shared-with-me listing,
// capped at half of maxResults so shared files cannot crowd out the
// drive's own results. It only fills remaining room, so the total never
// exceeds maxResults. Failures degrade to a warning.
func (e *Engine) extendWithShared(ctx context.Context, report *Report, opts Options, scores map[string]int) {
	sharedCap := opts.MaxResults / 2
	if sharedCap == 0 {
		sharedCap = 1
	}
	if room := opts.MaxResults - len(report.Results); sharedCap > room {
		sharedCap = room
	}
	if sharedCap <= 0 {
		return
	}

	shared, err := e.client.SharedWithMe(ctx, sharedListingCap)
	if err != nil {
		e.logger.Warn("shared-with-me listing failed",
			slog.String("error", err.Error()),
		)
		return
	}

	seen := make(map[string]bool, len(report.Results))
	for _, r := range report.Results {
		seen[r.ID] = true
	}

	q := strings.ToLower(opts.Query)
	added := 0
	for _, s := range shared {
		if added >= sharedCap {
			return
		}
		if s.IsFolder || seen[s.ID] || shouldSkip(s.Item) {
			continue
		}
		if !matchesTypeFilter(s.Extension(), opts.FileTypes) {
			continue
		}
		if !strings.Contains(strings.ToLower(s.Name), q) {
			continue
		}

		sc := scores[s.ID]
		if sc == 0 {
			sc = score(s.Item, opts.Query, e.now())
		}
		report.Results = append(report.Results, Result{
			Item:      s.Item,
			MatchType: MatchFilename,
			Score:     sc,
			SharedBy:  s.SharedBy,
		})
		added++
	}
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// sortResults orders by score descending, then by most recent
// modification, then by name for a stable order in ties.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].ModifiedAt.Equal(results[j].ModifiedAt) {
			return results[i].ModifiedAt.After(results[j].ModifiedAt)
		}
		return results[i].Name < results[j].Name
	})
}
