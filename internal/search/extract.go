package search

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
	blockBreakRe  = regexp.MustCompile(`(?i)</(p|div|tr|li|h[1-6]|table|br)>|<br\s*/?>`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// htmlToText strips an HTML document down to readable plain text.
// Block-level closing tags become line breaks so the line scanner still
// sees paragraph structure.
func htmlToText(doc string) string {
	doc = scriptBlockRe.ReplaceAllString(doc, "")
	doc = styleBlockRe.ReplaceAllString(doc, "")
	doc = blockBreakRe.ReplaceAllString(doc, "\n")
	doc = tagRe.ReplaceAllString(doc, " ")
	doc = html.UnescapeString(doc)

	doc = spaceRunRe.ReplaceAllString(doc, " ")

	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	doc = strings.Join(lines, "\n")
	doc = blankRunRe.ReplaceAllString(doc, "\n\n")

	return strings.TrimSpace(doc)
}
