package news

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ai-scalper/internal/types"
)

// Flatten joins up to limit articles into one prompt context string, one
// headline per line. Broker news payloads carry HTML fragments in their
// summaries, so both fields are reduced to plain text first. An empty
// article list yields the empty string, which is valid prompt input.
func Flatten(articles []types.Article, limit int) string {
	if limit <= 0 || limit > len(articles) {
		limit = len(articles)
	}
	lines := make([]string, 0, limit)
	for _, a := range articles[:limit] {
		headline := stripHTML(a.Headline)
		if headline == "" {
			continue
		}
		if summary := stripHTML(a.Summary); summary != "" {
			lines = append(lines, headline+" - "+summary)
		} else {
			lines = append(lines, headline)
		}
	}
	return strings.Join(lines, "\n")
}

func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
