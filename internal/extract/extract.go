// Package extract pulls the main text out of a lesson page snapshot.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lesson-extract/internal/config"
	"lesson-extract/internal/htmlutil"
)

const defaultNodes = "p, li, h2, h3"

type Extractor struct {
	selectors    []string
	nodes        string
	fallbackBody bool
}

func New(rules config.ContentRules) *Extractor {
	nodes := rules.Nodes
	if nodes == "" {
		nodes = defaultNodes
	}
	return &Extractor{
		selectors:    rules.Selectors,
		nodes:        nodes,
		fallbackBody: rules.FallbackBody,
	}
}

// region returns the first candidate selector that matches anything, in
// priority order.
func (e *Extractor) region(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			return selected.First()
		}
	}
	if e.fallbackBody {
		return doc.Find("body")
	}
	return nil
}

// Extract returns the text of the content nodes in the lesson's main region,
// trimmed, empties dropped, joined by blank lines. A page without a matching
// region yields "".
func (e *Extractor) Extract(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse lesson html: %w", err)
	}

	main := e.region(doc)
	if main == nil {
		return "", nil
	}

	var parts []string
	main.Find(e.nodes).Each(func(_ int, s *goquery.Selection) {
		if t := htmlutil.Text(s.Nodes[0]); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n"), nil
}
