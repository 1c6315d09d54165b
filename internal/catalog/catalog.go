// Package catalog reads course and lesson listings: ordered anchors inside a
// known container.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"lesson-extract/internal/config"
	"lesson-extract/internal/htmlutil"
)

var ErrContainerNotFound = errors.New("catalog container not found")

const defaultTimeout = 30 * time.Second

// Anchor is one listing link as it appears on the page.
type Anchor struct {
	Text string
	Href string
}

type CourseEntry struct {
	Name string
	Link string
}

type LessonEntry struct {
	Title string
	Link  string
}

// Page is what the walker needs from a loaded browser tab.
type Page interface {
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
}

// ParseAnchors returns every anchor matching selector, in document order.
func ParseAnchors(doc string, selector string) ([]Anchor, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	sel := d.Find(selector)
	anchors := make([]Anchor, 0, sel.Length())
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		anchors = append(anchors, Anchor{
			Text: htmlutil.Text(n),
			Href: strings.TrimSpace(href),
		})
	}
	return anchors, nil
}

// CleanName turns listing text into a name: line breaks become spaces, the
// boilerplate strip is removed and the result is cut at the first double space.
func CleanName(text, strip string) string {
	name := strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	if strip != "" {
		name = strings.ReplaceAll(name, strip, "")
	}
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "  "); i >= 0 {
		name = name[:i]
	}
	return name
}

func FirstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// Name applies the listing's naming rule to anchor text.
func Name(l config.Listing, text string) string {
	if l.FirstLine {
		return FirstLine(text)
	}
	return CleanName(text, l.Strip)
}

type Walker struct {
	base   *url.URL
	logger *zap.Logger
}

func NewWalker(baseURL string, logger *zap.Logger) (*Walker, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Walker{base: base, logger: logger}, nil
}

// Walk waits for the listing container and reads its anchors. Links come
// back resolved against the walker's base URL.
func (w *Walker) Walk(ctx context.Context, page Page, l config.Listing) ([]Anchor, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	container := l.Container
	if container == "" {
		container = l.Anchors
	}
	if err := page.WaitFor(ctx, container, timeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContainerNotFound, container, err)
	}

	doc, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot listing: %w", err)
	}

	anchors, err := ParseAnchors(doc, l.Anchors)
	if err != nil {
		return nil, err
	}

	for i := range anchors {
		anchors[i].Href = w.resolve(anchors[i].Href)
	}
	return anchors, nil
}

func (w *Walker) resolve(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		w.logger.Warn("Unparseable listing link", zap.String("href", href), zap.Error(err))
		return href
	}
	return w.base.ResolveReference(ref).String()
}

func (w *Walker) Courses(ctx context.Context, page Page, l config.Listing) ([]CourseEntry, error) {
	anchors, err := w.Walk(ctx, page, l)
	if err != nil {
		return nil, err
	}
	courses := make([]CourseEntry, len(anchors))
	for i, a := range anchors {
		courses[i] = CourseEntry{Name: Name(l, a.Text), Link: a.Href}
	}
	w.logger.Info("Found courses", zap.Int("count", len(courses)))
	return courses, nil
}

func (w *Walker) Lessons(ctx context.Context, page Page, l config.Listing) ([]LessonEntry, error) {
	anchors, err := w.Walk(ctx, page, l)
	if err != nil {
		return nil, err
	}
	lessons := make([]LessonEntry, len(anchors))
	for i, a := range anchors {
		lessons[i] = LessonEntry{Title: Name(l, a.Text), Link: a.Href}
	}
	w.logger.Info("Found lessons", zap.Int("count", len(lessons)))
	return lessons, nil
}
