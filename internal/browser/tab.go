package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"lesson-extract/internal/capture"
	"lesson-extract/internal/session"
)

const readyStateScript = `document.readyState === "complete"`

// canvasFingerprint hashes a canvas' pixels so a re-render can be detected.
// Tainted canvases cannot be read and hash to "".
const canvasFingerprint = `(() => {
	const c = document.querySelector(%s);
	if (!c) return "";
	let data;
	try { data = c.toDataURL(); } catch (e) { return ""; }
	let h = 0;
	for (let i = 0; i < data.length; i++) { h = (h * 31 + data.charCodeAt(i)) | 0; }
	return data.length + ":" + h;
})()`

const imageBoxesScript = `Array.from(document.querySelectorAll("img")).map(img => {
	const r = img.getBoundingClientRect();
	return {width: r.width, height: r.height};
})`

const hideScript = `(() => {
	for (const sel of %s) {
		document.querySelectorAll(sel).forEach(el => { el.style.display = "none"; });
	}
	return true;
})()`

// Tab drives the browser's page. Every ctx passed to its methods must
// descend from the context returned by NewChrome.
type Tab struct {
	actionTimeout time.Duration
	logger        *zap.Logger
}

func NewTab(actionTimeout time.Duration, logger *zap.Logger) *Tab {
	return &Tab{actionTimeout: actionTimeout, logger: logger}
}

// runWithTimeout runs actions bounded by timeout, or the action timeout
// when timeout is zero.
func (t *Tab) runWithTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("parent context canceled: %w", err)
	}
	if timeout <= 0 {
		timeout = t.actionTimeout
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := chromedp.Run(timeoutCtx, actions...)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("action timed out after %v: %w", timeout, err)
	}
	return err
}

// Navigate loads url and waits for the body and for readyState "complete".
func (t *Tab) Navigate(ctx context.Context, url string) error {
	t.logger.Debug("Navigating", zap.String("url", url))
	var ready bool
	if err := t.runWithTimeout(ctx, 0,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Poll(readyStateScript, &ready, chromedp.WithPollingTimeout(t.actionTimeout)),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (t *Tab) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return t.runWithTimeout(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// HTML snapshots the live DOM.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.runWithTimeout(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot html: %w", err)
	}
	return html, nil
}

func (t *Tab) Images(ctx context.Context) ([]capture.Box, error) {
	var boxes []capture.Box
	if err := t.runWithTimeout(ctx, 0, chromedp.Evaluate(imageBoxesScript, &boxes)); err != nil {
		return nil, err
	}
	return boxes, nil
}

func (t *Tab) ScreenshotImage(ctx context.Context, index int, path string) error {
	var nodes []*cdp.Node
	if err := t.runWithTimeout(ctx, 0, chromedp.Nodes("img", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return err
	}
	if index >= len(nodes) {
		return fmt.Errorf("image %d gone, page has %d", index, len(nodes))
	}

	var buf []byte
	if err := t.runWithTimeout(ctx, 0,
		chromedp.Screenshot([]cdp.NodeID{nodes[index].NodeID}, &buf, chromedp.ByNodeID),
	); err != nil {
		return err
	}
	return writePNG(path, buf)
}

func (t *Tab) Exists(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	if err := t.runWithTimeout(ctx, 0, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (t *Tab) Hide(ctx context.Context, selectors []string) error {
	list, err := json.Marshal(selectors)
	if err != nil {
		return err
	}
	return t.runWithTimeout(ctx, 0, chromedp.Evaluate(fmt.Sprintf(hideScript, list), nil))
}

func (t *Tab) Attribute(ctx context.Context, selector, name string, timeout time.Duration) (string, error) {
	var (
		value string
		ok    bool
	)
	if err := t.runWithTimeout(ctx, timeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return value, nil
}

func (t *Tab) ScreenshotElement(ctx context.Context, selector, path string) error {
	var buf []byte
	if err := t.runWithTimeout(ctx, 0, chromedp.Screenshot(selector, &buf, chromedp.ByQuery)); err != nil {
		return err
	}
	return writePNG(path, buf)
}

// Advance clicks next, then polls until canvas renders something new. A
// canvas that never changes within settle is not an error.
func (t *Tab) Advance(ctx context.Context, next, canvas string, settle time.Duration) error {
	sel, err := json.Marshal(canvas)
	if err != nil {
		return err
	}
	fingerprint := fmt.Sprintf(canvasFingerprint, sel)

	var before string
	if err := t.runWithTimeout(ctx, 0,
		chromedp.Evaluate(fingerprint, &before),
		chromedp.Click(next, chromedp.ByQuery),
	); err != nil {
		return err
	}
	if settle <= 0 {
		return nil
	}

	var changed bool
	err = t.runWithTimeout(ctx, settle+time.Second,
		chromedp.Poll(fmt.Sprintf(`%s !== %q`, fingerprint, before), &changed, chromedp.WithPollingTimeout(settle)),
	)
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		t.logger.Debug("Canvas unchanged after advance", zap.Duration("settle", settle))
		return nil
	}
	return err
}

func (t *Tab) SetCookies(ctx context.Context, tokens []session.Token) error {
	params := cookieParams(tokens)
	return t.runWithTimeout(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
}

// Cookies reads every cookie in the browser.
func (t *Tab) Cookies(ctx context.Context) ([]session.Token, error) {
	var cookies []*network.Cookie
	if err := t.runWithTimeout(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) (err error) {
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	return tokensFromCookies(cookies), nil
}

func cookieParams(tokens []session.Token) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(tokens))
	for _, tok := range tokens {
		p := &network.CookieParam{
			Name:     tok.Name,
			Value:    tok.Value,
			Domain:   tok.Domain,
			Path:     tok.Path,
			Secure:   tok.Secure,
			HTTPOnly: tok.HTTPOnly,
			SameSite: network.CookieSameSite(tok.SameSite),
		}
		if tok.Expires > 0 {
			sec, frac := math.Modf(tok.Expires)
			expires := cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*1e9)))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return params
}

func tokensFromCookies(cookies []*network.Cookie) []session.Token {
	tokens := make([]session.Token, 0, len(cookies))
	for _, c := range cookies {
		expires := c.Expires
		if c.Session {
			expires = -1
		}
		tokens = append(tokens, session.Token{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return tokens
}

func writePNG(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
