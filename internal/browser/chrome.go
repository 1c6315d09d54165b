package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"lesson-extract/internal/config"
)

// NewChrome starts a Chrome instance and returns its context, bounded by
// the global timeout. The cancel func tears everything down.
func NewChrome(cfg config.BrowserConfig, logger *zap.Logger) (context.Context, context.CancelFunc, error) {
	baseCtx := context.Background()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		// Disable updates and popups
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-background-downloads", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),

		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(1920, 1080),

		// Stability flags
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(baseCtx, opts...)

	chromeLog := logger.Named("chrome").Sugar()
	ctxOpts := []chromedp.ContextOption{
		chromedp.WithErrorf(chromeLog.Errorf),
	}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(chromeLog.Debugf), chromedp.WithDebugf(chromeLog.Debugf))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	timeoutCtx, timeoutCancel := context.WithTimeout(browserCtx, cfg.GlobalTimeout)

	cancelFunc := func() {
		logger.Debug("Canceling browser contexts")
		timeoutCancel()
		browserCancel()
		allocCancel()
	}

	// The first Run launches the browser.
	if err := chromedp.Run(timeoutCtx); err != nil {
		cancelFunc()
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	logger.Info("Browser started", zap.Bool("headless", cfg.Headless))

	return timeoutCtx, cancelFunc, nil
}
