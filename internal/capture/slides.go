package capture

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"lesson-extract/internal/config"
)

// StopReason records why a deck walk reached Done.
type StopReason int

const (
	StopNoCanvas StopReason = iota
	StopDisabled
	StopControlMissing
	StopError
	StopLimit
)

func (r StopReason) String() string {
	switch r {
	case StopNoCanvas:
		return "no canvas"
	case StopDisabled:
		return "next control disabled"
	case StopControlMissing:
		return "next control missing"
	case StopError:
		return "error"
	case StopLimit:
		return "slide limit reached"
	default:
		return "unknown"
	}
}

type SlidePage interface {
	Exists(ctx context.Context, selector string) (bool, error)
	Hide(ctx context.Context, selectors []string) error
	// Attribute waits up to timeout for selector, then reads one attribute.
	Attribute(ctx context.Context, selector, name string, timeout time.Duration) (string, error)
	ScreenshotElement(ctx context.Context, selector, path string) error
	// Advance clicks next and waits, at most settle, for canvas to re-render.
	Advance(ctx context.Context, next, canvas string, settle time.Duration) error
}

type Deck struct {
	Shots []Shot
	Stop  StopReason
}

type SlideCapturer struct {
	rules     config.SlideRules
	maxSlides int
	settle    time.Duration
	logger    *zap.Logger
}

func NewSlideCapturer(rules config.SlideRules, maxSlides int, settle time.Duration, logger *zap.Logger) *SlideCapturer {
	if rules.NextTimeout <= 0 {
		rules.NextTimeout = 5 * time.Second
	}
	return &SlideCapturer{
		rules:     rules,
		maxSlides: maxSlides,
		settle:    settle,
		logger:    logger,
	}
}

func (c *SlideCapturer) disabled(class string) bool {
	for _, marker := range c.rules.DisabledMarkers {
		if marker != "" && strings.Contains(class, marker) {
			return true
		}
	}
	return false
}

// Capture pages through the deck, screenshotting the canvas before every
// advance. The walk ends when the next control reports disabled, cannot be
// found, any step fails, or maxSlides shots were taken.
func (c *SlideCapturer) Capture(ctx context.Context, page SlidePage, pathFor func(index int) string) Deck {
	ok, err := page.Exists(ctx, c.rules.Canvas)
	if err != nil {
		c.logger.Warn("Canvas lookup failed", zap.Error(err))
		return Deck{Stop: StopError}
	}
	if !ok {
		return Deck{Stop: StopNoCanvas}
	}

	if len(c.rules.Hide) > 0 {
		if err := page.Hide(ctx, c.rules.Hide); err != nil {
			c.logger.Debug("Could not hide overlays", zap.Error(err))
		}
	}

	var deck Deck
	for count := 0; ; count++ {
		if c.maxSlides > 0 && count >= c.maxSlides {
			c.logger.Warn("Slide limit reached; next control never reported disabled", zap.Int("limit", c.maxSlides))
			deck.Stop = StopLimit
			return deck
		}

		class, err := page.Attribute(ctx, c.rules.Next, "class", c.rules.NextTimeout)
		if err != nil {
			c.logger.Info("Next control not found", zap.Int("slide", count), zap.Error(err))
			deck.Stop = StopControlMissing
			return deck
		}
		if c.disabled(class) {
			deck.Stop = StopDisabled
			return deck
		}

		path := pathFor(count)
		if err := page.ScreenshotElement(ctx, c.rules.Canvas, path); err != nil {
			c.logger.Warn("Error on slide", zap.Int("slide", count), zap.Error(err))
			deck.Stop = StopError
			return deck
		}
		deck.Shots = append(deck.Shots, Shot{Index: count, Path: path})
		c.logger.Info("Captured slide", zap.Int("slide", count))

		if err := page.Advance(ctx, c.rules.Next, c.rules.Canvas, c.settle); err != nil {
			c.logger.Warn("Error on slide", zap.Int("slide", count), zap.Error(err))
			deck.Stop = StopError
			return deck
		}
	}
}
