// Package capture screenshots lesson visuals: every visible <img> on a page,
// or each slide of a canvas-rendered deck.
package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Box is an element's rendered size in CSS pixels.
type Box struct {
	Width  float64
	Height float64
}

func (b Box) Visible() bool {
	return b.Width > 0 && b.Height > 0
}

// Shot is one screenshot written to disk. Index is the image's position
// among the page's <img> elements, or the slide number.
type Shot struct {
	Index int
	Path  string
}

type ImagePage interface {
	// Images lists every <img> on the page in document order.
	Images(ctx context.Context) ([]Box, error)
	ScreenshotImage(ctx context.Context, index int, path string) error
}

type ImageCapturer struct {
	logger *zap.Logger
}

func NewImageCapturer(logger *zap.Logger) *ImageCapturer {
	return &ImageCapturer{logger: logger}
}

// Capture screenshots each visible image to pathFor(index). Zero-sized
// images are skipped; a failed screenshot is logged and skipped.
func (c *ImageCapturer) Capture(ctx context.Context, page ImagePage, pathFor func(index int) string) ([]Shot, error) {
	boxes, err := page.Images(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var shots []Shot
	for i, box := range boxes {
		if !box.Visible() {
			c.logger.Info("Skipping invisible image", zap.Int("index", i))
			continue
		}

		path := pathFor(i)
		if err := page.ScreenshotImage(ctx, i, path); err != nil {
			c.logger.Warn("Failed to screenshot image", zap.Int("index", i), zap.String("path", path), zap.Error(err))
			continue
		}
		shots = append(shots, Shot{Index: i, Path: path})
	}
	return shots, nil
}
