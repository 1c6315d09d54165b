package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"lesson-extract/internal/config"
)

type fakeImagePage struct {
	boxes   []Box
	failAt  map[int]bool
	written []string
}

func (p *fakeImagePage) Images(context.Context) ([]Box, error) {
	return p.boxes, nil
}

func (p *fakeImagePage) ScreenshotImage(_ context.Context, index int, path string) error {
	if p.failAt[index] {
		return errors.New("node detached")
	}
	p.written = append(p.written, path)
	return nil
}

func imagePath(i int) string {
	return fmt.Sprintf("images/course_lesson_00_img_%d.png", i)
}

func TestImageCaptureSkipsZeroSized(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	page := &fakeImagePage{boxes: []Box{{Width: 320, Height: 200}, {Width: 0, Height: 50}, {Width: 64, Height: 64}}}

	shots, err := NewImageCapturer(zap.New(core)).Capture(context.Background(), page, imagePath)
	require.NoError(t, err)

	assert.Equal(t, []Shot{
		{Index: 0, Path: "images/course_lesson_00_img_0.png"},
		{Index: 2, Path: "images/course_lesson_00_img_2.png"},
	}, shots)
	assert.Len(t, page.written, 2)

	skipped := logs.FilterMessage("Skipping invisible image").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, int64(1), skipped[0].ContextMap()["index"])
}

func TestImageCaptureContinuesAfterFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	page := &fakeImagePage{
		boxes:  []Box{{Width: 1, Height: 1}, {Width: 1, Height: 1}, {Width: 1, Height: 1}},
		failAt: map[int]bool{1: true},
	}

	shots, err := NewImageCapturer(zap.New(core)).Capture(context.Background(), page, imagePath)
	require.NoError(t, err)

	require.Len(t, shots, 2)
	assert.Equal(t, 0, shots[0].Index)
	assert.Equal(t, 2, shots[1].Index)
	assert.Equal(t, 1, logs.FilterMessage("Failed to screenshot image").Len())
}

// fakeDeck reports the next control disabled once it has been clicked
// disableAfter times.
type fakeDeck struct {
	canvas       bool
	disableAfter int
	clicks       int
	missingAfter int
	failShotAt   int
	hidden       []string
	shots        []string
}

func (d *fakeDeck) Exists(_ context.Context, selector string) (bool, error) {
	return d.canvas && selector == "canvas", nil
}

func (d *fakeDeck) Hide(_ context.Context, selectors []string) error {
	d.hidden = append(d.hidden, selectors...)
	return nil
}

func (d *fakeDeck) Attribute(_ context.Context, selector, name string, _ time.Duration) (string, error) {
	if d.missingAfter > 0 && d.clicks >= d.missingAfter {
		return "", context.DeadlineExceeded
	}
	if d.disableAfter > 0 && d.clicks >= d.disableAfter {
		return "mdMN36Next is-disabled", nil
	}
	return "mdMN36Next", nil
}

func (d *fakeDeck) ScreenshotElement(_ context.Context, selector, path string) error {
	if d.failShotAt > 0 && len(d.shots) == d.failShotAt {
		return errors.New("canvas detached")
	}
	d.shots = append(d.shots, path)
	return nil
}

func (d *fakeDeck) Advance(context.Context, string, string, time.Duration) error {
	d.clicks++
	return nil
}

func slidePath(i int) string {
	return fmt.Sprintf("images/00_intro_slide_%d.png", i)
}

func newSlideCapturer(limit int) *SlideCapturer {
	return NewSlideCapturer(config.DefaultTargets()["advanced"].Slides, limit, 10*time.Millisecond, zap.NewNop())
}

func TestSlideCaptureStopsWhenDisabled(t *testing.T) {
	deck := &fakeDeck{canvas: true, disableAfter: 4}

	got := newSlideCapturer(200).Capture(context.Background(), deck, slidePath)

	assert.Equal(t, StopDisabled, got.Stop)
	require.Len(t, got.Shots, 4)
	for i, shot := range got.Shots {
		assert.Equal(t, i, shot.Index)
		assert.Equal(t, slidePath(i), shot.Path)
	}
	assert.Equal(t, 4, deck.clicks)
	assert.Equal(t, []string{"header", ".help-popup"}, deck.hidden)
}

func TestSlideCaptureWithoutCanvas(t *testing.T) {
	deck := &fakeDeck{canvas: false, disableAfter: 4}

	got := newSlideCapturer(200).Capture(context.Background(), deck, slidePath)

	assert.Equal(t, StopNoCanvas, got.Stop)
	assert.Empty(t, got.Shots)
	assert.Empty(t, deck.hidden)
}

func TestSlideCaptureControlMissing(t *testing.T) {
	deck := &fakeDeck{canvas: true, missingAfter: 2}

	got := newSlideCapturer(200).Capture(context.Background(), deck, slidePath)

	assert.Equal(t, StopControlMissing, got.Stop)
	assert.Len(t, got.Shots, 2)
}

func TestSlideCaptureErrorEndsDeck(t *testing.T) {
	deck := &fakeDeck{canvas: true, failShotAt: 3}

	got := newSlideCapturer(200).Capture(context.Background(), deck, slidePath)

	assert.Equal(t, StopError, got.Stop)
	assert.Len(t, got.Shots, 3)
}

func TestSlideCaptureIsBounded(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	deck := &fakeDeck{canvas: true}
	capturer := NewSlideCapturer(config.DefaultTargets()["basic"].Slides, 7, 0, zap.New(core))

	got := capturer.Capture(context.Background(), deck, slidePath)

	assert.Equal(t, StopLimit, got.Stop)
	assert.Len(t, got.Shots, 7)
	assert.Equal(t, 1, logs.FilterMessageSnippet("Slide limit reached").Len())
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "next control disabled", StopDisabled.String())
	assert.Equal(t, "unknown", StopReason(42).String())
}
