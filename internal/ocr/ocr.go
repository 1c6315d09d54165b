// Package ocr turns captured screenshots into text.
package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const requestTimeout = 60 * time.Second

type Recognizer interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Vision runs TEXT_DETECTION on Google Cloud Vision.
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision dials the image annotator. An empty credentialsFile falls back
// to application default credentials.
func NewVision(ctx context.Context, credentialsFile string) (*Vision, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("vision credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &Vision{client: client}, nil
}

func (v *Vision) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

func (v *Vision) Transcribe(ctx context.Context, path string) (string, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(img) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	}
	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	return firstTranscript(resp)
}

// firstTranscript returns the first text annotation's description. The
// first annotation covers the whole image; the rest are single words.
func firstTranscript(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r0 := resp.Responses[0]
	if code := r0.GetError().GetCode(); code != 0 {
		return "", fmt.Errorf("vision annotate error (code %d): %s", code, r0.GetError().GetMessage())
	}
	if len(r0.TextAnnotations) == 0 || r0.TextAnnotations[0] == nil {
		return "", nil
	}
	return strings.TrimSpace(r0.TextAnnotations[0].Description), nil
}

// Nop is used when OCR is disabled.
type Nop struct{}

func (Nop) Transcribe(context.Context, string) (string, error) {
	return "", nil
}

// TranscribeOrEmpty never fails: a recognizer error is logged and becomes "".
func TranscribeOrEmpty(ctx context.Context, r Recognizer, path string, logger *zap.Logger) string {
	text, err := r.Transcribe(ctx, path)
	if err != nil {
		logger.Warn("OCR failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return text
}
