// Package scraper runs the crawl: session bootstrap, catalog walk, then one
// Markdown document per lesson.
package scraper

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lesson-extract/internal/capture"
	"lesson-extract/internal/catalog"
	"lesson-extract/internal/config"
	"lesson-extract/internal/extract"
	"lesson-extract/internal/ocr"
	"lesson-extract/internal/report"
	"lesson-extract/internal/session"
)

// Page is everything the crawl needs from the browser tab.
type Page interface {
	catalog.Page
	capture.ImagePage
	capture.SlidePage
	Navigate(ctx context.Context, url string) error
	SetCookies(ctx context.Context, tokens []session.Token) error
}

type Scraper struct {
	page       Page
	recognizer ocr.Recognizer
	cfg        *config.Config
	limiter    *rate.Limiter
	logger     *zap.Logger

	// OnCourse is called before a course's lessons are crawled.
	OnCourse func(course string, lessons int)
	// OnLesson is called after each lesson, written or skipped.
	OnLesson func(course string, done, total int)
}

func New(page Page, recognizer ocr.Recognizer, cfg *config.Config, logger *zap.Logger) *Scraper {
	var limiter *rate.Limiter
	if cfg.Browser.NavigationRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Browser.NavigationRate), 1)
	}
	return &Scraper{
		page:       page,
		recognizer: recognizer,
		cfg:        cfg,
		limiter:    limiter,
		logger:     logger,
	}
}

// run holds the per-target state of one crawl.
type run struct {
	target    config.Target
	outDir    string
	imagesDir string
	walker    *catalog.Walker
	extractor *extract.Extractor
	images    *capture.ImageCapturer
	slides    *capture.SlideCapturer
}

// Run crawls one target. It fails before any navigation when the token file
// is missing, and when the top-level listing cannot be read; everything
// below that is logged and skipped.
func (s *Scraper) Run(ctx context.Context, name string, target config.Target) error {
	tokens, err := session.Load(s.cfg.Session.TokensFile)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.page.SetCookies(ctx, tokens); err != nil {
		return fmt.Errorf("install session: %w", err)
	}
	s.logger.Info("Session installed", zap.Int("tokens", len(tokens)))

	walker, err := catalog.NewWalker(target.BaseURL, s.logger)
	if err != nil {
		return err
	}
	outDir := s.cfg.OutputDir(target)
	r := &run{
		target:    target,
		outDir:    outDir,
		imagesDir: filepath.Join(outDir, "images"),
		walker:    walker,
		extractor: extract.New(target.Content),
		images:    capture.NewImageCapturer(s.logger),
		slides:    capture.NewSlideCapturer(target.Slides, s.cfg.Capture.MaxSlides, s.cfg.Browser.SettleTimeout, s.logger),
	}

	if err := s.navigate(ctx, target.StartURL); err != nil {
		return err
	}

	if target.Courses == nil {
		lessons, err := walker.Lessons(ctx, s.page, target.Lessons)
		if err != nil {
			return fmt.Errorf("read lessons: %w", err)
		}
		s.crawlLessons(ctx, r, name, outDir, "", lessons)
		return ctx.Err()
	}

	courses, err := walker.Courses(ctx, s.page, *target.Courses)
	if err != nil {
		return fmt.Errorf("read courses: %w", err)
	}
	for i, course := range courses {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.crawlCourse(ctx, r, i, course)
	}
	return ctx.Err()
}

func (s *Scraper) crawlCourse(ctx context.Context, r *run, index int, course catalog.CourseEntry) {
	logger := s.logger.With(zap.String("course", course.Name))
	if course.Link == "" {
		logger.Warn("Course has no link; skipping")
		return
	}

	logger.Info("Crawling course", zap.Int("index", index))
	if err := s.navigate(ctx, course.Link); err != nil {
		logger.Error("Course page failed to load; skipping", zap.Error(err))
		return
	}

	lessons, err := r.walker.Lessons(ctx, s.page, r.target.Lessons)
	if err != nil {
		logger.Error("Lesson list not found; skipping course", zap.Error(err))
		return
	}

	dir := report.CourseDirName(index, course.Name)
	s.crawlLessons(ctx, r, course.Name, filepath.Join(r.outDir, dir), dir, lessons)
}

func (s *Scraper) crawlLessons(ctx context.Context, r *run, course, dir, prefix string, lessons []catalog.LessonEntry) {
	if s.OnCourse != nil {
		s.OnCourse(course, len(lessons))
	}
	for i, lesson := range lessons {
		if ctx.Err() != nil {
			return
		}
		if err := s.crawlLesson(ctx, r, dir, prefix, i, lesson); err != nil {
			s.logger.Error("Lesson failed",
				zap.String("course", course),
				zap.String("lesson", lesson.Title),
				zap.Error(err),
			)
		}
		if s.OnLesson != nil {
			s.OnLesson(course, i+1, len(lessons))
		}
	}
}

func (s *Scraper) crawlLesson(ctx context.Context, r *run, dir, prefix string, index int, lesson catalog.LessonEntry) error {
	if lesson.Link == "" {
		s.logger.Warn("Lesson has no link; skipping", zap.String("lesson", lesson.Title))
		return nil
	}
	s.logger.Info("Crawling lesson", zap.Int("index", index), zap.String("lesson", lesson.Title))

	if err := s.navigate(ctx, lesson.Link); err != nil {
		return err
	}

	html, err := s.page.HTML(ctx)
	if err != nil {
		return err
	}
	body, err := r.extractor.Extract(html)
	if err != nil {
		s.logger.Warn("Lesson text unreadable", zap.String("lesson", lesson.Title), zap.Error(err))
	}

	fileName := report.LessonFileName(index, lesson.Title)
	docPath := filepath.Join(dir, fileName)
	doc := report.LessonDocument{
		Title:     lesson.Title,
		SourceURL: lesson.Link,
		Body:      body,
	}

	var shots []capture.Shot
	switch r.target.Capture {
	case config.CaptureImages:
		doc.OCRHeading = report.HeadingImage
		imagePrefix := prefix
		if imagePrefix == "" {
			imagePrefix = filepath.Base(r.outDir)
		}
		shots, err = r.images.Capture(ctx, s.page, func(i int) string {
			return filepath.Join(r.imagesDir, report.ImageFileName(imagePrefix, index, i))
		})
		if err != nil {
			s.logger.Warn("Image capture failed", zap.String("lesson", lesson.Title), zap.Error(err))
		}
	case config.CaptureSlides:
		doc.OCRHeading = report.HeadingSlide
		stem := fileName
		if prefix != "" {
			stem = prefix + "_" + fileName
		}
		deck := r.slides.Capture(ctx, s.page, func(n int) string {
			return filepath.Join(r.imagesDir, report.SlideFileName(stem, n))
		})
		s.logger.Info("Deck done", zap.Int("slides", len(deck.Shots)), zap.Stringer("stop", deck.Stop))
		shots = deck.Shots
	}

	for _, shot := range shots {
		ref, err := report.RelativeRef(docPath, shot.Path)
		if err != nil {
			return err
		}
		doc.ImageRefs = append(doc.ImageRefs, ref)

		text := ocr.TranscribeOrEmpty(ctx, s.recognizer, shot.Path, s.logger)
		if text == "" {
			continue
		}
		doc.Transcripts = append(doc.Transcripts, report.Transcript{
			Heading: fmt.Sprintf("%s %d", doc.OCRHeading, shot.Index),
			Text:    text,
		})
	}

	if err := report.Write(docPath, doc); err != nil {
		return err
	}
	s.logger.Info("Saved lesson", zap.String("path", docPath))
	return nil
}

func (s *Scraper) navigate(ctx context.Context, url string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("navigation rate limit: %w", err)
		}
	}
	return s.page.Navigate(ctx, url)
}
