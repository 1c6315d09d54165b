package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lesson-extract/internal/browser"
	"lesson-extract/internal/config"
	"lesson-extract/internal/ocr"
	"lesson-extract/internal/scraper"
	"lesson-extract/internal/session"
)

func newScrapeCmd(a *app) *cobra.Command {
	var targetName string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl a target and write one Markdown file per lesson",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scrape(cmd.Context(), targetName, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&targetName, "target", "t", config.DefaultTarget, "target to crawl (list them with the targets command)")
	return cmd
}

func (a *app) scrape(ctx context.Context, name string, progressOut io.Writer) error {
	target, err := a.cfg.Target(name)
	if err != nil {
		return err
	}
	// Fail before a browser is ever started.
	if _, err := session.Load(a.cfg.Session.TokensFile); err != nil {
		return fmt.Errorf("%w (run `lesson-extract login --target %s` first)", err, name)
	}

	recognizer, closeOCR, err := a.recognizer(ctx)
	if err != nil {
		return err
	}
	defer closeOCR()

	browserCtx, cancel, err := browser.NewChrome(a.cfg.Browser, a.logger)
	if err != nil {
		return err
	}
	defer cancel()
	stopOnSignal := context.AfterFunc(ctx, cancel)
	defer stopOnSignal()

	tab := browser.NewTab(a.cfg.Browser.ActionTimeout, a.logger)
	s := scraper.New(tab, recognizer, a.cfg, a.logger)

	var bar *progressbar.ProgressBar
	s.OnCourse = func(course string, lessons int) {
		if bar != nil {
			_ = bar.Finish()
		}
		bar = newProgressBar(progressOut, lessons, course)
	}
	s.OnLesson = func(string, int, int) {
		_ = bar.Add(1)
	}

	a.logger.Info("Starting crawl", zap.String("target", name), zap.String("output", a.cfg.OutputDir(target)))
	err = s.Run(browserCtx, name, target)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("crawl %s: %w", name, err)
	}

	fmt.Fprintln(progressOut, color.GreenString("Done: %s", a.cfg.OutputDir(target)))
	return nil
}

func (a *app) recognizer(ctx context.Context) (ocr.Recognizer, func(), error) {
	if !a.cfg.OCR.Enabled {
		a.logger.Info("OCR disabled")
		return ocr.Nop{}, func() {}, nil
	}
	v, err := ocr.NewVision(ctx, a.cfg.OCR.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return v, func() {
		if err := v.Close(); err != nil {
			a.logger.Warn("Closing Vision client", zap.Error(err))
		}
	}, nil
}

func newProgressBar(out io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("lessons"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
