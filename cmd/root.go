package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lesson-extract/internal/config"
	"lesson-extract/internal/observability"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "lesson-extract",
		Short:         "Crawl lymcampus.jp lessons into Markdown, with OCR of images and slides.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				joined := make([]error, len(errs))
				for i, e := range errs {
					joined[i] = e
				}
				return fmt.Errorf("invalid configuration: %w", errors.Join(joined...))
			}
			a.cfg = cfg

			console := zapcore.Lock(zapcore.AddSync(cmd.OutOrStdout()))
			a.logger = observability.New(cfg.Logger, console).With(zap.String("run_id", uuid.NewString()))
			a.logger.Debug("Configuration loaded", zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync(a.logger)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default is ./config.yaml)")

	root.AddCommand(newScrapeCmd(a), newLoginCmd(a), newTargetsCmd(a))
	return root
}
