package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lesson-extract/internal/config"
)

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the configured crawl targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printTargets(cmd.OutOrStdout(), a.cfg)
			return nil
		},
	}
}

func printTargets(w io.Writer, cfg *config.Config) {
	for _, name := range cfg.TargetNames() {
		t := cfg.Targets[name]
		levels := "lessons"
		if t.Courses != nil {
			levels = "courses > lessons"
		}
		marker := " "
		if name == config.DefaultTarget {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s, %s -> %s\n",
			marker, color.CyanString(name), t.StartURL, levels, t.Capture, cfg.OutputDir(t))
	}
}
