package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lesson-extract/internal/browser"
	"lesson-extract/internal/config"
	"lesson-extract/internal/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var targetName string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a visible browser, log in by hand and save the session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.login(cmd.Context(), targetName, cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&targetName, "target", "t", config.DefaultTarget, "target whose start page is opened")
	return cmd
}

func (a *app) login(ctx context.Context, name string, in io.Reader, out io.Writer) error {
	target, err := a.cfg.Target(name)
	if err != nil {
		return err
	}

	browserCfg := a.cfg.Browser
	browserCfg.Headless = false
	browserCtx, cancel, err := browser.NewChrome(browserCfg, a.logger)
	if err != nil {
		return err
	}
	defer cancel()
	stopOnSignal := context.AfterFunc(ctx, cancel)
	defer stopOnSignal()

	tab := browser.NewTab(a.cfg.Browser.ActionTimeout, a.logger)
	if err := tab.Navigate(browserCtx, target.StartURL); err != nil {
		return err
	}

	fmt.Fprintln(out, color.YellowString("Log in to %s in the browser window, then press Enter here.", target.StartURL))
	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("wait for confirmation: %w", err)
	}

	tokens, err := tab.Cookies(browserCtx)
	if err != nil {
		return err
	}
	if err := session.Save(a.cfg.Session.TokensFile, tokens); err != nil {
		return err
	}

	a.logger.Info("Session saved", zap.String("path", a.cfg.Session.TokensFile), zap.Int("tokens", len(tokens)))
	fmt.Fprintln(out, color.GreenString("Saved %d cookies to %s", len(tokens), a.cfg.Session.TokensFile))
	return nil
}
