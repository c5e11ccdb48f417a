package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/grove/internal/cli"
	"github.com/bnema/grove/internal/cli/model"
	"github.com/bnema/grove/internal/logging"
)

var (
	browseNoWatch   bool
	browseNoRestore bool
	browseMetrics   bool
)

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Open the interactive explorer",
	Long: `Open the interactive tree explorer on a directory.

Without a path, the configured explorer.root is used, falling back to the
current directory.

Examples:
  grove browse                # Explore the current directory
  grove browse ~/src          # Explore ~/src
  grove browse --no-restore   # Start with everything collapsed`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().BoolVar(&browseNoWatch, "no-watch", false, "do not follow filesystem changes")
	browseCmd.Flags().BoolVar(&browseNoRestore, "no-restore", false, "do not restore the directories left open last time")
	browseCmd.Flags().BoolVar(&browseMetrics, "metrics", false, "serve Prometheus metrics while browsing")
}

func runBrowse(_ *cobra.Command, args []string) (err error) {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}
	cfg := app.Config

	bridge := model.NewBridge()
	opts := cli.SessionOptions{
		Widget:  bridge,
		Watch:   cfg.Explorer.Watch && !browseNoWatch,
		Persist: cfg.Explorer.RestoreExpansion && !browseNoRestore,
		Metrics: cfg.Metrics.Enabled || browseMetrics,
	}
	if len(args) > 0 {
		opts.Root = args[0]
	}

	session, err := app.OpenSession(opts)
	if err != nil {
		return err
	}
	ctx := session.Ctx()
	defer logging.LogPanic(ctx)
	defer func() {
		err = errors.Join(err, session.Close(context.WithoutCancel(ctx)))
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if werr := app.WatchConfig(watchCtx); werr != nil {
		logging.FromContext(ctx).Warn().Err(werr).Msg("config changes will not be picked up")
	}

	if err := session.Start(); err != nil {
		return fmt.Errorf("start explorer: %w", err)
	}

	m := model.NewExplorerModel(ctx, app.Theme, session.Controller, bridge)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("run explorer: %w", err)
	}

	if fm, ok := final.(model.ExplorerModel); ok {
		if serr := session.SaveSelection(fm.Selected()); serr != nil {
			logging.FromContext(ctx).Warn().Err(serr).Msg("selection not saved")
		}
	}
	return nil
}
