package main

import (
	"context"
	"os"
	"time"

	"github.com/aretw0/cmdtree"
	"github.com/aretw0/cmdtree/internal/cli"
	"github.com/aretw0/cmdtree/internal/presentation/tui"
	"github.com/aretw0/cmdtree/internal/runtime"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// redrawInterval catches highlight changes made by hold timers between polls.
const redrawInterval = 50 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously draw the command tree in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		markdown, _ := cmd.Flags().GetBool("markdown")
		save, _ := cmd.Flags().GetBool("save")

		// Logging would tear the redrawn screen apart unless debugging.
		app, err := newApp(cmd, !cmd.Flags().Changed("log-level"))
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		tui.PrintBanner(os.Stdout, cmdtree.Version)
		if err := app.RestoreView(sigCtx); err != nil {
			app.Logger.Warn("Saved view not applied", "err", err)
		}

		screenOpts := []tui.ScreenOption{tui.WithClear(tui.IsTerminal(os.Stdout))}
		if markdown {
			render, err := tui.NewRenderer(tui.TerminalWidth(os.Stdout))
			if err != nil {
				return err
			}
			screenOpts = append(screenOpts,
				tui.WithFormat(tui.FormatMarkdown),
				tui.WithMarkdownRenderer(render),
			)
		}
		screen := tui.NewScreen(os.Stdout, app.Sink, screenOpts...)

		driver, err := app.Driver(sigCtx, runtime.WithOnRender(func(cmdtree.Outcome) {
			if _, err := screen.Draw(); err != nil {
				app.Logger.Error("Draw failed", "err", err)
			}
		}))
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error { return driver.Run(ctx) })
		g.Go(func() error {
			ticker := time.NewTicker(redrawInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if _, err := screen.Draw(); err != nil {
						return err
					}
				}
			}
		})
		runErr := g.Wait()

		if sig := sigCtx.Signal(); sig != nil {
			cli.PrintSystemMessage(os.Stdout, "Stopped by %s.", sig)
		}
		if save {
			if err := app.SaveView(context.Background()); err != nil {
				app.Logger.Error("Failed to save view", "err", err)
			}
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("markdown", false, "Draw with glamour-rendered markdown")
	watchCmd.Flags().Bool("save", true, "Save the view on exit")
}
