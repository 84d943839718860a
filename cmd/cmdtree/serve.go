package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/cmdtree/internal/cli"
	"github.com/aretw0/cmdtree/internal/config"
	httpadapter "github.com/aretw0/cmdtree/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// publishInterval bounds how stale an event stream client can be.
const publishInterval = 50 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the command tree over HTTP while polling the configured source.
With the memory source, payloads are pushed with POST /snapshot instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()
		if cmd.Flags().Changed("addr") {
			app.Config.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := app.RestoreView(sigCtx); err != nil {
			app.Logger.Warn("Saved view not applied", "err", err)
		}

		server := httpadapter.NewServer(app.Viewer, app.Sink,
			httpadapter.WithViews(app.Views),
			httpadapter.WithMetricsHandler(app.Metrics.Handler()),
			httpadapter.WithLogger(app.Logger),
		)
		srv := &http.Server{
			Addr:              app.Config.HTTP.Addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, ctx := errgroup.WithContext(sigCtx)
		if app.Config.Source.Kind != config.KindMemory {
			driver, err := app.Driver(ctx)
			if err != nil {
				return err
			}
			g.Go(func() error { return driver.Run(ctx) })
		}
		g.Go(func() error {
			server.Watch(ctx, publishInterval)
			return nil
		})
		g.Go(func() error {
			app.Logger.Info("Starting cmdtree server", "address", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		})

		runErr := g.Wait()
		app.Logger.Info("cmdtree server stopped", "signal", sigCtx.Signal())
		if err := app.SaveView(context.Background()); err != nil {
			app.Logger.Error("Failed to save view", "err", err)
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
}
