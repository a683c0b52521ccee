package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/rustyeddy/riskcalc/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calculator as a JSON HTTP API",
	Long: `Start an HTTP server exposing the calculator.

Routes:
  POST   /api/calculate
  GET    /api/history
  GET    /api/history/:index
  DELETE /api/history
  GET    /api/symbols
  GET    /api/defaults
  GET    /healthz
  GET    /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := openService(reg)
	if err != nil {
		return err
	}
	defer svc.Close()

	addr := serveAddr
	if addr == "" {
		addr = app.cfg.Server.Addr
	}

	srv, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:     addr,
		Service:  svc,
		Gatherer: reg,
		Logger:   app.log,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		app.log.Info("shutting down")
		return nil
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
