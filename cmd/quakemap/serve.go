package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/galois26/quakemap/internal/mapview"
	"github.com/galois26/quakemap/internal/metrics"
	"github.com/galois26/quakemap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map page and its layer endpoints",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := metrics.New()
	b, err := newBuilder(cfg, m)
	if err != nil {
		return err
	}
	view := mapview.NewView(cfg, b.Scale, b.Marker)
	srv, err := server.New(cfg, b, view, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	log.WithFields(log.Fields{
		"version": Version,
		"range":   cfg.Earthquakes.Range,
		"plates":  !cfg.Plates.Disabled,
	}).Info("quakemap started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
		return err
	}
	return <-errCh
}
