package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/feed"
	"github.com/galois26/quakemap/internal/mapview"
	"github.com/galois26/quakemap/internal/metrics"
	"github.com/galois26/quakemap/internal/quake"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "quakemap",
	Short:         "Earthquake map from the USGS GeoJSON feed",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (defaults apply when empty)")
	rootCmd.Version = Version
}

// loadConfig reads the config file and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(c config.Log) error {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(err, "log.level")
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)
	switch strings.ToLower(c.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return errors.Errorf("log.format %q: want text or json", c.Format)
	}
	return nil
}

// newBuilder assembles the layer builder from config. m may be nil.
func newBuilder(cfg *config.Config, m *metrics.Metrics) (*mapview.Builder, error) {
	scale, err := mapview.ScaleFromConfig(cfg.Style)
	if err != nil {
		return nil, errors.Wrap(err, "style.buckets")
	}
	unit, err := quake.ParseTimeUnit(cfg.Earthquakes.TimeUnit)
	if err != nil {
		return nil, errors.Wrap(err, "earthquakes.time_unit")
	}
	b := &mapview.Builder{
		QuakeSource:  feed.NewUSGS(cfg.Earthquakes, m),
		Scale:        scale,
		Marker:       mapview.MarkerFromConfig(cfg.Style),
		TimeUnit:     unit,
		DefaultRange: cfg.Earthquakes.Range,
		Metrics:      m,
	}
	if !cfg.Plates.Disabled {
		b.PlateSource = feed.NewPlates(cfg.Plates, m)
	}
	return b, nil
}
