package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/mapview"
)

var renderOpts struct {
	rng    string
	minMag float64
	out    string
	plates string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch the feeds once and write styled GeoJSON",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.rng, "range", "", "feed window: hour, day, week or month (default from config)")
	f.Float64Var(&renderOpts.minMag, "min-mag", 0, "drop events below this magnitude")
	f.StringVarP(&renderOpts.out, "out", "o", "-", "earthquake output file, - for stdout")
	f.StringVar(&renderOpts.plates, "plates-out", "", "also write the plate overlay to this file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if renderOpts.rng != "" && !config.ValidRange(renderOpts.rng) {
		return errors.Errorf("--range %q: want hour, day, week or month", renderOpts.rng)
	}
	b, err := newBuilder(cfg, nil)
	if err != nil {
		return err
	}
	if renderOpts.plates == "" {
		b.PlateSource = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	q := mapview.Query{Range: renderOpts.rng}
	if cmd.Flags().Changed("min-mag") {
		q.MinMagnitude = &renderOpts.minMag
	}
	layers := b.Build(ctx, q)

	if layers.Plates != nil {
		if err := os.WriteFile(renderOpts.plates, layers.Plates, 0o644); err != nil {
			return errors.Wrap(err, "write plates")
		}
	}
	if layers.Earthquakes == nil {
		return errors.Wrap(layers.Errors["earthquakes"], "earthquake layer")
	}

	w := cmd.OutOrStdout()
	if renderOpts.out != "-" {
		f, err := os.Create(renderOpts.out)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		w = f
	}
	if err := writeJSON(w, layers.Earthquakes); err != nil {
		return err
	}
	fields := log.Fields{
		"markers": len(layers.Earthquakes.Features),
		"skipped": layers.Skipped,
		"plates":  layers.Plates != nil,
	}
	if md := layers.Earthquakes.Metadata; md != nil {
		fields["feed_title"] = md.Title
		fields["feed_generated"] = md.Generated
	}
	log.WithFields(fields).Info("render finished")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode output")
}
