package mapview

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/galois26/quakemap/internal/feed"
	"github.com/galois26/quakemap/internal/metrics"
	"github.com/galois26/quakemap/internal/quake"
	"github.com/galois26/quakemap/internal/style"
)

// ErrPlatesDisabled is returned by Plates when no plate feed is configured.
var ErrPlatesDisabled = errors.New("plate overlay disabled")

// RangeSource hands out the earthquake feed for a time window.
type RangeSource interface {
	ForRange(rng string) (feed.Source, error)
}

// Query narrows the earthquake overlay.
type Query struct {
	Range        string
	MinMagnitude *float64
}

// Builder turns feed documents into map layers. PlateSource may be nil.
type Builder struct {
	QuakeSource  RangeSource
	PlateSource  feed.Source
	Scale        style.Scale
	Marker       style.Marker
	TimeUnit     quake.TimeUnit
	DefaultRange string
	Metrics      *metrics.Metrics
}

// Layers is the outcome of one Build. A nil layer failed or is disabled; its
// error is in Errors keyed by feed name.
type Layers struct {
	Earthquakes *FeatureCollection
	Plates      json.RawMessage
	Skipped     int
	Errors      map[string]error
}

// Earthquakes reads the feed once and returns the styled marker collection.
func (b *Builder) Earthquakes(ctx context.Context, q Query) (FeatureCollection, int, error) {
	rng := q.Range
	if rng == "" {
		rng = b.DefaultRange
	}
	src, err := b.QuakeSource.ForRange(rng)
	if err != nil {
		return FeatureCollection{}, 0, err
	}
	raw, err := src.Fetch(ctx)
	if err != nil {
		return FeatureCollection{}, 0, err
	}
	batch, err := quake.Decode(raw, b.TimeUnit)
	if err != nil {
		return FeatureCollection{}, 0, errors.Wrap(err, "earthquakes")
	}
	b.Metrics.AddSkipped(batch.Skipped)
	if n := batch.SkippedTotal(); n > 0 {
		log.WithFields(log.Fields{"feed": src.Name(), "skipped": n, "reasons": batch.Skipped}).
			Debug("dropped malformed features")
	}

	events := batch.Events
	if q.MinMagnitude != nil {
		events = filterMagnitude(events, *q.MinMagnitude)
	}
	markers := Markers(events, b.Scale, b.Marker)
	b.Metrics.AddMarkers(len(markers))
	fc := Collection(markers)
	if batch.Title != "" || batch.Generated != 0 {
		fc.Metadata = &Metadata{Title: batch.Title, Generated: batch.Generated}
	}
	return fc, batch.SkippedTotal(), nil
}

func filterMagnitude(events []quake.Event, minMag float64) []quake.Event {
	out := make([]quake.Event, 0, len(events))
	for _, ev := range events {
		if ev.Magnitude >= minMag {
			out = append(out, ev)
		}
	}
	return out
}

// Plates returns the boundary document untouched after checking it is JSON.
func (b *Builder) Plates(ctx context.Context) (json.RawMessage, error) {
	if b.PlateSource == nil {
		return nil, ErrPlatesDisabled
	}
	raw, err := b.PlateSource.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, errors.Errorf("%s: body is not valid JSON", b.PlateSource.Name())
	}
	return json.RawMessage(raw), nil
}

// Build reads both feeds concurrently. A failing feed leaves its layer nil
// and never affects the other one.
func (b *Builder) Build(ctx context.Context, q Query) Layers {
	var (
		g        errgroup.Group
		quakes   FeatureCollection
		skipped  int
		quakeErr error
		plates   json.RawMessage
		plateErr error
	)
	g.Go(func() error {
		quakes, skipped, quakeErr = b.Earthquakes(ctx, q)
		return nil
	})
	if b.PlateSource != nil {
		g.Go(func() error {
			plates, plateErr = b.Plates(ctx)
			return nil
		})
	}
	_ = g.Wait()

	out := Layers{Errors: map[string]error{}, Skipped: skipped}
	if quakeErr != nil {
		log.WithError(quakeErr).WithField("feed", feed.EarthquakesFeed).Warn("earthquake layer unavailable")
		out.Errors[feed.EarthquakesFeed] = quakeErr
	} else {
		out.Earthquakes = &quakes
	}
	if plateErr != nil {
		log.WithError(plateErr).WithField("feed", feed.PlatesFeed).Warn("plate layer unavailable")
		out.Errors[feed.PlatesFeed] = plateErr
	} else if plates != nil {
		out.Plates = plates
	}
	return out
}
