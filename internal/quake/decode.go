package quake

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// TimeUnit is the resolution of the feed's properties.time field.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Milliseconds
)

// ParseTimeUnit accepts "seconds" or "milliseconds".
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "", "seconds":
		return Seconds, nil
	case "milliseconds":
		return Milliseconds, nil
	default:
		return Seconds, errors.Errorf("unknown time unit %q", s)
	}
}

// Skip reasons reported in Batch.Skipped.
const (
	SkipMissingMagnitude = "missing_magnitude"
	SkipMissingTime      = "missing_time"
	SkipMissingGeometry  = "missing_geometry"
	SkipMissingDepth     = "missing_depth"
	SkipMalformed        = "malformed"
	SkipNonFinite        = "non_finite"
	SkipDuplicateID      = "duplicate_id"
)

// Batch is the outcome of decoding one feed document.
type Batch struct {
	Title     string
	Events    []Event
	Skipped   map[string]int // reason -> count
	Generated int64          // feed metadata, as published
}

// SkippedTotal sums Skipped.
func (b Batch) SkippedTotal() int {
	n := 0
	for _, v := range b.Skipped {
		n += v
	}
	return n
}

type featureCollection struct {
	Type     string `json:"type"`
	Metadata struct {
		Title     string `json:"title"`
		Generated int64  `json:"generated"`
	} `json:"metadata"`
	Features []json.RawMessage `json:"features"`
}

type feature struct {
	ID         json.RawMessage `json:"id"`
	Properties struct {
		Mag   *float64 `json:"mag"`
		Place *string  `json:"place"`
		Time  *float64 `json:"time"`
	} `json:"properties"`
	Geometry *struct {
		Type        string     `json:"type"`
		Coordinates []*float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Decode parses a GeoJSON FeatureCollection of earthquakes. A document that
// is not valid JSON, or not a FeatureCollection, is an error. Individual
// features that do not decode, or lack magnitude, time, position or depth,
// are skipped and counted, as are repeats of an id already seen in the
// document.
func Decode(raw []byte, unit TimeUnit) (Batch, error) {
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return Batch{}, errors.Wrap(err, "decode feature collection")
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return Batch{}, errors.Errorf("decode feature collection: unexpected type %q", fc.Type)
	}

	b := Batch{
		Title:     fc.Metadata.Title,
		Generated: fc.Metadata.Generated,
		Events:    make([]Event, 0, len(fc.Features)),
		Skipped:   map[string]int{},
	}
	seen := make(map[string]struct{}, len(fc.Features))
	for _, rf := range fc.Features {
		var f feature
		if err := json.Unmarshal(rf, &f); err != nil {
			b.Skipped[SkipMalformed]++
			continue
		}
		ev, reason := toEvent(f, unit)
		if reason == "" && ev.ID != "" {
			if _, dup := seen[ev.ID]; dup {
				reason = SkipDuplicateID
			}
			seen[ev.ID] = struct{}{}
		}
		if reason != "" {
			b.Skipped[reason]++
			continue
		}
		b.Events = append(b.Events, ev)
	}
	return b, nil
}

func toEvent(f feature, unit TimeUnit) (Event, string) {
	p := f.Properties
	if p.Mag == nil {
		return Event{}, SkipMissingMagnitude
	}
	if p.Time == nil {
		return Event{}, SkipMissingTime
	}
	if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 ||
		f.Geometry.Coordinates[0] == nil || f.Geometry.Coordinates[1] == nil {
		return Event{}, SkipMissingGeometry
	}
	if len(f.Geometry.Coordinates) < 3 || f.Geometry.Coordinates[2] == nil {
		return Event{}, SkipMissingDepth
	}
	pc := f.Geometry.Coordinates
	c := [3]float64{*pc[0], *pc[1], *pc[2]}
	for _, v := range []float64{*p.Mag, *p.Time, c[0], c[1], c[2]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Event{}, SkipNonFinite
		}
	}

	ts := int64(*p.Time)
	if unit == Milliseconds {
		ts = int64(math.Floor(*p.Time / 1000))
	}
	ev := Event{
		ID:               featureID(f.ID),
		Magnitude:        *p.Mag,
		DepthKm:          c[2],
		TimeEpochSeconds: ts,
		Longitude:        c[0],
		Latitude:         c[1],
	}
	if p.Place != nil {
		ev.Place = *p.Place
	}
	return ev, ""
}

// featureID accepts the string or numeric ids GeoJSON allows.
func featureID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
