package mapview

import (
	"github.com/galois26/quakemap/internal/quake"
	"github.com/galois26/quakemap/internal/style"
)

// Marker is a styled, ready-to-draw earthquake.
type Marker struct {
	Event     quake.Event
	Radius    float64
	FillColor string
	Popup     string
	Risk      quake.RiskLevel
	Style     style.Marker
}

// NewMarker classifies one event.
func NewMarker(ev quake.Event, scale style.Scale, st style.Marker) Marker {
	return Marker{
		Event:     ev,
		Radius:    style.Radius(ev.Magnitude),
		FillColor: scale.Color(ev.DepthKm),
		Popup:     ev.Popup().HTML(),
		Risk:      quake.Risk(ev.Magnitude),
		Style:     st,
	}
}

// Markers classifies events in order.
func Markers(events []quake.Event, scale style.Scale, st style.Marker) []Marker {
	out := make([]Marker, 0, len(events))
	for _, ev := range events {
		out = append(out, NewMarker(ev, scale, st))
	}
	return out
}

// FeatureCollection is the GeoJSON shape served to the map.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Features []Feature `json:"features"`
}

// Metadata echoes the upstream feed's title and generation time (epoch ms).
type Metadata struct {
	Title     string `json:"title,omitempty"`
	Generated int64  `json:"generated,omitempty"`
}

type Feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id,omitempty"`
	Geometry   Point      `json:"geometry"`
	Properties Properties `json:"properties"`
}

type Point struct {
	Type        string     `json:"type"`
	Coordinates [3]float64 `json:"coordinates"` // lon, lat, depth km
}

// Properties carry the source fields next to the style the client applies
// verbatim.
type Properties struct {
	Mag         float64 `json:"mag"`
	Place       string  `json:"place"`
	Time        int64   `json:"time"`
	Depth       float64 `json:"depth"`
	Risk        string  `json:"risk"`
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
	Weight      float64 `json:"weight"`
	Popup       string  `json:"popup"`
}

// Collection renders markers as a FeatureCollection. Features is never nil so
// an empty feed encodes as an empty array.
func Collection(markers []Marker) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(markers))}
	for _, m := range markers {
		ev := m.Event
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   ev.ID,
			Geometry: Point{
				Type:        "Point",
				Coordinates: [3]float64{ev.Longitude, ev.Latitude, ev.DepthKm},
			},
			Properties: Properties{
				Mag:         ev.Magnitude,
				Place:       ev.Place,
				Time:        ev.TimeEpochSeconds,
				Depth:       ev.DepthKm,
				Risk:        m.Risk.String(),
				Radius:      m.Radius,
				FillColor:   m.FillColor,
				Color:       m.Style.StrokeColor,
				Opacity:     m.Style.Opacity,
				FillOpacity: m.Style.FillOpacity,
				Weight:      m.Style.Weight,
				Popup:       m.Popup,
			},
		})
	}
	return fc
}
