package style

import (
	"html"
	"math"
	"strconv"
	"strings"
	"time"
)

// MinRadius keeps every marker visible, including zero or negative magnitudes.
const MinRadius = 3.0

// RadiusPerMagnitude scales magnitude to marker radius.
const RadiusPerMagnitude = 5.0

// Radius maps a magnitude to a marker radius. Non-finite input yields MinRadius.
func Radius(magnitude float64) float64 {
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return MinRadius
	}
	return math.Max(MinRadius, magnitude*RadiusPerMagnitude)
}

// TimeLayout renders popup timestamps.
const TimeLayout = "Mon Jan _2 2006 15:04:05 MST"

// Popup is the subset of an event the popup shows.
type Popup struct {
	Magnitude float64
	Place     string
	Time      time.Time
	DepthKm   float64
}

// Lines returns the four popup rows.
func (p Popup) Lines() []string {
	return []string{
		"Magnitude: " + FormatNumber(p.Magnitude),
		"Location: " + p.Place,
		"Time: " + p.Time.UTC().Format(TimeLayout),
		"Depth(km): " + FormatNumber(p.DepthKm),
	}
}

// Text joins the rows with newlines.
func (p Popup) Text() string {
	return strings.Join(p.Lines(), "\n")
}

// HTML joins the rows with <br> and escapes the place text.
func (p Popup) HTML() string {
	lines := p.Lines()
	lines[1] = "Location: " + html.EscapeString(p.Place)
	return strings.Join(lines, "<br>")
}

// FormatNumber prints the shortest decimal that round-trips to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Marker is the fixed stroke and fill styling shared by all markers.
type Marker struct {
	StrokeColor string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
	Weight      float64 `json:"weight"`
}

// DefaultMarker is a black 1px outline with a 0.6 fill.
func DefaultMarker() Marker {
	return Marker{StrokeColor: "#000000", Opacity: 1, FillOpacity: 0.6, Weight: 1}
}
