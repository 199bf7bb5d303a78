// Package style holds the marker classification rules: depth to fill color,
// magnitude to radius, popup text, and the legend drawn from the same depth
// buckets as the markers.
package style

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Bucket pairs the lower depth bound of an interval with its display color.
type Bucket struct {
	Threshold float64 `json:"threshold"`
	Color     string  `json:"color"`
}

// Scale is an ordered, immutable bucket table. The zero value is not usable;
// build one with NewScale or DefaultScale.
type Scale struct {
	buckets []Bucket
}

// DefaultScale is the canonical five-bucket depth table.
func DefaultScale() Scale {
	s, _ := NewScale(
		Bucket{Threshold: 0, Color: "#cccc00"},
		Bucket{Threshold: 25, Color: "#ffff00"},
		Bucket{Threshold: 50, Color: "#ffcc00"},
		Bucket{Threshold: 75, Color: "#ff9933"},
		Bucket{Threshold: 100, Color: "#ff6600"},
	)
	return s
}

// NewScale validates and copies the given buckets. Thresholds must be finite
// and strictly ascending, and every bucket needs a color.
func NewScale(buckets ...Bucket) (Scale, error) {
	if len(buckets) == 0 {
		return Scale{}, errors.New("scale: at least one bucket is required")
	}
	for i, b := range buckets {
		if math.IsNaN(b.Threshold) || math.IsInf(b.Threshold, 0) {
			return Scale{}, errors.Errorf("scale: bucket %d: threshold is not finite", i)
		}
		if b.Color == "" {
			return Scale{}, errors.Errorf("scale: bucket %d: empty color", i)
		}
		if i > 0 && b.Threshold <= buckets[i-1].Threshold {
			return Scale{}, errors.Errorf("scale: bucket %d: threshold %g not above %g", i, b.Threshold, buckets[i-1].Threshold)
		}
	}
	cp := make([]Bucket, len(buckets))
	copy(cp, buckets)
	return Scale{buckets: cp}, nil
}

// Buckets returns a copy of the table in ascending order.
func (s Scale) Buckets() []Bucket {
	cp := make([]Bucket, len(s.buckets))
	copy(cp, s.buckets)
	return cp
}

// Len is the number of buckets.
func (s Scale) Len() int { return len(s.buckets) }

// Index returns the bucket position for depthKm: the greatest threshold
// strictly exceeded, never below 0. NaN lands in the first bucket.
func (s Scale) Index(depthKm float64) int {
	idx := 0
	if math.IsNaN(depthKm) {
		return idx
	}
	for i := len(s.buckets) - 1; i > 0; i-- {
		if depthKm > s.buckets[i].Threshold {
			idx = i
			break
		}
	}
	return idx
}

// Color returns the fill color for depthKm.
func (s Scale) Color(depthKm float64) string {
	if len(s.buckets) == 0 {
		return ""
	}
	return s.buckets[s.Index(depthKm)].Color
}

// LegendEntry is one row of the depth key.
type LegendEntry struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// Legend walks the buckets in the same order Color does, so the key always
// matches the markers.
func (s Scale) Legend() []LegendEntry {
	out := make([]LegendEntry, 0, len(s.buckets))
	for i, b := range s.buckets {
		label := formatKm(b.Threshold)
		if i+1 < len(s.buckets) {
			label += " – " + formatKm(s.buckets[i+1].Threshold)
		} else {
			label += "+"
		}
		out = append(out, LegendEntry{Color: b.Color, Label: label})
	}
	return out
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " km"
}
