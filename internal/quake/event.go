package quake

import (
	"time"

	"github.com/galois26/quakemap/internal/style"
)

// Event is one earthquake as read from the feed. It lives for a single render.
type Event struct {
	ID               string
	Magnitude        float64
	DepthKm          float64
	Place            string
	TimeEpochSeconds int64
	Longitude        float64
	Latitude         float64
}

// Time returns the event time in UTC.
func (e Event) Time() time.Time {
	return time.Unix(e.TimeEpochSeconds, 0).UTC()
}

// Popup returns the popup fields for e.
func (e Event) Popup() style.Popup {
	return style.Popup{
		Magnitude: e.Magnitude,
		Place:     e.Place,
		Time:      e.Time(),
		DepthKm:   e.DepthKm,
	}
}

// RiskLevel buckets magnitude into a coarse severity.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Risk returns the severity for a magnitude.
func Risk(mag float64) RiskLevel {
	switch {
	case mag >= 6.0:
		return RiskCritical
	case mag >= 4.5:
		return RiskHigh
	case mag >= 2.5:
		return RiskModerate
	default:
		return RiskLow
	}
}
