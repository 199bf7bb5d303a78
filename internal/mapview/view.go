package mapview

import (
	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/style"
)

// Overlay names as shown in the layer control.
const (
	OverlayEarthquakes = "Earthquakes"
	OverlayPlates      = "Plates"
)

type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

type Overlay struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

type LineStyle struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// View describes everything the browser needs to draw the map apart from the
// layer data itself.
type View struct {
	Container  string              `json:"container"`
	Center     [2]float64          `json:"center"`
	Zoom       float64             `json:"zoom"`
	BaseLayers []TileLayer         `json:"baseLayers"`
	Overlays   []Overlay           `json:"overlays"`
	Legend     []style.LegendEntry `json:"legend"`
	Marker     style.Marker        `json:"marker"`
	Plates     LineStyle           `json:"plates"`
	Range      string              `json:"range"`
}

// NewView derives the map description from config. The legend comes from
// scale, the same table used to color markers.
func NewView(cfg *config.Config, scale style.Scale, marker style.Marker) View {
	v := View{
		Container: cfg.Map.Container,
		Center:    cfg.Map.Center,
		Zoom:      cfg.Map.Zoom,
		Legend:    scale.Legend(),
		Marker:    marker,
		Plates:    LineStyle{Color: cfg.Plates.Color, Weight: cfg.Plates.Weight},
		Range:     cfg.Earthquakes.Range,
		Overlays:  []Overlay{{Name: OverlayEarthquakes, Endpoint: "/api/earthquakes"}},
	}
	for _, l := range cfg.Map.BaseLayers {
		v.BaseLayers = append(v.BaseLayers, TileLayer{Name: l.Name, URL: l.URL, Attribution: l.Attribution})
	}
	if !cfg.Plates.Disabled {
		v.Overlays = append(v.Overlays, Overlay{Name: OverlayPlates, Endpoint: "/api/plates"})
	}
	return v
}

// ScaleFromConfig builds the bucket table from config.
func ScaleFromConfig(s config.Style) (style.Scale, error) {
	buckets := make([]style.Bucket, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		buckets = append(buckets, style.Bucket{Threshold: b.Threshold, Color: b.Color})
	}
	return style.NewScale(buckets...)
}

// MarkerFromConfig returns the shared marker stroke and fill settings.
func MarkerFromConfig(s config.Style) style.Marker {
	return style.Marker{
		StrokeColor: s.StrokeColor,
		Opacity:     s.Opacity,
		FillOpacity: s.FillOpacity,
		Weight:      s.Weight,
	}
}
