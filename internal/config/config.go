package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Server struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RequestTimeout bounds a whole /api request, both feed reads included.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type FeedHTTP struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
	MaxBytes   int64         `yaml:"max_bytes"` // response body cap
}

type Earthquakes struct {
	BaseURL  string   `yaml:"base_url"` // summary feed directory
	Range    string   `yaml:"range"`    // hour | day | week | month
	TimeUnit string   `yaml:"time_unit"`
	HTTP     FeedHTTP `yaml:"http"`
}

type Plates struct {
	Disabled bool     `yaml:"disabled"`
	URL      string   `yaml:"url"`
	Color    string   `yaml:"color"`
	Weight   float64  `yaml:"weight"`
	HTTP     FeedHTTP `yaml:"http"`
}

type Bucket struct {
	Threshold float64 `yaml:"threshold"`
	Color     string  `yaml:"color"`
}

type Style struct {
	Buckets     []Bucket `yaml:"buckets"`
	StrokeColor string   `yaml:"stroke_color"`
	Opacity     float64  `yaml:"opacity"`
	FillOpacity float64  `yaml:"fill_opacity"`
	Weight      float64  `yaml:"weight"`
}

type TileLayer struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Attribution string `yaml:"attribution"`
}

type Map struct {
	Container  string      `yaml:"container"`
	Center     [2]float64  `yaml:"center"` // lat, lon
	Zoom       float64     `yaml:"zoom"`
	BaseLayers []TileLayer `yaml:"base_layers"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

type Config struct {
	Server      Server      `yaml:"server"`
	Earthquakes Earthquakes `yaml:"earthquakes"`
	Plates      Plates      `yaml:"plates"`
	Style       Style       `yaml:"style"`
	Map         Map         `yaml:"map"`
	Log         Log         `yaml:"log"`
}

// Ranges lists the summary feed windows published by the USGS.
var Ranges = []string{"hour", "day", "week", "month"}

const (
	TimeUnitSeconds      = "seconds"
	TimeUnitMilliseconds = "milliseconds"
)

// Load reads a YAML config file and fills in defaults. An empty path yields
// the defaults alone.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, errors.Wrap(err, "parse yaml")
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("QUAKEMAP_LISTEN_ADDRESS")); v != "" {
		c.Server.ListenAddress = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 25 * time.Second
	}

	if c.Earthquakes.BaseURL == "" {
		c.Earthquakes.BaseURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary"
	}
	if c.Earthquakes.Range == "" {
		c.Earthquakes.Range = "week"
	}
	// The USGS summary feeds publish epoch milliseconds.
	if c.Earthquakes.TimeUnit == "" {
		c.Earthquakes.TimeUnit = TimeUnitMilliseconds
	}
	defaultHTTP(&c.Earthquakes.HTTP)

	if c.Plates.URL == "" {
		c.Plates.URL = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
	}
	if c.Plates.Color == "" {
		c.Plates.Color = "orange"
	}
	if c.Plates.Weight == 0 {
		c.Plates.Weight = 2
	}
	defaultHTTP(&c.Plates.HTTP)

	if len(c.Style.Buckets) == 0 {
		c.Style.Buckets = []Bucket{
			{Threshold: 0, Color: "#cccc00"},
			{Threshold: 25, Color: "#ffff00"},
			{Threshold: 50, Color: "#ffcc00"},
			{Threshold: 75, Color: "#ff9933"},
			{Threshold: 100, Color: "#ff6600"},
		}
	}
	if c.Style.StrokeColor == "" {
		c.Style.StrokeColor = "#000000"
	}
	if c.Style.Opacity == 0 {
		c.Style.Opacity = 1
	}
	if c.Style.FillOpacity == 0 {
		c.Style.FillOpacity = 0.6
	}
	if c.Style.Weight == 0 {
		c.Style.Weight = 1
	}

	if c.Map.Container == "" {
		c.Map.Container = "map"
	}
	if c.Map.Center == [2]float64{} {
		c.Map.Center = [2]float64{39.09, -117.71}
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = 4.6
	}
	if len(c.Map.BaseLayers) == 0 {
		c.Map.BaseLayers = []TileLayer{
			{
				Name:        "Street Map",
				URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
				Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
			},
			{
				Name:        "Topographic Map",
				URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
				Attribution: `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, <a href="http://viewfinderpanoramas.org">SRTM</a> | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> (<a href="https://creativecommons.org/licenses/by-sa/3.0/">CC-BY-SA</a>)`,
			},
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func defaultHTTP(h *FeedHTTP) {
	if h.Timeout == 0 {
		h.Timeout = 15 * time.Second
	}
	if h.UserAgent == "" {
		h.UserAgent = "quakemap/1.0"
	}
	if h.MaxRetries == 0 {
		h.MaxRetries = 3
	}
	if h.Backoff == 0 {
		h.Backoff = 500 * time.Millisecond
	}
	if h.MaxBackoff == 0 {
		h.MaxBackoff = 5 * time.Second
	}
	if h.MaxBytes == 0 {
		h.MaxBytes = 64 << 20
	}
}

// Validate checks the values that defaults cannot repair.
func (c *Config) Validate() error {
	if !ValidRange(c.Earthquakes.Range) {
		return errors.Errorf("earthquakes.range %q: want one of %s", c.Earthquakes.Range, strings.Join(Ranges, ", "))
	}
	switch c.Earthquakes.TimeUnit {
	case TimeUnitSeconds, TimeUnitMilliseconds:
	default:
		return errors.Errorf("earthquakes.time_unit %q: want seconds or milliseconds", c.Earthquakes.TimeUnit)
	}
	if len(c.Map.BaseLayers) < 1 {
		return errors.New("map.base_layers: at least one layer is required")
	}
	if c.Style.FillOpacity < 0 || c.Style.FillOpacity > 1 {
		return errors.Errorf("style.fill_opacity %g: want 0..1", c.Style.FillOpacity)
	}
	return nil
}

// ValidRange reports whether r names a published summary feed window.
func ValidRange(r string) bool {
	for _, v := range Ranges {
		if v == r {
			return true
		}
	}
	return false
}
