package feed

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/metrics"
	"github.com/galois26/quakemap/internal/util"
)

// Feed names, also used as metric labels.
const (
	EarthquakesFeed = "earthquakes"
	PlatesFeed      = "plates"
)

// USGS builds readers for the summary feeds published under one base URL,
// one per time window. All readers share a client.
type USGS struct {
	baseURL string
	http    config.FeedHTTP
	client  *http.Client
	metrics *metrics.Metrics
}

func NewUSGS(cfg config.Earthquakes, m *metrics.Metrics) *USGS {
	return &USGS{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTP,
		client:  util.NewHTTPClient(cfg.HTTP.Timeout),
		metrics: m,
	}
}

// ForRange returns the all-magnitudes feed for the given window.
func (u *USGS) ForRange(rng string) (Source, error) {
	if !config.ValidRange(rng) {
		return nil, errors.Errorf("unknown range %q", rng)
	}
	return newHTTPFeed(EarthquakesFeed, SummaryURL(u.baseURL, rng), u.http, u.client, u.metrics), nil
}

// SummaryURL is the GeoJSON summary feed address for rng.
func SummaryURL(baseURL, rng string) string {
	return strings.TrimRight(baseURL, "/") + "/all_" + rng + ".geojson"
}

// NewPlates returns the tectonic plate boundary reader.
func NewPlates(cfg config.Plates, m *metrics.Metrics) *HTTPFeed {
	return NewHTTPFeed(PlatesFeed, cfg.URL, cfg.HTTP, m)
}
