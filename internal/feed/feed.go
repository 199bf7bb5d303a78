package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/metrics"
	"github.com/galois26/quakemap/internal/util"
)

// Source reads one remote GeoJSON document.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// StatusError is a non-2xx reply from a feed.
type StatusError struct {
	Feed string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Feed, e.Code)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Feed, e.Code, e.Body)
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code/100 == 5
}

// ErrTooLarge is returned when a body exceeds the configured cap.
var ErrTooLarge = errors.New("feed body exceeds size limit")

// HTTPFeed fetches a fixed URL with retries.
type HTTPFeed struct {
	name       string
	url        string
	userAgent  string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	maxBytes   int64
	metrics    *metrics.Metrics
}

// NewHTTPFeed builds a feed reader for url. m may be nil.
func NewHTTPFeed(name, url string, h config.FeedHTTP, m *metrics.Metrics) *HTTPFeed {
	return newHTTPFeed(name, url, h, util.NewHTTPClient(h.Timeout), m)
}

func newHTTPFeed(name, url string, h config.FeedHTTP, client *http.Client, m *metrics.Metrics) *HTTPFeed {
	return &HTTPFeed{
		name:       name,
		url:        url,
		userAgent:  h.UserAgent,
		client:     client,
		maxRetries: h.MaxRetries,
		backoff:    h.Backoff,
		maxBackoff: h.MaxBackoff,
		maxBytes:   h.MaxBytes,
		metrics:    m,
	}
}

func (f *HTTPFeed) Name() string { return f.name }

// URL is the address this feed reads.
func (f *HTTPFeed) URL() string { return f.url }

// Fetch returns the response body. 4xx replies other than 429 are not retried.
func (f *HTTPFeed) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	logger := log.WithFields(log.Fields{"feed": f.name, "url": f.url})

	var body []byte
	attempt := 0
	err := util.Retry(ctx, f.maxRetries, f.backoff, f.maxBackoff, func() error {
		attempt++
		b, err := f.get(ctx)
		if err != nil {
			logger.WithField("attempt", attempt).WithError(err).Debug("feed read failed")
			var se *StatusError
			if errors.As(err, &se) && !se.Temporary() {
				return util.Permanent(err)
			}
			if errors.Is(err, ErrTooLarge) {
				return util.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	})
	f.metrics.ObserveFetch(f.name, time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", f.name)
	}
	logger.WithFields(log.Fields{
		"bytes":   len(body),
		"latency": time.Since(start).Truncate(time.Millisecond).String(),
	}).Debug("feed read")
	return body, nil
}

func (f *HTTPFeed) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Feed: f.name, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	r := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		r = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f.maxBytes > 0 && int64(len(b)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}
