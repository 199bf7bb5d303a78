package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/metrics"
)

func testHTTP() config.FeedHTTP {
	return config.FeedHTTP{
		Timeout:    2 * time.Second,
		UserAgent:  "quakemap-test",
		MaxRetries: 3,
		Backoff:    time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
		MaxBytes:   1 << 20,
	}
}

func TestHTTPFeed_Fetch(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	m := metrics.New()
	f := NewHTTPFeed("earthquakes", srv.URL, testHTTP(), m)
	b, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(b))
	assert.Equal(t, "quakemap-test", ua)
	assert.Equal(t, "earthquakes", f.Name())
	assert.Equal(t, srv.URL, f.URL())

	out, err := testutil.GatherAndCount(m.Registry(), "quakemap_feed_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}

func TestHTTPFeed_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	b, err := NewHTTPFeed("plates", srv.URL, testHTTP(), nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPFeed_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFeed("plates", srv.URL, testHTTP(), nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "gone", se.Body)
	assert.False(t, se.Temporary())
	assert.Contains(t, err.Error(), "fetch plates")
}

func TestHTTPFeed_RetriesTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPFeed("earthquakes", srv.URL, testHTTP(), nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPFeed_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	h := testHTTP()
	h.MaxBytes = 16
	_, err := NewHTTPFeed("plates", srv.URL, h, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestHTTPFeed_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	h := testHTTP()
	h.MaxRetries = 1
	_, err := NewHTTPFeed("earthquakes", srv.URL, h, nil).Fetch(ctx)
	assert.Error(t, err)
}

func TestUSGS_ForRange(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	u := NewUSGS(config.Earthquakes{BaseURL: srv.URL + "/summary/", HTTP: testHTTP()}, nil)
	src, err := u.ForRange("day")
	require.NoError(t, err)
	assert.Equal(t, EarthquakesFeed, src.Name())

	_, err = src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/summary/all_day.geojson", path)

	_, err = u.ForRange("decade")
	assert.Error(t, err)
}

func TestSummaryURL(t *testing.T) {
	assert.Equal(t,
		"https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson",
		SummaryURL("https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/", "week"))
}

func TestStatusError(t *testing.T) {
	assert.Equal(t, "plates: http 500", (&StatusError{Feed: "plates", Code: 500}).Error())
	assert.True(t, (&StatusError{Code: 503}).Temporary())
	assert.False(t, (&StatusError{Code: 400}).Temporary())
}
