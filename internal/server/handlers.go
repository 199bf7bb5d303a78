package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/mapview"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":     "Earthquakes",
		"Container": s.view.Container,
	})
}

func (s *Server) handleView(c *gin.Context) {
	c.JSON(http.StatusOK, s.view)
}

func (s *Server) handleLegend(c *gin.Context) {
	c.JSON(http.StatusOK, s.view.Legend)
}

// handleEarthquakes reads the feed for this request and returns the styled
// markers. Query: range=hour|day|week|month, min_mag=<float>.
func (s *Server) handleEarthquakes(c *gin.Context) {
	q := mapview.Query{Range: strings.TrimSpace(c.Query("range"))}
	if q.Range != "" && !config.ValidRange(q.Range) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "range must be one of " + strings.Join(config.Ranges, ", ")})
		return
	}
	if v := strings.TrimSpace(c.Query("min_mag")); v != "" {
		mag, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(mag) || math.IsInf(mag, 0) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_mag must be a number"})
			return
		}
		q.MinMagnitude = &mag
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	fc, skipped, err := s.builder.Earthquakes(ctx, q)
	if err != nil {
		log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Warn("earthquake layer unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "earthquake feed unavailable"})
		return
	}
	c.Header("X-Skipped-Features", strconv.Itoa(skipped))
	c.JSON(http.StatusOK, fc)
}

func (s *Server) handlePlates(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	raw, err := s.builder.Plates(ctx)
	switch {
	case errors.Is(err, mapview.ErrPlatesDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Warn("plate layer unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "plate feed unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", raw)
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.requestTimeout)
}
