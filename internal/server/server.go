package server

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/galois26/quakemap/internal/config"
	"github.com/galois26/quakemap/internal/mapview"
	"github.com/galois26/quakemap/internal/metrics"
)

//go:embed assets
var assets embed.FS

// Server exposes the map page and its layer endpoints.
type Server struct {
	builder        *mapview.Builder
	view           mapview.View
	metrics        *metrics.Metrics
	requestTimeout time.Duration

	engine *gin.Engine
	server *http.Server
}

// New wires routes onto a fresh gin engine. m may be nil.
func New(cfg *config.Config, b *mapview.Builder, view mapview.View, m *metrics.Metrics) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		builder:        b,
		view:           view,
		metrics:        m,
		requestTimeout: cfg.Server.RequestTimeout,
		engine:         gin.New(),
	}

	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse page template")
	}
	static, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, errors.Wrap(err, "static assets")
	}

	e := s.engine
	e.SetHTMLTemplate(tmpl)
	e.Use(gin.Recovery(), requestID(), logger(), s.observe())

	e.GET("/", s.handleIndex)
	e.StaticFileFS("/static/quakemap.js", "quakemap.js", http.FS(static))
	e.StaticFileFS("/static/quakemap.css", "quakemap.css", http.FS(static))
	e.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	e.GET("/metrics", gin.WrapH(m.Handler()))

	api := e.Group("/api")
	{
		api.GET("/earthquakes", s.handleEarthquakes)
		api.GET("/plates", s.handlePlates)
		api.GET("/legend", s.handleLegend)
		api.GET("/view", s.handleView)
	}

	s.server = &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// Handler returns the routed engine, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) Serve() error {
	log.WithField("addr", s.server.Addr).Info("serving quake map")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(route, strconv.Itoa(c.Writer.Status()))
	}
}
