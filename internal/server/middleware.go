package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID keeps a caller supplied X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// logger writes one structured line per request.
func logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		stop := time.Now()

		req := c.Request
		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"id":            c.GetString(requestIDKey),
			"remote_ip":     c.ClientIP(),
			"method":        req.Method,
			"uri":           req.RequestURI,
			"status":        status,
			"bytes_out":     c.Writer.Size(),
			"user_agent":    req.UserAgent(),
			"latency":       stop.Sub(start).Nanoseconds(),
			"latency_human": stop.Sub(start).String(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}
		if status >= http.StatusInternalServerError {
			entry.Warnf("%s %s %d", req.Method, req.RequestURI, status)
			return
		}
		entry.Infof("%s %s %d", req.Method, req.RequestURI, status)
	}
}
