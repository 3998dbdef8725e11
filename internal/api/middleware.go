package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/newsroom-crawler/internal/logger"
)

const headerRequestID = "X-Request-ID"

// requestScope tags the request with an id, echoed in the response, and
// stores a logger carrying that id in the request context.
func requestScope(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)

		scoped := log.With(logger.String("request_id", id))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), scoped))
		c.Next()
	}
}

// accessLog writes one entry per request. Probes and scrapes log at debug.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.FromContext(c.Request.Context())
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		}

		switch path := c.Request.URL.Path; {
		case len(c.Errors) > 0:
			log.Error("Request failed", append(fields, logger.Strings("errors", c.Errors.Errors()))...)
		case path == "/health" || path == "/metrics":
			log.Debug("Request served", fields...)
		default:
			log.Info("Request served", fields...)
		}
	}
}

// recovery turns a handler panic into a 500 and logs it with the request id.
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("Handler panicked",
			logger.Any("panic", recovered),
			logger.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
