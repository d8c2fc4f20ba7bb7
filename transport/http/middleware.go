package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/adapters/metrics"
)

const sessionKey = "w3oSession"

// RequireSession aborts requests made while no session is current
func RequireSession(octopus *w3o.Octopus) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := octopus.Sessions().CurrentSession()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No current session"})
			return
		}

		// Set the session in the context
		c.Set(sessionKey, session)

		c.Next()
	}
}

// RequestLogger logs every request once it has been served and records it
// in collector when one is given
func RequestLogger(logger *zap.Logger, collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if collector != nil {
			collector.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

func currentSession(c *gin.Context) (*w3o.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*w3o.Session)
	return session, ok
}
