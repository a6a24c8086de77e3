package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/whitespace-backend/internal/platform/ctxutil"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Routes listed in quiet are
// logged at debug level when they succeed.
func RequestLogger(log *logger.Logger, quiet ...string) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	debugOnly := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		debugOnly[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if route != "" && route != c.Request.URL.Path {
			fields = append(fields, "route", route)
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != "" {
			fields = append(fields, "user_id", rd.UserID)
		}
		if msg := c.Errors.ByType(gin.ErrorTypeAny).Last(); msg != nil {
			fields = append(fields, "error", msg.Error())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case debugOnly[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
