package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	ct "todolist/pkg/context"
)

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"pwd":           {},
	"token":         {},
	"authorization": {},
	"secret":        {},
	"access_token":  {},
}

func maskQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	masked := url.Values{}

	for k, v := range values {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			masked[k] = []string{"****"}
		} else {
			masked[k] = v
		}
	}

	return masked.Encode()
}

// LoggingMiddleware writes one record per request. Errors attached with
// c.Error are logged with the record.
func LoggingMiddleware(logger *otelzap.Logger, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := maskQuery(c.Request.URL.Query())

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		fields := []zap.Field{
			zap.String("request_id", GetCurrent(c).RequestID()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("size", c.Writer.Size()),
			zap.String("service", serviceName),
		}

		if email := c.GetString(ct.KeyEmail); email != "" {
			fields = append(fields, zap.String("user", email))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		log := logger.Ctx(c.Request.Context())

		switch {
		case status >= 500:
			log.Error("HTTP Request", fields...)
		case status >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
	}
}
