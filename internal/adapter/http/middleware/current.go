package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ct "todolist/pkg/context"
)

const HeaderRequestID = "X-Request-ID"

// CurrentMiddleware attaches a Current carrying request metadata to the
// request context. The request id is echoed back in X-Request-ID.
func CurrentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		current := ct.NewCurrent()

		requestID := c.GetHeader(HeaderRequestID)

		if requestID == "" {
			requestID = uuid.New().String()
		}

		current.Set(ct.KeyRequestID, requestID)
		current.Set(ct.KeyUserAgent, c.Request.UserAgent())
		current.Set(ct.KeyClientIP, c.ClientIP())
		current.Set(ct.KeyMethod, c.Request.Method)
		current.Set(ct.KeyPath, c.Request.URL.Path)

		ctx := ct.WithCurrent(c.Request.Context(), current)
		c.Request = c.Request.WithContext(ctx)

		c.Set("current", current)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

func GetCurrent(c *gin.Context) *ct.Current {
	if current, ok := c.Get("current"); ok {
		if curr, ok := current.(*ct.Current); ok {
			return curr
		}
	}

	return ct.GetCurrent(c.Request.Context())
}
