package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"todolist/internal/adapter/http/helper"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	ct "todolist/pkg/context"
)

const bearerPrefix = "Bearer "

// JwtAuthMiddleware rejects requests without a valid bearer token and puts
// the token subject (the user's email) in the request context.
func JwtAuthMiddleware(tokens port.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		if !strings.HasPrefix(header, bearerPrefix) {
			helper.SendUnauthorizedError(c, service.MsgUnauthenticated)
			return
		}

		email, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))

		if err != nil {
			_ = c.Error(err)
			helper.SendUnauthorizedError(c, service.MsgUnauthenticated)
			return
		}

		ctx := ct.WithEmail(c.Request.Context(), email)
		c.Request = c.Request.WithContext(ctx)

		c.Set(ct.KeyEmail, email)
		c.Next()
	}
}
