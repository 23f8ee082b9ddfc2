package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"todolist/internal/adapter/http/helper"
)

const (
	MsgBodyTooLarge    = "Request body too large"
	MsgTimeout         = "Request timed out"
	MsgServerBusy      = "Server busy"
	MsgTooManyRequests = "Too many requests"
)

// MaxBodyBytes caps the request body. Handlers see *http.MaxBytesError when
// they read past the limit.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			helper.SendErrorStatus(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// Timeout bounds the request context. The store and the services give up
// once it expires.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			helper.SendErrorStatus(c, http.StatusGatewayTimeout, MsgTimeout)
		}
	}
}

// ConcurrencyLimit bounds the requests served at once. Requests over the cap
// are rejected instead of queued.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)

	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			helper.SendErrorStatus(c, http.StatusServiceUnavailable, MsgServerBusy)
			return
		}
		defer sem.Release(1)

		c.Next()
	}
}

// GlobalRateLimit is a token bucket shared by every client.
func GlobalRateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rps, burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			helper.SendErrorStatus(c, http.StatusTooManyRequests, MsgTooManyRequests)
			return
		}

		c.Next()
	}
}
