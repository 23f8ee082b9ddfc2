package config

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	ct "todolist/pkg/context"
)

type RateLimitRecorder interface {
	RecordRateLimitHit(ctx context.Context, path, keyType string)
	RecordRateLimitAllowed(ctx context.Context, path, keyType string)
}

// RateLimitRule is a fixed window of Requests per Window. Routes sharing a
// rule Name share one counter per client.
type RateLimitRule struct {
	Name     string
	Requests int
	Window   time.Duration
	KeyFunc  func(*gin.Context) string
}

type RateLimiter struct {
	cache   *cache.Cache
	logger  *zap.Logger
	metrics RateLimitRecorder
	mutex   sync.Mutex
	now     func() time.Time
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// NewRateLimiter returns a limiter backed by an in-process cache. metrics may
// be nil.
func NewRateLimiter(logger *zap.Logger, metrics RateLimitRecorder) *RateLimiter {
	return &RateLimiter{
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// RegisterRule limits registration attempts per client IP.
func RegisterRule(c RateLimitConfig) RateLimitRule {
	return RateLimitRule{Name: "register", Requests: c.Requests, Window: c.Window, KeyFunc: GetClientIP}
}

// LoginRule limits login attempts per client IP.
func LoginRule(c RateLimitConfig) RateLimitRule {
	return RateLimitRule{Name: "login", Requests: c.Requests, Window: c.Window, KeyFunc: GetClientIP}
}

// TasksRule limits task requests per authenticated user.
func TasksRule(c RateLimitConfig) RateLimitRule {
	return RateLimitRule{Name: "tasks", Requests: c.Requests, Window: c.Window, KeyFunc: GetUserKey}
}

func (rl *RateLimiter) RateLimitMiddleware(rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()

		if path == "" {
			path = c.Request.URL.Path
		}

		identifier := rule.KeyFunc(c)
		key := fmt.Sprintf("rate_limit:%s:%s", rule.Name, identifier)

		keyType := "ip"
		if _, ok := c.Get(ct.KeyEmail); ok {
			keyType = "user"
		}

		allowed, remaining, resetTime := rl.checkRateLimit(key, rule)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path, keyType)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("rule", rule.Name),
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", rule.Requests),
				zap.Duration("window", rule.Window))

			retryAfter := int(resetTime.Sub(rl.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  http.StatusTooManyRequests,
				"message": fmt.Sprintf("Too many requests. Limit: %d per %v", rule.Requests, rule.Window),
			})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path, keyType)
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(key string, rule RateLimitRule) (bool, int, time.Time) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if entry, found := rl.cache.Get(key); found {
		rateLimitEntry := entry.(RateLimitEntry)

		if now.Before(rateLimitEntry.ResetTime) {
			if rateLimitEntry.Count >= rule.Requests {
				return false, 0, rateLimitEntry.ResetTime
			}

			rateLimitEntry.Count++
			rl.cache.Set(key, rateLimitEntry, rateLimitEntry.ResetTime.Sub(now))

			return true, rule.Requests - rateLimitEntry.Count, rateLimitEntry.ResetTime
		}
	}

	resetTime := now.Add(rule.Window)
	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, rule.Window)

	return true, rule.Requests - 1, resetTime
}

func (rl *RateLimiter) GetStats() map[string]any {
	return map[string]any{
		"active_entries": rl.cache.ItemCount(),
	}
}

func GetClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	return "unknown"
}

// GetUserKey identifies the caller by the email the auth middleware stored,
// falling back to the client IP.
func GetUserKey(c *gin.Context) string {
	if email := c.GetString(ct.KeyEmail); email != "" {
		return "user_" + email
	}

	return GetClientIP(c)
}
