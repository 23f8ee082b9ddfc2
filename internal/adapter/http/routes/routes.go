package routes

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/http/helper"
	"todolist/internal/adapter/http/middleware"
	"todolist/internal/adapter/telemetry"
	"todolist/internal/core/port"
	"todolist/pkg/config"
)

type HandlersConfig struct {
	AuthHandler *handler.AuthHandler
	TaskHandler *handler.TaskHandler
	Tokens      port.TokenIssuer
}

type Options struct {
	Config  *config.Config
	Logger  *otelzap.Logger
	Metrics *telemetry.AppMetrics
}

// SetupRouter builds the engine with the middleware chain and the /api/v1
// routes. Metrics may be nil.
func SetupRouter(h HandlersConfig, opts Options) *gin.Engine {
	cfg := opts.Config
	zapLogger := opts.Logger.Logger

	router := gin.New()
	router.ContextWithFallback = true

	router.Use(ginzap.CustomRecoveryWithZap(zapLogger, true, func(c *gin.Context, _ any) {
		helper.SendErrorStatus(c, http.StatusInternalServerError, helper.MsgInternalServerError)
	}))
	router.Use(config.NewHTTPSEnforcer(cfg.HTTP.EnforceHTTPS, zapLogger).HTTPSMiddleware())
	router.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))
	router.Use(otelgin.Middleware(cfg.App.Name))
	router.Use(middleware.CurrentMiddleware())
	router.Use(middleware.LoggingMiddleware(opts.Logger, cfg.App.Name))

	if opts.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(opts.Metrics))
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.Global.RPS > 0 {
		router.Use(middleware.GlobalRateLimit(rate.Limit(cfg.RateLimit.Global.RPS), cfg.RateLimit.Global.Burst))
	}

	if cfg.HTTP.MaxConcurrent > 0 {
		router.Use(middleware.ConcurrencyLimit(cfg.HTTP.MaxConcurrent))
	}

	if cfg.HTTP.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}

	if cfg.HTTP.MaxBodyBytes > 0 {
		router.Use(middleware.MaxBodyBytes(cfg.HTTP.MaxBodyBytes))
	}

	router.GET("/health", handler.Health)

	limit := rateLimits(cfg.RateLimit, opts)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", limit(config.RegisterRule(cfg.RateLimit.Register)), h.AuthHandler.Register)
		authGroup.POST("/login", limit(config.LoginRule(cfg.RateLimit.Login)), h.AuthHandler.Login)
	}

	taskGroup := v1.Group("/task")
	taskGroup.Use(middleware.JwtAuthMiddleware(h.Tokens))
	taskGroup.Use(limit(config.TasksRule(cfg.RateLimit.Tasks)))
	{
		taskGroup.POST("", h.TaskHandler.CreateTask)
		taskGroup.GET("/:id", h.TaskHandler.GetTask)
		taskGroup.GET("/user/:userId", h.TaskHandler.ListUserTasks)
		taskGroup.PUT("/:id", h.TaskHandler.UpdateTask)
		taskGroup.DELETE("/:id", h.TaskHandler.DeleteTask)
	}

	return router
}

func rateLimits(cfg config.RateLimit, opts Options) func(config.RateLimitRule) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(config.RateLimitRule) gin.HandlerFunc {
			return func(c *gin.Context) { c.Next() }
		}
	}

	var recorder config.RateLimitRecorder

	if opts.Metrics != nil {
		recorder = opts.Metrics
	}

	limiter := config.NewRateLimiter(opts.Logger.Logger, recorder)

	return func(rule config.RateLimitRule) gin.HandlerFunc {
		if rule.Requests <= 0 {
			return func(c *gin.Context) { c.Next() }
		}

		return limiter.RateLimitMiddleware(rule)
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}

	return c
}
