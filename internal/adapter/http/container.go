package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"todolist/internal/adapter/cache/memory"
	"todolist/internal/adapter/cache/redis"
	"todolist/internal/adapter/database/gormdb"
	"todolist/internal/adapter/database/postgres"
	pgrepository "todolist/internal/adapter/database/postgres/repository"
	"todolist/internal/adapter/database/sqlite"
	sqliterepository "todolist/internal/adapter/database/sqlite/repository"
	"todolist/internal/adapter/http/handler"
	"todolist/internal/adapter/telemetry"
	"todolist/internal/core/port"
	"todolist/internal/core/service"
	"todolist/internal/core/util"
	"todolist/pkg/auth"
	"todolist/pkg/config"
)

// Container holds the wired application graph.
type Container struct {
	UserRepo port.UserRepository
	TaskRepo port.TaskRepository
	Cache    port.CacheRepository
	Tokens   *auth.JWT

	UserService port.UserService
	AuthService port.AuthService
	TaskService port.TaskService
	Guard       port.AccessGuard

	AuthHandler *handler.AuthHandler
	TaskHandler *handler.TaskHandler

	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, metrics *telemetry.AppMetrics) (*Container, error) {
	c := &Container{}

	userRepo, taskRepo, err := c.openStore(ctx, cfg.DB, logger)

	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	cache, err := c.openCache(ctx, cfg.Cache)

	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	cachedUsers := service.NewCachedUserRepository(userRepo, cache, cfg.Cache.TTL, logger)

	var recorder handler.OperationRecorder

	if metrics != nil {
		cachedUsers.WithMetrics(metrics)
		recorder = metrics
	}

	c.UserRepo = cachedUsers
	c.TaskRepo = taskRepo
	c.Cache = cache
	c.Tokens = auth.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	c.UserService = service.NewUserService(c.UserRepo).WithCredentialStore(userRepo)
	c.Guard = service.NewAccessGuard(c.UserService)
	c.AuthService = service.NewAuthService(c.UserService, util.NewBcryptHasher(cfg.BcryptCost), c.Tokens, logger)
	c.TaskService = service.NewTaskService(c.TaskRepo, c.Guard, logger)

	c.AuthHandler = handler.NewAuthHandler(c.AuthService, recorder)
	c.TaskHandler = handler.NewTaskHandler(c.TaskService, c.Guard, recorder)

	return c, nil
}

func (c *Container) openStore(ctx context.Context, cfg config.DB, logger *otelzap.Logger) (port.UserRepository, port.TaskRepository, error) {
	switch cfg.Driver {
	case "sqlite":
		sqlLog, err := zap.NewStdLogAt(logger.Logger.Named("sql"), zapcore.DebugLevel)

		if err != nil {
			return nil, nil, err
		}

		db, err := sqlite.NewDB(sqlite.Options{
			DSN:          cfg.DSN,
			LogQueries:   cfg.LogQueries,
			LogLevel:     cfg.LogLevel,
			LogOutput:    sqlLog.Writer(),
			MaxOpenConns: cfg.MaxOpenConns,
		})

		if err != nil {
			return nil, nil, err
		}

		c.closers = append(c.closers, db.Close)
		return sqliterepository.NewUserRepository(db), sqliterepository.NewTaskRepository(db), nil

	case "postgres":
		db, err := postgres.NewDB(ctx, postgres.Options{
			URL:             cfg.DSN,
			MaxConns:        int32(cfg.MaxOpenConns),
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})

		if err != nil {
			return nil, nil, err
		}

		c.closers = append(c.closers, func() error { db.Close(); return nil })
		return pgrepository.NewUserRepository(db), pgrepository.NewTaskRepository(db), nil

	case "gorm-postgres", "mysql":
		driver := "mysql"

		if cfg.Driver == "gorm-postgres" {
			driver = "postgres"
		}

		db, err := gormdb.NewGorm(gormdb.Opts{
			Driver:          driver,
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			LogLevel:        cfg.LogLevel,
		})

		if err != nil {
			return nil, nil, err
		}

		sqlDB, err := db.DB()

		if err != nil {
			return nil, nil, err
		}

		c.closers = append(c.closers, sqlDB.Close)
		return gormdb.NewUserRepository(db), gormdb.NewTaskRepository(db), nil

	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

func (c *Container) openCache(ctx context.Context, cfg config.Cache) (port.CacheRepository, error) {
	var cache port.CacheRepository

	switch cfg.Backend {
	case "redis":
		rc, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})

		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}

		cache = rc
	default:
		cache = memory.New(cfg.TTL, 2*cfg.TTL)
	}

	c.closers = append(c.closers, cache.Close)
	return cache, nil
}

// Close releases the cache and the store in reverse order of opening.
func (c *Container) Close() error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}

	c.closers = nil
	return errors.Join(errs...)
}
