package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"todolist/internal/core/domain"
	"todolist/internal/core/port"
)

const DefaultUserCacheTTL = 5 * time.Minute

type CacheRecorder interface {
	RecordCacheHit(ctx context.Context, cache string)
	RecordCacheMiss(ctx context.Context, cache string)
}

// CachedUserRepository is a read-through cache in front of a UserRepository.
// Users never change after registration so entries are not invalidated;
// misses are not cached. Entries and results carry no password hash, read
// credentials from the store itself.
type CachedUserRepository struct {
	next    port.UserRepository
	cache   port.CacheRepository
	ttl     time.Duration
	logger  *otelzap.Logger
	metrics CacheRecorder
	group   singleflight.Group
}

func NewCachedUserRepository(next port.UserRepository, cache port.CacheRepository, ttl time.Duration, logger *otelzap.Logger) *CachedUserRepository {
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}

	return &CachedUserRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// WithMetrics reports hits and misses to metrics.
func (r *CachedUserRepository) WithMetrics(metrics CacheRecorder) *CachedUserRepository {
	r.metrics = metrics
	return r
}

func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.load(ctx, "user:email:"+email, func(ctx context.Context) (domain.User, error) {
		return r.next.GetByEmail(ctx, email)
	})
}

func (r *CachedUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return r.next.Create(ctx, user)
}

func (r *CachedUserRepository) load(ctx context.Context, key string, fetch func(context.Context) (domain.User, error)) (domain.User, error) {
	raw, err := r.cache.Get(ctx, key)

	if err == nil {
		var entry cachedUser

		if err := json.Unmarshal(raw, &entry); err == nil {
			r.record(ctx, true)
			return entry.toDomain(), nil
		}
	} else if !errors.Is(err, port.ErrCacheMiss) {
		r.logger.Ctx(ctx).Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	}

	r.record(ctx, false)

	// the load is shared by every caller waiting on key
	shared := context.WithoutCancel(ctx)

	v, err, _ := r.group.Do(key, func() (any, error) {
		user, err := fetch(shared)

		if err != nil {
			return domain.User{}, err
		}

		entry := fromUser(user)

		if raw, err := json.Marshal(entry); err == nil {
			if err := r.cache.Set(shared, key, raw, r.ttl); err != nil {
				r.logger.Ctx(shared).Warn("user cache write failed", zap.String("key", key), zap.Error(err))
			}
		}

		return entry.toDomain(), nil
	})

	if err != nil {
		return domain.User{}, err
	}

	return v.(domain.User), nil
}

func (r *CachedUserRepository) record(ctx context.Context, hit bool) {
	if r.metrics == nil {
		return
	}

	if hit {
		r.metrics.RecordCacheHit(ctx, "user")
	} else {
		r.metrics.RecordCacheMiss(ctx, "user")
	}
}

type cachedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func fromUser(u domain.User) cachedUser {
	return cachedUser{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (c cachedUser) toDomain() domain.User {
	return domain.User{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}
