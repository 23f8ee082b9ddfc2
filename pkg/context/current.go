package context

import (
	"context"
	"sync"
)

const (
	KeyRequestID = "request_id"
	KeyEmail     = "email"
	KeyClientIP  = "ip_address"
	KeyUserAgent = "user_agent"
	KeyMethod    = "method"
	KeyPath      = "path"
)

// Current carries per-request values from the HTTP layer down to services.
type Current struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewCurrent() *Current {
	return &Current{
		data: make(map[string]any),
	}
}

func (c *Current) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *Current) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key]
}

func (c *Current) GetString(key string) (string, bool) {
	value := c.Get(key)
	if value == nil {
		return "", false
	}
	if str, ok := value.(string); ok {
		return str, true
	}
	return "", false
}

// Email is the authenticated identity, empty when the request is anonymous.
func (c *Current) Email() (string, bool) {
	email, ok := c.GetString(KeyEmail)
	return email, ok && email != ""
}

func (c *Current) RequestID() string {
	id, _ := c.GetString(KeyRequestID)
	return id
}

type contextKey string

const currentKey contextKey = "current"

func WithCurrent(ctx context.Context, current *Current) context.Context {
	return context.WithValue(ctx, currentKey, current)
}

func FromContext(ctx context.Context) (*Current, bool) {
	current, ok := ctx.Value(currentKey).(*Current)
	return current, ok
}

func GetCurrent(ctx context.Context) *Current {
	if current, ok := FromContext(ctx); ok {
		return current
	}

	return NewCurrent()
}

// WithEmail returns a context whose Current carries the given identity. An
// existing Current is reused so request metadata is kept.
func WithEmail(ctx context.Context, email string) context.Context {
	current, ok := FromContext(ctx)

	if !ok {
		current = NewCurrent()
		ctx = WithCurrent(ctx, current)
	}

	current.Set(KeyEmail, email)
	return ctx
}

func EmailFromContext(ctx context.Context) (string, bool) {
	current, ok := FromContext(ctx)

	if !ok {
		return "", false
	}

	return current.Email()
}
