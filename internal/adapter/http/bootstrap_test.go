package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/pkg/config"
	. "todolist/pkg/test"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:        config.App{Name: "todolist", Env: "test"},
		HTTP:       config.HTTP{Port: "0", RequestTimeout: time.Second},
		DB:         config.DB{Driver: "sqlite", DSN: ":memory:"},
		JWT:        config.JWT{Secret: "secret", Issuer: "todolist", TTL: time.Hour},
		BcryptCost: 4,
		Cache:      config.Cache{Backend: "memory", TTL: time.Minute},
	}
}

func TestNewServer_WiresSQLiteAndMemoryCache(t *testing.T) {
	srv, container, err := NewServer(context.Background(), memoryConfig(), NopLogger(), nil)
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, ":0", srv.Addr)
	assert.NotNil(t, container.AuthHandler)
	assert.NotNil(t, container.TaskHandler)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewContainer_UnsupportedDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.DB.Driver = "oracle"

	_, err := NewContainer(context.Background(), cfg, NopLogger(), nil)
	assert.ErrorContains(t, err, "unsupported db driver")
}

func TestStartServer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- StartServer(ctx, memoryConfig(), NopLogger(), nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
