package redis

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"

	"todolist/internal/core/port"
)

func TestCache_AgainstRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")

	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	RegisterTestingT(t)
	ctx := context.Background()

	c, err := New(ctx, Options{Addr: addr, Prefix: "todolist-test:"})
	require.NoError(t, err)
	defer c.Close()

	c.Delete(ctx, "key")

	_, err = c.Get(ctx, "key")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	Expect(c.Set(ctx, "key", []byte("value"), time.Minute)).To(Succeed())

	value, err := c.Get(ctx, "key")
	Expect(err).To(BeNil())
	Expect(string(value)).To(Equal("value"))

	Expect(c.Delete(ctx, "key")).To(Succeed())
}

func TestNew_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := New(ctx, Options{Addr: "127.0.0.1:1"})

	require.Error(t, err)
}
