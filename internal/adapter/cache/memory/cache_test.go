package memory

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"todolist/internal/core/port"
)

func TestCache_SetGetDelete(t *testing.T) {
	RegisterTestingT(t)
	ctx := context.Background()
	c := New(time.Minute, time.Minute)

	_, err := c.Get(ctx, "key")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	Expect(c.Set(ctx, "key", []byte("value"), time.Minute)).To(Succeed())

	value, err := c.Get(ctx, "key")
	Expect(err).To(BeNil())
	Expect(string(value)).To(Equal("value"))
	Expect(c.ItemCount()).To(Equal(1))

	Expect(c.Delete(ctx, "key")).To(Succeed())

	_, err = c.Get(ctx, "key")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestCache_Expires(t *testing.T) {
	RegisterTestingT(t)
	ctx := context.Background()
	c := New(time.Minute, time.Minute)

	c.Set(ctx, "key", []byte("value"), 10*time.Millisecond)

	Eventually(func() error {
		_, err := c.Get(ctx, "key")
		return err
	}).WithTimeout(time.Second).Should(MatchError(port.ErrCacheMiss))
}
