package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeNow, testlerde zamanı elle ilerletmek için.
type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T) (*TTLCache[string, int], *fakeNow) {
	t.Helper()
	clk := &fakeNow{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newWithClock[string, int](time.Minute, time.Hour, clk.Now)
	t.Cleanup(c.Close)
	return c, clk
}

func TestTTLCache_GetExpires(t *testing.T) {
	req := require.New(t)
	c, clk := newTestCache(t)

	c.Set("a", 1)
	v, ok := c.Get("a")
	req.True(ok)
	req.Equal(1, v)

	clk.Advance(2 * time.Minute)
	_, ok = c.Get("a")
	req.False(ok)
	req.Equal(1, c.Len())

	c.evictExpired()
	req.Zero(c.Len())
}

func TestTTLCache_GetOrLoad(t *testing.T) {
	req := require.New(t)
	c, _ := newTestCache(t)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad("k", load)
	req.NoError(err)
	req.Equal(42, v)

	v, err = c.GetOrLoad("k", load)
	req.NoError(err)
	req.Equal(42, v)
	req.Equal(1, calls)
}

func TestTTLCache_GetOrLoad_ErrorsAreNotCached(t *testing.T) {
	req := require.New(t)
	c, _ := newTestCache(t)
	boom := errors.New("not found")

	_, err := c.GetOrLoad("k", func() (int, error) { return 0, boom })
	req.ErrorIs(err, boom)
	req.Zero(c.Len())

	v, err := c.GetOrLoad("k", func() (int, error) { return 7, nil })
	req.NoError(err)
	req.Equal(7, v)
}

func TestTTLCache_DeleteAndDoubleClose(t *testing.T) {
	req := require.New(t)
	c, _ := newTestCache(t)

	c.Set("a", 1)
	c.Delete("a")
	_, ok := c.Get("a")
	req.False(ok)

	c.Close()
	c.Close()
}
