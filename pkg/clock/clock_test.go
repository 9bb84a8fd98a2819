package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonotonic_Next_StrictlyIncreasingWithFrozenClock(t *testing.T) {
	req := require.New(t)
	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := NewMonotonic(func() time.Time { return frozen })

	first := clk.Next()
	second := clk.Next()
	third := clk.Next()

	req.Equal(frozen, first)
	req.True(second.After(first))
	req.True(third.After(second))
}

func TestMonotonic_Next_ClockGoingBackwards(t *testing.T) {
	req := require.New(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Second), base.Add(time.Second)}
	i := 0
	clk := NewMonotonic(func() time.Time {
		t := times[i]
		i++
		return t
	})

	a := clk.Next()
	b := clk.Next()
	c := clk.Next()

	req.Equal(base.Add(time.Nanosecond), b)
	req.True(b.After(a))
	req.Equal(base.Add(time.Second), c)
}

func TestMonotonic_Seed_StaysAboveStoredTimestamps(t *testing.T) {
	req := require.New(t)
	stored := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	// Yeniden başlatma sonrası sistem saati bir saat geride.
	clk := NewMonotonic(func() time.Time { return stored.Add(-time.Hour) })

	clk.Seed(stored)
	clk.Seed(stored.Add(-time.Minute))

	req.Equal(stored.Add(time.Nanosecond), clk.Next())
}

func TestMonotonic_Next_Concurrent(t *testing.T) {
	req := require.New(t)
	clk := NewMonotonic(nil)

	const n = 200
	results := make(chan time.Time, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- clk.Next()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for ts := range results {
		req.False(seen[ts.UnixNano()], "duplicate timestamp")
		seen[ts.UnixNano()] = true
	}
	req.Len(seen, n)
}
