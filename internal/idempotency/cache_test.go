// SPDX-License-Identifier: MIT

package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestExecuteCachesFirstResult(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	params := map[string]any{"p": 1}

	first, err := c.Execute(ctx, "op", params, time.Minute, func(context.Context) (any, error) {
		return "result-a", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "result-a", first)

	fnBCalled := false
	second, err := c.Execute(ctx, "op", params, time.Minute, func(context.Context) (any, error) {
		fnBCalled = true
		return "result-b", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "result-a", second, "second call must observe the first result")
	assert.False(t, fnBCalled, "second operation must never run while the record is live")
}

func TestExecuteCachesErrors(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	wantErr := errors.New("boom")

	_, err := c.Execute(ctx, "op", nil, time.Minute, func(context.Context) (any, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	calls := 0
	_, err = c.Execute(ctx, "op", nil, time.Minute, func(context.Context) (any, error) {
		calls++
		return "late", nil
	})
	assert.ErrorIs(t, err, wantErr, "cached error should be replayed")
	assert.Zero(t, calls)
}

func TestExecuteExpiredRecordReexecutes(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	c := NewCache(WithClock(clk))
	ctx := context.Background()

	calls := 0
	op := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	res, err := c.Execute(ctx, "op", nil, 10*time.Minute, op)
	require.NoError(t, err)
	assert.Equal(t, 1, res)

	clk.advance(11 * time.Minute)

	res, err = c.Execute(ctx, "op", nil, 10*time.Minute, op)
	require.NoError(t, err)
	assert.Equal(t, 2, res, "expired record must not suppress re-execution")
}

func TestExecuteConcurrentSingleFlight(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	var executions atomic.Int32
	release := make(chan struct{})
	op := func(context.Context) (any, error) {
		executions.Add(1)
		<-release
		return "shared", nil
	}

	const callers = 8
	results := make([]any, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Execute(ctx, "op", map[string]any{"k": "v"}, time.Minute, op)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	// Give the racers time to pile onto the flight, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load(), "racing callers must share one execution")
	for _, res := range results {
		assert.Equal(t, "shared", res)
	}
}

func TestStats(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	c := NewCache(WithClock(clk))
	ctx := context.Background()

	_, _ = c.Execute(ctx, "op-short", nil, time.Minute, func(context.Context) (any, error) { return 1, nil })
	_, _ = c.Execute(ctx, "op-long", nil, time.Hour, func(context.Context) (any, error) { return 2, nil })

	clk.advance(30 * time.Minute)

	s := c.Stats()
	assert.Equal(t, 2, s.TotalRecords)
	assert.Equal(t, 1, s.ActiveRecords)
	assert.Equal(t, 1, s.ExpiredRecords)
}

func TestJanitorEvictsExpired(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	c := NewCache(WithClock(clk), WithSweepInterval(20*time.Millisecond))
	defer c.Stop()
	ctx := context.Background()

	_, _ = c.Execute(ctx, "op", nil, time.Minute, func(context.Context) (any, error) { return 1, nil })
	clk.advance(2 * time.Minute)

	assert.Eventually(t, func() bool {
		return c.Stats().TotalRecords == 0
	}, time.Second, 10*time.Millisecond, "janitor should evict the expired record")
}

func TestDeleteExpired(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	c := NewCache(WithClock(clk))
	ctx := context.Background()

	_, _ = c.Execute(ctx, "a", nil, time.Minute, func(context.Context) (any, error) { return 1, nil })
	_, _ = c.Execute(ctx, "b", nil, time.Hour, func(context.Context) (any, error) { return 2, nil })
	clk.advance(10 * time.Minute)

	assert.Equal(t, 1, c.deleteExpired())
	assert.Equal(t, 1, c.Stats().TotalRecords)
}
