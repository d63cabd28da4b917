package async

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOnce(t *testing.T) {
	f := NewFuture[int]()

	_, _, ok := f.Result()
	assert.False(t, ok)

	assert.True(t, f.Resolve(1, nil))
	assert.False(t, f.Resolve(2, errors.New("late")))

	value, err, ok := f.Result()
	require.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestWaitTimeout(t *testing.T) {
	f := NewFuture[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the future still resolves after the waiter gave up
	f.Resolve("late", nil)
	value, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", value)
}

func TestHelpers(t *testing.T) {
	value, err := Resolved(5).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, value)

	failure := errors.New("rejected")
	_, err = Failed[int](failure).Wait(context.Background())
	assert.ErrorIs(t, err, failure)
}

func TestThen(t *testing.T) {
	tests := []struct {
		name          string
		source        *Future[int]
		expected      string
		expectedError error
	}{
		{name: "success", source: Resolved(42), expected: "42"},
		{name: "failure skips fn", source: Failed[int](errors.New("token")), expectedError: errors.New("token")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := Then(tc.source, func(v int) (string, error) {
				called = true
				return strconv.Itoa(v), nil
			})

			value, err := next.Wait(context.Background())
			if tc.expectedError != nil {
				assert.EqualError(t, err, tc.expectedError.Error())
				assert.False(t, called)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, value)
		})
	}
}

func TestRunOnGoroutines(t *testing.T) {
	value, err := Run(Goroutines{}, func() (int, error) { return 7, nil }).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Go(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), running.Load())
}

func TestNewExecutor(t *testing.T) {
	assert.IsType(t, Goroutines{}, NewExecutor(0))
	assert.IsType(t, &Pool{}, NewExecutor(4))
}
