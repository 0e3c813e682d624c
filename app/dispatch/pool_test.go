package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolSerializesSameKey(t *testing.T) {
	pool := NewPool(4, 16)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		err := pool.Submit(Job{Key: "W1", Run: func(context.Context) {
			// Uneven job durations would reorder if W1 ran on two workers.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	require.Len(t, order, 10)
	for i, got := range order {
		require.Equal(t, i, got)
	}
}

func TestPoolRunsDistinctKeysConcurrently(t *testing.T) {
	pool := NewPool(4, 4)

	var wg sync.WaitGroup
	wg.Add(2)
	started := make(chan string, 2)
	release := make(chan struct{})

	for _, key := range []string{"W1", "W2"} {
		key := key
		require.NoError(t, pool.Submit(Job{Key: key, Run: func(context.Context) {
			defer wg.Done()
			started <- key
			<-release
		}}))
	}

	// Both jobs must be in flight before either is released.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs for distinct keys did not run concurrently")
		}
	}
	close(release)
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
}

func TestPoolShutdownDrains(t *testing.T) {
	pool := NewPool(2, 32)

	var mu sync.Mutex
	done := 0
	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(Job{Key: fmt.Sprintf("W%d", i), Run: func(context.Context) {
			time.Sleep(time.Millisecond)
			mu.Lock()
			done++
			mu.Unlock()
		}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 20, done)
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	pool := NewPool(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	err := pool.Submit(Job{Key: "W1", Run: func(context.Context) {}})
	require.Error(t, err)
}

func TestPoolRecoversFromPanic(t *testing.T) {
	pool := NewPool(1, 4)

	ran := make(chan struct{})
	require.NoError(t, pool.Submit(Job{Key: "W1", Run: func(context.Context) { panic("boom") }}))
	require.NoError(t, pool.Submit(Job{Key: "W1", Run: func(context.Context) { close(ran) }}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
}
