package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(8, 2, nil)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		ok := pool.Submit(Task{
			Name: "count",
			Run: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
		})
		require.True(t, ok)
	}

	pool.Close()
	assert.Equal(t, int32(5), ran.Load())
}

func TestPoolContainsPanics(t *testing.T) {
	pool := NewPool(8, 1, nil)

	var ran atomic.Bool
	pool.Submit(Task{
		Name: "boom",
		Run: func(ctx context.Context) error {
			panic("task exploded")
		},
	})
	pool.Submit(Task{
		Name: "after",
		Run: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	})

	pool.Close()
	assert.True(t, ran.Load(), "a panicking task must not take down the worker")
}

func TestPoolContainsErrors(t *testing.T) {
	pool := NewPool(8, 1, nil)

	var ran atomic.Bool
	pool.Submit(Task{
		Name: "failing",
		Run: func(ctx context.Context) error {
			return errors.New("storage unavailable")
		},
	})
	pool.Submit(Task{
		Name: "after",
		Run: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	})

	pool.Close()
	assert.True(t, ran.Load())
}

func TestPoolDropsWhenFull(t *testing.T) {
	pool := NewPool(1, 1, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	// Occupy the only worker, then fill the single queue slot.
	require.True(t, pool.Submit(Task{
		Name: "blocker",
		Run: func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		},
	}))
	<-started

	require.True(t, pool.Submit(Task{
		Name: "queued",
		Run:  func(ctx context.Context) error { return nil },
	}))

	dropped := pool.Submit(Task{
		Name: "overflow",
		Run:  func(ctx context.Context) error { return nil },
	})
	assert.False(t, dropped, "a full queue must drop instead of blocking the caller")
}

func TestSubmitAfterClose(t *testing.T) {
	pool := NewPool(8, 1, nil)
	pool.Close()

	ok := pool.Submit(Task{
		Name: "late",
		Run:  func(ctx context.Context) error { return nil },
	})
	assert.False(t, ok)
}

func TestTaskContextHasDeadline(t *testing.T) {
	pool := NewPool(8, 1, nil)

	var hasDeadline atomic.Bool
	pool.Submit(Task{
		Name: "deadline",
		Run: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			hasDeadline.Store(ok)
			return nil
		},
	})

	pool.Close()
	assert.True(t, hasDeadline.Load(), "tasks must run under a timeout")
}

func TestCloseIdempotent(t *testing.T) {
	pool := NewPool(8, 1, nil)
	pool.Close()
	assert.NotPanics(t, func() { pool.Close() })
}
