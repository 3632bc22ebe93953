package workqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeebo/assert"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/poolflow/internal/testutil"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
)

func newController(t *testing.T, cfg Config) *Controller[int] {
	t.Helper()
	c, err := NewWithConfig[int](cfg)
	assert.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LocalCapacity = 4
	cfg.SegmentSize = 4
	cfg.StealAwakePeriod = time.Millisecond
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"local capacity not a power of two", func(c *Config) { c.LocalCapacity = 3 }},
		{"negative global capacity", func(c *Config) { c.GlobalCapacity = -1 }},
		{"zero segment size", func(c *Config) { c.SegmentSize = 0 }},
		{"zero steal period", func(c *Config) { c.StealAwakePeriod = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewWithConfig[int](cfg)
			assert.That(t, errors.Is(err, pferrors.ErrInvalidConfiguration))
		})
	}
}

func TestControllerPrefersLocal(t *testing.T) {
	ctx := context.Background()
	c := newController(t, testConfig())
	local := c.NewLocalQueue()

	for i := 1; i <= 3; i++ {
		assert.NoError(t, c.Add(ctx, i, local, false))
	}
	assert.NoError(t, c.Add(ctx, 99, local, true))
	assert.Equal(t, 3, c.LocalItemCount())
	assert.Equal(t, 1, c.GlobalQueueCount())
	assert.Equal(t, 4, c.Count())

	want := []int{3, 2, 1, 99}
	for _, w := range want {
		got, ok, err := c.TryTake(ctx, local, false, 0)
		assert.NoError(t, err)
		assert.That(t, ok)
		assert.Equal(t, w, got)
	}
}

func TestControllerOverflowsToGlobal(t *testing.T) {
	ctx := context.Background()
	c := newController(t, testConfig())
	local := c.NewLocalQueue()

	for i := 0; i < 6; i++ {
		assert.NoError(t, c.Add(ctx, i, local, false))
	}
	assert.Equal(t, 4, local.Count())
	assert.Equal(t, 2, c.GlobalQueueCount())
}

func TestControllerForeignLocalQueueGoesGlobal(t *testing.T) {
	ctx := context.Background()
	a := newController(t, testConfig())
	b := newController(t, testConfig())
	foreign := b.NewLocalQueue()

	assert.NoError(t, a.Add(ctx, 1, foreign, false))
	assert.Equal(t, 1, a.GlobalQueueCount())
	assert.Equal(t, 0, foreign.Count())
}

func TestControllerStealSkipsOwnQueue(t *testing.T) {
	ctx := context.Background()
	c := newController(t, testConfig())
	a := c.NewLocalQueue()
	b := c.NewLocalQueue()
	assert.NoError(t, c.Add(ctx, 7, a, false))

	_, ok := c.TrySteal(a)
	assert.That(t, !ok)

	got, ok := c.TrySteal(b)
	assert.That(t, ok)
	assert.Equal(t, 7, got)
	assert.Equal(t, uint64(1), c.Steals())
}

func TestControllerTakeStealsWhenLocalAndGlobalEmpty(t *testing.T) {
	ctx := context.Background()
	c := newController(t, testConfig())
	a := c.NewLocalQueue()
	b := c.NewLocalQueue()
	assert.NoError(t, c.Add(ctx, 1, a, false))

	_, ok, err := c.TryTake(ctx, b, false, 0)
	assert.NoError(t, err)
	assert.That(t, !ok)

	got, ok, err := c.TryTake(ctx, b, true, 0)
	assert.NoError(t, err)
	assert.That(t, ok)
	assert.Equal(t, 1, got)
}

func TestControllerBlockedTakeWakesToSteal(t *testing.T) {
	c := newController(t, testConfig())
	producer := c.NewLocalQueue()

	got := make(chan int, 1)
	var g errgroup.Group
	g.Go(func() error {
		local := c.NewLocalQueue()
		defer c.RemoveLocalQueue(local)
		item, err := c.Take(context.Background(), local, true)
		if err != nil {
			return err
		}
		got <- item
		return nil
	})

	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, c.Add(context.Background(), 42, producer, false))
	assert.NoError(t, g.Wait())
	assert.Equal(t, 42, <-got)
}

func TestControllerRemoveLocalQueueMovesLeftovers(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.GlobalCapacity = 1
	c := newController(t, cfg)
	local := c.NewLocalQueue()

	for i := 0; i < 4; i++ {
		assert.NoError(t, c.Add(ctx, i, local, false))
	}
	c.RemoveLocalQueue(local)
	c.RemoveLocalQueue(local)

	assert.Equal(t, 0, c.LocalQueueCount())
	assert.Equal(t, 4, c.GlobalQueueCount())
	assert.Equal(t, 4, c.ExtendedCapacity())

	for i := 0; i < 4; i++ {
		_, ok, err := c.TryTake(ctx, nil, false, 0)
		assert.NoError(t, err)
		assert.That(t, ok)
	}
	assert.Equal(t, 0, c.ExtendedCapacity())
}

func TestControllerBoundedAddTimesOut(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.GlobalCapacity = 1
	c := newController(t, cfg)

	ok, err := c.TryAdd(ctx, 1, nil, false, 0)
	assert.NoError(t, err)
	assert.That(t, ok)

	ok, err = c.TryAdd(ctx, 2, nil, false, 10*time.Millisecond)
	assert.NoError(t, err)
	assert.That(t, !ok)

	c.ExtendGlobalQueueCapacity(1)
	ok, err = c.TryAdd(ctx, 2, nil, false, 0)
	assert.NoError(t, err)
	assert.That(t, ok)
	assert.Equal(t, 1, c.BoundedCapacity())
	assert.Equal(t, 1, c.ExtendedCapacity())
}

func TestControllerCanceledBeforeWait(t *testing.T) {
	c := newController(t, testConfig())
	assert.NoError(t, c.ForceAdd(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.TryTake(ctx, nil, true, 0)
	assert.That(t, errors.Is(err, pferrors.ErrCanceled))
	assert.That(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, c.GlobalQueueCount())

	_, err = c.TryAdd(ctx, 2, nil, false, 0)
	assert.That(t, errors.Is(err, pferrors.ErrCanceled))
	assert.Equal(t, 1, c.GlobalQueueCount())
}

func TestControllerCloseWakesTakers(t *testing.T) {
	c := newController(t, testConfig())

	errc := make(chan error, 1)
	go func() {
		_, err := c.Take(context.Background(), nil, true)
		errc <- err
	}()

	time.Sleep(5 * time.Millisecond)
	c.Close()

	select {
	case err := <-errc:
		assert.That(t, errors.Is(err, pferrors.ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the blocked take")
	}

	assert.That(t, errors.Is(c.Add(context.Background(), 1, nil, false), pferrors.ErrClosed))
}

func TestControllerDrainsAfterClose(t *testing.T) {
	ctx := context.Background()
	c := newController(t, testConfig())
	assert.NoError(t, c.Add(ctx, 1, nil, false))
	c.Close()

	got, err := c.Take(ctx, nil, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = c.Take(ctx, nil, false)
	assert.That(t, errors.Is(err, pferrors.ErrClosed))
}

// A producer that only fills its own local queue must not strand items:
// idle workers steal everything.
func TestControllerNoItemStrandedInProducerQueue(t *testing.T) {
	const (
		items   = 10000
		workers = 4
	)
	cfg := testConfig()
	cfg.LocalCapacity = 64
	c := newController(t, cfg)

	var processed atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := c.NewLocalQueue()
			defer c.RemoveLocalQueue(local)
			for {
				_, err := c.Take(gctx, local, true)
				if errors.Is(err, pferrors.ErrClosed) || errors.Is(err, pferrors.ErrCanceled) {
					return nil
				}
				if err != nil {
					return err
				}
				processed.Add(1)
			}
		})
	}

	producer := c.NewLocalQueue()
	for i := 0; i < items; i++ {
		assert.NoError(t, c.Add(ctx, i, producer, false))
	}

	testutil.Eventually(t, func() bool { return processed.Load() == items }, 5*time.Second, time.Millisecond)
	c.RemoveLocalQueue(producer)
	c.Close()
	assert.NoError(t, g.Wait())
	assert.Equal(t, int64(items), processed.Load())
	assert.Equal(t, 0, c.Count())
}
