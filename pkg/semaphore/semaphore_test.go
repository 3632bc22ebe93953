package semaphore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/poolflow/internal/testutil"
	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	"github.com/vnykmshr/poolflow/pkg/common/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		max     int
		wantErr bool
	}{
		{"empty unbounded", 0, 0, false},
		{"full bounded", 5, 5, false},
		{"partially filled", 2, 5, false},
		{"negative initial", -1, 0, true},
		{"initial above max", 6, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sem, err := New(tt.initial, tt.max)
			if tt.wantErr {
				testutil.AssertError(t, err)
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, sem.Count(), tt.initial)
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for negative initial count")
		}
	}()
	MustNew(-1, 0)
}

func TestTryAcquireRelease(t *testing.T) {
	sem := MustNew(2, 3)

	testutil.AssertEqual(t, sem.TryAcquire(), true)
	testutil.AssertEqual(t, sem.TryAcquire(), true)
	testutil.AssertEqual(t, sem.TryAcquire(), false)
	testutil.AssertEqual(t, sem.Count(), 0)

	testutil.AssertNoError(t, sem.Release(3))
	testutil.AssertEqual(t, sem.Count(), 3)

	err := sem.Release(1)
	testutil.AssertError(t, err)
	if !errors.Is(err, errors.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	testutil.AssertEqual(t, sem.Count(), 3)

	testutil.AssertNoError(t, sem.Release(0))
	testutil.AssertEqual(t, sem.Count(), 3)
}

func TestWaitWithContext(t *testing.T) {
	sem := MustNew(1, 0)
	ctx := context.Background()

	testutil.AssertNoError(t, sem.Wait(ctx))
	testutil.AssertEqual(t, sem.Count(), 0)

	canceledCtx, cancel := context.WithCancel(ctx)
	cancel()
	testutil.AssertEqual(t, sem.Wait(canceledCtx), context.Canceled)

	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancelTimeout()
	testutil.AssertEqual(t, sem.Wait(timeoutCtx), context.DeadlineExceeded)
	testutil.AssertEqual(t, sem.Waiting(), 0)
}

func TestWaitWithRelease(t *testing.T) {
	sem := MustNew(0, 0)

	done := make(chan error, 1)
	go func() {
		done <- sem.Wait(context.Background())
	}()

	testutil.AssertEventually(t, func() bool { return sem.Waiting() == 1 })
	testutil.AssertNoError(t, sem.Release(1))

	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, sem.Count(), 0)
	case <-time.After(time.Second):
		t.Fatal("waiting goroutine should have been woken up")
	}
}

func TestWaitersServedInOrder(t *testing.T) {
	sem := MustNew(0, 0)
	order := make(chan int, 3)

	for i := 0; i < 3; i++ {
		i := i
		go func() {
			if err := sem.Wait(context.Background()); err == nil {
				order <- i
			}
		}()
		testutil.AssertEventually(t, func() bool { return sem.Waiting() == i+1 })
	}

	for i := 0; i < 3; i++ {
		testutil.AssertNoError(t, sem.Release(1))
		testutil.AssertEqual(t, <-order, i)
	}
}

func TestWaitTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("poll on empty returns immediately", func(t *testing.T) {
		sem := MustNew(0, 0)
		testutil.Within(t, 10*time.Millisecond, func() {
			ok, err := sem.WaitTimeout(ctx, 0)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, ok, false)
		})
	})

	t.Run("bounded wait times out without error", func(t *testing.T) {
		sem := MustNew(0, 0)
		start := time.Now()
		ok, err := sem.WaitTimeout(ctx, 20*time.Millisecond)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, ok, false)
		if time.Since(start) < 15*time.Millisecond {
			t.Error("bounded wait returned too early")
		}
		testutil.AssertEqual(t, sem.Waiting(), 0)
	})

	t.Run("infinite wait succeeds on release", func(t *testing.T) {
		sem := MustNew(0, 0)
		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = sem.Release(1)
		}()
		ok, err := sem.WaitTimeout(ctx, pfctx.Infinite)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, ok, true)
	})

	t.Run("pre-canceled context consumes nothing", func(t *testing.T) {
		sem := MustNew(1, 0)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		ok, err := sem.WaitTimeout(canceled, 0)
		testutil.AssertEqual(t, ok, false)
		if !errors.IsCanceled(err) {
			t.Fatalf("expected cancel error, got %v", err)
		}
		testutil.AssertEqual(t, sem.Count(), 1)
	})

	t.Run("cancel mid-wait reports cancellation", func(t *testing.T) {
		sem := MustNew(0, 0)
		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		ok, err := sem.WaitTimeout(cctx, pfctx.Infinite)
		testutil.AssertEqual(t, ok, false)
		if !errors.Is(err, context.Canceled) || !errors.IsCanceled(err) {
			t.Fatalf("expected cancel error carrying context.Canceled, got %v", err)
		}
		testutil.AssertEqual(t, sem.Waiting(), 0)
	})
}

func TestCancelReleaseRaceDoesNotLeak(t *testing.T) {
	sem := MustNew(0, 0)
	const rounds = 200

	for i := 0; i < rounds; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		acquired := make(chan bool, 1)

		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired <- sem.Wait(ctx) == nil
		}()

		testutil.AssertEventually(t, func() bool { return sem.Waiting() == 1 })
		go cancel()
		testutil.AssertNoError(t, sem.Release(1))
		wg.Wait()

		// Either the waiter kept the permit or it was handed back.
		if <-acquired {
			testutil.AssertEqual(t, sem.Count(), 0)
		} else {
			testutil.AssertEqual(t, sem.Count(), 1)
			testutil.AssertEqual(t, sem.TryAcquire(), true)
		}
		cancel()
	}
}

func TestConcurrentAcquireRelease(t *testing.T) {
	const permits = 4
	sem := MustNew(permits, permits)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		active int
		peak   int
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := sem.Wait(context.Background()); err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				if err := sem.Release(1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if peak > permits {
		t.Errorf("peak concurrency %d exceeded %d permits", peak, permits)
	}
	testutil.AssertEqual(t, sem.Count(), permits)
}
