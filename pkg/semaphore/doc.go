/*
Package semaphore provides a counting semaphore with context-aware waits.

It gates the element containers (one permit per available element) and the
bounded global work queue (free and occupied node counts).

Basic usage:

	sem, err := semaphore.New(0, 0) // no permits, no ceiling
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		publish(item)
		sem.Release(1)
	}()

	ok, err := sem.WaitTimeout(ctx, time.Second)
	switch {
	case err != nil:
		// ctx was canceled; err matches errors.ErrCanceled
	case !ok:
		// timed out
	}

Timeouts:

A zero timeout polls, context.Infinite (-1) waits until the context is done
and a positive timeout bounds the wait. Timing out is not an error.

Cancellation:

If the context is already done, WaitTimeout fails without consuming a permit.
If it is canceled while waiting, the waiter leaves the queue; should a
permit have been handed to it concurrently, the permit is passed on to the
next waiter so nothing leaks.
*/
package semaphore
