/*
Package container stores pooled values and hands them out to concurrent
callers.

Two flavors share one contract:

  - Simple keeps available elements on a lock-free free list. Take and
    Release are O(1) and reuse is approximately LIFO.
  - Prioritized selects by a Comparer. Take returns the best available
    element, TakeWorst the worst one. Selection scans the storage without
    locking and claims a candidate with a CAS.

# Element lifecycle

An element starts Busy after Add, flips to Available on Release and back to
Busy on Take, until it is finally Removed. MarkDestroyed may be called at
any time from any goroutine; the element is removed the next time it passes
through Release, a take, or RescanContainer. OnRemoved runs exactly once
per element that ever entered the container.

# Waiting

A counting semaphore tracks available elements. TryTake follows the
wait-timeout convention of the library:

	el, ok, err := c.TryTake(ctx, 0)                // poll
	el, ok, err := c.TryTake(ctx, 50*time.Millisecond)
	el, err := c.Take(ctx)                          // block

A timeout is reported as ok == false with a nil error. Cancellation returns
an error matching errors.ErrCanceled and the context cause. A context that
is already done fails before the container is touched.

# Disposal

Close drains and removes every available element and wakes blocked takers
with errors.ErrClosed. Elements still busy are removed when released.

# Basic Usage

	c, err := container.NewPrioritized(container.Config[*Conn]{
		Name:      "replicas",
		Comparer:  container.ByKey(func(c *Conn) int { return -c.Latency() }),
		OnRemoved: func(c *Conn) { c.Close() },
	})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	for _, conn := range conns {
		c.Add(conn, true)
	}

	el, err := c.Take(ctx)
	if err != nil {
		return err
	}
	defer c.Release(el)
	use(el.Value())
*/
package container
