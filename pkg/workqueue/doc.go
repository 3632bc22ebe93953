/*
Package workqueue hands work items between goroutines with work stealing.

Each worker registers a LocalQueue with the Controller. The worker adds to
and takes from the tail of its own queue without contention, while idle
workers steal from the head. A GlobalQueue absorbs items added by
goroutines without a local queue and overflow from full local queues.

The global queue may be bounded. Its bound is elastic: a worker that is
both producer and consumer can extend the capacity instead of blocking on
itself, and the extension is paid back as items are taken.

# Basic Usage

	c, err := workqueue.NewWithConfig[Job](workqueue.Config{
		GlobalCapacity:   1024,
		LocalCapacity:    256,
		SegmentSize:      64,
		StealAwakePeriod: 10 * time.Millisecond,
	})
	if err != nil {
		log.Fatal(err)
	}

	// In each worker goroutine:
	local := c.NewLocalQueue()
	defer c.RemoveLocalQueue(local)
	for {
		job, err := c.Take(ctx, local, true)
		if err != nil {
			return
		}
		job.Run()
	}

	// Anywhere:
	c.Add(ctx, job, nil, false)

# Timeouts

TryAdd and TryTake take a timeout: 0 polls, context.Infinite from
pkg/common/context blocks, a positive value bounds the wait. A timeout
returns false with a nil error; cancellation returns an error matching
errors.ErrCanceled.
*/
package workqueue
