/*
Package pool provides object pools built on the element containers of package
container.

A pool rents values out and takes them back. Callers receive a *Rented handle
and must call Release on it exactly once; Release is idempotent so a deferred
call next to an explicit one is harmless.

# Static pools

A StaticPool holds values the caller adds and removes explicitly:

	p, _ := pool.NewStatic(pool.StaticConfig[*Conn]{Name: "replicas"})
	el, _ := p.AddElement(conn)
	r, _ := p.Rent(ctx)
	defer r.Release()
	...
	p.RemoveElement(el) // removed now if idle, on release if rented

# Dynamic pools

A DynamicPool creates values through ElementOperations when no idle value is
available and the pool holds fewer than MaxElements. Values that stop being
valid are destroyed on release, when a rent meets them and on RescanContainer.
TrimIdle shrinks the pool towards MinElements and EnsureMinimum grows it.

	p, err := pool.NewDynamic(pool.DynamicConfig[*Conn]{
		Name:        "db",
		Operations:  connOps,
		MinElements: 2,
		MaxElements: 16,
	})
	r, ok, err := p.TryRent(ctx, 100*time.Millisecond)

Destroy runs exactly once for every value Create returned, including values
that were rented when Close was called: those are destroyed when released.

# Selection

Setting Comparer in either config backs the pool with a prioritized container,
so a rent gets the best idle value instead of the most recently released one.

# Metrics

NewWithMetrics decorates any Pool with Prometheus gauges, counters and a rent
wait histogram from package metrics.
*/
package pool
