package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

type item struct {
	id      int
	quality int
	inUse   atomic.Int32
}

func (it *item) String() string { return fmt.Sprintf("item(%d,q=%d)", it.id, it.quality) }

func byQuality() Comparer[*item] {
	return ByKey(func(it *item) int { return it.quality })
}

// removals counts OnRemoved calls per item.
type removals struct {
	mu     sync.Mutex
	counts map[*item]int
}

func newRemovals() *removals { return &removals{counts: make(map[*item]int)} }

func (r *removals) hook(it *item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[it]++
}

func (r *removals) count(it *item) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[it]
}

func (r *removals) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

func seed(c Container[*item], n int) []*item {
	items := make([]*item, n)
	for i := range items {
		items[i] = &item{id: i, quality: i}
		if _, err := c.Add(items[i], true); err != nil {
			panic(err)
		}
	}
	return items
}

// churn takes and releases elements, failing if one is ever handed out twice.
func churn(ctx context.Context, take func() (*Element[*item], error), release func(*Element[*item]) error, rounds int) error {
	for r := 0; r < rounds; r++ {
		el, err := take()
		if err != nil {
			return err
		}
		if n := el.Value().inUse.Add(1); n != 1 {
			return fmt.Errorf("%v handed out %d times", el.Value(), n)
		}
		el.Value().inUse.Add(-1)
		if err := release(el); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
