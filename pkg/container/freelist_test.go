package container

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/zeebo/assert"
	"golang.org/x/sync/errgroup"
)

func TestFreeListLIFO(t *testing.T) {
	s := newTestStorage(4)
	els := addValues(s, 10, 20, 30)

	var f freeList[int]
	assert.That(t, f.pop(s) == nil)

	for _, el := range els {
		f.push(el)
	}
	assert.Equal(t, f.len(), 3)

	assert.Equal(t, f.pop(s), els[2])
	assert.Equal(t, f.pop(s), els[1])
	assert.Equal(t, f.pop(s), els[0])
	assert.That(t, f.pop(s) == nil)
	assert.Equal(t, f.len(), 0)
}

func TestFreeListHeadPacking(t *testing.T) {
	for _, idx := range []int32{-1, 0, 1, 1 << 20} {
		for _, tag := range []uint32{0, 1, 1<<32 - 1} {
			gotIdx, gotTag := unpackHead(packHead(idx, tag))
			assert.Equal(t, gotIdx, idx)
			assert.Equal(t, gotTag, tag)
		}
	}
}

func TestFreeListConcurrentPopPush(t *testing.T) {
	const (
		elements   = 16
		goroutines = 8
		rounds     = 2000
	)

	s := newTestStorage(elements)
	values := make([]int, elements)
	els := addValues(s, values...)

	var f freeList[int]
	held := make([]atomic.Bool, elements)
	for _, el := range els {
		f.push(el)
	}

	var g errgroup.Group
	for w := 0; w < goroutines; w++ {
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				el := f.pop(s)
				if el == nil {
					continue
				}
				if !held[el.Index()].CompareAndSwap(false, true) {
					return fmt.Errorf("slot %d popped twice", el.Index())
				}
				held[el.Index()].Store(false)
				f.push(el)
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())
	assert.Equal(t, f.len(), elements)

	seen := make(map[int]bool)
	for el := f.pop(s); el != nil; el = f.pop(s) {
		assert.That(t, !seen[el.Index()])
		seen[el.Index()] = true
	}
	assert.Equal(t, len(seen), elements)
}
