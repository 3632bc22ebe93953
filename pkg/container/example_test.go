package container_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/poolflow/pkg/container"
)

type replica struct {
	addr    string
	latency int
}

func ExampleNewSimple() {
	c, err := container.NewSimple(container.Config[string]{Name: "buffers"})
	if err != nil {
		panic(err)
	}
	defer c.Close()

	c.Add("buf-1", true)
	c.Add("buf-2", true)

	el, err := c.Take(context.Background())
	if err != nil {
		panic(err)
	}
	fmt.Println(c.AvailableCount(), c.BusyCount())
	c.Release(el)
	fmt.Println(c.AvailableCount(), c.BusyCount())
	// Output:
	// 1 1
	// 2 0
}

func ExampleNewPrioritized() {
	c, err := container.NewPrioritized(container.Config[*replica]{
		Name:     "replicas",
		Comparer: container.ByKey(func(r *replica) int { return -r.latency }),
		OnRemoved: func(r *replica) {
			fmt.Println("closed", r.addr)
		},
	})
	if err != nil {
		panic(err)
	}

	c.Add(&replica{addr: "10.0.0.1", latency: 40}, true)
	c.Add(&replica{addr: "10.0.0.2", latency: 5}, true)
	c.Add(&replica{addr: "10.0.0.3", latency: 90}, true)

	best, _ := c.Take(context.Background())
	fmt.Println("best", best.Value().addr)
	c.Release(best)

	worst, _ := c.TakeWorst(context.Background())
	fmt.Println("worst", worst.Value().addr)
	worst.MarkDestroyed()
	c.Release(worst)

	fmt.Println("count", c.Count())
	// Output:
	// best 10.0.0.2
	// worst 10.0.0.3
	// closed 10.0.0.3
	// count 2
}
