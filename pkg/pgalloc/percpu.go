// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "sync"

// order0CacheCap and smallCacheCap bound the per-CPU hot caches.
const (
	order0CacheCap = 64
	smallCacheCap = 8
)

// cacheLine is one (cpu, order) bounded cache. Real kernels protect the
// order-0 line by disabling preemption/local interrupts instead of taking a
// lock; push_off/pop_off themselves are out of scope here, so this core
// uses the same sync.Mutex for every order and documents order 0 as the
// conceptual non-blocking/IRQs-off critical section: its hold time is a
// handful of slice operations, never a blocking call.
type cacheLine struct {
	mu sync.Mutex
	items []pageIndex
	cap int
}

func newCacheLine(cap int) *cacheLine {
	return &cacheLine{items: make([]pageIndex, 0, cap), cap: cap}
}

func (c *cacheLine) tryPut(d pageIndex) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) >= c.cap {
		return false
	}
	c.items = append(c.items, d)
	return true
}

func (c *cacheLine) tryGet() (pageIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	if n == 0 {
		return noPage, false
	}
	d := c.items[n-1]
	c.items = c.items[:n-1]
	return d, true
}

func (c *cacheLine) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// PerCPU holds one cacheLine per order in [0, SmallMax] for a single CPU.
// A PerCPU's caches are visible only to the owning CPU; there is no
// cross-CPU stealing beyond what a shared lock would allow (the mutex
// inside cacheLine makes that theoretically possible without changing the
// data layout, enabling future cross-CPU stealing without a rewrite).
type PerCPU struct {
	lines [SmallMax + 1]*cacheLine
}

func newPerCPU() *PerCPU {
	p := &PerCPU{}
	for order := range p.lines {
		cap := smallCacheCap
		if order == 0 {
			cap = order0CacheCap
		}
		p.lines[order] = newCacheLine(cap)
	}
	return p
}
