// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "sync/atomic"

// RefInc atomically increments the reference count of the live group
// headed at p and returns the new value. Increment has no precondition:
// it is always valid on a live page.
func (a *Allocator) RefInc(p PhysAddr) int64 {
	hd := a.headDescriptor(p)
	return atomic.AddInt64(&hd.refCount, 1)
}

// RefDec decrements the reference count of the live group headed at p. It
// first tries an unlocked compare-and-swap while the count is still above
// one; if the count is already 1, it falls back to the locked general
// case, which drives the count to 0 under the page lock and then frees the
// whole group at its own order. Returns the new count, or -1 if p does not name a live page.
func (a *Allocator) RefDec(cpu int, p PhysAddr) int64 {
	hd := a.headDescriptor(p)

	for {
		cur := atomic.LoadInt64(&hd.refCount)
		if cur < 2 {
			break
		}
		if atomic.CompareAndSwapInt64(&hd.refCount, cur, cur-1) {
			return cur - 1
		}
	}

	hd.mu.Lock()
	if hd.refCount <= 0 {
		hd.mu.Unlock()
		return -1
	}
	hd.refCount--
	newCount := hd.refCount
	hd.mu.Unlock()

	if newCount == 0 {
		a.Free(cpu, p, hd.order)
	}
	return newCount
}

func (a *Allocator) headDescriptor(p PhysAddr) *Descriptor {
	return a.table.at(a.table.index(p))
}
