// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

// PageAllocator is implemented by CPUAllocator. It matches the external
// page-allocator API literally (no explicit CPU argument), which *Allocator
// does not: a caller that does not care about per-CPU cache locality can
// use a CPUAllocator bound
// to a fixed CPU slot, e.g. for single-threaded callers like tmpfs running
// outside of a scheduled kernel thread context.
type PageAllocator interface {
	Alloc(order int, flags Flags) (PhysAddr, bool)
	Free(p PhysAddr, order int)
	RefInc(p PhysAddr) int64
	RefDec(p PhysAddr) int64
	Stat() Stats
}

// CPUAllocator binds an *Allocator to a fixed CPU slot, implementing
// PageAllocator.
type CPUAllocator struct {
	A *Allocator
	CPU int
}

func (c CPUAllocator) Alloc(order int, flags Flags) (PhysAddr, bool) {
	return c.A.Alloc(c.CPU, order, flags)
}

func (c CPUAllocator) Free(p PhysAddr, order int) {
	c.A.Free(c.CPU, p, order)
}

func (c CPUAllocator) RefInc(p PhysAddr) int64 {
	return c.A.RefInc(p)
}

func (c CPUAllocator) RefDec(p PhysAddr) int64 {
	return c.A.RefDec(c.CPU, p)
}

func (c CPUAllocator) Stat() Stats {
	return c.A.Stat()
}
