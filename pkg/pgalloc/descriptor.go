// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "sync"

// pageIndex is an index into the descriptor table. It is the Go analogue of
// a frame number: (phys-managedBase)>>PageShift. Using an index rather than
// a pointer keeps the free-list links non-owning lookup keys, per the
// design note on descriptor<->head relationships: a tail descriptor's
// buddyHead is a lookup key into the table, never ownership.
type pageIndex int32

// Descriptor is the per-frame metadata entry. A descriptor exists for
// every frame in [managedStart, managedEnd). Tail descriptors of a group
// share buddyHead and order with the head but are never themselves linked
// into a pool or cache.
type Descriptor struct {
	phys PhysAddr
	flags Flags
	// refCount is manipulated both under mu (locked variants) and via
	// atomic ops (unlocked ref_inc/ref_dec fast path); see refcount.go.
	refCount int64

	// mu is the page spinlock. It nests inside any
	// pool spinlock that covers this descriptor's order.
	mu sync.Mutex

	typ PageType
	order int
	state BuddyState

	// buddyHead is self (this descriptor's own index) when this
	// descriptor is itself a head; it is a lookup key only.
	buddyHead pageIndex

	// next/prev are free-list links, valid only while state == StateFree
	// and this descriptor is a head linked into a pool.
	next, prev pageIndex
}

// Table is the dense array of descriptors for every managed frame, plus the
// arithmetic that maps a physical address to its index.
type Table struct {
	base PhysAddr // managed_start; kernel_base folds into this arithmetic
	descs []Descriptor
}

// NewTable allocates a descriptor for every frame in [base, base+n*PageSize).
func NewTable(base PhysAddr, n int) *Table {
	t := &Table{base: base, descs: make([]Descriptor, n)}
	for i := range t.descs {
		d := &t.descs[i]
		d.phys = base + PhysAddr(i)*PageSize
		d.typ = TypeLocked
		d.buddyHead = noPage
		d.next, d.prev = noPage, noPage
	}
	return t
}

// Len returns the number of managed frames.
func (t *Table) Len() int { return len(t.descs) }

// index converts a physical address to a frame index: pure arithmetic,
// with no page tables or TLB involved.
func (t *Table) index(p PhysAddr) pageIndex {
	return pageIndex((p - t.base) >> PageShift)
}

// phys converts a frame index back to a physical address.
func (t *Table) phys(i pageIndex) PhysAddr {
	return t.base + PhysAddr(i)*PageSize
}

func (t *Table) at(i pageIndex) *Descriptor {
	return &t.descs[i]
}

// Contains reports whether p names a frame inside this table's managed
// region.
func (t *Table) Contains(p PhysAddr) bool {
	if p < t.base {
		return false
	}
	i := t.index(p)
	return int(i) < len(t.descs)
}

// lockRange reserves frames in [start, start+n) as TypeLocked: never enter a
// pool or cache. Used for the kernel image, FDT-reserved regions, and the
// ramdisk.
func (t *Table) lockRange(start pageIndex, n int) {
	for i := 0; i < n; i++ {
		idx := start + pageIndex(i)
		if int(idx) < 0 || int(idx) >= len(t.descs) {
			continue
		}
		d := t.at(idx)
		d.typ = TypeLocked
		d.flags |= FlagLocked
	}
}
