// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import (
	"log"
)

// Allocator is the split/merge engine atop the descriptor table, buddy
// pools, and per-CPU caches . It never blocks: Alloc either
// returns a group or reports failure immediately.
type Allocator struct {
	table *Table
	arena *Arena

	pools [MaxOrder + 1]*pool
	cpus []*PerCPU

	// Debug is a caller-settable flag, mirroring Options.Debug in the
	// teacher's fs.Options / fuse.MountOptions. The allocator does not
	// read it and emits no tracing.
	Debug bool
}

// New builds an Allocator over table, with ncpu per-CPU hot caches. arena
// may be nil for tests that only exercise descriptor bookkeeping without
// needing real backing bytes; Bytes will panic if called on a nil arena.
func New(table *Table, arena *Arena, ncpu int) *Allocator {
	if ncpu < 1 {
		ncpu = 1
	}
	a := &Allocator{table: table, arena: arena}
	for i := range a.pools {
		a.pools[i] = newPool()
	}
	a.cpus = make([]*PerCPU, ncpu)
	for i := range a.cpus {
		a.cpus[i] = newPerCPU()
	}
	return a
}

// Init populates the buddy pools from every non-locked frame in the table.
// It frees each page individually at order 0 and lets the normal Free
// coalescing logic combine adjacent pages into larger groups, the same
// bootstrap strategy real buddy allocators use (free every page once,
// in address order, so merges cascade up to the largest aligned block).
func (a *Allocator) Init(plat *Platform) {
	if plat != nil {
		plat.applyLocked(a.table)
	}
	for i := range a.table.descs {
		d := &a.table.descs[i]
		if d.typ == TypeLocked {
			continue
		}
		d.typ = TypeBuddy
		d.order = 0
		d.buddyHead = pageIndex(i)
		d.state = StateMerging
		a.commitFree(pageIndex(i), 0)
	}
}

// Table exposes the descriptor table for invariant checks and tests.
func (a *Allocator) Table() *Table { return a.table }

// Arena exposes the backing arena.
func (a *Allocator) Arena() *Arena { return a.arena }

// Alloc implements the buddy allocation algorithm. cpu selects which
// per-CPU hot cache to consult/populate; it is the Go stand-in for
// "current CPU" since this is a user-space simulation with no real
// per-CPU pinning.
func (a *Allocator) Alloc(cpu, order int, flags Flags) (PhysAddr, bool) {
	if order < 0 || order > MaxOrder {
		return 0, false
	}

	if order <= SmallMax {
		if d, ok := a.cpus[cpu%len(a.cpus)].lines[order].tryGet(); ok {
			a.initGroup(d, order, flags)
			return a.table.phys(d), true
		}
	}

	head, gotOrder, ok := a.popAny(order)
	if !ok {
		return 0, false
	}

	for gotOrder > order {
		gotOrder--
		upper := head + pageIndex(1<<uint(gotOrder))
		a.setGroupMeta(upper, gotOrder, StateFree)
		a.setGroupMeta(head, gotOrder, StateMerging)
		p := a.pools[gotOrder]
		p.mu.Lock()
		p.push(a.table, upper)
		p.mu.Unlock()
	}

	a.initGroup(head, order, flags)
	return a.table.phys(head), true
}

// popAny pops a head from pool[order], or failing that scans order+1..MaxOrder
// for the first non-empty pool. Each pool lock is held only long enough to
// pop one head.
func (a *Allocator) popAny(order int) (pageIndex, int, bool) {
	p := a.pools[order]
	p.mu.Lock()
	if d := p.pop(a.table); d != noPage {
		p.mu.Unlock()
		return d, order, true
	}
	p.mu.Unlock()

	for k := order + 1; k <= MaxOrder; k++ {
		p := a.pools[k]
		p.mu.Lock()
		d := p.pop(a.table)
		p.mu.Unlock()
		if d != noPage {
			return d, k, true
		}
	}
	return noPage, 0, false
}

// setGroupMeta stamps order/buddyHead/state across all 2^order descriptors
// of the group headed at head, maintaining the invariant that every
// descriptor in a BUDDY group of order k shares buddy_head and order.
func (a *Allocator) setGroupMeta(head pageIndex, order int, state BuddyState) {
	n := pageIndex(1 << uint(order))
	for i := pageIndex(0); i < n; i++ {
		d := a.table.at(head + i)
		d.order = order
		d.buddyHead = head
		d.state = state
	}
}

// initGroup finalizes a freshly (split-)allocated group: ref_count=1 on
// the head, caller flags applied, state StateLive.
func (a *Allocator) initGroup(head pageIndex, order int, flags Flags) {
	a.setGroupMeta(head, order, StateLive)
	hd := a.table.at(head)
	hd.refCount = 1
	hd.flags = flags &^ FlagLocked
}

// Free implements the buddy free algorithm. p must be the physical
// address of a group head that was previously returned by Alloc, at the
// same order.
func (a *Allocator) Free(cpu int, p PhysAddr, order int) {
	head := a.table.index(p)
	hd := a.table.at(head)

	if hd.typ == TypeLocked || hd.flags&FlagLocked != 0 {
		log.Panicf("pgalloc: Free called on LOCKED page %#x", p)
	}
	if hd.refCount > 1 {
		log.Panicf("pgalloc: Free called on page %#x with ref_count=%d (caller bug)", p, hd.refCount)
	}
	if !alignedToOrder(a.table.base, p, order) {
		log.Panicf("pgalloc: Free called with unaligned address %#x at order %d", p, order)
	}

	hd.refCount = 0
	a.setGroupMeta(head, order, StateMerging)

	if order <= SmallMax {
		if a.cpus[cpu%len(a.cpus)].lines[order].tryPut(head) {
			a.setGroupMeta(head, order, StateCached)
			return
		}
	}

	a.commitFree(head, order)
}

// commitFree runs the buddy merge loop: detach a matching
// buddy if one is FREE, merge, and repeat; otherwise push the head onto its
// pool. head must already be marked StateMerging by the caller.
func (a *Allocator) commitFree(head pageIndex, order int) {
	for k := order; k < MaxOrder; k++ {
		phys := a.table.phys(head)
		buddyPhys := buddyAddr(phys, k)
		if !a.table.Contains(buddyPhys) {
			break
		}

		p := a.pools[k]
		p.mu.Lock()
		buddy := p.findBuddy(a.table, buddyPhys)
		if buddy == noPage || a.table.at(buddy).state != StateFree {
			p.mu.Unlock()
			break
		}
		p.remove(a.table, buddy)
		p.mu.Unlock()

		a.setGroupMeta(buddy, k, StateMerging)

		newHead := head
		if buddy < head {
			newHead = buddy
		}
		a.setGroupMeta(newHead, k+1, StateMerging)
		head = newHead
	}

	final := a.table.at(head).order
	a.setGroupMeta(head, final, StateFree)
	p := a.pools[final]
	p.mu.Lock()
	p.push(a.table, head)
	p.mu.Unlock()
}
