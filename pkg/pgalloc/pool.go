// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "sync"

// pool is one order's free-list: an unordered intrusive doubly-linked list
// of head descriptors, plus a count that must always equal the list
// length . The list is intrusive: next/prev live on the
// Descriptor itself rather than in a separate container/list node, so
// detach is O(1) with no extra allocation.
type pool struct {
	mu sync.Mutex
	head pageIndex
	count int
}

func newPool() *pool {
	return &pool{head: noPage}
}

// push links head d (already order-aligned, already marked StateFree by
// the caller) onto the front of the list. Caller holds p.mu.
func (p *pool) push(t *Table, d pageIndex) {
	desc := t.at(d)
	desc.next = p.head
	desc.prev = noPage
	if p.head != noPage {
		t.at(p.head).prev = d
	}
	p.head = d
	p.count++
}

// pop detaches and returns the head of the list, or noPage if empty.
// Caller holds p.mu.
func (p *pool) pop(t *Table) pageIndex {
	if p.head == noPage {
		return noPage
	}
	d := p.head
	desc := t.at(d)
	p.head = desc.next
	if p.head != noPage {
		t.at(p.head).prev = noPage
	}
	desc.next, desc.prev = noPage, noPage
	p.count--
	return d
}

// remove detaches an arbitrary head d from the list. Caller holds p.mu and
// guarantees d is currently linked into this pool.
func (p *pool) remove(t *Table, d pageIndex) {
	desc := t.at(d)
	if desc.prev != noPage {
		t.at(desc.prev).next = desc.next
	} else {
		p.head = desc.next
	}
	if desc.next != noPage {
		t.at(desc.next).prev = desc.prev
	}
	desc.next, desc.prev = noPage, noPage
	p.count--
}

// findBuddy scans the list for a head whose address is the buddy of phys at
// order k. Returns noPage if absent. Caller holds p.mu. This is a linear
// scan: pools are typically short (a handful of same-order free groups),
// so a faster index isn't worth the bookkeeping.
//
// Safety note on the MERGING state: a descriptor is only ever reachable
// here if it is currently linked into this pool's list, which this
// package only does once a head has been stamped StateFree (see
// Allocator.commitFree). A detach (pool.remove/pop) always happens before
// the state is changed away from StateFree, under the same pool lock this
// scan holds. So list membership under p.mu already implies "available",
// making the MERGING label a derived/observable state rather than the
// enforcement mechanism — findBuddy never needs to re-check state for
// correctness, only pool.findBuddy's caller checks state as a defensive
// invariant assertion.
func (p *pool) findBuddy(t *Table, buddyPhys PhysAddr) pageIndex {
	for d := p.head; d != noPage; d = t.at(d).next {
		if t.at(d).phys == buddyPhys {
			return d
		}
	}
	return noPage
}

// length returns the current list length by walking it; used only by
// invariant checks that list length equals the maintained count.
func (p *pool) length(t *Table) int {
	n := 0
	for d := p.head; d != noPage; d = t.at(d).next {
		n++
	}
	return n
}

// buddyAddr computes the buddy address law: the buddy of a head at phys
// with order k is phys XOR (PageSize << k).
func buddyAddr(phys PhysAddr, order int) PhysAddr {
	return phys ^ (PhysAddr(PageSize) << uint(order))
}

// alignedToOrder reports whether phys is the base of a 2^order-aligned
// block, relative to the table's managed base.
func alignedToOrder(base, phys PhysAddr, order int) bool {
	rel := phys - base
	mask := PhysAddr(PageSize)<<uint(order) - 1
	return rel&mask == 0
}
