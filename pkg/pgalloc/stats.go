// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "fmt"

func errCountMismatch(order, listLen, count int) error {
	return fmt.Errorf("pgalloc: pool order %d: list length %d != count %d", order, listLen, count)
}

func errBadHead(order int, d pageIndex, field string) error {
	return fmt.Errorf("pgalloc: pool order %d: head %d has bad %s", order, d, field)
}

// Stats is a snapshot of free-group counts per order.
type Stats struct {
	Counts [MaxOrder + 1]int
}

// Stat takes every pool lock in ascending order and snapshots their
// counts.
func (a *Allocator) Stat() Stats {
	var s Stats
	for k := 0; k <= MaxOrder; k++ {
		a.pools[k].mu.Lock()
	}
	for k := 0; k <= MaxOrder; k++ {
		s.Counts[k] = a.pools[k].count
	}
	for k := MaxOrder; k >= 0; k-- {
		a.pools[k].mu.Unlock()
	}
	return s
}

// checkPoolInvariant is a test/debug helper validating the quantified
// invariant that for every pool k, list length equals count, and
// every head has order=k, state=FREE, buddy_head=self, and an address
// aligned to 2^k pages.
func (a *Allocator) checkPoolInvariant(k int) error {
	p := a.pools[k]
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.length(a.table)
	if n != p.count {
		return errCountMismatch(k, n, p.count)
	}
	for d := p.head; d != noPage; d = a.table.at(d).next {
		desc := a.table.at(d)
		if desc.order != k {
			return errBadHead(k, d, "order")
		}
		if desc.state != StateFree {
			return errBadHead(k, d, "state")
		}
		if desc.buddyHead != d {
			return errBadHead(k, d, "buddyHead")
		}
		if !alignedToOrder(a.table.base, desc.phys, k) {
			return errBadHead(k, d, "alignment")
		}
	}
	return nil
}
