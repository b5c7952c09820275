// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

func errUnexpectedRefCount(n int64) error {
	return fmt.Errorf("pgalloc: unexpected ref count %d", n)
}

// TestConcurrentAllocFree stresses mixed-order alloc/free from many
// goroutines, grounded on fuse/test/node_parallel_lookup_test.go's use of
// errgroup.WithContext to fan out and join concurrent workers.
func TestConcurrentAllocFree(t *testing.T) {
	const base PhysAddr = 0x90000000
	a, _ := newTestAllocator(t, base, 8) // 256 pages

	g, ctx := errgroup.WithContext(context.Background())
	const workers = 16
	const itersPerWorker = 200

	for w := 0; w < workers; w++ {
		cpu := w
		g.Go(func() error {
			for i := 0; i < itersPerWorker; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				order := i % (SmallMax + 2)
				if order > MaxOrder {
					order = MaxOrder
				}
				p, ok := a.Alloc(cpu, order, 0)
				if !ok {
					continue
				}
				a.RefInc(p)
				if n := a.RefDec(cpu, p); n != 1 {
					return errUnexpectedRefCount(n)
				}
				if n := a.RefDec(cpu, p); n != 0 {
					return errUnexpectedRefCount(n)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent alloc/free: %v", err)
	}

	for k := 0; k <= MaxOrder; k++ {
		if err := a.checkPoolInvariant(k); err != nil {
			t.Errorf("pool %d invariant after stress: %v", k, err)
		}
	}
}
