// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "fmt"

// Arena is the contiguous physical region the early allocator hands to the
// page allocator . It is backed by a real memory mapping
// so that PhysAddr values name real bytes, the same way deviceRegion in
// vhostuser/deviceregion.go wraps a mmap'd guest-memory region with
// GuestPhysAddr-relative arithmetic and a containsGuestAddr bounds check.
type Arena struct {
	base PhysAddr
	data []byte
	close func() error
}

// NewArena maps nframes*PageSize bytes and returns an Arena whose base
// physical address is an arbitrary but stable value (base), the analogue of
// GuestPhysAddr. Close releases the mapping.
func NewArena(base PhysAddr, nframes int) (*Arena, error) {
	if nframes <= 0 {
		return nil, fmt.Errorf("pgalloc: nframes must be positive, got %d", nframes)
	}
	data, closeFn, err := mmapArena(nframes * PageSize)
	if err != nil {
		return nil, fmt.Errorf("pgalloc: mapping arena: %w", err)
	}
	return &Arena{base: base, data: data, close: closeFn}, nil
}

// Base returns the arena's physical base address.
func (a *Arena) Base() PhysAddr { return a.base }

// Len returns the arena size in bytes.
func (a *Arena) Len() int { return len(a.data) }

// contains reports whether p falls within the arena.
func (a *Arena) contains(p PhysAddr) bool {
	return p >= a.base && p < a.base+PhysAddr(len(a.data))
}

// Bytes returns a slice view of n bytes at physical address p, the
// analogue of deviceRegion.FromDriverAddr. It panics if the range falls
// outside the arena: callers are expected to have validated p via the
// descriptor table before dereferencing it.
func (a *Arena) Bytes(p PhysAddr, n int) []byte {
	if !a.contains(p) || !a.contains(p+PhysAddr(n)-1) && n > 0 {
		panic(fmt.Sprintf("pgalloc: address range [%#x,%#x) outside arena [%#x,%#x)", p, p+PhysAddr(n), a.base, a.base+PhysAddr(len(a.data))))
	}
	off := int(p - a.base)
	return a.data[off : off+n]
}

// Close releases the backing mapping.
func (a *Arena) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
