// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

// AddrRange is a half-open physical address range, e.g. one FDT "reserved"
// entry or the ramdisk extent.
type AddrRange struct {
	Start, End PhysAddr
}

// Platform is the flattened-device-tree contract this allocator consumes
// without parsing the FDT itself. The caller is responsible for
// populating it from whatever FDT parser it uses; this package only reads
// Managed{Start,End}, Reserved and Ramdisk{Start,End} to mark frames
// LOCKED.
//
// A caller whose FDT parser substitutes a hash of the unit address string
// for nodes not keyed by a plain numeric address should be aware that
// such a hash collapses distinct strings with the same hash into the same
// lookup bucket; this package does not attempt to resolve such
// collisions, so exact-match lookup of a Reserved entry by numeric
// address is unreliable for such nodes — callers needing an authoritative
// match must compare the full range, not just a derived key.
type Platform struct {
	Reserved []AddrRange
	RamdiskStart PhysAddr
	RamdiskEnd PhysAddr
	KernelBase PhysAddr
	ManagedStart PhysAddr
	ManagedEnd PhysAddr
}

// applyLocked marks every frame intersecting a reserved or ramdisk
// region, or lying outside [ManagedStart, ManagedEnd), as TypeLocked.
// KernelBase is not consulted.
func (p *Platform) applyLocked(t *Table) {
	for i := range t.descs {
		d := &t.descs[i]
		if d.phys < p.ManagedStart || d.phys >= p.ManagedEnd {
			d.typ = TypeLocked
			d.flags |= FlagLocked
			continue
		}
	}
	for _, r := range p.Reserved {
		lockPhysRange(t, r.Start, r.End)
	}
	if p.RamdiskEnd > p.RamdiskStart {
		lockPhysRange(t, p.RamdiskStart, p.RamdiskEnd)
	}
}

func lockPhysRange(t *Table, start, end PhysAddr) {
	for phys := alignDown(start); phys < end; phys += PageSize {
		if !t.Contains(phys) {
			continue
		}
		d := t.at(t.index(phys))
		d.typ = TypeLocked
		d.flags |= FlagLocked
	}
}

func alignDown(p PhysAddr) PhysAddr {
	return p &^ (PageSize - 1)
}
