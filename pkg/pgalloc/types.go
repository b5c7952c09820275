// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

// PhysAddr is a physical address within the arena managed by this
// allocator. It is always frame-aligned when it names a page.
type PhysAddr uintptr

// PageType tags what a descriptor's payload means.
type PageType uint8

const (
	// TypeBuddy pages are owned by the buddy allocator: free, cached, or
	// live (allocated to a caller).
	TypeBuddy PageType = iota
	// TypeLocked pages are permanently reserved (kernel image, FDT
	// reservations, ramdisk) and never enter a pool or cache.
	TypeLocked
)

// BuddyState is the state of a TypeBuddy group, stamped on every
// descriptor of the group (see Allocator.setGroupMeta).
type BuddyState uint8

const (
	// StateFree means the head is linked into a buddy pool.
	StateFree BuddyState = iota
	// StateMerging is the transient state between a group's detachment
	// from its pool/cache and its re-insertion, either as a cache entry,
	// a freshly pushed pool head, or the lower half of a coalesced pair.
	StateMerging
	// StateCached means the head is linked into a per-CPU hot cache.
	StateCached
	// StateLive means the group is allocated to a caller (ref_count >= 1)
	// and not reachable from any pool or cache.
	StateLive
)

// Flags are caller-supplied allocation flags, carried on the head
// descriptor of a live group.
type Flags uint32

const (
	// FlagLocked marks pages that must never be freed by the normal
	// free() path (reserved at boot). Descriptors tagged TypeLocked
	// always carry this flag; it is not settable via Alloc.
	FlagLocked Flags = 1 << iota
)

// Default geometry. PageShift of 12 is a 4 KiB page, matching the typical
// RISC-V Sv39 base page size. MaxOrder of 10 caps a single group at 4 MiB.
// SmallMax bounds which orders get a per-CPU hot cache.
const (
	PageShift = 12
	PageSize = 1 << PageShift
	MaxOrder = 10
	SmallMax = 3
)

// noPage is the sentinel "no page" index, used for free-list links and for
// BuddyHead before a descriptor is assigned to a group.
const noPage pageIndex = -1
