// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import "sync"

// NOFILE is the per-table descriptor cap.
const NOFILE = 1024

// FDTable maps small integer descriptors to open Files. Free slots form a
// singly linked list threaded through a parallel `next` array — the Go
// rendering of "the free list is embedded in the slot array itself": slot
// values at or below NOFILE are free-list links, values above it would be
// file pointers in a C fdtable, and in this Go version that distinction is
// exactly the nil-vs-non-nil check on slots[i]. alloc_fd is an O(1) pop off
// the head; dealloc_fd reinserts in ascending order so the lowest-numbered
// free descriptor is always handed out next.
type FDTable struct {
	mu sync.Mutex
	slots []*File
	next []int
	freeHead int
}

const listEnd = -1

// NewFDTable returns an empty table.
func NewFDTable() *FDTable {
	return &FDTable{freeHead: listEnd}
}

// AllocFD installs f at the lowest free descriptor and returns it. Returns
// ETooMany once the table has grown to NOFILE entries with none free.
func (t *FDTable) AllocFD(f *File) (int, Errno) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.freeHead == listEnd {
		if len(t.slots) >= NOFILE {
			return -1, ETooMany
		}
		t.slots = append(t.slots, nil)
		t.next = append(t.next, listEnd)
		t.freeHead = len(t.slots) - 1
	}

	fd := t.freeHead
	t.freeHead = t.next[fd]
	t.slots[fd] = f
	return fd, OK
}

// DeallocFD removes fd, closes its File, and returns it to the free list in
// its correctly sorted ascending position.
func (t *FDTable) DeallocFD(fd int) Errno {
	t.mu.Lock()
	f, errno := t.removeLocked(fd)
	t.mu.Unlock()
	if errno != OK {
		return errno
	}
	f.Close()
	return OK
}

func (t *FDTable) removeLocked(fd int) (*File, Errno) {
	if fd < 0 || fd >= len(t.slots) || t.slots[fd] == nil {
		return nil, EInval
	}
	f := t.slots[fd]
	t.slots[fd] = nil

	if t.freeHead == listEnd || fd < t.freeHead {
		t.next[fd] = t.freeHead
		t.freeHead = fd
		return f, OK
	}
	prev := t.freeHead
	for t.next[prev] != listEnd && t.next[prev] < fd {
		prev = t.next[prev]
	}
	t.next[fd] = t.next[prev]
	t.next[prev] = fd
	return f, OK
}

// Get returns the File at fd without altering the table.
func (t *FDTable) Get(fd int) (*File, Errno) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fd < 0 || fd >= len(t.slots) || t.slots[fd] == nil {
		return nil, EInval
	}
	return t.slots[fd], OK
}

// Clone duplicates every open descriptor into a fresh table with its own
// copy of the free list; each open slot gets its own File from File.Clone,
// which takes a new reference on the underlying inode.
func (t *FDTable) Clone() *FDTable {
	t.mu.Lock()
	defer t.mu.Unlock()

	dup := &FDTable{
		slots: make([]*File, len(t.slots)),
		next: make([]int, len(t.next)),
	}
	copy(dup.next, t.next)
	dup.freeHead = t.freeHead
	for i, f := range t.slots {
		if f != nil {
			dup.slots[i] = f.Clone()
		}
	}
	return dup
}

// Close closes every open descriptor in the table.
func (t *FDTable) Close() {
	t.mu.Lock()
	slots := t.slots
	t.slots = nil
	t.mu.Unlock()
	for _, f := range slots {
		if f != nil {
			f.Close()
		}
	}
}
