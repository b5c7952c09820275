// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import "sync"

// SuperOps is the driver-supplied callback table a Superblock carries.
// An early VFS variant had an incomplete `if (sb->ops)` check with no
// body; this implementation resolves that as: AllocInode and Destroy
// must both be non-nil, checked at mount time (see Mount in mount.go),
// and treated as a bug (EInval) otherwise rather than silently skipped.
type SuperOps struct {
	// AllocInode asks the driver for a freshly allocated inode of the
	// given mode. The VFS inserts the result into the superblock's cache;
	// on an ino collision (should not happen for a fresh allocation) the
	// new inode is discarded and the existing cache entry returned,
	// matching the alloc_inode contract.
	AllocInode func(sb *Superblock, mode uint32) (*Inode, Errno)

	// Destroy releases all filesystem-private state associated with sb.
	// Called during Unmount/UnmountLazy's final teardown, or by Mount when
	// it rejects the superblock the driver returned.
	Destroy func(sb *Superblock)
}

func (o *SuperOps) complete() bool {
	return o != nil && o.AllocInode != nil && o.Destroy != nil
}

// Superblock owns an inode cache, root inode, mountpoint backlink,
// per-filesystem private data, and a reader/writer lock.
type Superblock struct {
	mu sync.RWMutex

	FSType FSType
	Ops *SuperOps
	Priv interface{}

	RootInode *Inode
	Mountpoint *Inode // inode on the parent fs; nil iff this is the process root sb
	ParentSB *Superblock
	Device *Inode // nil for a backendless filesystem

	Backendless bool

	inodes map[uint64]*Inode
	mountCount int
	valid bool
	dirty bool
	initialized bool

	// openRefs counts outstanding references that matter for lazy
	// unmount (open Files, via OpenFile and File.Close). UnmountLazy detaches the sb
	// from the namespace immediately but defers Destroy until this drains
	// to zero.
	openRefs int64
	detached bool
}

// NewSuperblock constructs an unmounted, invalid superblock; the caller
// (normally a FSType.Mount implementation) must set RootInode before
// returning it to Mount, which performs the remaining validation and
// marks it valid.
func NewSuperblock(fsType FSType, ops *SuperOps, backendless bool) *Superblock {
	return &Superblock{
		FSType: fsType,
		Ops: ops,
		Backendless: backendless,
		inodes: make(map[uint64]*Inode),
	}
}

func (sb *Superblock) Valid() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.valid
}

func (sb *Superblock) Dirty() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.dirty
}

func (sb *Superblock) SetDirty(d bool) {
	sb.mu.Lock()
	sb.dirty = d
	sb.mu.Unlock()
}

func (sb *Superblock) MountCount() int {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.mountCount
}

func (sb *Superblock) InodeCacheSize() int {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return len(sb.inodes)
}

// GetInodeCached returns a referenced, cached inode for ino, or ENoEnt if
// absent or invalidated.
func (sb *Superblock) GetInodeCached(ino uint64) (*Inode, Errno) {
	sb.mu.RLock()
	n, ok := sb.inodes[ino]
	sb.mu.RUnlock()
	if !ok || !n.Valid() {
		return nil, ENoEnt
	}
	n.Get()
	return n, OK
}

// insertOrExisting inserts n under sb's write lock unless ino is already
// present, in which case the existing entry is returned and the caller
// should discard n.
func (sb *Superblock) insertOrExisting(n *Inode) *Inode {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if existing, ok := sb.inodes[n.Ino]; ok {
		return existing
	}
	n.setValid(true)
	sb.inodes[n.Ino] = n
	return n
}

// AllocInode asks the driver to allocate a fresh inode of the given mode
// and inserts it into the cache.
func (sb *Superblock) AllocInode(mode uint32) (*Inode, Errno) {
	n, errno := sb.Ops.AllocInode(sb, mode)
	if errno != OK {
		return nil, errno
	}
	return sb.insertOrExisting(n), OK
}

// RemoveInode removes n from the cache and marks it invalid. Requires the
// sb write lock and the inode's mutex; this helper takes both in the
// documented order (sb before inode).
func (sb *Superblock) RemoveInode(n *Inode) {
	sb.mu.Lock()
	delete(sb.inodes, n.Ino)
	sb.mu.Unlock()
	n.setValid(false)
	if r, ok := n.Impl.(Releaser); ok {
		r.Release()
	}
}

// EvictUnreferenced removes every cached inode with a zero reference
// count except the root, regardless of n_links . Unmount calls this before requiring the cache to be
// empty.
func (sb *Superblock) EvictUnreferenced() {
	sb.mu.RLock()
	victims := make([]*Inode, 0, len(sb.inodes))
	for _, n := range sb.inodes {
		if n != sb.RootInode && n.RefCount() == 0 {
			victims = append(victims, n)
		}
	}
	sb.mu.RUnlock()
	for _, n := range victims {
		sb.RemoveInode(n)
	}
}

// maybeEvict is called from Inode.Put when a reference count reaches
// zero. Backendless filesystems keep inodes alive while n_links > 0
// ; others evict unconditionally at ref_count == 0.
func (sb *Superblock) maybeEvict(n *Inode) {
	if n.RefCount() != 0 {
		return
	}
	if n == sb.RootInode {
		return
	}
	if sb.Backendless && n.NLinks() > 0 {
		return
	}
	sb.RemoveInode(n)
}

func (sb *Superblock) incOpenRef() {
	sb.mu.Lock()
	sb.openRefs++
	sb.mu.Unlock()
}

func (sb *Superblock) decOpenRef() {
	sb.mu.Lock()
	sb.openRefs--
	drained := sb.openRefs <= 0 && sb.detached
	sb.mu.Unlock()
	if drained {
		sb.destroy()
	}
}

// DrainAll forcibly releases every inode still cached, regardless of its
// reference or link count. Only safe once a superblock is detached and
// unreachable to any future lookup — the final step of lazy unmount's
// teardown, after the last open reference has drained, when any inode
// still in the cache (e.g. a file that stayed linked through the whole
// lazy-unmount window) would otherwise leak its backing storage forever.
func (sb *Superblock) DrainAll() {
	sb.mu.Lock()
	all := make([]*Inode, 0, len(sb.inodes))
	for _, n := range sb.inodes {
		all = append(all, n)
	}
	sb.inodes = make(map[uint64]*Inode)
	sb.mu.Unlock()

	for _, n := range all {
		n.setValid(false)
		if r, ok := n.Impl.(Releaser); ok {
			r.Release()
		}
	}
}

// destroy runs the driver's teardown hook exactly once: the first call
// clears sb.valid and any later call returns early. It must not hold
// sb.mu while doing so: driver hooks (e.g. tmpfs's, via DrainAll) take the
// lock themselves, and sync.RWMutex is not reentrant.
func (sb *Superblock) destroy() {
	sb.mu.Lock()
	live := sb.valid
	sb.valid = false
	sb.mu.Unlock()
	if !live {
		return
	}
	if sb.Ops != nil && sb.Ops.Destroy != nil {
		sb.Ops.Destroy(sb)
	}
}
