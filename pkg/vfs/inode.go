// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import (
	"sort"
	"sync"
	"unsafe"
)

// Inode is a reference-counted VFS entity, cached per superblock in a hash
// keyed by inode number . Its mutex protects the
// mutable fields below; when multiple inodes must be locked together,
// callers use lockInodes/lockInode2, which order by in-memory address the
// same way nodefs/inode.go's lockNodes/sortNodes do, to avoid deadlock
// regardless of call order.
type Inode struct {
	// Immutable after creation.
	Ino uint64
	Sb *Superblock
	Impl interface{} // driver-private backing object

	mu sync.Mutex

	mode uint32
	nLinks uint32
	size int64
	refCount uint64
	valid bool

	// parent is a weak (non-owning) back-link used for "..": cyclic
	// parent/mount backlinks are kept weak so they never pin an inode.
	parent *Inode

	// Mountpoint state: only meaningful when IsDir(mode).
	mount bool
	mntSB *Superblock
	mntRootIno uint64
}

// NewInode constructs an inode with ref_count=1 (the caller's reference)
// and valid=0; the caller must insert it into a superblock cache (which
// sets valid=1) before other code can observe it via get_inode_cached.
func NewInode(sb *Superblock, ino uint64, mode uint32, impl interface{}) *Inode {
	return &Inode{
		Ino: ino,
		Sb: sb,
		Impl: impl,
		mode: mode,
		nLinks: 0,
		refCount: 1,
	}
}

func (n *Inode) Mode() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mode
}

func (n *Inode) SetMode(mode uint32) {
	n.mu.Lock()
	n.mode = mode
	n.mu.Unlock()
}

func (n *Inode) NLinks() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nLinks
}

func (n *Inode) AddLinks(delta int) {
	n.mu.Lock()
	n.nLinks = uint32(int(n.nLinks) + delta)
	n.mu.Unlock()
}

func (n *Inode) Size() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.size
}

func (n *Inode) SetSize(size int64) {
	n.mu.Lock()
	n.size = size
	n.mu.Unlock()
}

func (n *Inode) RefCount() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.refCount
}

// Get increments the inode's reference count. Callers that obtain an inode
// from a cache lookup or from namei hold a reference they must eventually
// Put.
func (n *Inode) Get() *Inode {
	n.mu.Lock()
	n.refCount++
	n.mu.Unlock()
	return n
}

// Put decrements the reference count. If it reaches zero and the
// filesystem is not backendless (or n_links == 0 for a backendless one),
// the caller (normally Superblock.maybeEvict) removes the inode from its
// cache.
func (n *Inode) Put() uint64 {
	n.mu.Lock()
	if n.refCount > 0 {
		n.refCount--
	}
	rc := n.refCount
	n.mu.Unlock()
	if rc == 0 {
		n.Sb.maybeEvict(n)
	}
	return rc
}

func (n *Inode) Valid() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.valid
}

func (n *Inode) setValid(v bool) {
	n.mu.Lock()
	n.valid = v
	n.mu.Unlock()
}

// Parent returns the directory this inode was created under, or nil at a
// namespace root. It is a lookup key, not an owning reference.
func (n *Inode) Parent() *Inode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

func (n *Inode) setParent(p *Inode) {
	n.mu.Lock()
	n.parent = p
	n.mu.Unlock()
}

// SetParent records the directory n was created under, for drivers
// building their own directory tables outside this package (e.g. tmpfs).
func (n *Inode) SetParent(p *Inode) {
	n.setParent(p)
}

// IsMountpoint reports whether this inode currently has a filesystem
// mounted on it.
func (n *Inode) IsMountpoint() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mount
}

func (n *Inode) mountInfo() (bool, *Superblock, uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mount, n.mntSB, n.mntRootIno
}

func (n *Inode) setMount(sb *Superblock, rootIno uint64) {
	n.mu.Lock()
	n.mount = true
	n.mntSB = sb
	n.mntRootIno = rootIno
	n.mu.Unlock()
}

func (n *Inode) clearMount() {
	n.mu.Lock()
	n.mount = false
	n.mntSB = nil
	n.mntRootIno = 0
	n.mu.Unlock()
}

// lockLess orders inodes by in-memory address, the same consistency
// property nodefs/inode.go's nodeLess relies on: for any A, B it always
// orders the same way, so locking a group in that order never deadlocks
// regardless of the order callers name them in.
func lockLess(a, b *Inode) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}

// lockInodes locks a group of (possibly repeated, possibly nil) inodes in
// a consistent order, skipping duplicates and nils.
func lockInodes(ns ...*Inode) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i] == nil || ns[j] == nil {
			return ns[j] == nil && ns[i] != nil
		}
		return lockLess(ns[i], ns[j])
	})
	var prev *Inode
	for _, n := range ns {
		if n != nil && n != prev {
			n.mu.Lock()
			prev = n
		}
	}
}

func unlockInodes(ns ...*Inode) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i] == nil || ns[j] == nil {
			return ns[j] == nil && ns[i] != nil
		}
		return lockLess(ns[i], ns[j])
	})
	var prev *Inode
	for _, n := range ns {
		if n != nil && n != prev {
			n.mu.Unlock()
			prev = n
		}
	}
}

// lockInode2 locks a and b in the consistent order lockInodes uses.
func lockInode2(a, b *Inode) {
	if a == b {
		if a != nil {
			a.mu.Lock()
		}
		return
	}
	if a == nil {
		b.mu.Lock()
		return
	}
	if b == nil {
		a.mu.Lock()
		return
	}
	if lockLess(a, b) {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func unlockInode2(a, b *Inode) {
	if a == b {
		if a != nil {
			a.mu.Unlock()
		}
		return
	}
	if a != nil {
		a.mu.Unlock()
	}
	if b != nil {
		b.mu.Unlock()
	}
}
