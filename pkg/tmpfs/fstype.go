// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs

import (
	"sync/atomic"

	"github.com/rvcore/corefs/pkg/pgalloc"
	"github.com/rvcore/corefs/pkg/vfs"
)

// TmpFS is a vfs.FSType backed by a pgalloc.Allocator: every mount shares
// the same underlying page pool, the way a real tmpfs shares the host
// kernel's page cache across mounts . It has no device
// inode; superblocks it creates are always Backendless.
type TmpFS struct {
	alloc *pgalloc.Allocator
}

// New returns a tmpfs driver drawing its storage from alloc.
func New(alloc *pgalloc.Allocator) *TmpFS {
	return &TmpFS{alloc: alloc}
}

func (fs *TmpFS) Name() string { return "tmpfs" }

type sbState struct {
	nextIno uint64
}

func (s *sbState) allocIno() uint64 {
	return atomic.AddUint64(&s.nextIno, 1)
}

// Mount builds a fresh, empty superblock with a single root directory
// . device is ignored: tmpfs is
// backendless. tmpfs recognizes no mount options, so a non-empty data map
// is rejected with EInval.
func (fs *TmpFS) Mount(mountpoint *vfs.Inode, device *vfs.Inode, flags uint32, data map[string]string) (*vfs.Superblock, vfs.Errno) {
	if len(data) != 0 {
		return nil, vfs.EInval
	}
	state := &sbState{}
	ops := &vfs.SuperOps{
		AllocInode: fs.allocInode,
		Destroy: fs.destroy,
	}
	sb := vfs.NewSuperblock(fs, ops, true)
	sb.Priv = state

	root, errno := fs.allocInodeIn(sb, state, vfs.ModeDir|0755)
	if errno != vfs.OK {
		return nil, errno
	}
	root.AddLinks(2)
	sb.RootInode = root
	return sb, vfs.OK
}

func (fs *TmpFS) destroy(sb *vfs.Superblock) {
	// Unmount already requires the cache to be empty, but UnmountLazy's
	// deferred teardown can still find inodes that stayed linked (not
	// merely open) through the whole lazy-unmount window; DrainAll
	// reclaims those so their pages are not leaked.
	sb.DrainAll()
}

// allocInode is the vfs.SuperOps.AllocInode callback: it dispatches on
// mode to build the right tagged Impl.
func (fs *TmpFS) allocInode(sb *vfs.Superblock, mode uint32) (*vfs.Inode, vfs.Errno) {
	state, _ := sb.Priv.(*sbState)
	return fs.allocInodeIn(sb, state, mode)
}

func (fs *TmpFS) allocInodeIn(sb *vfs.Superblock, state *sbState, mode uint32) (*vfs.Inode, vfs.Errno) {
	ino := state.allocIno()
	var impl interface{}
	switch {
	case vfs.IsDir(mode):
		impl = &tmpfsDir{fs: fs}
	case vfs.IsSymlink(mode):
		impl = &tmpfsSymlink{}
	case vfs.IsRegular(mode):
		impl = &tmpfsFile{blocks: newBlockIndex(fs.alloc)}
	default:
		impl = &tmpfsDevice{}
	}
	n := vfs.NewInode(sb, ino, mode, impl)
	if d, ok := impl.(*tmpfsDir); ok {
		d.table = newDirTable(n, nil)
	}
	return n, vfs.OK
}

func (fs *TmpFS) newFile(sb *vfs.Superblock, mode uint32) (*vfs.Inode, vfs.Errno) {
	n, errno := sb.AllocInode(vfs.ModeReg | (mode & vfs.ModePerm))
	if errno != vfs.OK {
		return nil, errno
	}
	n.AddLinks(1)
	return n, vfs.OK
}

func (fs *TmpFS) newDir(sb *vfs.Superblock, mode uint32, parent *vfs.Inode) (*vfs.Inode, vfs.Errno) {
	n, errno := sb.AllocInode(vfs.ModeDir | (mode & vfs.ModePerm))
	if errno != vfs.OK {
		return nil, errno
	}
	n.AddLinks(2)
	n.SetParent(parent)
	n.Impl.(*tmpfsDir).table.parent = parent
	return n, vfs.OK
}

func (fs *TmpFS) newSymlink(sb *vfs.Superblock, target string) (*vfs.Inode, vfs.Errno) {
	n, errno := sb.AllocInode(vfs.ModeLnk | 0777)
	if errno != vfs.OK {
		return nil, errno
	}
	n.Impl.(*tmpfsSymlink).target = target
	n.AddLinks(1)
	n.SetSize(int64(len(target)))
	return n, vfs.OK
}

func (fs *TmpFS) newDevice(sb *vfs.Superblock, mode uint32, dev uint64) (*vfs.Inode, vfs.Errno) {
	n, errno := sb.AllocInode(mode)
	if errno != vfs.OK {
		return nil, errno
	}
	n.Impl.(*tmpfsDevice).dev = dev
	n.AddLinks(1)
	return n, vfs.OK
}

// UnmountBegin evicts every cached inode with a zero reference count
// except the root, the driver hook Unmount invokes before checking that
// the superblock's cache is empty.
func UnmountBegin(sb *vfs.Superblock) {
	sb.EvictUnreferenced()
}
