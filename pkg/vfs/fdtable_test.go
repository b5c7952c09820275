// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs_test

import (
	"testing"

	"github.com/rvcore/corefs/pkg/vfs"
)

func dummySuperblock() *vfs.Superblock {
	ops := &vfs.SuperOps{
		AllocInode: func(sb *vfs.Superblock, mode uint32) (*vfs.Inode, vfs.Errno) { return nil, vfs.EInval },
		Destroy: func(sb *vfs.Superblock) {},
	}
	return vfs.NewSuperblock(nil, ops, true)
}

func TestFDTableAllocLowestFirst(t *testing.T) {
	sb := dummySuperblock()
	tbl := vfs.NewFDTable()

	var fds []int
	for i := 0; i < 4; i++ {
		n := vfs.NewInode(sb, uint64(i+1), vfs.ModeReg|0644, nil)
		fd, errno := tbl.AllocFD(vfs.OpenFile(n, 0))
		if errno != vfs.OK {
			t.Fatalf("AllocFD: errno = %v", errno)
		}
		fds = append(fds, fd)
	}
	for i, fd := range fds {
		if fd != i {
			t.Fatalf("fd[%d] = %d, want %d (ascending allocation)", i, fd, i)
		}
	}

	if errno := tbl.DeallocFD(1); errno != vfs.OK {
		t.Fatalf("DeallocFD(1): errno = %v", errno)
	}

	n := vfs.NewInode(sb, 99, vfs.ModeReg|0644, nil)
	fd, errno := tbl.AllocFD(vfs.OpenFile(n, 0))
	if errno != vfs.OK {
		t.Fatalf("AllocFD after dealloc: errno = %v", errno)
	}
	if fd != 1 {
		t.Fatalf("AllocFD reused fd %d, want the freed slot 1", fd)
	}
}

func TestFDTableDeallocUnknownIsEInval(t *testing.T) {
	tbl := vfs.NewFDTable()
	if errno := tbl.DeallocFD(5); errno != vfs.EInval {
		t.Fatalf("DeallocFD(unallocated): errno = %v, want EInval", errno)
	}
}

func TestFDTableCloneIndependentOffsets(t *testing.T) {
	sb := dummySuperblock()
	n := vfs.NewInode(sb, 1, vfs.ModeReg|0644, nil)
	tbl := vfs.NewFDTable()
	fd, _ := tbl.AllocFD(vfs.OpenFile(n, 0))

	f, _ := tbl.Get(fd)
	f.Seek(42)

	dup := tbl.Clone()
	df, _ := dup.Get(fd)
	if df.Offset() != 42 {
		t.Fatalf("cloned file offset = %d, want 42 (copied at clone time)", df.Offset())
	}
	df.Seek(100)
	if f.Offset() == 100 {
		t.Fatalf("original file's offset changed after seeking the clone; offsets should be independent")
	}
}
