// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs

import "github.com/rvcore/corefs/pkg/vfs"

// tmpfsFile is the Inode.Impl for a regular file: a block-indexed byte
// store, the tagged-payload regular-file variant.
type tmpfsFile struct {
	blocks *blockIndex
}

func (f *tmpfsFile) Read(n *vfs.Inode, buf []byte, off int64) (int, vfs.Errno) {
	return f.blocks.ReadAt(buf, off)
}

func (f *tmpfsFile) Write(n *vfs.Inode, buf []byte, off int64) (int, vfs.Errno) {
	written, errno := f.blocks.WriteAt(buf, off)
	return written, errno
}

func (f *tmpfsFile) Truncate(n *vfs.Inode, size int64) vfs.Errno {
	errno := f.blocks.Truncate(size)
	if errno == vfs.OK {
		n.SetSize(size)
	}
	return errno
}

// Release frees every block and index page still held by the file. Called
// from vfs.Superblock.RemoveInode and vfs.Superblock.DrainAll.
func (f *tmpfsFile) Release() {
	f.blocks.free()
}

// HasIndirect, HasDoubleIndirect and NBlocks expose the block index's
// layer occupancy, for tests asserting its boundary crossings on
// truncate.
func (f *tmpfsFile) HasIndirect() bool { return f.blocks.HasIndirect() }
func (f *tmpfsFile) HasDoubleIndirect() bool { return f.blocks.HasDoubleIndirect() }
func (f *tmpfsFile) NBlocks() int { return f.blocks.NBlocks() }
