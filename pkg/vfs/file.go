// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import "sync/atomic"

// File is an open file description: an inode, open flags and an offset.
// FDTable.Clone gives each cloned descriptor its own File (see Clone). It
// holds the reference on Sb that lazy unmount waits to drain.
type File struct {
	Node *Inode
	Flags uint32
	offset int64
}

// OpenFile constructs a File over n, taking the inode reference the caller
// already holds and registering an open reference against n.Sb so a lazy
// unmount of n's filesystem knows this handle is still live.
func OpenFile(n *Inode, flags uint32) *File {
	n.Sb.incOpenRef()
	return &File{Node: n, Flags: flags}
}

// Close releases the File's hold on its inode and superblock. Safe to call
// at most once per File.
func (f *File) Close() {
	f.Node.Put()
	f.Node.Sb.decOpenRef()
}

func (f *File) Offset() int64 {
	return atomic.LoadInt64(&f.offset)
}

func (f *File) Seek(off int64) {
	atomic.StoreInt64(&f.offset, off)
}

func (f *File) advance(n int64) {
	atomic.AddInt64(&f.offset, n)
}

// Clone returns a new File sharing Node, starting at f's current offset but
// moving independently of it afterwards, taking its own inode and open-ref.
func (f *File) Clone() *File {
	f.Node.Get()
	dup := OpenFile(f.Node, f.Flags)
	dup.offset = f.Offset()
	return dup
}
