// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

// Driver capability interfaces. A filesystem driver's per-inode backing
// object (the Inode.Impl value) implements whichever of these it
// supports; the VFS core type-asserts before calling — one-method
// interfaces a node may optionally implement, rather than one large
// interface every node must satisfy in full.

// Lookuper resolves a single path component within a directory.
type Lookuper interface {
	Lookup(dir *Inode, name string) (*Inode, Errno)
}

// Creater makes a new regular file.
type Creater interface {
	Create(dir *Inode, name string, mode uint32) (*Inode, Errno)
}

// Mkdirer makes a new subdirectory.
type Mkdirer interface {
	Mkdir(dir *Inode, name string, mode uint32) (*Inode, Errno)
}

// Symlinker makes a new symlink.
type Symlinker interface {
	Symlink(dir *Inode, name, target string) (*Inode, Errno)
}

// Mknoder makes a new device node or FIFO.
type Mknoder interface {
	Mknod(dir *Inode, name string, mode uint32, dev uint64) (*Inode, Errno)
}

// Linker makes a hard link.
type Linker interface {
	Link(dir *Inode, name string, target *Inode) Errno
}

// Unlinker removes a non-directory directory entry.
type Unlinker interface {
	Unlink(dir *Inode, name string) Errno
}

// Rmdirer removes an empty subdirectory.
type Rmdirer interface {
	Rmdir(dir *Inode, name string) Errno
}

// Renamer atomically moves a directory entry, possibly across directories
// within the same superblock.
type Renamer interface {
	Rename(oldDir *Inode, oldName string, newDir *Inode, newName string) Errno
}

// Readlinker returns a symlink's target.
type Readlinker interface {
	Readlink(n *Inode) (string, Errno)
}

// Truncater resizes a regular file's backing storage.
type Truncater interface {
	Truncate(n *Inode, size int64) Errno
}

// Reader reads from a regular file at an offset.
type Reader interface {
	Read(n *Inode, buf []byte, off int64) (int, Errno)
}

// Writer writes to a regular file at an offset.
type Writer interface {
	Write(n *Inode, buf []byte, off int64) (int, Errno)
}

// DirEntry is one entry produced by Iterater: "." then ".." then children
// in arbitrary order.
type DirEntry struct {
	Name string
	Ino uint64
	Mode uint32
	Cookie uint64
}

// Iterater lists directory entries starting after cookie (0 means start
// from the beginning). Cookie is an opaque, driver-owned handle used to
// resume iteration.
type Iterater interface {
	Iterate(dir *Inode, cookie uint64) ([]DirEntry, Errno)
}

// Releaser frees any backing storage a driver's Impl holds outside of Go's
// own heap (e.g. tmpfs's page-allocator-backed blocks). The VFS core calls
// Release, when implemented, from RemoveInode and from DrainAll.
type Releaser interface {
	Release()
}
