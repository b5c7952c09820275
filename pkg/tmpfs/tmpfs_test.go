// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs_test

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/rvcore/corefs/pkg/pgalloc"
	"github.com/rvcore/corefs/pkg/tmpfs"
	"github.com/rvcore/corefs/pkg/vfs"
)

// newAllocator builds a real, byte-backed allocator large enough to back
// every block tmpfs's tests allocate, including double-indirect index
// pages. Base is deliberately nonzero (see blockIndex.allocZeroed).
func newAllocator(t *testing.T, nframes int) *pgalloc.Allocator {
	t.Helper()
	const base pgalloc.PhysAddr = 0x10000
	table := pgalloc.NewTable(base, nframes)
	arena, err := pgalloc.NewArena(base, nframes)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	t.Cleanup(func() { arena.Close() })
	a := pgalloc.New(table, arena, 1)
	a.Init(&pgalloc.Platform{ManagedStart: base, ManagedEnd: base + pgalloc.PhysAddr(nframes)*pgalloc.PageSize})
	return a
}

// mountTmpfs registers and mounts tmpfs over a bare host directory inode,
// returning the tmpfs root directory (already crossed via vfs.Namei-style
// resolution) along with the registry and mountpoint for unmount tests.
func mountTmpfs(t *testing.T, alloc *pgalloc.Allocator) (reg *vfs.Registry, mountpoint, tmpfsRoot *vfs.Inode) {
	t.Helper()
	hostOps := &vfs.SuperOps{
		AllocInode: func(sb *vfs.Superblock, mode uint32) (*vfs.Inode, vfs.Errno) { return nil, vfs.EInval },
		Destroy: func(sb *vfs.Superblock) {},
	}
	hostSB := vfs.NewSuperblock(nil, hostOps, true)
	mountpoint = vfs.NewInode(hostSB, 1, vfs.ModeDir|0755, nil)
	hostSB.RootInode = mountpoint

	reg = vfs.NewRegistry()
	fs := tmpfs.New(alloc)
	if errno := reg.Register(fs); errno != vfs.OK {
		t.Fatalf("Register: errno = %v", errno)
	}

	sb, errno := vfs.Mount(reg, mountpoint, nil, "tmpfs", 0, nil)
	if errno != vfs.OK {
		t.Fatalf("Mount: errno = %v", errno)
	}
	return reg, mountpoint, sb.RootInode
}

// tmpfsCreater is the subset of tmpfsDir's methods these tests need;
// asserting against it rather than the unexported concrete type keeps the
// tests honest about working through the same capability interfaces a VFS
// caller would use.
type tmpfsCreater = interface {
	Create(*vfs.Inode, string, uint32) (*vfs.Inode, vfs.Errno)
}

func TestCreateWriteSeekRead(t *testing.T) {
	alloc := newAllocator(t, 64)
	_, _, root := mountTmpfs(t, alloc)

	dir := root.Impl.(tmpfsCreater)
	n, errno := dir.Create(root, "greeting", vfs.ModePerm&0644)
	if errno != vfs.OK {
		t.Fatalf("Create: errno = %v", errno)
	}
	defer n.Put()

	truncater := n.Impl.(vfs.Truncater)
	if errno := truncater.Truncate(n, 13); errno != vfs.OK {
		t.Fatalf("Truncate: errno = %v", errno)
	}

	writer := n.Impl.(vfs.Writer)
	msg := []byte("hello, world!")
	w, errno := writer.Write(n, msg, 0)
	if errno != vfs.OK || w != len(msg) {
		t.Fatalf("Write: n=%d errno=%v, want %d OK", w, errno, len(msg))
	}

	reader := n.Impl.(vfs.Reader)
	buf := make([]byte, 5)
	r, errno := reader.Read(n, buf, 7)
	if errno != vfs.OK {
		t.Fatalf("Read: errno = %v", errno)
	}
	if string(buf[:r]) != "world" {
		t.Fatalf("Read at offset 7 = %q, want %q", buf[:r], "world")
	}
}

func TestSparseWriteRejected(t *testing.T) {
	alloc := newAllocator(t, 16)
	_, _, root := mountTmpfs(t, alloc)

	dir := root.Impl.(tmpfsCreater)
	n, errno := dir.Create(root, "f", 0644)
	if errno != vfs.OK {
		t.Fatalf("Create: errno = %v", errno)
	}
	defer n.Put()

	writer := n.Impl.(vfs.Writer)
	_, errno = writer.Write(n, []byte("x"), 100)
	if errno != vfs.EInval {
		t.Fatalf("Write past size without Truncate: errno = %v, want EInval", errno)
	}
}

func TestMkdirLinksAndRmdir(t *testing.T) {
	alloc := newAllocator(t, 16)
	_, _, root := mountTmpfs(t, alloc)

	dir := root.Impl.(interface {
		Mkdir(*vfs.Inode, string, uint32) (*vfs.Inode, vfs.Errno)
		Rmdir(*vfs.Inode, string) vfs.Errno
	})

	sub, errno := dir.Mkdir(root, "sub", 0755)
	if errno != vfs.OK {
		t.Fatalf("Mkdir: errno = %v", errno)
	}
	defer sub.Put()

	if root.NLinks() != 3 {
		t.Fatalf("root n_links = %d after one subdir, want 3 (2 + 1)", root.NLinks())
	}
	if sub.NLinks() != 2 {
		t.Fatalf("new dir n_links = %d, want 2", sub.NLinks())
	}

	if errno := dir.Rmdir(root, "sub"); errno != vfs.OK {
		t.Fatalf("Rmdir: errno = %v", errno)
	}
	if root.NLinks() != 2 {
		t.Fatalf("root n_links = %d after rmdir, want 2", root.NLinks())
	}
}

func TestUnmountLazyKeepsOpenFileWorking(t *testing.T) {
	alloc := newAllocator(t, 16)
	reg, mountpoint, root := mountTmpfs(t, alloc)

	dir := root.Impl.(tmpfsCreater)
	n, errno := dir.Create(root, "f", 0644)
	if errno != vfs.OK {
		t.Fatalf("Create: errno = %v", errno)
	}
	truncater := n.Impl.(vfs.Truncater)
	truncater.Truncate(n, 4)
	writer := n.Impl.(vfs.Writer)
	writer.Write(n, []byte("abcd"), 0)

	f := vfs.OpenFile(n, 0)

	if errno := vfs.UnmountLazy(reg, mountpoint); errno != vfs.OK {
		t.Fatalf("UnmountLazy: errno = %v", errno)
	}
	if mountpoint.IsMountpoint() {
		t.Fatal("mountpoint still reports mounted after UnmountLazy")
	}

	reader := n.Impl.(vfs.Reader)
	buf := make([]byte, 4)
	r, errno := reader.Read(n, buf, 0)
	if errno != vfs.OK || string(buf[:r]) != "abcd" {
		t.Fatalf("read on open file after lazy unmount: %q errno=%v, want \"abcd\" OK", buf[:r], errno)
	}

	f.Close()
}

// TestIterateListsDotDotAndChildrenByName pins the directory-tree shape
// tmpfsDir.Iterate produces, diffed structurally with pretty.Compare rather
// than field by field so the failure output shows the whole mismatched
// entry at once.
func TestIterateListsDotDotAndChildrenByName(t *testing.T) {
	alloc := newAllocator(t, 16)
	_, _, root := mountTmpfs(t, alloc)

	dir := root.Impl.(interface {
		Mkdir(*vfs.Inode, string, uint32) (*vfs.Inode, vfs.Errno)
		Create(*vfs.Inode, string, uint32) (*vfs.Inode, vfs.Errno)
	})

	sub, errno := dir.Mkdir(root, "sub", 0755)
	if errno != vfs.OK {
		t.Fatalf("Mkdir: errno = %v", errno)
	}
	defer sub.Put()
	f, errno := dir.Create(root, "leaf", 0644)
	if errno != vfs.OK {
		t.Fatalf("Create: errno = %v", errno)
	}
	defer f.Put()

	iter := root.Impl.(vfs.Iterater)
	entries, errno := iter.Iterate(root, 0)
	if errno != vfs.OK {
		t.Fatalf("Iterate: errno = %v", errno)
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	want := []string{".", "..", "sub", "leaf"}
	if diff := pretty.Compare(want, names); diff != "" {
		t.Fatalf("Iterate entry names differ (-want +got):\n%s", diff)
	}
}
