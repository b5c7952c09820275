// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs_test

import (
	"testing"

	"github.com/rvcore/corefs/pkg/vfs"
)

// stubFSType is a minimal FSType whose Mount builds a fresh one-inode
// superblock rooted at a fixtureDir, just enough to exercise Mount,
// UnmountLazy, and mount-crossing Namei without pulling in a real driver.
type stubFSType struct {
	name string
}

func (s *stubFSType) Name() string { return s.name }

func (s *stubFSType) Mount(mountpoint, device *vfs.Inode, flags uint32, data map[string]string) (*vfs.Superblock, vfs.Errno) {
	ops := &vfs.SuperOps{
		AllocInode: func(sb *vfs.Superblock, mode uint32) (*vfs.Inode, vfs.Errno) { return nil, vfs.EInval },
		Destroy: func(sb *vfs.Superblock) {},
	}
	sb := vfs.NewSuperblock(s, ops, true)
	root := vfs.NewInode(sb, 1, vfs.ModeDir|0755, &fixtureDir{children: map[string]*vfs.Inode{}})
	sb.RootInode = root
	return sb, vfs.OK
}

// mountStub registers a fresh stubFSType under name and mounts it at
// mountpoint, returning the registry (for UnmountLazy) and the mounted
// superblock.
func mountStub(t *testing.T, name string, mountpoint *vfs.Inode) (*vfs.Registry, *vfs.Superblock) {
	t.Helper()
	reg := vfs.NewRegistry()
	if errno := reg.Register(&stubFSType{name: name}); errno != vfs.OK {
		t.Fatalf("Register: errno = %v", errno)
	}
	sb, errno := vfs.Mount(reg, mountpoint, nil, name, 0, nil)
	if errno != vfs.OK {
		t.Fatalf("Mount: errno = %v", errno)
	}
	return reg, sb
}

func TestMountThenUnmountLazy(t *testing.T) {
	_, _, dirNode, _, _ := newFixture()

	reg, _ := mountStub(t, "stub1", dirNode)
	if !dirNode.IsMountpoint() {
		t.Fatal("dirNode.IsMountpoint() = false after Mount")
	}

	if errno := vfs.UnmountLazy(reg, dirNode); errno != vfs.OK {
		t.Fatalf("UnmountLazy: errno = %v", errno)
	}
	if dirNode.IsMountpoint() {
		t.Fatal("dirNode.IsMountpoint() = true after UnmountLazy")
	}
}

// TestMountTwiceDoesNotDeadlock guards against Mount and UnmountLazy
// reacquiring the registry mutex they already hold at entry; a second
// independent mount/unmount on the same registry would hang forever if
// any of lookupLocked/attachLocked/detachLocked locked again.
func TestMountTwiceDoesNotDeadlock(t *testing.T) {
	_, _, dirNode, nested, _ := newFixture()

	reg := vfs.NewRegistry()
	if errno := reg.Register(&stubFSType{name: "stub"}); errno != vfs.OK {
		t.Fatalf("Register: errno = %v", errno)
	}

	if _, errno := vfs.Mount(reg, dirNode, nil, "stub", 0, nil); errno != vfs.OK {
		t.Fatalf("first Mount: errno = %v", errno)
	}
	if _, errno := vfs.Mount(reg, nested, nil, "stub", 0, nil); errno != vfs.OK {
		t.Fatalf("second Mount: errno = %v", errno)
	}

	if errno := vfs.UnmountLazy(reg, nested); errno != vfs.OK {
		t.Fatalf("first UnmountLazy: errno = %v", errno)
	}
	if errno := vfs.UnmountLazy(reg, dirNode); errno != vfs.OK {
		t.Fatalf("second UnmountLazy: errno = %v", errno)
	}
}

// TestNameiDotDotEscapesMountWithoutReentering pins the fix for a mount
// crossing bug: resolving ".." from a mounted filesystem's root must
// land on the mountpoint inode in the parent filesystem and stay there,
// not immediately re-cross back into the filesystem it just escaped.
func TestNameiDotDotEscapesMountWithoutReentering(t *testing.T) {
	_, root, dirNode, nested, _ := newFixture()

	reg, _ := mountStub(t, "stub", dirNode)
	t.Cleanup(func() { vfs.UnmountLazy(reg, dirNode) })

	got, errno := vfs.Namei(root, root, "/dir/..")
	if errno != vfs.OK {
		t.Fatalf("Namei(\"/dir/..\"): errno = %v", errno)
	}
	defer got.Put()
	if got != dirNode {
		t.Fatalf("Namei(\"/dir/..\") = %p, want the mountpoint inode %p (escaped, not re-crossed)", got, dirNode)
	}

	// A further component after the escape must resolve against the
	// mountpoint's own namespace (dirNode's child "nested"), confirming
	// the walk did not silently re-enter the mounted filesystem.
	got2, errno := vfs.Namei(root, root, "/dir/../nested")
	if errno != vfs.OK {
		t.Fatalf("Namei(\"/dir/../nested\"): errno = %v", errno)
	}
	defer got2.Put()
	if got2 != nested {
		t.Fatalf("Namei(\"/dir/../nested\") = %p, want %p looked up in the parent fs, not the mounted one", got2, nested)
	}
}

// TestNameiPlainMountpointStillCrosses makes sure the fix above did not
// disable ordinary mount crossing: resolving the mountpoint path itself
// (no escaping "..") must still land inside the mounted filesystem.
func TestNameiPlainMountpointStillCrosses(t *testing.T) {
	_, root, dirNode, _, _ := newFixture()

	reg, sb := mountStub(t, "stub", dirNode)
	t.Cleanup(func() { vfs.UnmountLazy(reg, dirNode) })

	got, errno := vfs.Namei(root, root, "/dir")
	if errno != vfs.OK {
		t.Fatalf("Namei(\"/dir\"): errno = %v", errno)
	}
	defer got.Put()
	if got != sb.RootInode {
		t.Fatalf("Namei(\"/dir\") = %p, want mounted root %p", got, sb.RootInode)
	}
}
