// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs_test

import (
	"testing"

	"github.com/rvcore/corefs/pkg/vfs"
)

// fixture builds a tiny two-level in-memory tree without a real driver,
// using bare vfs types with a minimal Lookuper so path resolution can be
// exercised independently of tmpfs.
type fixtureDir struct {
	children map[string]*vfs.Inode
	parent *vfs.Inode
}

func (d *fixtureDir) Lookup(dir *vfs.Inode, name string) (*vfs.Inode, vfs.Errno) {
	if name == ".." {
		if d.parent != nil {
			return d.parent.Get(), vfs.OK
		}
		return dir.Get(), vfs.OK
	}
	n, ok := d.children[name]
	if !ok {
		return nil, vfs.ENoEnt
	}
	return n.Get(), vfs.OK
}

func newFixture() (sb *vfs.Superblock, root, dirNode, nested, file *vfs.Inode) {
	ops := &vfs.SuperOps{
		AllocInode: func(sb *vfs.Superblock, mode uint32) (*vfs.Inode, vfs.Errno) { return nil, vfs.EInval },
		Destroy: func(sb *vfs.Superblock) {},
	}
	sb = vfs.NewSuperblock(nil, ops, true)

	var nextIno uint64 = 1
	newIno := func() uint64 { nextIno++; return nextIno - 1 }

	root = vfs.NewInode(sb, newIno(), vfs.ModeDir|0755, &fixtureDir{children: map[string]*vfs.Inode{}})
	sb.RootInode = root

	dirNode = vfs.NewInode(sb, newIno(), vfs.ModeDir|0755, &fixtureDir{children: map[string]*vfs.Inode{}, parent: root})
	dirNode.SetParent(root)
	root.Impl.(*fixtureDir).children["dir"] = dirNode

	nested = vfs.NewInode(sb, newIno(), vfs.ModeDir|0755, &fixtureDir{children: map[string]*vfs.Inode{}, parent: dirNode})
	nested.SetParent(dirNode)
	dirNode.Impl.(*fixtureDir).children["nested"] = nested

	file = vfs.NewInode(sb, newIno(), vfs.ModeReg|0644, nil)
	file.SetParent(nested)
	nested.Impl.(*fixtureDir).children["file"] = file

	return sb, root, dirNode, nested, file
}

func TestNameiCollapsesAndResolvesDotDot(t *testing.T) {
	_, root, _, _, file := newFixture()

	got, errno := vfs.Namei(root, root, "///dir/./nested/../nested/file")
	if errno != vfs.OK {
		t.Fatalf("Namei: errno = %v, want OK", errno)
	}
	defer got.Put()
	if got != file {
		t.Fatalf("Namei resolved to %p, want file inode %p", got, file)
	}
}

func TestNameiRootAndDotDotAtRoot(t *testing.T) {
	_, root, _, _, _ := newFixture()

	got, errno := vfs.Namei(root, root, "/")
	if errno != vfs.OK {
		t.Fatalf("Namei(\"/\"): errno = %v", errno)
	}
	if got != root {
		t.Fatalf("Namei(\"/\") = %p, want process root %p", got, root)
	}
	got.Put()

	got2, errno := vfs.Namei(root, root, "/..")
	if errno != vfs.OK {
		t.Fatalf("Namei(\"/..\"): errno = %v", errno)
	}
	defer got2.Put()
	if got2 != root {
		t.Fatalf("Namei(\"/..\") = %p, want process root to stay put (%p)", got2, root)
	}
}

func TestIlookupNotADirectory(t *testing.T) {
	_, root, _, _, file := newFixture()
	_, _, errno := vfs.Ilookup(file, "anything", root)
	if errno != vfs.ENotDir {
		t.Fatalf("Ilookup on a regular file: errno = %v, want ENotDir", errno)
	}
}
