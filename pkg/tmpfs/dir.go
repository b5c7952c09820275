// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs

import (
	"sync"
	"unsafe"

	"github.com/rvcore/corefs/pkg/vfs"
)

func tablePtr(d *dirTable) unsafe.Pointer { return unsafe.Pointer(d) }

// dirTable is a tmpfs directory's child set: a name-keyed hash plus an
// insertion-ordered slice so iteration cookies stay stable across calls
//.
type dirTable struct {
	mu sync.Mutex
	self *vfs.Inode
	parent *vfs.Inode
	byName map[string]*vfs.Inode
	order []string
}

func newDirTable(self, parent *vfs.Inode) *dirTable {
	return &dirTable{
		self: self,
		parent: parent,
		byName: make(map[string]*vfs.Inode),
	}
}

func (d *dirTable) insert(name string, n *vfs.Inode) {
	d.byName[name] = n
	d.order = append(d.order, name)
}

func (d *dirTable) remove(name string) {
	delete(d.byName, name)
	for i, nm := range d.order {
		if nm == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// tmpfsDir is the Inode.Impl for a tmpfs directory; it is the only tmpfs
// node kind that implements the directory-shaped capability interfaces,
// so the VFS core's type assertions never mistake a file or symlink for a
// directory.
type tmpfsDir struct {
	fs *TmpFS
	table *dirTable
}

func (t *tmpfsDir) Lookup(dir *vfs.Inode, name string) (*vfs.Inode, vfs.Errno) {
	if name == ".." {
		if p := dir.Parent(); p != nil {
			return p.Get(), vfs.OK
		}
		return dir.Get(), vfs.OK
	}
	t.table.mu.Lock()
	defer t.table.mu.Unlock()
	n, ok := t.table.byName[name]
	if !ok {
		return nil, vfs.ENoEnt
	}
	return n.Get(), vfs.OK
}

func (t *tmpfsDir) Iterate(dir *vfs.Inode, cookie uint64) ([]vfs.DirEntry, vfs.Errno) {
	t.table.mu.Lock()
	defer t.table.mu.Unlock()

	virtual := make([]vfs.DirEntry, 0, len(t.table.order)+2)
	virtual = append(virtual, vfs.DirEntry{Name: ".", Ino: dir.Ino, Mode: dir.Mode(), Cookie: 1})
	parent := t.table.parent
	if parent == nil {
		parent = dir
	}
	virtual = append(virtual, vfs.DirEntry{Name: "..", Ino: parent.Ino, Mode: parent.Mode(), Cookie: 2})
	for i, name := range t.table.order {
		n := t.table.byName[name]
		virtual = append(virtual, vfs.DirEntry{Name: name, Ino: n.Ino, Mode: n.Mode(), Cookie: uint64(i) + 3})
	}

	if cookie >= uint64(len(virtual)) {
		return nil, vfs.OK
	}
	return virtual[cookie:], vfs.OK
}

func (t *tmpfsDir) Create(dir *vfs.Inode, name string, mode uint32) (*vfs.Inode, vfs.Errno) {
	t.table.mu.Lock()
	defer t.table.mu.Unlock()
	if _, exists := t.table.byName[name]; exists {
		return nil, vfs.EExist
	}
	n, errno := t.fs.newFile(dir.Sb, mode)
	if errno != vfs.OK {
		return nil, errno
	}
	n.SetParent(dir)
	t.table.insert(name, n)
	return n.Get(), vfs.OK
}

func (t *tmpfsDir) Mkdir(dir *vfs.Inode, name string, mode uint32) (*vfs.Inode, vfs.Errno) {
	t.table.mu.Lock()
	defer t.table.mu.Unlock()
	if _, exists := t.table.byName[name]; exists {
		return nil, vfs.EExist
	}
	n, errno := t.fs.newDir(dir.Sb, mode, dir)
	if errno != vfs.OK {
		return nil, errno
	}
	t.table.insert(name, n)
	dir.AddLinks(1)
	return n.Get(), vfs.OK
}

func (t *tmpfsDir) Symlink(dir *vfs.Inode, name, target string) (*vfs.Inode, vfs.Errno) {
	t.table.mu.Lock()
	defer t.table.mu.Unlock()
	if _, exists := t.table.byName[name]; exists {
		return nil, vfs.EExist
	}
	n, errno := t.fs.newSymlink(dir.Sb, target)
	if errno != vfs.OK {
		return nil, errno
	}
	n.SetParent(dir)
	t.table.insert(name, n)
	return n.Get(), vfs.OK
}

func (t *tmpfsDir) Mknod(dir *vfs.Inode, name string, mode uint32, dev uint64) (*vfs.Inode, vfs.Errno) {
	t.table.mu.Lock()
	defer t.table.mu.Unlock()
	if _, exists := t.table.byName[name]; exists {
		return nil, vfs.EExist
	}
	n, errno := t.fs.newDevice(dir.Sb, mode, dev)
	if errno != vfs.OK {
		return nil, errno
	}
	n.SetParent(dir)
	t.table.insert(name, n)
	return n.Get(), vfs.OK
}

func (t *tmpfsDir) Link(dir *vfs.Inode, name string, target *vfs.Inode) vfs.Errno {
	if vfs.IsDir(target.Mode()) {
		return vfs.EPerm
	}
	t.table.mu.Lock()
	defer t.table.mu.Unlock()
	if _, exists := t.table.byName[name]; exists {
		return vfs.EExist
	}
	target.Get()
	target.AddLinks(1)
	t.table.insert(name, target)
	return vfs.OK
}

func (t *tmpfsDir) Unlink(dir *vfs.Inode, name string) vfs.Errno {
	t.table.mu.Lock()
	n, ok := t.table.byName[name]
	if !ok {
		t.table.mu.Unlock()
		return vfs.ENoEnt
	}
	if vfs.IsDir(n.Mode()) {
		t.table.mu.Unlock()
		return vfs.EIsDir
	}
	t.table.remove(name)
	t.table.mu.Unlock()

	n.AddLinks(-1)
	n.Put()
	return vfs.OK
}

func (t *tmpfsDir) Rmdir(dir *vfs.Inode, name string) vfs.Errno {
	t.table.mu.Lock()
	n, ok := t.table.byName[name]
	if !ok {
		t.table.mu.Unlock()
		return vfs.ENoEnt
	}
	if !vfs.IsDir(n.Mode()) {
		t.table.mu.Unlock()
		return vfs.ENotDir
	}
	if n.NLinks() != 2 {
		t.table.mu.Unlock()
		return vfs.ENotEmpty
	}
	t.table.remove(name)
	t.table.mu.Unlock()

	dir.AddLinks(-1)
	n.AddLinks(-2)
	n.Put()
	return vfs.OK
}

// Rename implements a "link new, then unlink old" atomic move; both
// directory tables are locked address-ordered to match the
// discipline the rest of the package uses for multi-node operations.
func (t *tmpfsDir) Rename(oldDir *vfs.Inode, oldName string, newDirNode *vfs.Inode, newName string) vfs.Errno {
	newDir, ok := newDirNode.Impl.(*tmpfsDir)
	if !ok {
		return vfs.EInval
	}

	first, second := t.table, newDir.table
	if first == second {
		first.mu.Lock()
		defer first.mu.Unlock()
	} else if uintptr(tablePtr(first)) < uintptr(tablePtr(second)) {
		first.mu.Lock()
		defer first.mu.Unlock()
		second.mu.Lock()
		defer second.mu.Unlock()
	} else {
		second.mu.Lock()
		defer second.mu.Unlock()
		first.mu.Lock()
		defer first.mu.Unlock()
	}

	n, ok := t.table.byName[oldName]
	if !ok {
		return vfs.ENoEnt
	}
	if _, exists := newDir.table.byName[newName]; exists {
		return vfs.EExist
	}

	newDir.table.insert(newName, n)
	t.table.remove(oldName)

	if t.table != newDir.table && vfs.IsDir(n.Mode()) {
		oldDir.AddLinks(-1)
		newDirNode.AddLinks(1)
	}
	return vfs.OK
}
