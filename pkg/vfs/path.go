// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import "strings"

// splitPath collapses repeated '/' and drops "." components, since "." is
// identity. ".." is kept: it carries semantics that depend on where in
// the tree the walk currently is, resolved per-step by Ilookup, not by
// this lexical split.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := raw[:0:0]
	for _, c := range raw {
		if c == "" || c == "." {
			continue
		}
		out = append(out, c)
	}
	return out
}

// localRootMountpoint reports whether n is the root inode of a superblock
// that is mounted somewhere (i.e. is not the overall namespace root) and,
// if so, returns that superblock's mountpoint inode.
func (n *Inode) localRootMountpoint() (*Inode, bool) {
	if n != n.Sb.RootInode {
		return nil, false
	}
	sb := n.Sb
	sb.mu.RLock()
	mp := sb.Mountpoint
	sb.mu.RUnlock()
	if mp == nil {
		return nil, false
	}
	return mp, true
}

// crossMount returns the inode resolution should continue from: if n is a
// mountpoint, its mounted filesystem's root; otherwise n itself.
func crossMount(n *Inode) *Inode {
	mounted, mntSB, _ := n.mountInfo()
	if !mounted {
		return n
	}
	return mntSB.RootInode
}

// Ilookup is the per-directory step of path resolution. It handles "."
// and ".." against the process root and local mount roots itself;
// ordinary names, and ".." from a non-root directory, are delegated to
// the driver's Lookup (which resolves ".." via the inode's parent
// field). The returned bool reports whether the result was reached by
// explicitly escaping a mount via "..": the caller must not immediately
// re-cross that same mount, since it would undo the escape.
func Ilookup(dir *Inode, name string, processRoot *Inode) (*Inode, bool, Errno) {
	if !IsDir(dir.Mode()) {
		return nil, false, ENotDir
	}

	switch name {
	case ".":
		return dir.Get(), false, OK
	case "..":
		if dir == processRoot {
			return dir.Get(), false, OK
		}
		if mp, ok := dir.localRootMountpoint(); ok {
			return mp.Get(), true, OK
		}
	}

	lk, ok := dir.Impl.(Lookuper)
	if !ok {
		return nil, false, ENotDir
	}
	child, errno := lk.Lookup(dir, name)
	if errno != OK {
		return nil, false, errno
	}
	return child, false, OK
}

// Namei walks path starting at processRoot (absolute paths) or cwd
// (relative paths). The returned inode carries a
// reference the caller must Put.
func Namei(processRoot, cwd *Inode, path string) (*Inode, Errno) {
	if path == "" {
		return nil, EInval
	}

	cur := cwd
	if strings.HasPrefix(path, "/") {
		cur = processRoot
	}
	cur = cur.Get()

	// escaped tracks whether cur was just reached by explicitly escaping
	// a mount via "..": crossMount must not be reapplied in that case,
	// or the walk would immediately re-enter the filesystem it just left.
	escaped := false
	for _, name := range splitPath(path) {
		if !escaped {
			next := crossMount(cur)
			if next != cur {
				next = next.Get()
				cur.Put()
				cur = next
			}
		}

		child, justEscaped, errno := Ilookup(cur, name, processRoot)
		cur.Put()
		if errno != OK {
			return nil, errno
		}
		cur = child
		escaped = justEscaped
	}

	if !escaped {
		final := crossMount(cur)
		if final != cur {
			final = final.Get()
			cur.Put()
			cur = final
		}
	}
	return cur, OK
}
