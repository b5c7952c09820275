// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs

import "github.com/rvcore/corefs/pkg/vfs"

// tmpfsSymlink is the Inode.Impl for a symlink. An inline-vs-heap-allocated
// target string is a C memory-layout
// optimization for small targets; a Go string already stores short and
// long values uniformly, so there is no separate embedded path to render
// here.
type tmpfsSymlink struct {
	target string
}

func (s *tmpfsSymlink) Readlink(n *vfs.Inode) (string, vfs.Errno) {
	return s.target, vfs.OK
}
