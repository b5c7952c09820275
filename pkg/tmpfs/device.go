// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs

// tmpfsDevice is the Inode.Impl for a device or FIFO node created via
// Mknod . It carries only the device number; actual
// device I/O is outside this subsystem's scope, so it implements none of
// the file-shaped capability interfaces.
type tmpfsDevice struct {
	dev uint64
}
