// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import "github.com/rvcore/corefs/pkg/kerrno"

// Errno is the VFS layer's error type: a plain alias of kerrno.Errno, so
// drivers, the VFS core, and the page allocator share one taxonomy
// without an import cycle in either direction.
type Errno = kerrno.Errno

const (
	OK = kerrno.OK
	EInval = kerrno.EInval
	ENoEnt = kerrno.ENoEnt
	EExist = kerrno.EExist
	EBusy = kerrno.EBusy
	ENotEmpty = kerrno.ENotEmpty
	ETooMany = kerrno.ETooMany
	ENotDir = kerrno.ENotDir
	EIsDir = kerrno.EIsDir
	ENoMem = kerrno.ENoMem
	ENoSpace = kerrno.ENoSpace
	EPerm = kerrno.EPerm
	ELoop = kerrno.ELoop
	ENameTooLong = kerrno.ENameTooLong
	EIO = kerrno.EIO
	EAlready = kerrno.EAlready
)
