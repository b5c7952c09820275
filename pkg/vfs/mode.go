// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

// Mode bits: file type occupies the high bits, permission the low 12,
// mirroring the traditional POSIX S_IF* layout.
const (
	ModeFmt = 0170000
	ModeDir = 0040000
	ModeReg = 0100000
	ModeLnk = 0120000
	ModeChr = 0020000
	ModeBlk = 0060000
	ModeFifo = 0010000
	ModeSocket = 0140000

	ModePerm = 0007777
)

func IsDir(mode uint32) bool { return mode&ModeFmt == ModeDir }
func IsRegular(mode uint32) bool { return mode&ModeFmt == ModeReg }
func IsSymlink(mode uint32) bool { return mode&ModeFmt == ModeLnk }
func IsDevice(mode uint32) bool {
	return mode&ModeFmt == ModeChr || mode&ModeFmt == ModeBlk
}
func IsFifo(mode uint32) bool { return mode&ModeFmt == ModeFifo }
