// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux || darwin || freebsd

package pgalloc

import "golang.org/x/sys/unix"

// mmapArena maps an anonymous, zero-filled region of n bytes, the same
// primitive vhostuser/deviceregion.go uses for its guest-memory region
// (there via syscall.Mmap on a shared vhost-user fd; here anonymous since
// there is no backing fd for simulated physical memory).
func mmapArena(n int) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, err
	}
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)
	return data, func() error { return unix.Munmap(data) }, nil
}
