// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

// BitsCTZ returns the index of the least-significant set bit in x, or -1
// if x is zero. An early variant of this helper fell off the end of its
// loop without an explicit return when no bit was set, leaving the result
// undefined; the evident intent — preserved here — is "return -1 when no
// match".
func BitsCTZ(x uint64) int {
	if x == 0 {
		return -1
	}
	n := 0
	for x&1 == 0 {
		x >>= 1
		n++
	}
	return n
}

// OrderForSize returns the smallest order k such that 2^k*PageSize >= size,
// or an error-signaling -1 if size exceeds what MaxOrder can cover.
func OrderForSize(size int) int {
	if size <= 0 {
		return 0
	}
	pages := (size + PageSize - 1) / PageSize
	order := 0
	for (1 << uint(order)) < pages {
		order++
		if order > MaxOrder {
			return -1
		}
	}
	return order
}
