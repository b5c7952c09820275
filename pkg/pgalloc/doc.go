// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pgalloc implements a buddy-based physical page allocator with
// per-CPU hot caches and reference counting, as an in-process simulation of
// a kernel's frame allocator. The physical region it manages is backed by a
// real anonymous memory mapping (see Arena), so address arithmetic and the
// bytes it returns are not make-believe.
//
// The allocator never blocks: Alloc either returns a group immediately or
// reports failure. Free either hands the group to a per-CPU cache or walks
// the buddy-coalescing loop described in the design, which is bounded by
// MaxOrder iterations.
package pgalloc
