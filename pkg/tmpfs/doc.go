// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tmpfs is an in-memory filesystem driver for the vfs package.
// Regular-file content is stored in physical pages drawn from a
// pgalloc.Allocator and indexed embedded -> direct -> indirect ->
// double-indirect, rather than held as a plain []byte: the bytes live
// behind the page allocator instead of the Go heap, so tmpfs exercises
// pgalloc the way a real tmpfs driver exercises a kernel's page
// allocator.
package tmpfs
