// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs_test

import (
	"testing"

	"github.com/rvcore/corefs/pkg/pgalloc"
	"github.com/rvcore/corefs/pkg/vfs"
)

// TestTruncateCrossesIndexLayerBoundaries checks that truncating to 5,
// then 100, then 600 pages crosses the
// direct -> indirect -> double-indirect boundaries in order, and
// truncating back to zero must free every index page.
func TestTruncateCrossesIndexLayerBoundaries(t *testing.T) {
	alloc := newAllocator(t, 1200)
	_, _, root := mountTmpfs(t, alloc)

	dir := root.Impl.(tmpfsCreater)
	n, errno := dir.Create(root, "big", 0644)
	if errno != vfs.OK {
		t.Fatalf("Create: errno = %v", errno)
	}
	defer n.Put()

	indexed := n.Impl.(interface {
		HasIndirect() bool
		HasDoubleIndirect() bool
	})
	truncater := n.Impl.(vfs.Truncater)

	if errno := truncater.Truncate(n, 5*pgalloc.PageSize); errno != vfs.OK {
		t.Fatalf("Truncate(5 pages): errno = %v", errno)
	}
	if indexed.HasIndirect() || indexed.HasDoubleIndirect() {
		t.Fatalf("at 5 pages: hasIndirect=%v hasDoubleIndirect=%v, want both false (direct-only)",
			indexed.HasIndirect(), indexed.HasDoubleIndirect())
	}

	if errno := truncater.Truncate(n, 100*pgalloc.PageSize); errno != vfs.OK {
		t.Fatalf("Truncate(100 pages): errno = %v", errno)
	}
	if !indexed.HasIndirect() || indexed.HasDoubleIndirect() {
		t.Fatalf("at 100 pages: hasIndirect=%v hasDoubleIndirect=%v, want indirect only",
			indexed.HasIndirect(), indexed.HasDoubleIndirect())
	}

	if errno := truncater.Truncate(n, 600*pgalloc.PageSize); errno != vfs.OK {
		t.Fatalf("Truncate(600 pages): errno = %v", errno)
	}
	if !indexed.HasDoubleIndirect() {
		t.Fatal("at 600 pages: hasDoubleIndirect=false, want true")
	}

	if errno := truncater.Truncate(n, 0); errno != vfs.OK {
		t.Fatalf("Truncate(0): errno = %v", errno)
	}
	if indexed.HasIndirect() || indexed.HasDoubleIndirect() {
		t.Fatal("after truncating to 0, index pages should all be freed")
	}
	blocks := n.Impl.(interface{ NBlocks() int })
	if blocks.NBlocks() != 0 {
		t.Fatalf("n_blocks after truncate to 0 = %d, want 0", blocks.NBlocks())
	}
}

func TestTruncateGrowZeroFills(t *testing.T) {
	alloc := newAllocator(t, 16)
	_, _, root := mountTmpfs(t, alloc)

	dir := root.Impl.(tmpfsCreater)
	n, errno := dir.Create(root, "z", 0644)
	if errno != vfs.OK {
		t.Fatalf("Create: errno = %v", errno)
	}
	defer n.Put()

	truncater := n.Impl.(vfs.Truncater)
	if errno := truncater.Truncate(n, int64(pgalloc.PageSize)); errno != vfs.OK {
		t.Fatalf("Truncate: errno = %v", errno)
	}

	reader := n.Impl.(vfs.Reader)
	buf := make([]byte, pgalloc.PageSize)
	r, errno := reader.Read(n, buf, 0)
	if errno != vfs.OK || r != pgalloc.PageSize {
		t.Fatalf("Read: n=%d errno=%v, want %d OK", r, errno, pgalloc.PageSize)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %#x after grow, want zero-fill", i, b)
		}
	}
}
