// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tmpfs

import (
	"encoding/binary"
	"sync"

	"github.com/rvcore/corefs/pkg/pgalloc"
	"github.com/rvcore/corefs/pkg/vfs"
)

// tmpfsCPU is the per-CPU cache lane tmpfs allocates and frees through.
// Block churn here is not on the hot fault path the way demand-paging
// allocations are, so one fixed lane is enough; a driver that cared about
// affinity would thread the calling goroutine's CPU id through instead.
const tmpfsCPU = 0

// nDirect, pointersPerPage and the resulting boundaries are chosen so that
// a 5-page file stays direct-only, a 100-page file lives in the indirect
// range, and a 600-page file reaches into the double-indirect range
// : direct covers blocks [0,8), indirect extends
// that to [8,520) using one page of 512 eight-byte pointers, and
// double-indirect covers [520, 520+512*512).
const (
	nDirect = 8
	pointersPerPage = pgalloc.PageSize / 8
	embeddedLen = 64
	indirectBase = nDirect
	doubleIndirectBase = nDirect + pointersPerPage
)

func blocksFor(size int64) int {
	if size <= 0 {
		return 0
	}
	return int((size + pgalloc.PageSize - 1) / pgalloc.PageSize)
}

func readPtr(page []byte, idx int) pgalloc.PhysAddr {
	return pgalloc.PhysAddr(binary.LittleEndian.Uint64(page[idx*8:]))
}

func writePtr(page []byte, idx int, v pgalloc.PhysAddr) {
	binary.LittleEndian.PutUint64(page[idx*8:], uint64(v))
}

func pageAllZero(page []byte) bool {
	for _, b := range page {
		if b != 0 {
			return false
		}
	}
	return true
}

// blockIndex is a tmpfs regular file's storage: either an inline embedded
// byte slice for small files, or a direct/indirect/double-indirect block
// index for larger ones. Reads and writes always go through the
// allocator's arena view (pgalloc.Arena.Bytes), never a cached Go slice, so
// block content genuinely lives in allocator-owned pages.
type blockIndex struct {
	mu sync.Mutex
	alloc *pgalloc.Allocator

	embedded []byte

	direct [nDirect]pgalloc.PhysAddr
	indirect pgalloc.PhysAddr
	hasIndirect bool
	doubleIndirect pgalloc.PhysAddr
	hasDoubleIndirect bool

	nBlocks int
	size int64
}

func newBlockIndex(alloc *pgalloc.Allocator) *blockIndex {
	return &blockIndex{alloc: alloc, embedded: make([]byte, 0)}
}

// allocZeroed allocates one page and zero-fills it. It uses physical
// address 0 as the "unallocated" sentinel in direct/indirect/
// double-indirect slots, which only works if the backing arena's base is
// above zero — a reasonable assumption here since real platforms reserve
// low physical memory. Never construct a tmpfs allocator over an arena
// based at 0.
func (b *blockIndex) allocZeroed() (pgalloc.PhysAddr, vfs.Errno) {
	p, ok := b.alloc.Alloc(tmpfsCPU, 0, 0)
	if !ok {
		return 0, vfs.ENoMem
	}
	page := b.alloc.Arena().Bytes(p, pgalloc.PageSize)
	for i := range page {
		page[i] = 0
	}
	return p, vfs.OK
}

// ensureBlock returns the physical address of logical data block i,
// allocating index pages and the data block itself on demand.
func (b *blockIndex) ensureBlock(i int) (pgalloc.PhysAddr, vfs.Errno) {
	switch {
	case i < nDirect:
		if b.direct[i] == 0 {
			p, errno := b.allocZeroed()
			if errno != vfs.OK {
				return 0, errno
			}
			b.direct[i] = p
		}
		return b.direct[i], vfs.OK

	case i < doubleIndirectBase:
		if !b.hasIndirect {
			p, errno := b.allocZeroed()
			if errno != vfs.OK {
				return 0, errno
			}
			b.indirect = p
			b.hasIndirect = true
		}
		page := b.alloc.Arena().Bytes(b.indirect, pgalloc.PageSize)
		idx := i - indirectBase
		ptr := readPtr(page, idx)
		if ptr == 0 {
			p, errno := b.allocZeroed()
			if errno != vfs.OK {
				return 0, errno
			}
			writePtr(page, idx, p)
			ptr = p
		}
		return ptr, vfs.OK

	default:
		if !b.hasDoubleIndirect {
			p, errno := b.allocZeroed()
			if errno != vfs.OK {
				return 0, errno
			}
			b.doubleIndirect = p
			b.hasDoubleIndirect = true
		}
		diPage := b.alloc.Arena().Bytes(b.doubleIndirect, pgalloc.PageSize)
		j := i - doubleIndirectBase
		outer, inner := j/pointersPerPage, j%pointersPerPage

		innerPtr := readPtr(diPage, outer)
		if innerPtr == 0 {
			p, errno := b.allocZeroed()
			if errno != vfs.OK {
				return 0, errno
			}
			writePtr(diPage, outer, p)
			innerPtr = p
		}
		innerPage := b.alloc.Arena().Bytes(innerPtr, pgalloc.PageSize)
		ptr := readPtr(innerPage, inner)
		if ptr == 0 {
			p, errno := b.allocZeroed()
			if errno != vfs.OK {
				return 0, errno
			}
			writePtr(innerPage, inner, p)
			ptr = p
		}
		return ptr, vfs.OK
	}
}

// blockPhys looks up an already-allocated data block without allocating.
func (b *blockIndex) blockPhys(i int) (pgalloc.PhysAddr, vfs.Errno) {
	switch {
	case i < nDirect:
		if b.direct[i] == 0 {
			return 0, vfs.EIO
		}
		return b.direct[i], vfs.OK
	case i < doubleIndirectBase:
		if !b.hasIndirect {
			return 0, vfs.EIO
		}
		page := b.alloc.Arena().Bytes(b.indirect, pgalloc.PageSize)
		ptr := readPtr(page, i-indirectBase)
		if ptr == 0 {
			return 0, vfs.EIO
		}
		return ptr, vfs.OK
	default:
		if !b.hasDoubleIndirect {
			return 0, vfs.EIO
		}
		diPage := b.alloc.Arena().Bytes(b.doubleIndirect, pgalloc.PageSize)
		j := i - doubleIndirectBase
		outer, inner := j/pointersPerPage, j%pointersPerPage
		innerPtr := readPtr(diPage, outer)
		if innerPtr == 0 {
			return 0, vfs.EIO
		}
		innerPage := b.alloc.Arena().Bytes(innerPtr, pgalloc.PageSize)
		ptr := readPtr(innerPage, inner)
		if ptr == 0 {
			return 0, vfs.EIO
		}
		return ptr, vfs.OK
	}
}

func (b *blockIndex) freeBlockData(i int) {
	switch {
	case i < nDirect:
		if b.direct[i] != 0 {
			b.alloc.Free(tmpfsCPU, b.direct[i], 0)
			b.direct[i] = 0
		}
	case i < doubleIndirectBase:
		if !b.hasIndirect {
			return
		}
		page := b.alloc.Arena().Bytes(b.indirect, pgalloc.PageSize)
		idx := i - indirectBase
		if p := readPtr(page, idx); p != 0 {
			b.alloc.Free(tmpfsCPU, p, 0)
			writePtr(page, idx, 0)
		}
	default:
		if !b.hasDoubleIndirect {
			return
		}
		diPage := b.alloc.Arena().Bytes(b.doubleIndirect, pgalloc.PageSize)
		j := i - doubleIndirectBase
		outer, inner := j/pointersPerPage, j%pointersPerPage
		innerPtr := readPtr(diPage, outer)
		if innerPtr == 0 {
			return
		}
		innerPage := b.alloc.Arena().Bytes(innerPtr, pgalloc.PageSize)
		if p := readPtr(innerPage, inner); p != 0 {
			b.alloc.Free(tmpfsCPU, p, 0)
			writePtr(innerPage, inner, 0)
		}
	}
}

// shrinkTo frees data blocks from the tail down to newBlocks, then frees
// now-empty index pages bottom-up.
func (b *blockIndex) shrinkTo(newBlocks int) {
	for i := b.nBlocks - 1; i >= newBlocks; i-- {
		b.freeBlockData(i)
	}
	b.nBlocks = newBlocks

	if b.hasDoubleIndirect {
		diPage := b.alloc.Arena().Bytes(b.doubleIndirect, pgalloc.PageSize)
		for outer := 0; outer < pointersPerPage; outer++ {
			innerPtr := readPtr(diPage, outer)
			if innerPtr == 0 {
				continue
			}
			innerPage := b.alloc.Arena().Bytes(innerPtr, pgalloc.PageSize)
			if pageAllZero(innerPage) {
				b.alloc.Free(tmpfsCPU, innerPtr, 0)
				writePtr(diPage, outer, 0)
			}
		}
		if pageAllZero(diPage) {
			b.alloc.Free(tmpfsCPU, b.doubleIndirect, 0)
			b.doubleIndirect = 0
			b.hasDoubleIndirect = false
		}
	}

	if b.hasIndirect {
		page := b.alloc.Arena().Bytes(b.indirect, pgalloc.PageSize)
		if pageAllZero(page) {
			b.alloc.Free(tmpfsCPU, b.indirect, 0)
			b.indirect = 0
			b.hasIndirect = false
		}
	}
}

// HasIndirect and HasDoubleIndirect expose index-page presence for tests
// asserting the block-index layer-boundary behavior on truncate.
func (b *blockIndex) HasIndirect() bool { return b.hasIndirect }
func (b *blockIndex) HasDoubleIndirect() bool { return b.hasDoubleIndirect }
func (b *blockIndex) NBlocks() int { b.mu.Lock(); defer b.mu.Unlock(); return b.nBlocks }

// Truncate resizes the file to newSize, migrating between embedded and
// block-indexed storage as needed.
func (b *blockIndex) Truncate(newSize int64) vfs.Errno {
	b.mu.Lock()
	defer b.mu.Unlock()
	if newSize < 0 {
		return vfs.EInval
	}

	if b.embedded != nil {
		if newSize <= embeddedLen {
			grown := make([]byte, newSize)
			copy(grown, b.embedded)
			b.embedded = grown
			b.size = newSize
			return vfs.OK
		}
		old := b.embedded
		b.embedded = nil
		newBlocks := blocksFor(newSize)
		for i := 0; i < newBlocks; i++ {
			if _, errno := b.ensureBlock(i); errno != vfs.OK {
				return errno
			}
		}
		blk0, errno := b.blockPhys(0)
		if errno != vfs.OK {
			return errno
		}
		copy(b.alloc.Arena().Bytes(blk0, pgalloc.PageSize), old)
		b.nBlocks = newBlocks
		b.size = newSize
		return vfs.OK
	}

	newBlocks := blocksFor(newSize)
	switch {
	case newBlocks > b.nBlocks:
		for i := b.nBlocks; i < newBlocks; i++ {
			if _, errno := b.ensureBlock(i); errno != vfs.OK {
				return errno
			}
		}
		b.nBlocks = newBlocks
	case newBlocks < b.nBlocks:
		b.shrinkTo(newBlocks)
	}
	b.size = newSize

	if newSize <= embeddedLen && b.nBlocks == 0 {
		b.embedded = make([]byte, newSize)
	}
	return vfs.OK
}

func (b *blockIndex) ReadAt(dst []byte, off int64) (int, vfs.Errno) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if off < 0 {
		return 0, vfs.EInval
	}
	if off >= b.size || len(dst) == 0 {
		return 0, vfs.OK
	}
	n := int64(len(dst))
	if off+n > b.size {
		n = b.size - off
	}
	if b.embedded != nil {
		copy(dst[:n], b.embedded[off:off+n])
		return int(n), vfs.OK
	}

	var read int64
	for read < n {
		blkIdx := int((off + read) / pgalloc.PageSize)
		blkOff := (off + read) % pgalloc.PageSize
		phys, errno := b.blockPhys(blkIdx)
		if errno != vfs.OK {
			return int(read), errno
		}
		page := b.alloc.Arena().Bytes(phys, pgalloc.PageSize)
		chunk := int64(pgalloc.PageSize) - blkOff
		if chunk > n-read {
			chunk = n - read
		}
		copy(dst[read:read+chunk], page[blkOff:blkOff+chunk])
		read += chunk
	}
	return int(read), vfs.OK
}

// WriteAt requires off+len(src) <= current size: growth only happens
// through Truncate, resolved against
// migrate_to_allocated_blocks — no sparse-write fast path).
func (b *blockIndex) WriteAt(src []byte, off int64) (int, vfs.Errno) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if off < 0 {
		return 0, vfs.EInval
	}
	n := int64(len(src))
	if off+n > b.size {
		return 0, vfs.EInval
	}
	if n == 0 {
		return 0, vfs.OK
	}
	if b.embedded != nil {
		copy(b.embedded[off:off+n], src)
		return int(n), vfs.OK
	}

	var written int64
	for written < n {
		blkIdx := int((off + written) / pgalloc.PageSize)
		blkOff := (off + written) % pgalloc.PageSize
		phys, errno := b.blockPhys(blkIdx)
		if errno != vfs.OK {
			return int(written), errno
		}
		page := b.alloc.Arena().Bytes(phys, pgalloc.PageSize)
		chunk := int64(pgalloc.PageSize) - blkOff
		if chunk > n-written {
			chunk = n - written
		}
		copy(page[blkOff:blkOff+chunk], src[written:written+chunk])
		written += chunk
	}
	return int(written), vfs.OK
}

func (b *blockIndex) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// free releases every block and index page still held, called when the
// file's last link and last reference both drop.
func (b *blockIndex) free() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.embedded != nil {
		return
	}
	b.shrinkTo(0)
}
