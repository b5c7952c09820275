// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pgalloc

import "testing"

func TestArenaBytesRoundTrip(t *testing.T) {
	a, err := NewArena(0x1000, 4)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	defer a.Close()

	if got := a.Len(); got != 4*PageSize {
		t.Fatalf("Len() = %d, want %d", got, 4*PageSize)
	}

	b := a.Bytes(a.Base(), 8)
	copy(b, []byte("deadbeef"))

	b2 := a.Bytes(a.Base(), 8)
	if string(b2) != "deadbeef" {
		t.Fatalf("round trip through Bytes() = %q, want %q", b2, "deadbeef")
	}
}

func TestArenaBytesOutOfRangePanics(t *testing.T) {
	a, err := NewArena(0x2000, 1)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	defer a.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range Bytes() access")
		}
	}()
	a.Bytes(a.Base()+PhysAddr(PageSize), 1)
}
