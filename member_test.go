package talloc

import "testing"

func newMember(t *testing.T, minBlocks uint64) *Member {
	t.Helper()
	size, err := RequiredBufferSize(minBlocks)
	if err != nil {
		t.Fatalf("RequiredBufferSize(%d) error: %v", minBlocks, err)
	}
	m := &Member{}
	if err := m.Init(minBlocks, make([]uint32, size/4)); err != nil {
		t.Fatalf("Init(%d) error: %v", minBlocks, err)
	}
	return m
}

// TestMemberFillsBothLeavesThenExhausts covers a two-leaf Member (64
// blocks) filled leaf by leaf with whole-leaf (class 5) allocations: the
// third attempt must fail once both leaves are full.
func TestMemberFillsBothLeavesThenExhausts(t *testing.T) {
	m := newMember(t, 64)

	ok, addr := m.Mark(32)
	if !ok || addr != 0 {
		t.Fatalf("first Mark(32) = (%v,%d), want (true,0)", ok, addr)
	}
	ok, addr = m.Mark(32)
	if !ok || addr != 32 {
		t.Fatalf("second Mark(32) = (%v,%d), want (true,32)", ok, addr)
	}
	if ok, _ := m.Mark(32); ok {
		t.Fatalf("third Mark(32) succeeded on an exhausted Member")
	}
}

// TestMemberAllocationsAreNaturallyAligned checks that every size class
// returns an address aligned to its own width, across repeated marks.
func TestMemberAllocationsAreNaturallyAligned(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 8, 9, 16, 17, 32} {
		m := newMember(t, 1024)
		width := uint32(1) << uint(ceilLog2Small(n))
		for i := 0; i < 4; i++ {
			ok, addr := m.Mark(n)
			if !ok {
				t.Fatalf("Mark(%d) #%d failed unexpectedly", n, i)
			}
			if addr%width != 0 {
				t.Fatalf("Mark(%d) = addr %d, not aligned to width %d", n, addr, width)
			}
		}
	}
}

// TestMemberSplitAndRejoin marks a whole leaf, clears it, then marks two
// smaller runs that must both land inside the freed leaf -- the summary
// tree state set by the whole-leaf mark must be fully undone by Clear.
func TestMemberSplitAndRejoin(t *testing.T) {
	m := newMember(t, 64)

	ok, addr := m.Mark(32)
	if !ok || addr != 0 {
		t.Fatalf("Mark(32) = (%v,%d), want (true,0)", ok, addr)
	}
	m.Clear(addr, 32)

	ok, a1 := m.Mark(8)
	if !ok || a1 != 0 {
		t.Fatalf("Mark(8) after Clear = (%v,%d), want (true,0)", ok, a1)
	}
	ok, a2 := m.Mark(8)
	if !ok || a2 != 8 {
		t.Fatalf("second Mark(8) = (%v,%d), want (true,8)", ok, a2)
	}

	// The other leaf must still be entirely free.
	ok, a3 := m.Mark(32)
	if !ok || a3 != 32 {
		t.Fatalf("Mark(32) on second leaf = (%v,%d), want (true,32)", ok, a3)
	}
}

// TestMemberRoundsUnalignedWidthsUpToTheirClass checks that a request for
// a non-power-of-two count of blocks is rounded up to its enclosing size
// class and still returns non-overlapping, class-aligned addresses.
func TestMemberRoundsUnalignedWidthsUpToTheirClass(t *testing.T) {
	m := newMember(t, 64)

	ok, a1 := m.Mark(3) // rounds up to class 2, width 4
	if !ok || a1 != 0 {
		t.Fatalf("Mark(3) = (%v,%d), want (true,0)", ok, a1)
	}
	ok, a2 := m.Mark(3)
	if !ok || a2 != 4 {
		t.Fatalf("second Mark(3) = (%v,%d), want (true,4)", ok, a2)
	}
	if a2-a1 < 4 {
		t.Fatalf("Mark(3) allocations overlap: %d then %d", a1, a2)
	}
}

// TestMemberClearRestoresFullCapacity stress-tests a larger Member by
// marking blocks in cycling widths until the first Mark fails, clearing
// every run it got, and checking the first leaf is markable whole again.
func TestMemberClearRestoresFullCapacity(t *testing.T) {
	m := newMember(t, 1024)

	type alloc struct {
		addr uint32
		n    int
	}
	var allocs []alloc
	widths := []int{1, 2, 4, 8, 16, 32}
	wi := 0
	for {
		n := widths[wi%len(widths)]
		wi++
		ok, addr := m.Mark(n)
		if !ok {
			break
		}
		allocs = append(allocs, alloc{addr, n})
	}
	if len(allocs) == 0 {
		t.Fatalf("no allocations succeeded against a fresh 1024-block Member")
	}

	for _, a := range allocs {
		m.Clear(a.addr, a.n)
	}

	ok, addr := m.Mark(32)
	if !ok || addr != 0 {
		t.Fatalf("Mark(32) after clearing everything = (%v,%d), want (true,0)", ok, addr)
	}
}
