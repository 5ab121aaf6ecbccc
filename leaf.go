package talloc

// leaf.go inspects a single 32-bit leaf word: where does a run of the
// requested width fit, and which size classes still have room in this leaf
// at all. Everything here is a pure function of one word -- the same shape
// as the teacher's bitfield256, just narrower and specialized per size
// class instead of a flat presence test.

// leafOffset returns the lowest bit offset at which 2^s contiguous zero
// bits begin at a 2^s-aligned position in word. The caller must already
// know such a slot exists.
//
// Classes 1-3 fold adjacent bits with an OR cascade so every surviving
// candidate bit is 1 iff any bit in its aligned group is set, forcing every
// non-candidate position to 1 in the process; firstZero then picks out the
// one remaining aligned position that is still clear.
func leafOffset(word uint32, s int) int {
	switch s {
	case 5:
		return 0
	case 4:
		if word&0xFFFF == 0 {
			return 0
		}
		return 16
	case 3:
		x := word
		x = x>>1 | x | 0xAAAAAAAA
		x = x>>2 | x | 0xEEEEEEEE
		x = x>>4 | x | 0xFEFEFEFE
		return firstZero(x)
	case 2:
		x := word
		x = x>>1 | x | 0xAAAAAAAA
		x = x>>2 | x | 0xEEEEEEEE
		return firstZero(x)
	case 1:
		x := word>>1 | word | 0xAAAAAAAA
		return firstZero(x)
	case 0:
		return firstZero(word)
	default:
		panic("talloc: leafOffset: invalid size class")
	}
}

// leafHasSpaceEnd returns k in [0,6]: size classes 0..k-1 still have at
// least one free, aligned slot in this leaf; classes k..5 do not. The
// availability set is always a prefix interval [0,k) because a free run of
// width 2^s implies a free run of every narrower width, which is what lets
// Mark/Clear update only the trees whose bit for this leaf actually flips.
func leafHasSpaceEnd(word uint32) int {
	free := ^word
	n := 0
	if free != 0 {
		n++
	}
	if word == 0 {
		n++
	}
	foldMasks := [4]uint32{0x55555555, 0x11111111, 0x01010101, 0x00010001}
	for i, mask := range foldMasks {
		free = (free >> uint(1<<uint(i))) & free & mask
		if free != 0 {
			n++
		}
	}
	return n
}
