package talloc

import "math/bits"

// Tree/leaf geometry is fixed at 32-way branching: a leaf is a uint32 of 32
// blocks, and every summary tree node (besides the top node, which may have
// as few as 2 real branches) has exactly 32 children.
const (
	numBranchesLog2 = 5
	numBranches     = 1 << numBranchesLog2 // 32
	branchIndexMask = numBranches - 1
	numTrees        = numBranchesLog2 + 1 // one tree per size class 0..5

	// MaxMarkBlocks is the largest run Mark can hand out in one call.
	MaxMarkBlocks = numBranches

	fullWord = ^uint32(0)
)

// ctz returns the index of the lowest set bit of x. The result is
// unspecified for x == 0; callers only call it when a set bit is known to
// exist.
func ctz(x uint32) int {
	return bits.TrailingZeros32(x)
}

// firstZero returns the index of the lowest clear bit of x. Like ctz, it is
// only ever called when a zero bit is known to exist (tree descent only
// probes nodes that are not all-ones).
func firstZero(x uint32) int {
	return ctz(^x)
}

func popcount(x uint32) int {
	return bits.OnesCount32(x)
}

// widthMask returns a run of 2^s one-bits starting at offset, i.e. the bit
// pattern a Mark/Clear of size class s at that offset touches in a leaf
// word. s == 5 (a whole leaf) is special-cased to the all-ones word.
func widthMask(s, offset int) uint32 {
	if s == 5 {
		return fullWord
	}
	width := uint32(1) << uint(s)
	return ((uint32(1) << width) - 1) << uint(offset)
}

// ceilLog2Small maps a block count in [1,32] to the smallest size class s
// with 2^s >= n.
func ceilLog2Small(n int) int {
	s := 0
	for _, threshold := range [5]int{1, 2, 4, 8, 16} {
		if n > threshold {
			s++
		}
	}
	return s
}
