package talloc

import "github.com/pkg/errors"

// geometry.go sizes the leaf bitmap and the six summary trees for a
// requested capacity: tree height, top-branch count, leaf count, per-row
// offsets inside one tree, and the total buffer size. Leaves first, then
// six trees -- see the package-level buffer layout documented on Member.

const (
	// lowerBlockFloor guarantees treeHeight > 0 and numTopBranches >= 2.
	lowerBlockFloor = numBranches * 2 // 64

	// maxRepresentableBlocks is the largest minBlocks accepted: the largest
	// multiple of 32 below 2^32. Mark/Clear hand out addresses as uint32, and
	// a request above 2^32 would round up to a capacity whose addresses
	// silently wrap. An accepted request may still round up to an effective
	// capacity of exactly 2^32 blocks, whose addresses all fit in a uint32.
	// See the Open Question in DESIGN.md.
	maxRepresentableBlocks = (uint64(1) << 32) - numBranches

	// maxTreeHeight bounds the row_offsets table. minBlocks is capped at
	// maxRepresentableBlocks, whose treeHeight is 6; 7 leaves headroom.
	maxTreeHeight = 7
)

func clampMinBlocks(minBlocks uint64) uint64 {
	if minBlocks < lowerBlockFloor {
		return lowerBlockFloor
	}
	return minBlocks
}

// treeHeight returns h, the number of interior summary rows above the
// shared leaves, chosen as the smallest h with 32^h * 32 >= minBlocks.
func treeHeight(minBlocks uint64) int {
	h := 1
	capacity := uint64(numBranches)
	for i := 0; i < maxTreeHeight; i++ {
		if minBlocks > capacity {
			h++
		}
		capacity <<= numBranchesLog2
	}
	return h - 1
}

// numTopBranches returns t in [2,32], the real child count of the root of
// every summary tree.
func numTopBranches(minBlocks uint64, h int) int {
	topBranchBlocks := uint64(1) << uint(numBranchesLog2*h)
	t := minBlocks / topBranchBlocks
	if minBlocks%topBranchBlocks != 0 {
		t++
	}
	return int(t)
}

// numLeaves returns L, the number of shared leaf words, always rounded up
// so physical capacity 32*L >= minBlocks.
func numLeaves(t, h int) uint64 {
	return uint64(t) << uint(numBranchesLog2*(h-1))
}

// treeStride returns the interior-node count of a single summary tree.
func treeStride(t, h int) uint64 {
	stride := uint64(1) // top node
	rowWidth := uint64(t)
	for row := 1; row < h; row++ {
		stride += rowWidth
		rowWidth <<= numBranchesLog2
	}
	return stride
}

// rowOffsets returns, for each row 0..h-1, that row's starting index inside
// one tree's region of the buffer.
func rowOffsets(t, h int) [maxTreeHeight]uint64 {
	var offsets [maxTreeHeight]uint64
	offset := uint64(1)
	rowWidth := uint64(t)
	for row := 1; row < h; row++ {
		offsets[row] = offset
		offset += rowWidth
		rowWidth <<= numBranchesLog2
	}
	return offsets
}

// RequiredBufferSize returns the number of bytes a caller must allocate to
// back Init(minBlocks, buf). minBlocks is first clamped to a floor of 64.
// It errors if minBlocks exceeds the capacity representable by uint32
// block addresses (see the Open Question in DESIGN.md) rather than
// silently truncating it.
func RequiredBufferSize(minBlocks uint64) (uint32, error) {
	minBlocks = clampMinBlocks(minBlocks)
	if minBlocks > maxRepresentableBlocks {
		return 0, errors.Errorf(
			"talloc: minBlocks %d exceeds the largest capacity representable by 32-bit block addresses (%d)",
			minBlocks, maxRepresentableBlocks)
	}
	h := treeHeight(minBlocks)
	t := numTopBranches(minBlocks, h)
	l := numLeaves(t, h)
	stride := treeStride(t, h)
	words := l + uint64(numTrees)*stride
	return uint32(words * 4), nil
}
