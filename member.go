package talloc

import "github.com/pkg/errors"

// Member is the allocation index: a shared leaf bitmap plus six parallel
// 32-ary summary trees, one per size class 0..5 ("2^s blocks"), packed into
// a single caller-supplied buffer:
//
//	[ L leaf words ][ tree_stride words for class 0 ]...[ tree_stride words for class 5 ]
//
// Member is single-threaded and non-suspending by contract: no operation
// yields, awaits, performs I/O, or allocates after Init. A Member must be
// externally synchronized if shared across goroutines; it takes no locks of
// its own and the buffer it wraps must be exclusively owned by it for its
// lifetime.
//
// Precondition violations (out-of-range numBlocks, a bad addr in Clear, a
// mismatched size between Mark and the matching Clear, or calling any
// method before a successful Init) are programmer errors with undefined
// behavior -- the zero value of Member is not ready to use. Builds with the
// talloc_debug build tag panic on an out-of-range numBlocks and on a Clear
// addr beyond NumBlocks; a mismatched size, a double Clear, or use before
// Init is not detected even there.
type Member struct {
	buf            []uint32
	numLeaves      uint64
	treeStride     uint64
	rowOffsets     [maxTreeHeight]uint64
	numTopBranches int
	treeHeight     int
}

// Init prepares m to manage at least minBlocks blocks, using buf as
// backing storage. buf is zeroed and then owned exclusively by m until the
// next Init call; its length must be at least
// RequiredBufferSize(minBlocks)/4 words.
func (m *Member) Init(minBlocks uint64, buf []uint32) error {
	minBlocks = clampMinBlocks(minBlocks)
	if minBlocks > maxRepresentableBlocks {
		return errors.Errorf(
			"talloc: Init: minBlocks %d exceeds the largest capacity representable by 32-bit block addresses (%d)",
			minBlocks, maxRepresentableBlocks)
	}

	h := treeHeight(minBlocks)
	t := numTopBranches(minBlocks, h)
	l := numLeaves(t, h)
	stride := treeStride(t, h)
	need := l + uint64(numTrees)*stride
	if uint64(len(buf)) < need {
		return errors.Errorf("talloc: Init: buffer too small: need %d words, got %d", need, len(buf))
	}

	for i := range buf {
		buf[i] = 0
	}

	m.buf = buf[:need]
	m.numLeaves = l
	m.treeStride = stride
	m.numTopBranches = t
	m.treeHeight = h
	m.rowOffsets = rowOffsets(t, h)
	m.initTopSentinels()
	return nil
}

// initTopSentinels pins bits numTopBranches..31 of every tree's top node to
// 1, marking the nonexistent trailing branches as permanently closed so
// descent never picks them.
func (m *Member) initTopSentinels() {
	var sentinel uint32
	if m.numTopBranches < numBranches {
		sentinel = fullWord << uint(m.numTopBranches)
	}
	for s := 0; s < numTrees; s++ {
		m.buf[m.treeBase(s)] = sentinel
	}
}

// treeBase returns the index into m.buf of the top node of the summary
// tree for size class s.
func (m *Member) treeBase(s int) uint64 {
	return m.numLeaves + uint64(s)*m.treeStride
}

// NumBlocks returns the effective capacity, which may exceed the minBlocks
// passed to Init due to rounding up to the tree's grain.
func (m *Member) NumBlocks() uint64 {
	return m.numLeaves << numBranchesLog2
}

// leafWithSpaceIndex descends the summary tree for size class s via
// top-down bit probing and returns the index of a leaf with room for that
// class. The top node of that tree must have at least one zero bit.
func (m *Member) leafWithSpaceIndex(s int) uint64 {
	base := m.treeBase(s)
	nodeI := uint64(firstZero(m.buf[base+m.rowOffsets[0]]))
	for row := 1; row < m.treeHeight; row++ {
		node := m.buf[base+m.rowOffsets[row]+nodeI]
		branchI := uint64(firstZero(node))
		nodeI = nodeI<<numBranchesLog2 | branchI
	}
	return nodeI
}

// setLeafFullInTree bubbles a "now full" bit upward from leaf leafI in the
// summary tree for class s, stopping at the first node whose closed status
// did not flip.
func (m *Member) setLeafFullInTree(s int, leafI uint64) {
	base := m.treeBase(s)
	branchI := leafI & branchIndexMask
	nodeI := leafI >> numBranchesLog2
	for row := m.treeHeight - 1; ; row-- {
		idx := base + m.rowOffsets[row] + nodeI
		m.buf[idx] |= 1 << branchI
		stillHasSpace := m.buf[idx] != fullWord
		if row == 0 || stillHasSpace {
			return
		}
		branchI = nodeI & branchIndexMask
		nodeI >>= numBranchesLog2
	}
}

// clearLeafSpaceInTree bubbles a "now has space" bit upward from leaf
// leafI in the summary tree for class s, stopping at the first node that
// already had space before this update.
func (m *Member) clearLeafSpaceInTree(s int, leafI uint64) {
	base := m.treeBase(s)
	branchI := leafI & branchIndexMask
	nodeI := leafI >> numBranchesLog2
	for row := m.treeHeight - 1; ; row-- {
		idx := base + m.rowOffsets[row] + nodeI
		hadSpace := m.buf[idx] != fullWord
		m.buf[idx] &^= 1 << branchI
		if row == 0 || hadSpace {
			return
		}
		branchI = nodeI & branchIndexMask
		nodeI >>= numBranchesLog2
	}
}

// Mark reserves a contiguous, naturally-aligned run of numBlocks blocks
// (1..MaxMarkBlocks) and returns its starting address. ok is false, with
// no state change, if the allocator is exhausted for that size class.
func (m *Member) Mark(numBlocks int) (ok bool, addr uint32) {
	assertf(numBlocks >= 1 && numBlocks <= MaxMarkBlocks,
		"talloc: Mark: numBlocks %d out of range [1,%d]", numBlocks, MaxMarkBlocks)

	s := ceilLog2Small(numBlocks)
	base := m.treeBase(s)
	if m.buf[base] == fullWord {
		return false, 0
	}

	leafI := m.leafWithSpaceIndex(s)
	leaf := m.buf[leafI]
	off := leafOffset(leaf, s)
	leaf |= widthMask(s, off)
	m.buf[leafI] = leaf
	addr = uint32(leafI<<numBranchesLog2) | uint32(off)

	k := leafHasSpaceEnd(leaf)
	for i := k; i < numTrees; i++ {
		m.setLeafFullInTree(i, leafI)
	}
	return true, addr
}

// Clear releases the run returned by a previous Mark(numBlocks) call at
// addr. numBlocks must equal the value passed to that Mark; clearing an
// address with the wrong width, double-clearing, or clearing an address
// that was never marked is undefined behavior.
func (m *Member) Clear(addr uint32, numBlocks int) {
	assertf(numBlocks >= 1 && numBlocks <= MaxMarkBlocks,
		"talloc: Clear: numBlocks %d out of range [1,%d]", numBlocks, MaxMarkBlocks)
	assertf(uint64(addr) < m.NumBlocks(),
		"talloc: Clear: addr %d out of range [0,%d)", addr, m.NumBlocks())

	s := ceilLog2Small(numBlocks)
	leafI := uint64(addr) >> numBranchesLog2
	off := int(addr & branchIndexMask)
	leaf := m.buf[leafI] &^ widthMask(s, off)
	m.buf[leafI] = leaf

	k := leafHasSpaceEnd(leaf)
	for i := 0; i < k; i++ {
		m.clearLeafSpaceInTree(i, leafI)
	}
}
