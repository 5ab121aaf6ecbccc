package talloc

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Pool owns a Member's backing buffer and gives it a stable identity and
// optional telemetry. Like Member, Pool adds no locking of its own -- it
// is single-threaded by contract; Registry is the layer that adds
// concurrency safety on top.
type Pool struct {
	ID    uuid.UUID
	Label string

	member Member
	hooks  []Hook
}

// NewPool allocates a buffer sized for minBlocks, initializes a Member over
// it, and returns a Pool wrapping it. Label is normalized (see
// normalizeLabel) before being stored.
func NewPool(minBlocks uint64, label string, hooks ...Hook) (*Pool, error) {
	size, err := RequiredBufferSize(minBlocks)
	if err != nil {
		return nil, errors.Wrap(err, "talloc: NewPool")
	}

	p := &Pool{
		ID:    uuid.New(),
		Label: normalizeLabel(label),
		hooks: hooks,
	}

	buf := make([]uint32, size/4)
	if err := p.member.Init(minBlocks, buf); err != nil {
		return nil, errors.Wrap(err, "talloc: NewPool")
	}
	return p, nil
}

// NumBlocks returns the pool's effective capacity.
func (p *Pool) NumBlocks() uint64 {
	return p.member.NumBlocks()
}

// Mark reserves a run of n blocks, firing OnMark (and OnExhausted on
// failure) on every attached hook.
func (p *Pool) Mark(n int) (ok bool, addr uint32) {
	ok, addr = p.member.Mark(n)
	for _, h := range p.hooks {
		h.OnMark(p.ID, p.Label, n, addr, ok)
		if !ok {
			h.OnExhausted(p.ID, p.Label, ceilLog2Small(n))
		}
	}
	return ok, addr
}

// Clear releases the run returned by a previous Mark(n), firing OnClear on
// every attached hook.
func (p *Pool) Clear(addr uint32, n int) {
	p.member.Clear(addr, n)
	for _, h := range p.hooks {
		h.OnClear(p.ID, p.Label, addr, n)
	}
}

// Occupied returns the number of blocks currently marked. It is a
// diagnostic helper -- nothing in the allocation path consults it.
func (p *Pool) Occupied() uint64 {
	var n uint64
	for i := uint64(0); i < p.member.numLeaves; i++ {
		n += uint64(popcount(p.member.buf[i]))
	}
	return n
}

func (p *Pool) String() string {
	return p.Label + " (" + p.ID.String() + ")"
}
