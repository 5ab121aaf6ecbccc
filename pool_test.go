package talloc

import (
	"testing"

	"github.com/google/uuid"
)

type recordingHook struct {
	marks     []string
	clears    []string
	exhausted []string
}

func (h *recordingHook) OnMark(poolID uuid.UUID, label string, n int, addr uint32, ok bool) {
	h.marks = append(h.marks, label)
}

func (h *recordingHook) OnClear(poolID uuid.UUID, label string, addr uint32, n int) {
	h.clears = append(h.clears, label)
}

func (h *recordingHook) OnExhausted(poolID uuid.UUID, label string, class int) {
	h.exhausted = append(h.exhausted, label)
}

func TestPoolFiresMarkAndClearHooks(t *testing.T) {
	hook := &recordingHook{}
	p, err := NewPool(64, "widgets", hook)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	ok, addr := p.Mark(8)
	if !ok {
		t.Fatalf("Mark(8) failed on a fresh pool")
	}
	if len(hook.marks) != 1 || hook.marks[0] != "widgets" {
		t.Fatalf("hook.marks = %v, want one entry for %q", hook.marks, "widgets")
	}

	p.Clear(addr, 8)
	if len(hook.clears) != 1 || hook.clears[0] != "widgets" {
		t.Fatalf("hook.clears = %v, want one entry for %q", hook.clears, "widgets")
	}
}

func TestPoolFiresExhaustedHookOnFailure(t *testing.T) {
	hook := &recordingHook{}
	p, err := NewPool(64, "tiny", hook)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	for {
		if ok, _ := p.Mark(32); !ok {
			break
		}
	}
	if len(hook.exhausted) == 0 {
		t.Fatalf("hook.exhausted is empty, want at least one entry after exhausting the pool")
	}
}

func TestPoolOccupiedTracksLiveBlocks(t *testing.T) {
	p, err := NewPool(64, "occupied")
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if got := p.Occupied(); got != 0 {
		t.Fatalf("Occupied() on a fresh pool = %d, want 0", got)
	}

	_, addr := p.Mark(16)
	if got := p.Occupied(); got != 16 {
		t.Fatalf("Occupied() after Mark(16) = %d, want 16", got)
	}

	p.Clear(addr, 16)
	if got := p.Occupied(); got != 0 {
		t.Fatalf("Occupied() after Clear = %d, want 0", got)
	}
}

func TestPoolLabelIsNormalized(t *testing.T) {
	p, err := NewPool(64, "café")
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if want := "café"; p.Label != want {
		t.Fatalf("Label = %q, want %q", p.Label, want)
	}
}
