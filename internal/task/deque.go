package task

import "sync"

// Deque is one worker's spawn deque: the owner pushes and pops at the
// bottom (LIFO, cache-friendly reuse of the frame it just created), while
// thieves steal from the top (FIFO, oldest work first, which is also the
// frame most likely to have enough work left under it to be worth
// stealing).
//
// Call never touches the deque at all: it always runs inline, so this
// stores one *Frame per deque entry and tracks Call's inline nesting
// through Frame.Parent rather than a separate call-stack-of-frames type.
type Deque struct {
	mu    sync.Mutex
	items []*Frame // items[0] = oldest/top (thief side); items[len-1] = newest/bottom (owner side)
}

// NewDeque returns an empty deque.
func NewDeque() *Deque { return &Deque{} }

// PushSpawn appends fr as the new bottom entry. Owner-only.
func (d *Deque) PushSpawn(fr *Frame) {
	d.mu.Lock()
	d.items = append(d.items, fr)
	d.mu.Unlock()
}

// TryPop removes and returns the bottom (newest) entry. Owner-only; it
// takes the deque lock to synchronize against a concurrent Steal emptying
// the same slot.
func (d *Deque) TryPop() (*Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	fr := d.items[n-1]
	d.items = d.items[:n-1]
	return fr, true
}

// Steal removes and returns the top (oldest) entry. Thief-side; always
// locks, since the owner may be pushing/popping concurrently.
func (d *Deque) Steal() (*Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, false
	}
	fr := d.items[0]
	d.items = d.items[1:]
	return fr, true
}
