package object

import (
	"sync"

	"github.com/go-foundations/swan/internal/task"
)

// Monad is the associative combine a reduction object folds concurrent
// views through. Identity must be a true identity for Reduce:
// Reduce(Identity(), v) == v.
type Monad[T any] interface {
	Identity() T
	Reduce(a, b T) T
	// Cheap reports whether Identity/Reduce are cheap enough to merge
	// in-place on the releasing thread (true), or expensive enough that a
	// real implementation would want to schedule the merge as parallel work
	// instead (false). Every worker gets its own privatized view regardless
	// of Cheap — see "Reduction merge strategy" in DESIGN.md for why this
	// runtime merges views sequentially either way rather than scheduling a
	// parallel merge tree for the expensive case.
	Cheap() bool
}

// reductionView is one worker's privatized accumulator. A worker may reduce
// into the same view across many tasks before it is merged back into the
// object, which is what makes reduction mode scale: no cross-worker
// contention until merge time.
type reductionView[T any] struct {
	mu      sync.Mutex
	val     T
	touched bool
}

func (v *reductionView[T]) get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val
}

func (v *reductionView[T]) set(nv T) {
	v.mu.Lock()
	v.val = nv
	v.touched = true
	v.mu.Unlock()
}

// reductionState holds a reduction object's monad and its per-worker views.
// Merging is lazy: views fold into the object's single payload one at a
// time, on whichever goroutine next needs the merged value (a
// non-reduction Issue, or an explicit Value call), rather than through a
// parallel merge tree. This trades a small amount of merge parallelism,
// bounded by the worker count and already small, for an implementation
// with no separate merge-scheduling machinery to get right.
type reductionState[T any] struct {
	monad Monad[T]

	mu    sync.Mutex
	views map[int]*reductionView[T]

	mergePending bool
}

func newReductionState[T any](m Monad[T]) *reductionState[T] {
	return &reductionState[T]{monad: m, views: make(map[int]*reductionView[T])}
}

// viewFor returns worker id's privatized view, creating it (seeded with the
// monad's identity) on first use. Every worker gets its own view regardless
// of Monad.Cheap: each worker that touches a reduction version owns a
// private view, unconditionally. Cheap only governs how a real
// implementation would schedule the merge, never whether views are
// privatized in the first place.
func (r *reductionState[T]) viewFor(id int) *reductionView[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		v = &reductionView[T]{val: r.monad.Identity()}
		r.views[id] = v
	}
	return v
}

// mergeReductionLocked folds every touched view into o.cur.payload and
// clears them. Called with o.mu already held, before any non-reduction
// Issue and from Peek/Value, so ordinary accesses always observe the fully
// merged value.
func (o *Object[T]) mergeReductionLocked() {
	if o.red == nil || !o.red.mergePending {
		return
	}
	o.red.mu.Lock()
	defer o.red.mu.Unlock()

	acc := o.cur.payload
	for _, v := range o.red.views {
		v.mu.Lock()
		if v.touched {
			acc = o.red.monad.Reduce(acc, v.val)
			v.val = o.red.monad.Identity()
			v.touched = false
		}
		v.mu.Unlock()
	}
	o.cur.payload = acc
	o.red.mergePending = false
}

// NewReduction constructs an Object[T] in reduction mode: every access a
// spawned task declares with Reduction(obj) folds into a per-worker view
// instead of serializing against other reducers, merging lazily (see
// mergeReductionLocked) the next time the object is accessed some other way.
func NewReduction[T any](monad Monad[T], opts ...Option) *Object[T] {
	o := New(monad.Identity(), opts...)
	o.red = newReductionState[T](monad)
	return o
}

// Value forces any pending per-worker views to merge and returns the
// object's combined payload. Equivalent to Peek on a non-reduction object,
// spelled out separately because "read the final answer" is reduction
// mode's characteristic last step.
func (o *Object[T]) Value() T {
	return o.Peek()
}
