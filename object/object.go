// Package object implements a versioned object dataflow engine: one
// mutable cell of type T per Object[T], access-moded by
// in/out/inout/cinout/reduction, dispatched through a generation/waiters
// protocol so that independent tasks can run in parallel while dependent
// ones serialize in program order. Each object is realized as a single
// mutex-guarded version record, serializing issue and release one at a
// time rather than through lock-free ticket machinery.
package object

import (
	"sync"

	"github.com/go-foundations/swan/internal/diag"
	"github.com/go-foundations/swan/internal/task"
)

// version is one generation of an Object[T]'s payload.
type version[T any] struct {
	payload T
	gen     uint64
	writers int
	readers int
	waiters []waiter
}

type waiter struct {
	fr   *task.Frame
	mode task.AccessMode
}

// Claim is the token a task receives from Object.Issue (via
// task.IssueAll), carried on its Frame and retrieved by Access so the task
// body can read/write the exact version/generation it was granted, which
// may not be the object's current version if renaming has since occurred.
type Claim[T any] struct {
	obj  *Object[T]
	ver  *version[T]
	view *reductionView[T] // non-nil only for ModeReduction claims
	mode task.AccessMode
}

// Get reads the claimed version's payload.
func (c *Claim[T]) Get() T {
	if c.view != nil {
		return c.view.get()
	}
	c.obj.mu.Lock()
	defer c.obj.mu.Unlock()
	return c.ver.payload
}

// Set overwrites the claimed version's payload.
func (c *Claim[T]) Set(v T) {
	if c.view != nil {
		c.view.set(v)
		return
	}
	c.obj.mu.Lock()
	c.ver.payload = v
	c.obj.mu.Unlock()
}

// Update atomically reads, transforms, and writes back the claimed
// version's payload.
func (c *Claim[T]) Update(f func(T) T) {
	if c.view != nil {
		c.view.mu.Lock()
		c.view.val = f(c.view.val)
		c.view.touched = true
		c.view.mu.Unlock()
		return
	}
	c.obj.mu.Lock()
	c.ver.payload = f(c.ver.payload)
	c.obj.mu.Unlock()
}

// Object is a named, versioned cell of type T. The zero value is not
// usable; construct with New or NewReduction.
type Object[T any] struct {
	mu       sync.Mutex // guards cur and every version reachable from it
	name     string
	cur      *version[T]
	renaming bool

	red *reductionState[T] // non-nil only for reduction-mode objects
}

// Option configures an Object at construction time.
type Option func(*options)

type options struct {
	renaming bool
	name     string
}

// WithRenaming toggles the `out` renaming optimization. Renaming is on by
// default; disabling it makes `out` serialize behind earlier accesses
// like `inout` instead of allocating a fresh version. Both settings must
// produce the same final value for the same program, so this also exists
// to exercise that equivalence by running one program both ways.
func WithRenaming(enabled bool) Option {
	return func(o *options) { o.renaming = enabled }
}

// WithName attaches a debug name, surfaced in diagnostic log lines.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// New constructs an Object[T] holding init as its first version's payload.
func New[T any](init T, opts ...Option) *Object[T] {
	o := options{renaming: true}
	for _, fn := range opts {
		fn(&o)
	}
	return &Object[T]{
		name:     o.name,
		renaming: o.renaming,
		cur:      &version[T]{payload: init},
	}
}

// Issue implements task.Dependency. It runs under the object's lock, so
// issues are processed strictly in the order Spawn calls them (program
// order).
func (o *Object[T]) Issue(fr *task.Frame, mode task.AccessMode, extra int) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if mode == task.ModeReduction {
		diag.Assert(o.red != nil, "object"+o.label()+": reduction access on an object with no monad (use NewReduction)")
		o.red.mergePending = true
		view := o.red.viewFor(fr.Owner())
		return &Claim[T]{obj: o, view: view, mode: mode}, true
	}

	o.mergeReductionLocked()

	v := o.cur
	switch mode {
	case task.ModeIn:
		if v.writers == 0 && len(v.waiters) == 0 {
			v.readers++
			return &Claim[T]{obj: o, ver: v, mode: mode}, true
		}
		v.waiters = append(v.waiters, waiter{fr, mode})
		return &Claim[T]{obj: o, ver: v, mode: mode}, false

	case task.ModeOut:
		if v.writers+v.readers == 0 && len(v.waiters) == 0 {
			v.writers++
			return &Claim[T]{obj: o, ver: v, mode: mode}, true
		}
		if o.renaming {
			nv := &version[T]{payload: v.payload, gen: v.gen + 1, writers: 1}
			o.cur = nv
			return &Claim[T]{obj: o, ver: nv, mode: mode}, true
		}
		v.waiters = append(v.waiters, waiter{fr, mode})
		return &Claim[T]{obj: o, ver: v, mode: mode}, false

	case task.ModeInOut:
		if v.writers == 0 && v.readers == 0 && len(v.waiters) == 0 {
			v.writers++
			return &Claim[T]{obj: o, ver: v, mode: mode}, true
		}
		v.waiters = append(v.waiters, waiter{fr, mode})
		return &Claim[T]{obj: o, ver: v, mode: mode}, false

	case task.ModeCInOut:
		if v.writers == 0 {
			v.writers++
			return &Claim[T]{obj: o, ver: v, mode: mode}, true
		}
		v.waiters = append(v.waiters, waiter{fr, mode})
		return &Claim[T]{obj: o, ver: v, mode: mode}, false

	default:
		diag.Assert(false, "object"+o.label()+": unsupported access mode "+mode.String())
		return nil, false
	}
}

// label renders the object's debug name (if any) for diagnostic messages,
// e.g. " \"residual\"", or "" when unset.
func (o *Object[T]) label() string {
	if o.name == "" {
		return ""
	}
	return " \"" + o.name + "\""
}

// Release implements task.Dependency: decrement the claimed generation's
// count, then, if it just quiesced, advance past every leading
// mode-compatible waiter.
func (o *Object[T]) Release(fr *task.Frame) []*task.Frame {
	o.mu.Lock()
	defer o.mu.Unlock()

	claim, _ := fr.Claim(o).(*Claim[T])
	diag.Assert(claim != nil, "object"+o.label()+": release of a frame that never issued against this object")

	if claim.mode == task.ModeReduction {
		// Reduction claims never block and never hold a generation open;
		// nothing to release beyond the per-worker view, which persists
		// until merged (see reduction.go).
		return nil
	}

	v := claim.ver
	if claim.mode == task.ModeIn {
		v.readers--
	} else {
		v.writers--
	}
	diag.Assert(v.readers >= 0 && v.writers >= 0, "object"+o.label()+": release count underflow")

	var ready []*task.Frame
	if v.writers+v.readers == 0 && len(v.waiters) > 0 {
		lead := v.waiters[0].mode
		i := 0
		for ; i < len(v.waiters); i++ {
			w := v.waiters[i]
			compatible := i == 0 || (lead == task.ModeIn && w.mode == task.ModeIn)
			if !compatible {
				break
			}
			if w.mode == task.ModeIn {
				v.readers++
			} else {
				v.writers++
			}
			if w.fr.DepSatisfied() {
				ready = append(ready, w.fr)
			}
		}
		v.waiters = v.waiters[i:]
	}
	return ready
}

// Access retrieves the claim fr was granted for o at spawn time. It is the
// only supported way for a spawned task body to read or write the object
// it declared a dependency on.
func Access[T any](fr *task.Frame, o *Object[T]) *Claim[T] {
	claim, _ := fr.Claim(o).(*Claim[T])
	diag.Assert(claim != nil, "object"+o.label()+": task body accessed an object it did not declare a dependency on")
	if claim.mode == task.ModeReduction {
		// A spawned child has no owner yet when Issue runs; bind the view
		// of the worker actually executing fr.
		claim.view = o.red.viewFor(fr.Owner())
	}
	return claim
}

// Peek returns the object's current payload without any dependency
// tracking. Intended for tests and for reading a final result after Sync
// has observed all writers finish; never call it from inside a task body
// racing with in-flight accesses.
func (o *Object[T]) Peek() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mergeReductionLocked()
	return o.cur.payload
}

// WriterQuiescent reports whether the object currently has no live writer.
// Used by SyncObject, which suspends only until the named object has no
// pending writers; readers and queued waiters do not affect this.
func (o *Object[T]) WriterQuiescent() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cur.writers == 0
}
