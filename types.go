package swan

import (
	"github.com/go-foundations/swan/hyperqueue"
	"github.com/go-foundations/swan/internal/task"
	"github.com/go-foundations/swan/internal/worker"
	"github.com/go-foundations/swan/object"
)

// T is the per-task handle a running task body receives: its frame (for
// dependency bookkeeping) and a reference to the fixed worker pool. Task
// bodies never construct one directly; Run, Spawn, and Call hand them out.
//
// T deliberately does not cache which worker is executing it: a frame
// pushed by Spawn may be popped by its own worker or stolen and run by any
// other, so the executing worker is resolved fresh through fr.Owner() on
// every use (worker.Worker.runFrame records it right before invoking
// Body, and it never changes for the rest of that body's execution).
type T struct {
	pool *worker.Pool
	fr   *task.Frame
}

func (t *T) worker() *worker.Worker { return t.pool.Worker(t.fr.Owner()) }

// NewObject constructs a versioned object, the swan-level spelling of
// object.New for callers that otherwise only import this package.
func NewObject[V any](init V, opts ...object.Option) *object.Object[V] {
	return object.New(init, opts...)
}

// NewReduction constructs a reduction-mode object folding through monad,
// the swan-level spelling of object.NewReduction.
func NewReduction[V any](monad object.Monad[V], opts ...object.Option) *object.Object[V] {
	return object.NewReduction(monad, opts...)
}

// Access retrieves the claim t's task was granted for obj at spawn time.
func Access[V any](t *T, obj *object.Object[V]) *object.Claim[V] {
	return object.Access(t.fr, obj)
}

// AccessQueue retrieves the view t's task was granted for q at spawn time.
func AccessQueue[V any](t *T, q *hyperqueue.Queue[V]) *hyperqueue.View[V] {
	return hyperqueue.Access(t.fr, q)
}

// Dep pairs a Dependency with the access mode (and, for queue prefix/
// suffix, the window length) a Spawn/Call argument list declares against
// it: an access-mode annotation on a Spawn/Call argument.
type Dep = task.Binding

// In declares read-only access to obj.
func In[V any](obj *object.Object[V]) Dep { return Dep{Dep: obj, Mode: task.ModeIn} }

// Out declares write-only access to obj; under the object's default
// renaming policy this lets independent writers proceed concurrently.
func Out[V any](obj *object.Object[V]) Dep { return Dep{Dep: obj, Mode: task.ModeOut} }

// InOut declares read-modify-write access to obj, serialized against every
// other access.
func InOut[V any](obj *object.Object[V]) Dep { return Dep{Dep: obj, Mode: task.ModeInOut} }

// CInOut declares commutative read-modify-write access to obj: CInOut
// accessors of the same object run one at a time, and their combination
// is declared order-independent by the caller.
func CInOut[V any](obj *object.Object[V]) Dep { return Dep{Dep: obj, Mode: task.ModeCInOut} }

// Reduction declares reduction-mode access to obj, which must have been
// constructed with object.NewReduction.
func Reduction[V any](obj *object.Object[V]) Dep { return Dep{Dep: obj, Mode: task.ModeReduction} }

// Push declares producer access to q: same-mode Push/Suffix accessors on
// the same queue run sequentially in declaration order.
func Push[V any](q *hyperqueue.Queue[V]) Dep { return Dep{Dep: q, Mode: task.ModePush} }

// Pop declares consumer access to q, seeing elements in the order they
// were pushed across the whole program.
func Pop[V any](q *hyperqueue.Queue[V]) Dep { return Dep{Dep: q, Mode: task.ModePop} }

// PushPop declares fused producer+consumer access to q, internal to one
// task.
func PushPop[V any](q *hyperqueue.Queue[V]) Dep { return Dep{Dep: q, Mode: task.ModePushPop} }

// Prefix declares a consumer view restricted to the next n elements: it
// reports no further elements once n have been popped or end-of-stream is
// reached, whichever comes first, so an under-produced stream reads as empty.
func Prefix[V any](q *hyperqueue.Queue[V], n int) Dep {
	return Dep{Dep: q, Mode: task.ModePrefix, Extra: n}
}

// Suffix declares a producer view budgeted to at most n pushes.
func Suffix[V any](q *hyperqueue.Queue[V], n int) Dep {
	return Dep{Dep: q, Mode: task.ModeSuffix, Extra: n}
}
