package task

import (
	"sync"
	"sync/atomic"
)

// Dependency is implemented by object.Object[T] and hyperqueue.Queue[T].
// The scheduler calls Issue once, in program order, when a task is spawned,
// and Release exactly once, when that task finishes. Both methods must be
// exported: Go only lets a type outside this package satisfy an interface
// declared here through exported methods.
type Dependency interface {
	// Issue registers fr's intended access in mode (extra carries the
	// prefix/suffix window length, 0 otherwise). It returns an opaque claim
	// token, stashed on the frame and handed back to the task body via
	// object.Access/hyperqueue.Access, and whether fr may run immediately.
	Issue(fr *Frame, mode AccessMode, extra int) (claim any, ready bool)
	// Release runs when fr finishes. It returns the frames that became
	// fully ready as a consequence (every one of their bindings now
	// satisfied); the caller pushes each onto its own worker's deque.
	Release(fr *Frame) []*Frame
}

// Binding pairs a Dependency with the access mode and (for queue prefix/
// suffix modes) window length a task requests on it.
type Binding struct {
	Dep   Dependency
	Mode  AccessMode
	Extra int
}

// State is the frame's current role in the scheduler.
type State int32

const (
	StateExecuting State = iota
	StateWaiting
	StateSuspended
	StatePending
	StateDummy
)

// Reason names the four "empty-deque reasons". The scheduling loop
// (worker.Worker.RunUntil) does not consult it.
type Reason int

const (
	ReasonBootstrap Reason = iota
	ReasonCallReturn
	ReasonSpawnReturn
	ReasonSync
)

var nextFrameID uint64

func atomicAddFrameID() uint64 { return atomic.AddUint64(&nextFrameID, 1) }

// Frame is the runtime's single scheduling unit. Go's growable goroutine
// stacks remove the need for separate physical representations of a
// pending, executing, and suspended task: every frame carries its parent
// and claims directly, and State records which role it is currently
// playing.
type Frame struct {
	ID       uint64
	Name     string
	Parent   *Frame
	Bindings []Binding
	Claims   map[Dependency]any

	// Body is the task's executable closure, set by Spawn/Call/the root
	// entry point before the frame is ever pushed or run. The scheduler
	// never constructs or inspects it beyond invoking it exactly once.
	Body func(*Frame)

	owner int32 // worker id that owns/ran this frame; -1 when unowned

	mu       sync.Mutex
	state    State
	children int32 // atomic: outstanding (unfinished) children

	unmet int32 // atomic: bindings not yet satisfied; frame is runnable at 0

	// waitCh is closed (via Wake) by the worker that ran this frame, once
	// its body has returned and its claims are released. A parent parked in
	// Sync polls Children() instead of selecting on it.
	waitCh   chan struct{}
	wakeOnce *sync.Once
}

// NewFrame allocates a frame for a task named name with the given parent
// (nil for the dummy root) and dependency bindings, recycled from the
// package's frame pool (see alloc.go) instead of a bespoke allocator.
func NewFrame(name string, parent *Frame, bindings []Binding) *Frame {
	return AcquireFrame(name, parent, bindings)
}

// NewDummyRoot creates the ancestor-of-all-user-work frame the main worker
// installs at startup.
func NewDummyRoot() *Frame {
	fr := NewFrame("<dummy-root>", nil, nil)
	fr.state = StateDummy
	return fr
}

// IssueAll runs the Issue step for every binding on fr, in binding order
// (which is argument order, itself program order because Spawn builds
// bindings synchronously on the spawning worker). It returns true when
// every binding was satisfiable immediately, meaning fr may run
// immediately rather than becoming a pending frame.
func IssueAll(fr *Frame) bool {
	fr.Claims = make(map[Dependency]any, len(fr.Bindings))
	// One extra count keeps a concurrent Release from driving unmet to zero
	// before every binding has been issued and its claim recorded.
	atomic.StoreInt32(&fr.unmet, int32(len(fr.Bindings))+1)
	for _, b := range fr.Bindings {
		claim, ready := b.Dep.Issue(fr, b.Mode, b.Extra)
		fr.Claims[b.Dep] = claim
		if ready {
			atomic.AddInt32(&fr.unmet, -1)
		}
	}
	return atomic.AddInt32(&fr.unmet, -1) == 0
}

// Ready reports whether every one of fr's bindings has been satisfied.
func (fr *Frame) Ready() bool { return atomic.LoadInt32(&fr.unmet) == 0 }

// DepSatisfied is called by a Dependency's Release when it frees fr from
// one of its waiter lists. It returns true exactly once per frame: when the
// last outstanding binding clears, signalling the caller should push fr
// onto a deque as newly runnable.
func (fr *Frame) DepSatisfied() bool {
	return atomic.AddInt32(&fr.unmet, -1) == 0
}

// ReleaseAll runs the Release step for every binding on fr and returns the
// union of frames that became ready as a result, deduplicated.
func ReleaseAll(fr *Frame) []*Frame {
	seen := make(map[uint64]bool)
	var out []*Frame
	for _, b := range fr.Bindings {
		for _, g := range b.Dep.Release(fr) {
			if !seen[g.ID] {
				seen[g.ID] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// Claim returns the opaque claim token Issue handed back for dep, or nil if
// dep is not one of fr's bindings.
func (fr *Frame) Claim(dep Dependency) any {
	if fr.Claims == nil {
		return nil
	}
	return fr.Claims[dep]
}

// Owner returns the id of the worker currently responsible for fr, or -1.
func (fr *Frame) Owner() int { return int(atomic.LoadInt32(&fr.owner)) }

// SetOwner records which worker owns fr. Called when a frame is created, and
// again when a thief promotes a stolen frame to its own deque.
func (fr *Frame) SetOwner(id int) { atomic.StoreInt32(&fr.owner, int32(id)) }

// State/SetState track the frame's role for diagnostics and for Sync's
// suspend/resume bookkeeping.
func (fr *Frame) State() State {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.state
}

func (fr *Frame) SetState(s State) {
	fr.mu.Lock()
	fr.state = s
	fr.mu.Unlock()
}

// AddChild increments fr's outstanding-child counter. A frame's child
// counter equals the number of its not-yet-finished children.
func (fr *Frame) AddChild() { atomic.AddInt32(&fr.children, 1) }

// FinishChild decrements fr's outstanding-child counter and reports whether
// it just reached zero, meaning fr's owner may now proceed past whatever
// Sync is waiting on this child.
func (fr *Frame) FinishChild() bool {
	return atomic.AddInt32(&fr.children, -1) == 0
}

// Children reports the current outstanding-child count.
func (fr *Frame) Children() int32 { return atomic.LoadInt32(&fr.children) }

// Wake closes fr's wait channel exactly once. Safe to call more than once.
func (fr *Frame) Wake() {
	fr.wakeOnce.Do(func() { close(fr.waitCh) })
}

// WaitCh exposes fr's completion signal for select-based callers.
func (fr *Frame) WaitCh() <-chan struct{} { return fr.waitCh }
