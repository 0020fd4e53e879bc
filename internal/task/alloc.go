package task

import "sync"

// framePool recycles *Frame values, giving the scheduler cheap,
// fixed-size allocation for the frames every Spawn/Call creates, without
// a bespoke mmap/freelist allocator.
var framePool = sync.Pool{
	New: func() any { return &Frame{} },
}

// AcquireFrame returns a recycled or fresh *Frame, fully (re)initialized.
// Fields are reset individually (never via whole-struct assignment) so a
// pooled Frame's embedded sync.Mutex is reused in place rather than copied;
// the wake channel and its sync.Once are freshly allocated.
func AcquireFrame(name string, parent *Frame, bindings []Binding) *Frame {
	fr := framePool.Get().(*Frame)
	fr.ID = atomicAddFrameID()
	fr.Name = name
	fr.Parent = parent
	fr.Bindings = bindings
	fr.Claims = nil
	fr.Body = nil
	fr.owner = -1
	fr.state = StatePending
	fr.children = 0
	fr.unmet = 0
	fr.waitCh = make(chan struct{})
	fr.wakeOnce = &sync.Once{}
	return fr
}

// ReleaseFrame returns fr to the pool once its parent has observed its
// completion and released its claims. Never called on a frame still
// reachable from a deque, a Dependency's waiter list, or another frame's
// Parent pointer.
func ReleaseFrame(fr *Frame) {
	framePool.Put(fr)
}
