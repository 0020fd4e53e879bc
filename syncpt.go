package swan

import (
	"github.com/go-foundations/swan/internal/task"
	"github.com/go-foundations/swan/object"
)

// Sync waits for every task t has spawned to finish. While waiting, t's
// worker keeps scheduling: it drains its own deque (picking up t's own
// not-yet-started children, most recently spawned first) and steals from
// peers, exactly as it would between any two tasks. There is no separate
// "suspended, idle" state to fall into.
func (t *T) Sync() {
	if t.fr.Children() == 0 {
		return
	}
	t.fr.SetState(task.StateSuspended)
	w := t.worker()
	w.RunUntil(
		func() bool { return t.fr.Children() == 0 },
		func(fr *task.Frame) { w.RunFrame(fr, fr.Body) },
	)
	t.fr.SetState(task.StateExecuting)
}

// SyncObject waits only until obj has no live writer, rather than for all
// of t's children. A type parameter on a method isn't legal Go, so this
// is a free function taking t explicitly.
func SyncObject[V any](t *T, obj *object.Object[V]) {
	w := t.worker()
	w.RunUntil(
		obj.WriterQuiescent,
		func(fr *task.Frame) { w.RunFrame(fr, fr.Body) },
	)
}
