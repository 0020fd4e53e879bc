package swan

import (
	"github.com/go-foundations/swan/internal/task"
)

// Spawn creates a new task as a child of t's frame and makes it available
// for any worker to run. t's own execution simply continues past the
// call: the new frame is pushed onto t's worker's deque and picked up,
// by that same worker at its next Sync or by a thief, whenever it
// reaches the front. This help-first scheduling (the child goes onto a
// deque rather than running inline immediately) sidesteps the need for a
// stack-switching primitive while preserving every dependency ordering a
// work-first scheduler would. Independent children do not run in spawn
// order: even with one worker, Sync drains them newest first.
//
// deps declares the new task's access-mode bindings, built with In/Out/
// InOut/CInOut/Reduction/Push/Pop/PushPop/Prefix/Suffix.
func (t *T) Spawn(name string, deps []Dep, fn func(*T)) {
	child := task.NewFrame(name, t.fr, deps)
	child.Body = func(fr *task.Frame) { fn(&T{pool: t.pool, fr: fr}) }
	t.fr.AddChild()

	w := t.worker()
	if task.IssueAll(child) {
		w.Deque.PushSpawn(child)
	}
	// Else: Issue already registered child on every not-yet-satisfied
	// binding's waiter list; some future Release will push it onto
	// whichever worker's deque runs that release.
}

// Call runs fn inline as a dependency-tracked child of t: equivalent to
// Spawn immediately followed by Sync on just that child, so it adds no
// parallelism, but the child still participates in object/hyperqueue
// dependency tracking like any other task.
func (t *T) Call(name string, deps []Dep, fn func(*T)) {
	child := task.NewFrame(name, t.fr, deps)
	t.fr.AddChild()

	w := t.worker()
	ready := task.IssueAll(child)
	if !ready {
		w.RunUntil(child.Ready, func(fr *task.Frame) { w.RunFrame(fr, fr.Body) })
	}
	w.RunFrame(child, func(fr *task.Frame) { fn(&T{pool: t.pool, fr: fr}) })
}

// LeafCall runs fn as a plain function call with no frame allocation and
// no dependency tracking whatsoever: the zero-overhead escape hatch for
// work too fine-grained to be worth a task.
func LeafCall[R any](t *T, fn func() R) R {
	return fn()
}
