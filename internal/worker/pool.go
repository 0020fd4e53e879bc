// Package worker implements the fixed-size worker pool and its scheduling
// loop: one goroutine per worker, each owning a spawn deque, stealing
// frames from peers when its own deque runs dry.
//
// Go has no portable stack-switching primitive, so "longjmp back to the
// scheduling loop" is realized as an ordinary Go function call: RunUntil is
// the scheduling loop, and it returns (rather than jumps) once its
// predicate is satisfied.
package worker

import (
	"runtime"
	"sync/atomic"

	exprand "golang.org/x/exp/rand"

	"github.com/go-foundations/swan/internal/diag"
	"github.com/go-foundations/swan/internal/task"
)

// Pool is the fixed set of workers backing one Run invocation.
type Pool struct {
	workers []*Worker
	done    atomic.Bool
}

// Worker owns one extended spawn deque and a private victim-selection RNG.
// The RNG is seeded from golang.org/x/exp/rand rather than math/rand so
// each worker's steal order is reproducible from a fixed seed, independent
// of math/rand's shared global lock.
type Worker struct {
	ID    int
	Deque *task.Deque
	pool  *Pool
	rng   *exprand.Rand

	// Dummy is the worker's root frame, installed once by NewPool's caller
	// for worker 0 and left nil for the rest.
	Dummy *task.Frame
}

// NewPool creates n workers, each with an empty deque. Workers do not start
// any goroutines themselves: Pool is a passive registry the scheduling
// loop (RunUntil, Steal) and the root entry point (swan.Run) drive
// directly on whichever goroutine calls them.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{workers: make([]*Worker, n)}
	for i := 0; i < n; i++ {
		p.workers[i] = &Worker{
			ID:    i,
			Deque: task.NewDeque(),
			pool:  p,
			rng:   exprand.New(exprand.NewSource(uint64(1 + i*2654435761))),
		}
	}
	return p
}

// NumWorkers returns the pool's fixed worker count.
func (p *Pool) NumWorkers() int { return len(p.workers) }

// Worker returns the i'th worker.
func (p *Pool) Worker(i int) *Worker { return p.workers[i] }

// MarkDone flips the shared "computation finished" flag the scheduling loop
// polls. Idle workers spinning in RunUntil(never, …) style waits exit
// promptly once it is set.
func (p *Pool) MarkDone() { p.done.Store(true) }

// Finished reports the shared completion flag.
func (p *Pool) Finished() bool { return p.done.Load() }

// runFrame executes fr's task body on w, records ownership, and on return
// releases fr's dependency claims, pushing any newly-ready frames onto w's
// own deque.
func (w *Worker) runFrame(fr *task.Frame, body func(*task.Frame)) {
	fr.SetOwner(w.ID)
	fr.SetState(task.StateExecuting)
	diag.Log().Debug().Str("component", "worker").Int("worker", w.ID).
		Str("task", fr.Name).Msg("running task")

	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(*diag.ErrProgramming); ok {
					diag.Log().Error().Str("component", "worker").Int("worker", w.ID).
						Str("task", fr.Name).Msg("programming error, aborting")
				} else {
					diag.Log().Error().Str("component", "worker").Int("worker", w.ID).
						Str("task", fr.Name).Interface("panic", r).Msg("unrecovered task panic, aborting")
				}
				panic(r)
			}
		}()
		body(fr)
	}()

	ready := task.ReleaseAll(fr)
	fr.Wake()
	diag.Log().Debug().Str("component", "worker").Int("worker", w.ID).
		Str("task", fr.Name).Msg("task finished")
	if parent := fr.Parent; parent != nil {
		parent.FinishChild()
	}
	for _, g := range ready {
		// A frame with no Body was created by Call, not Spawn: its own
		// goroutine is already spinning in RunUntil(g.Ready, ...) and will
		// notice it became runnable on its own. Pushing it here would let an
		// unrelated thief pop it and invoke a nil Body.
		if g.Body != nil {
			w.Deque.PushSpawn(g)
		}
	}
	task.ReleaseFrame(fr)
}

// RunFrame is the exported entry point swan uses to execute a just-spawned
// (or just-stolen) frame's body on w.
func (w *Worker) RunFrame(fr *task.Frame, body func(*task.Frame)) {
	w.runFrame(fr, body)
}

// Steal attempts one steal round: a handful of random victims, oldest
// stealable frame taken from whichever responds first. Returns nil if
// nobody had stealable work.
func (w *Worker) Steal() *task.Frame {
	n := len(w.pool.workers)
	if n <= 1 {
		return nil
	}
	attempts := n * 2
	for i := 0; i < attempts; i++ {
		victim := w.pool.workers[w.rng.Intn(n)]
		if victim.ID == w.ID {
			continue
		}
		if fr, ok := victim.Deque.Steal(); ok {
			fr.SetOwner(w.ID)
			diag.Log().Debug().Str("component", "worker").Int("thief", w.ID).
				Int("victim", victim.ID).Str("task", fr.Name).Msg("stole frame")
			return fr
		}
	}
	diag.Log().Debug().Str("component", "worker").Int("thief", w.ID).
		Int("attempts", attempts).Msg("steal attempt found no work")
	return nil
}

// RunUntil is the scheduling loop body: pop local work, else steal, else
// yield, until predicate() is true. exec runs a popped/stolen frame's
// task body. This realizes the "sync" empty-deque reason (wait for a
// frame's children). There is no provably-good steal: a parent waiting in
// Sync is never placed on a deque, so only the worker running its sync
// loop resumes it, once that loop finds it has no children left.
func (w *Worker) RunUntil(predicate func() bool, exec func(*task.Frame)) {
	for !predicate() {
		if fr, ok := w.Deque.TryPop(); ok {
			exec(fr)
			continue
		}
		if fr := w.Steal(); fr != nil {
			exec(fr)
			continue
		}
		if w.pool.Finished() {
			return
		}
		runtime.Gosched()
	}
}
