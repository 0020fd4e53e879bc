package swan

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-foundations/swan/config"
	"github.com/go-foundations/swan/internal/diag"
	"github.com/go-foundations/swan/internal/task"
	"github.com/go-foundations/swan/internal/worker"
)

// Run brings up a fixed worker pool sized from NUM_THREADS (config.FromEnv)
// and executes fn as the root task under a dummy ancestor frame. It
// returns once fn and everything it transitively spawned has finished.
//
// If PRINT_VERSION is set, Run prints the build banner to stderr and
// enables the diagnostic log stream (config.ShouldExit reports whether it
// should then return immediately without running fn). SWAN_DEBUG enables
// the same diagnostic log stream without printing the banner, for a
// library caller who wants worker lifecycle and steal-attempt logging but
// not the version banner.
func Run(fn func(*T)) {
	cfg := config.FromEnv()
	if cfg.PrintVersion > 0 {
		fmt.Fprintln(os.Stderr, cfg.Banner())
	}
	if cfg.PrintVersion > 0 || cfg.Debug {
		diag.Enable()
	}
	if cfg.ShouldExit() {
		return
	}

	pool := worker.NewPool(cfg.NumThreads)
	main := pool.Worker(0)
	main.Dummy = task.NewDummyRoot()

	root := task.NewFrame("<root>", main.Dummy, nil)
	main.Dummy.AddChild()
	root.Body = func(fr *task.Frame) { fn(&T{pool: pool, fr: fr}) }

	var helpers sync.WaitGroup
	for i := 1; i < pool.NumWorkers(); i++ {
		w := pool.Worker(i)
		helpers.Add(1)
		go func() {
			defer helpers.Done()
			w.RunUntil(pool.Finished, func(fr *task.Frame) { w.RunFrame(fr, fr.Body) })
		}()
	}

	main.RunFrame(root, root.Body)
	pool.MarkDone()
	helpers.Wait()
}
