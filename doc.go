// Package swan implements a Spawn/Call/Sync task-parallel programming
// model: programs build a tree of tasks whose arguments carry access-mode
// annotations against object.Object and hyperqueue.Queue values; the
// runtime derives the parallel schedule from those annotations instead of
// from the program's call structure alone.
//
// Run is the single entry point: it reads NUM_THREADS/PRINT_VERSION from
// the environment (package config), brings up a fixed worker.Pool, and
// runs the supplied function as the root task.
package swan
