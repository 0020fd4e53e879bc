// Package task holds the scheduling primitives shared by the worker pool,
// the versioned object engine, and the hyperqueue: the Frame (a task's
// scheduling unit, which can be pending, executing, suspended, or the
// dummy root), the Dependency trait that both object versions and
// hyperqueue queues implement, and the spawn deque.
//
// Living in its own internal package lets object and hyperqueue each
// implement Dependency without importing the scheduler, and lets the
// scheduler stay ignorant of what kind of dependency it is driving.
package task

// AccessMode is the closed set of access annotations a task can declare
// against a dependency: in, out, inout, cinout, reduction, and the five
// queue modes (push, pop, pushpop, prefix, suffix).
type AccessMode int

const (
	ModeIn AccessMode = iota
	ModeOut
	ModeInOut
	ModeCInOut
	ModeReduction
	ModePush
	ModePop
	ModePushPop
	ModePrefix
	ModeSuffix
)

func (m AccessMode) String() string {
	switch m {
	case ModeIn:
		return "in"
	case ModeOut:
		return "out"
	case ModeInOut:
		return "inout"
	case ModeCInOut:
		return "cinout"
	case ModeReduction:
		return "reduction"
	case ModePush:
		return "push"
	case ModePop:
		return "pop"
	case ModePushPop:
		return "pushpop"
	case ModePrefix:
		return "prefix"
	case ModeSuffix:
		return "suffix"
	default:
		return "unknown"
	}
}

// IsWriter reports whether mode claims exclusive (writer-class) access to
// the generation it lands in. Object's issue/release bookkeeping compares
// modes directly and does not call it.
func (m AccessMode) IsWriter() bool {
	switch m {
	case ModeOut, ModeInOut, ModeCInOut:
		return true
	default:
		return false
	}
}
