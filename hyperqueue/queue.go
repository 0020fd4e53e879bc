// Package hyperqueue implements a streaming dependency primitive: a typed,
// concurrent FIFO usable as a Spawn argument via push/pop/pushpop/prefix/
// suffix access modes, backed by a linked chain of fixed-capacity
// segments.
//
// Concurrent production is resolved by fully serializing push-class and
// pop-class accesses through a declaration-order ticket each: only one
// producer (and, independently, one consumer) claim is ever live at a
// time, exactly the discipline object.Object uses for its out-mode
// writers when renaming is disabled. That removes the possibility of out-of-program-order
// production entirely.
package hyperqueue

import (
	"runtime"
	"sync"

	"github.com/go-foundations/swan/internal/diag"
	"github.com/go-foundations/swan/internal/task"
)

// Queue is a typed FIFO dependency. Construct with New.
type Queue[T any] struct {
	mu       sync.Mutex
	segSize  int
	peekDist int

	head *segment[T] // oldest segment still holding unpopped elements
	tail *segment[T] // segment producers currently append to
	base int         // logical position of head.data[0]

	committed int // logical length ever made visible to consumers
	popCursor int // logical position of the next element to pop

	producerBusy     bool
	producerWaiters  []*task.Frame
	producersPending int // issued, not yet released (active or waiting)
	everHadProducer  bool

	consumerBusy     bool
	consumerWaiters  []*task.Frame
	consumersPending int
}

// Option configures a Queue at construction time.
type Option func(*queueOptions)

type queueOptions struct {
	segSize  int
	peekDist int
}

// WithSegmentSize sets the capacity of each backing segment.
func WithSegmentSize(n int) Option {
	return func(o *queueOptions) { o.segSize = n }
}

// WithPeekDistance sets how far ahead of popCursor Peek may look.
func WithPeekDistance(k int) Option {
	return func(o *queueOptions) { o.peekDist = k }
}

// New constructs an empty Queue[T].
func New[T any](opts ...Option) *Queue[T] {
	o := queueOptions{segSize: 256, peekDist: 0}
	for _, fn := range opts {
		fn(&o)
	}
	s := newSegment[T](o.segSize)
	return &Queue[T]{
		segSize:  o.segSize,
		peekDist: o.peekDist,
		head:     s,
		tail:     s,
	}
}

// View is the claim a task receives from Queue.Issue: its private handle
// for pushing, popping, or peeking, scoped to the access mode it declared.
type View[T any] struct {
	q      *Queue[T]
	mode   task.AccessMode
	budget int // prefix/suffix window length; 0 for push/pop/pushpop
	used   int // elements pushed (suffix) or popped (prefix) through this view
}

// Access retrieves the View fr was granted for q at spawn time.
func Access[T any](fr *task.Frame, q *Queue[T]) *View[T] {
	v, _ := fr.Claim(q).(*View[T])
	diag.Assert(v != nil, "hyperqueue: task body accessed a queue it did not declare a dependency on")
	return v
}

// Issue implements task.Dependency. Program order is established by the
// caller (Spawn issues bindings synchronously, under q.mu here), so the
// ticket order below equals declaration order.
func (q *Queue[T]) Issue(fr *task.Frame, mode task.AccessMode, extra int) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	v := &View[T]{q: q, mode: mode, budget: extra}
	ready := true

	switch mode {
	case task.ModePush, task.ModeSuffix:
		ready = q.issueProducerLocked(fr)
	case task.ModePop, task.ModePrefix:
		ready = q.issueConsumerLocked(fr)
	case task.ModePushPop:
		// Fixed acquisition order (producer slot before consumer slot)
		// avoids a producer-vs-consumer deadlock cycle across two
		// concurrently-issuing pushpop tasks.
		readyP := q.issueProducerLocked(fr)
		readyC := q.issueConsumerLocked(fr)
		ready = readyP && readyC
	default:
		diag.Assert(false, "hyperqueue: unsupported access mode "+mode.String())
	}
	return v, ready
}

func (q *Queue[T]) issueProducerLocked(fr *task.Frame) bool {
	q.producersPending++
	q.everHadProducer = true
	if !q.producerBusy {
		q.producerBusy = true
		return true
	}
	q.producerWaiters = append(q.producerWaiters, fr)
	return false
}

func (q *Queue[T]) issueConsumerLocked(fr *task.Frame) bool {
	q.consumersPending++
	if !q.consumerBusy {
		q.consumerBusy = true
		return true
	}
	q.consumerWaiters = append(q.consumerWaiters, fr)
	return false
}

// Release implements task.Dependency.
func (q *Queue[T]) Release(fr *task.Frame) []*task.Frame {
	q.mu.Lock()
	defer q.mu.Unlock()

	v, _ := fr.Claim(q).(*View[T])
	diag.Assert(v != nil, "hyperqueue: release of a frame that never issued against this queue")

	var ready []*task.Frame
	switch v.mode {
	case task.ModePush, task.ModeSuffix:
		ready = append(ready, q.releaseProducerLocked()...)
	case task.ModePop, task.ModePrefix:
		ready = append(ready, q.releaseConsumerLocked()...)
	case task.ModePushPop:
		ready = append(ready, q.releaseProducerLocked()...)
		ready = append(ready, q.releaseConsumerLocked()...)
	}
	return ready
}

func (q *Queue[T]) releaseProducerLocked() []*task.Frame {
	q.producersPending--
	q.producerBusy = false
	if len(q.producerWaiters) == 0 {
		return nil
	}
	next := q.producerWaiters[0]
	q.producerWaiters = q.producerWaiters[1:]
	q.producerBusy = true
	if next.DepSatisfied() {
		return []*task.Frame{next}
	}
	return nil
}

func (q *Queue[T]) releaseConsumerLocked() []*task.Frame {
	q.consumersPending--
	q.consumerBusy = false
	if len(q.consumerWaiters) == 0 {
		return nil
	}
	next := q.consumerWaiters[0]
	q.consumerWaiters = q.consumerWaiters[1:]
	q.consumerBusy = true
	if next.DepSatisfied() {
		return []*task.Frame{next}
	}
	return nil
}

// reserveLocked extends the tail segment (allocating a new one if full) by
// n slots and returns them for the caller to fill, without yet counting
// them as committed (visible to consumers).
func (q *Queue[T]) reserveLocked(n int) []T {
	if len(q.tail.data)+n > cap(q.tail.data) {
		ns := newSegment[T](max(q.segSize, n))
		q.tail.next = ns
		q.tail = ns
	}
	return q.tail.reserve(n)
}

// commitLocked makes the n most recently reserved elements visible to
// consumers.
func (q *Queue[T]) commitLocked(n int) {
	q.committed += n
}

// at returns a pointer to the element at logical position pos, which must
// already be committed.
func (q *Queue[T]) at(pos int) *T {
	s := q.head
	rel := pos - q.base
	for rel >= len(s.data) {
		rel -= len(s.data)
		s = s.next
	}
	return &s.data[rel]
}

// advancePopLocked moves popCursor forward by one and frees any segment
// that has been fully consumed.
func (q *Queue[T]) advancePopLocked() {
	q.popCursor++
	for q.head != q.tail && q.popCursor-q.base >= len(q.head.data) {
		q.base += len(q.head.data)
		q.head = q.head.next
	}
}

// GetWriteSlice reserves length contiguous slots on the queue's tail
// segment for v to fill directly; the slots become visible to consumers
// once CommitWrite is called with the same length.
func (v *View[T]) GetWriteSlice(length int) []T {
	v.q.mu.Lock()
	defer v.q.mu.Unlock()
	return v.q.reserveLocked(length)
}

// CommitWrite publishes the n elements most recently reserved via
// GetWriteSlice, making them visible to consumers, and accounts them
// against a suffix(n) budget if one applies.
func (v *View[T]) CommitWrite(n int) {
	v.q.mu.Lock()
	v.q.commitLocked(n)
	v.q.mu.Unlock()
	v.used += n
	if v.mode == task.ModeSuffix {
		diag.Assert(v.used <= v.budget, "hyperqueue: suffix view exceeded its declared push budget")
	}
}

// Push appends a single element.
func (v *View[T]) Push(elem T) {
	slot := v.GetWriteSlice(1)
	slot[0] = elem
	v.CommitWrite(1)
}

// Pop removes and returns the next element in program order, busy-waiting
// while the queue is not yet empty but has no data ready, and returning
// ok=false once the stream is provably exhausted (every producer released
// and nothing left committed) or once a prefix(n) view's budget is spent.
func (v *View[T]) Pop() (elem T, ok bool) {
	if v.mode == task.ModePrefix && v.used >= v.budget {
		return elem, false
	}
	for {
		val, got, mustWait := v.q.tryPopLocked()
		if !mustWait {
			if got {
				v.used++
			}
			return val, got
		}
		runtime.Gosched()
	}
}

func (q *Queue[T]) tryPopLocked() (elem T, ok bool, mustWait bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.popCursor < q.committed {
		val := *q.at(q.popCursor)
		q.advancePopLocked()
		return val, true, false
	}
	if q.everHadProducer && q.producersPending == 0 {
		return elem, false, false
	}
	return elem, false, true
}

// GetReadSliceUpto returns up to maxPop already-committed elements
// contiguous from the current pop position (never crossing a segment
// boundary, so callers that want more than one segment's worth must call
// it again), busy-waiting until at least one element is available or the
// stream is provably exhausted. peek additional elements beyond the
// window are guaranteed reserved (not yet overwritten) but are neither
// returned nor consumed.
func (v *View[T]) GetReadSliceUpto(maxPop, peek int) (out []T, ok bool) {
	diag.Assert(peek <= v.q.peekDist, "hyperqueue: requested peek exceeds the queue's declared peek distance")
	if v.mode == task.ModePrefix {
		if remaining := v.budget - v.used; maxPop > remaining {
			maxPop = remaining
		}
		if maxPop <= 0 {
			return nil, false
		}
	}
	for {
		out, mustWait := v.q.tryReadSliceLocked(maxPop)
		if !mustWait {
			v.used += len(out)
			return out, len(out) > 0
		}
		runtime.Gosched()
	}
}

func (q *Queue[T]) tryReadSliceLocked(maxPop int) (out []T, mustWait bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	available := q.committed - q.popCursor
	if available <= 0 {
		if q.everHadProducer && q.producersPending == 0 {
			return nil, false
		}
		return nil, true
	}

	s := q.head
	rel := q.popCursor - q.base
	for rel >= len(s.data) {
		rel -= len(s.data)
		s = s.next
	}
	n := min(maxPop, available, len(s.data)-rel)
	out = append([]T(nil), s.data[rel:rel+n]...)
	for i := 0; i < n; i++ {
		q.advancePopLocked()
	}
	return out, false
}

// Peek inspects the element k slots ahead of the next pop without
// consuming it, busy-waiting on the same terms as Pop.
func (v *View[T]) Peek(k int) (elem T, ok bool) {
	diag.Assert(k <= v.q.peekDist, "hyperqueue: peek beyond the queue's declared peek distance")
	for {
		val, got, mustWait := v.q.tryPeekLocked(k)
		if !mustWait {
			return val, got
		}
		runtime.Gosched()
	}
}

func (q *Queue[T]) tryPeekLocked(k int) (elem T, ok bool, mustWait bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pos := q.popCursor + k
	if pos < q.committed {
		return *q.at(pos), true, false
	}
	if q.everHadProducer && q.producersPending == 0 {
		return elem, false, false
	}
	return elem, false, true
}

// Empty reports whether the queue is provably exhausted: every producer
// has released and nothing committed remains unpopped.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.everHadProducer && q.producersPending == 0 && q.popCursor >= q.committed
}
