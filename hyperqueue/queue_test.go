package hyperqueue

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foundations/swan/internal/task"
)

func issue[T any](t *testing.T, q *Queue[T], fr *task.Frame, mode task.AccessMode, extra int) *View[T] {
	t.Helper()
	claim, ready := q.Issue(fr, mode, extra)
	fr.Claims = map[task.Dependency]any{q: claim}
	fr.Bindings = append(fr.Bindings, task.Binding{Dep: q, Mode: mode, Extra: extra})
	require.True(t, ready, "test harness only issues one claim of each class at a time")
	return claim.(*View[T])
}

func TestQueue_ProducerConsumerFIFOInOrder(t *testing.T) {
	q := New[int](WithSegmentSize(64))

	producer := task.NewFrame("producer", nil, nil)
	consumer := task.NewFrame("consumer", nil, nil)

	pv := issue(t, q, producer, task.ModePush, 0)
	cv := issue(t, q, consumer, task.ModePop, 0)

	const n = 1000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			pv.Push(i)
		}
		task.ReleaseAll(producer)
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for {
			v, ok := cv.Pop()
			if !ok {
				task.ReleaseAll(consumer)
				return
			}
			got = append(got, v)
		}
	}()
	wg.Wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestQueue_FourProducersTwoConsumersConcatenateInProgramOrder(t *testing.T) {
	q := New[int](WithSegmentSize(128))

	const total = 16384
	const perProducer = total / 4

	var producerFrames []*task.Frame
	var producerViews []*View[int]
	for i := 0; i < 4; i++ {
		// Push claims are granted one at a time in declaration order: only
		// the first producer is ready now, each later one when its
		// predecessor releases.
		fr := task.NewFrame("producer", nil, []task.Binding{{Dep: q, Mode: task.ModePush}})
		task.IssueAll(fr)
		producerFrames = append(producerFrames, fr)
		producerViews = append(producerViews, fr.Claim(q).(*View[int]))
	}

	c1 := task.NewFrame("consumer-1", nil, nil)
	cv1 := issue(t, q, c1, task.ModePrefix, total/2)

	var wg sync.WaitGroup
	wg.Add(4)
	for i, v := range producerViews {
		i, v := i, v
		go func() {
			defer wg.Done()
			for !producerFrames[i].Ready() {
				runtime.Gosched()
			}
			for j := 0; j < perProducer; j++ {
				v.Push(i*perProducer + j)
			}
			task.ReleaseAll(producerFrames[i])
		}()
	}

	var got []int
	for i := 0; i < total/2; i++ {
		val, ok := cv1.Pop()
		require.True(t, ok)
		got = append(got, val)
	}
	task.ReleaseAll(c1)

	// c2 only becomes the active consumer once c1's Release hands off the
	// consumer-side ticket, exercising the same FIFO handoff producers use,
	// from the other role.
	c2 := task.NewFrame("consumer-2", nil, nil)
	cv2 := issue(t, q, c2, task.ModePop, 0)
	for {
		val, ok := cv2.Pop()
		if !ok {
			break
		}
		got = append(got, val)
	}
	task.ReleaseAll(c2)
	wg.Wait()

	// producers are fully serialized in declaration order, so the
	// committed sequence equals the program-order concatenation.
	require.Len(t, got, total)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueue_PeekDistanceMatchesLaterPop(t *testing.T) {
	q := New[int](WithSegmentSize(16), WithPeekDistance(3))

	producer := task.NewFrame("producer", nil, nil)
	consumer := task.NewFrame("consumer", nil, nil)
	pv := issue(t, q, producer, task.ModePush, 0)
	cv := issue(t, q, consumer, task.ModePop, 0)

	for i := 0; i < 10; i++ {
		pv.Push(i)
	}
	task.ReleaseAll(producer)

	peeked, ok := cv.Peek(3)
	require.True(t, ok)
	assert.Equal(t, 3, peeked)

	for i := 0; i < 3; i++ {
		v, ok := cv.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	v, ok := cv.Pop()
	require.True(t, ok)
	assert.Equal(t, peeked, v, "peek(3) must match the element popped after exactly 3 pops")
}

func TestQueue_PrefixUnderproductionTreatsRemainderAsEmpty(t *testing.T) {
	q := New[int](WithSegmentSize(16))

	producer := task.NewFrame("producer", nil, nil)
	consumer := task.NewFrame("consumer", nil, nil)
	pv := issue(t, q, producer, task.ModePush, 0)
	cv := issue(t, q, consumer, task.ModePrefix, 10)

	for i := 0; i < 4; i++ {
		pv.Push(i)
	}
	task.ReleaseAll(producer)

	var got []int
	for {
		v, ok := cv.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, got, "prefix(10) over only 4 produced elements must end at end-of-stream")
}

func TestQueue_GetReadSliceUptoRespectsSegmentBoundaryAndPrefixBudget(t *testing.T) {
	q := New[int](WithSegmentSize(4))

	producer := task.NewFrame("producer", nil, nil)
	consumer := task.NewFrame("consumer", nil, nil)
	pv := issue(t, q, producer, task.ModeSuffix, 10)
	cv := issue(t, q, consumer, task.ModePrefix, 7)

	for i := 0; i < 10; i++ {
		pv.Push(i)
	}
	task.ReleaseAll(producer)

	var got []int
	for {
		batch, ok := cv.GetReadSliceUpto(100, 0)
		if !ok {
			break
		}
		// segSize=4 bounds each batch even though more is committed.
		assert.LessOrEqual(t, len(batch), 4)
		got = append(got, batch...)
	}
	task.ReleaseAll(consumer)

	// prefix(7) over 10 produced elements stops after 7.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, got)
}

func TestQueue_EmptyAfterProducerReleaseWithNoData(t *testing.T) {
	q := New[int]()
	producer := task.NewFrame("producer", nil, nil)
	issue(t, q, producer, task.ModePush, 0)
	task.ReleaseAll(producer)

	assert.True(t, q.Empty())

	consumer := task.NewFrame("consumer", nil, nil)
	cv := issue(t, q, consumer, task.ModePop, 0)
	_, ok := cv.Pop()
	assert.False(t, ok)
}
