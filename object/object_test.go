package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-foundations/swan/internal/task"
)

func issue(t *testing.T, dep task.Dependency, fr *task.Frame, mode task.AccessMode) (any, bool) {
	t.Helper()
	fr.Bindings = append(fr.Bindings, task.Binding{Dep: dep, Mode: mode})
	ready := task.IssueAll(fr)
	return fr.Claim(dep), ready
}

func TestObject_InReadersRunConcurrently(t *testing.T) {
	o := New(7)

	fr1 := task.NewFrame("r1", nil, nil)
	fr2 := task.NewFrame("r2", nil, nil)

	_, ready1 := issue(t, o, fr1, task.ModeIn)
	_, ready2 := issue(t, o, fr2, task.ModeIn)

	assert.True(t, ready1)
	assert.True(t, ready2, "a second reader must not queue behind the first")

	assert.Equal(t, 7, Access(fr1, o).Get())
	assert.Equal(t, 7, Access(fr2, o).Get())
}

func TestObject_OutWithRenamingDoesNotBlockConcurrentOut(t *testing.T) {
	o := New(0, WithRenaming(true))

	fr1 := task.NewFrame("w1", nil, nil)
	fr2 := task.NewFrame("w2", nil, nil)

	_, ready1 := issue(t, o, fr1, task.ModeOut)
	_, ready2 := issue(t, o, fr2, task.ModeOut)

	require.True(t, ready1)
	assert.True(t, ready2, "renaming should let a second writer proceed against a fresh version")

	Access(fr1, o).Set(1)
	Access(fr2, o).Set(2)

	task.ReleaseAll(fr1)
	task.ReleaseAll(fr2)

	assert.Equal(t, 2, o.Peek(), "the later write must win (program-order generation advance)")
}

func TestObject_OutWithoutRenamingSerializes(t *testing.T) {
	o := New(0, WithRenaming(false))

	fr1 := task.NewFrame("w1", nil, nil)
	fr2 := task.NewFrame("w2", nil, nil)

	_, ready1 := issue(t, o, fr1, task.ModeOut)
	_, ready2 := issue(t, o, fr2, task.ModeOut)

	require.True(t, ready1)
	assert.False(t, ready2, "without renaming, a second writer must queue behind the first")

	Access(fr1, o).Set(1)
	woken := task.ReleaseAll(fr1)
	require.Len(t, woken, 1)
	assert.Same(t, fr2, woken[0])

	Access(fr2, o).Set(2)
	task.ReleaseAll(fr2)

	assert.Equal(t, 2, o.Peek())
}

func TestObject_InOutSerializesAgainstReaders(t *testing.T) {
	o := New(5)

	reader := task.NewFrame("reader", nil, nil)
	writer := task.NewFrame("writer", nil, nil)

	_, readerReady := issue(t, o, reader, task.ModeIn)
	_, writerReady := issue(t, o, writer, task.ModeInOut)

	require.True(t, readerReady)
	assert.False(t, writerReady, "inout must wait out an in-flight reader")

	woken := task.ReleaseAll(reader)
	require.Len(t, woken, 1)
	assert.Same(t, writer, woken[0])
}

func TestObject_CInOutSerializesAgainstOtherCInOut(t *testing.T) {
	o := New(0)

	fr1 := task.NewFrame("c1", nil, nil)
	fr2 := task.NewFrame("c2", nil, nil)

	_, ready1 := issue(t, o, fr1, task.ModeCInOut)
	_, ready2 := issue(t, o, fr2, task.ModeCInOut)

	assert.True(t, ready1)
	assert.False(t, ready2, "cinout accessors are mutually exclusive with each other, just not FIFO-ordered")

	woken := task.ReleaseAll(fr1)
	require.Len(t, woken, 1)
	assert.Same(t, fr2, woken[0], "releasing the first cinout claim lets the next queued peer in, in any order")
}

func TestObject_RenamingRoundTripPreservesOrder(t *testing.T) {
	for _, renaming := range []bool{true, false} {
		o := New(0, WithRenaming(renaming))
		var frames []*task.Frame
		for i := 1; i <= 4; i++ {
			fr := task.NewFrame("w", nil, nil)
			issue(t, o, fr, task.ModeOut)
			frames = append(frames, fr)
		}
		for i, fr := range frames {
			Access(fr, o).Set(i + 1)
			task.ReleaseAll(fr)
		}
		assert.Equal(t, 4, o.Peek(), "renaming=%v must not change the final serialized value", renaming)
	}
}

func TestAccess_PanicsOnUnrelatedFrame(t *testing.T) {
	o := New(1)
	fr := task.NewFrame("stranger", nil, nil)
	fr.Claims = map[task.Dependency]any{}

	assert.Panics(t, func() { Access(fr, o) })
}
