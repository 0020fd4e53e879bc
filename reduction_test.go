package swan

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type orMonad struct{}

func (orMonad) Identity() uint64          { return 0 }
func (orMonad) Reduce(a, b uint64) uint64 { return a | b }
func (orMonad) Cheap() bool               { return true }

func TestReduction_ORMonadSixtyFourTasks(t *testing.T) {
	os.Setenv("NUM_THREADS", "8")
	defer os.Unsetenv("NUM_THREADS")

	acc := NewReduction[uint64](orMonad{})

	Run(func(t *T) {
		for i := 0; i < 64; i++ {
			i := i
			t.Spawn("or-bit", []Dep{Reduction(acc)}, func(ct *T) {
				Access(ct, acc).Update(func(v uint64) uint64 { return v | (1 << uint(i)) })
			})
		}
		t.Sync()
	})

	assert.Equal(t, ^uint64(0), acc.Value())
}
