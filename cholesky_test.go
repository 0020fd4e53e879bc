package swan

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-foundations/swan/object"
)

// choleskyExpected replays the same update order on a plain slice, serving
// as the sequential oracle: this structure's (i,j) writes must serialize
// across k, so a correct implementation gives the identical result
// regardless of worker count or interleaving.
func choleskyExpected(dim int, init func(i, j int) int) [][]int {
	grid := make([][]int, dim)
	for i := range grid {
		grid[i] = make([]int, dim)
		for j := range grid[i] {
			grid[i][j] = init(i, j)
		}
	}
	for j := 0; j < dim; j++ {
		grid[j][j]++
		for i := j + 1; i < dim; i++ {
			for k := 0; k < j; k++ {
				grid[i][j] -= grid[i][k] * grid[j][k]
			}
		}
	}
	return grid
}

func runCholesky(dim, workers int) [][]int {
	os.Setenv("NUM_THREADS", strconv.Itoa(workers))
	defer os.Unsetenv("NUM_THREADS")

	init := func(i, j int) int { return i*dim + j + 1 }

	grid := make([][]*object.Object[int], dim)
	for i := range grid {
		grid[i] = make([]*object.Object[int], dim)
		for j := range grid[i] {
			grid[i][j] = NewObject(init(i, j))
		}
	}

	Run(func(t *T) {
		for j := 0; j < dim; j++ {
			jj := j
			t.Spawn("diag", []Dep{InOut(grid[jj][jj])}, func(ct *T) {
				Access(ct, grid[jj][jj]).Update(func(v int) int { return v + 1 })
			})
			for i := j + 1; i < dim; i++ {
				for k := 0; k < j; k++ {
					i, k := i, k
					t.Spawn("update", []Dep{In(grid[i][k]), In(grid[jj][k]), InOut(grid[i][jj])}, func(ct *T) {
						a := Access(ct, grid[i][k]).Get()
						b := Access(ct, grid[jj][k]).Get()
						Access(ct, grid[i][jj]).Update(func(v int) int { return v - a*b })
					})
				}
			}
		}
		t.Sync()
	})

	out := make([][]int, dim)
	for i := range out {
		out[i] = make([]int, dim)
		for j := range out[i] {
			out[i][j] = grid[i][j].Peek()
		}
	}
	return out
}

func TestCholeskyGrid_SerializesWritesAcrossK(t *testing.T) {
	const dim = 6
	want := choleskyExpected(dim, func(i, j int) int { return i*dim + j + 1 })

	for _, workers := range []int{1, 2, 4} {
		got := runCholesky(dim, workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}
