package object

import "golang.org/x/exp/constraints"

// Sum is a reduction monad folding numeric contributions by addition.
// Grounded on golang.org/x/exp/constraints, the same numeric-constraint
// shape catrate's ring buffer uses for its own generic type parameter.
type Sum[T constraints.Integer | constraints.Float] struct{}

func (Sum[T]) Identity() T     { return 0 }
func (Sum[T]) Reduce(a, b T) T { return a + b }
func (Sum[T]) Cheap() bool     { return true }

// Max is a reduction monad folding by the running maximum. constraints.
// Ordered has no generic notion of a minimum value, so the caller supplies
// Zero: it must be less than or equal to every value Reduce will ever see.
type Max[T constraints.Ordered] struct{ Zero T }

func (m Max[T]) Identity() T { return m.Zero }
func (Max[T]) Reduce(a, b T) T {
	if b > a {
		return b
	}
	return a
}
func (Max[T]) Cheap() bool { return true }

// Min is a reduction monad folding by the running minimum, the dual of Max.
// Zero must be greater than or equal to every value Reduce will ever see.
type Min[T constraints.Ordered] struct{ Zero T }

func (m Min[T]) Identity() T { return m.Zero }
func (Min[T]) Reduce(a, b T) T {
	if b < a {
		return b
	}
	return a
}
func (Min[T]) Cheap() bool { return true }
