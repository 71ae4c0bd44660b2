// Package oracle defines the position-value capability the walker consumes.
package oracle

import "gridwalk/internal/grid"

// Oracle maps a grid cell to a scalar. Negative values mark forbidden cells;
// non-negative values are passable and may carry a weight.
type Oracle interface {
	Value(p grid.Position) float64
}

// Func adapts a plain function to Oracle.
type Func func(p grid.Position) float64

func (f Func) Value(p grid.Position) float64 {
	return f(p)
}

func IsForbidden(value float64) bool {
	return value < 0
}

// Passable reports whether o allows entering p.
func Passable(o Oracle, p grid.Position) bool {
	return !IsForbidden(o.Value(p))
}

// Bounded wraps o so that every cell outside shape is forbidden.
func Bounded(shape grid.Shape, o Oracle) Oracle {
	return Func(func(p grid.Position) float64 {
		if !shape.Contains(p) {
			return -1
		}
		return o.Value(p)
	})
}

// Open returns an oracle for a fully passable grid of the given shape.
func Open(shape grid.Shape) Oracle {
	return Bounded(shape, Func(func(grid.Position) float64 { return 0 }))
}
