// Package field provides grid-backed environments that act as position-value
// oracles. Cells holding a negative value are walls.
package field

import (
	"math/rand"

	"gridwalk/internal/grid"
)

// Wall is the value stored in impassable cells.
const Wall = -1.0

type Field struct {
	values grid.Map
}

// NewEmpty returns a field with every cell set to 0, optionally walled on
// its outermost ring.
func NewEmpty(shape grid.Shape, borders bool) (*Field, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	f := &Field{values: grid.NewMap(shape)}
	if borders {
		f.PlaceBorders()
	}
	return f, nil
}

// NewRandom returns a field with cells drawn uniformly from [0,1).
func NewRandom(shape grid.Shape, rng *rand.Rand, borders bool) (*Field, error) {
	f, err := NewEmpty(shape, false)
	if err != nil {
		return nil, err
	}
	f.values.Each(func(p grid.Position, _ float64) {
		f.values.Set(p, rng.Float64())
	})
	if borders {
		f.PlaceBorders()
	}
	return f, nil
}

// NewMaze returns a bordered field where each interior cell is a wall with
// probability density. Cells listed in keep stay open.
func NewMaze(shape grid.Shape, rng *rand.Rand, density float64, keep ...grid.Position) (*Field, error) {
	f, err := NewEmpty(shape, true)
	if err != nil {
		return nil, err
	}
	f.values.Each(func(p grid.Position, _ float64) {
		if shape.Interior(p) && rng.Float64() < density {
			f.values.Set(p, Wall)
		}
	})
	for _, p := range keep {
		if shape.Contains(p) {
			f.values.Set(p, 0)
		}
	}
	return f, nil
}

func FromMap(values grid.Map) (*Field, error) {
	if err := values.Shape().Validate(); err != nil {
		return nil, err
	}
	return &Field{values: values.Clone()}, nil
}

func (f *Field) Shape() grid.Shape {
	return f.values.Shape()
}

// Value implements oracle.Oracle. Cells outside the field are walls.
func (f *Field) Value(p grid.Position) float64 {
	if !f.values.Shape().Contains(p) {
		return Wall
	}
	return f.values.At(p)
}

func (f *Field) Set(p grid.Position, v float64) error {
	if err := f.values.Shape().Check(p); err != nil {
		return err
	}
	f.values.Set(p, v)
	return nil
}

func (f *Field) Block(p grid.Position) error {
	return f.Set(p, Wall)
}

// Enclose walls off every in-bounds neighbour of p, leaving p itself open.
func (f *Field) Enclose(p grid.Position) error {
	shape := f.values.Shape()
	if err := shape.Check(p); err != nil {
		return err
	}
	for _, n := range shape.Neighbors(p) {
		f.values.Set(n, Wall)
	}
	return nil
}

func (f *Field) PlaceBorders() {
	shape := f.values.Shape()
	f.values.Each(func(p grid.Position, _ float64) {
		if !shape.Interior(p) {
			f.values.Set(p, Wall)
		}
	})
}

// Map returns a copy of the field values.
func (f *Field) Map() grid.Map {
	return f.values.Clone()
}
