package grid

import (
	"fmt"
	"math"
)

// Map is a dense row-major grid of float64 values indexed by Position.
// Row X holds the Height cells (X,0)..(X,Height-1).
type Map struct {
	shape Shape
	cells []float64
}

func NewMap(shape Shape) Map {
	return Map{shape: shape, cells: make([]float64, shape.Area())}
}

// FromRows builds a Map from rows[x][y]. All rows must share one length.
func FromRows(rows [][]float64) (Map, error) {
	if len(rows) == 0 {
		return Map{}, fmt.Errorf("%w: empty map", ErrInvalidArgument)
	}
	shape := Shape{Width: len(rows), Height: len(rows[0])}
	m := NewMap(shape)
	for x, row := range rows {
		if len(row) != shape.Height {
			return Map{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidArgument, x, len(row), shape.Height)
		}
		copy(m.cells[x*shape.Height:(x+1)*shape.Height], row)
	}
	return m, nil
}

func (m Map) Shape() Shape {
	return m.shape
}

func (m Map) index(p Position) int {
	return p.X*m.shape.Height + p.Y
}

// At returns the value at p; p must be inside the map's shape.
func (m Map) At(p Position) float64 {
	return m.cells[m.index(p)]
}

func (m Map) Set(p Position, v float64) {
	m.cells[m.index(p)] = v
}

func (m Map) Zero() {
	clear(m.cells)
}

func (m Map) Clone() Map {
	return Map{shape: m.shape, cells: append([]float64(nil), m.cells...)}
}

// CopyFrom overwrites m with src; shapes must match.
func (m Map) CopyFrom(src Map) error {
	if src.shape != m.shape {
		return fmt.Errorf("%w: map shape %s does not match %s", ErrInvalidArgument, src.shape, m.shape)
	}
	copy(m.cells, src.cells)
	return nil
}

func (m Map) Sum() float64 {
	total := 0.0
	for _, v := range m.cells {
		total += v
	}
	return total
}

// Max returns the largest value and its first position in row-major order.
func (m Map) Max() (float64, Position) {
	best := math.Inf(-1)
	var at Position
	for i, v := range m.cells {
		if v > best {
			best = v
			at = Position{X: i / m.shape.Height, Y: i % m.shape.Height}
		}
	}
	return best, at
}

func (m Map) Min() float64 {
	lowest := math.Inf(1)
	for _, v := range m.cells {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}

// Normalized returns m scaled by 1/max(m). A map whose maximum is not
// positive normalizes to zeros.
func (m Map) Normalized() Map {
	out := NewMap(m.shape)
	peak, _ := m.Max()
	if peak <= 0 {
		return out
	}
	for i, v := range m.cells {
		out.cells[i] = v / peak
	}
	return out
}

func (m Map) IsZero() bool {
	for _, v := range m.cells {
		if v != 0 {
			return false
		}
	}
	return true
}

// Rows returns a copy of the map as rows[x][y].
func (m Map) Rows() [][]float64 {
	rows := make([][]float64, m.shape.Width)
	for x := range rows {
		rows[x] = append([]float64(nil), m.cells[x*m.shape.Height:(x+1)*m.shape.Height]...)
	}
	return rows
}

// Each calls fn for every cell in row-major order.
func (m Map) Each(fn func(p Position, v float64)) {
	for i, v := range m.cells {
		fn(Position{X: i / m.shape.Height, Y: i % m.shape.Height}, v)
	}
}
