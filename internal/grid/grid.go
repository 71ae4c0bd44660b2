package grid

import (
	"errors"
	"fmt"
)

// MinDimension is the smallest accepted width or height.
const MinDimension = 4

var ErrInvalidArgument = errors.New("invalid argument")

type Shape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Shape) Validate() error {
	if s.Width < MinDimension || s.Height < MinDimension {
		return fmt.Errorf("%w: map shape %dx%d, both dimensions must be >= %d", ErrInvalidArgument, s.Width, s.Height, MinDimension)
	}
	return nil
}

func (s Shape) Area() int {
	return s.Width * s.Height
}

func (s Shape) Contains(p Position) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// Check reports an ErrInvalidArgument when p lies outside s.
func (s Shape) Check(p Position) error {
	if !s.Contains(p) {
		return fmt.Errorf("%w: position %s outside %dx%d map", ErrInvalidArgument, p, s.Width, s.Height)
	}
	return nil
}

// Interior reports whether p lies inside s and off its outermost ring.
func (s Shape) Interior(p Position) bool {
	return p.X >= 1 && p.X <= s.Width-2 && p.Y >= 1 && p.Y <= s.Height-2
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Adjacent returns the four axis-aligned neighbours of p in a fixed order
// (left, right, up, down), dropping any with a negative coordinate.
func (p Position) Adjacent() []Position {
	out := make([]Position, 0, 4)
	for _, n := range [4]Position{
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
	} {
		if n.X < 0 || n.Y < 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Neighbors returns the adjacent positions of p that fall inside s.
func (s Shape) Neighbors(p Position) []Position {
	adjacent := p.Adjacent()
	out := adjacent[:0]
	for _, n := range adjacent {
		if s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

func Manhattan(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
