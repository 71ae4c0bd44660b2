package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{Width: 4, Height: 4}.Validate())
	require.NoError(t, Shape{Width: 12, Height: 5}.Validate())

	for _, bad := range []Shape{{Width: 3, Height: 4}, {Width: 4, Height: 0}, {Width: -6, Height: 6}} {
		err := bad.Validate()
		require.Error(t, err, "shape %s", bad)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
}

func TestShapeCheckRejectsOutOfBounds(t *testing.T) {
	shape := Shape{Width: 5, Height: 4}
	require.NoError(t, shape.Check(Position{X: 4, Y: 3}))
	for _, p := range []Position{{X: -1, Y: 0}, {X: 5, Y: 0}, {X: 0, Y: 4}, {X: 2, Y: -3}} {
		err := shape.Check(p)
		require.Error(t, err, "position %s", p)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestAdjacentDropsNegativeCoordinates(t *testing.T) {
	assert.Equal(t, []Position{{X: 1, Y: 0}, {X: 0, Y: 1}}, Position{}.Adjacent())
	assert.Equal(t, []Position{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 3}}, Position{X: 2, Y: 2}.Adjacent())
}

func TestNeighborsStayInsideShape(t *testing.T) {
	shape := Shape{Width: 4, Height: 4}
	assert.Equal(t, []Position{{X: 2, Y: 3}, {X: 3, Y: 2}}, shape.Neighbors(Position{X: 3, Y: 3}))
	for x := 0; x < shape.Width; x++ {
		for y := 0; y < shape.Height; y++ {
			for _, n := range shape.Neighbors(Position{X: x, Y: y}) {
				assert.True(t, shape.Contains(n), "neighbour %s of (%d,%d)", n, x, y)
			}
		}
	}
}

func TestManhattan(t *testing.T) {
	assert.Equal(t, 6, Manhattan(Position{X: 1, Y: 1}, Position{X: 4, Y: 4}))
	assert.Equal(t, 5, Manhattan(Position{X: 4, Y: 0}, Position{X: 0, Y: 1}))
	assert.Equal(t, 0, Manhattan(Position{X: 2, Y: 2}, Position{X: 2, Y: 2}))
}

func TestInterior(t *testing.T) {
	shape := Shape{Width: 5, Height: 6}
	assert.True(t, shape.Interior(Position{X: 1, Y: 1}))
	assert.True(t, shape.Interior(Position{X: 3, Y: 4}))
	assert.False(t, shape.Interior(Position{X: 0, Y: 2}))
	assert.False(t, shape.Interior(Position{X: 4, Y: 2}))
	assert.False(t, shape.Interior(Position{X: 2, Y: 5}))
}
