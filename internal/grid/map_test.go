package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSetAtRowsLayout(t *testing.T) {
	m := NewMap(Shape{Width: 4, Height: 5})
	m.Set(Position{X: 1, Y: 3}, 7)
	m.Set(Position{X: 3, Y: 0}, 2)

	assert.Equal(t, 7.0, m.At(Position{X: 1, Y: 3}))
	rows := m.Rows()
	require.Len(t, rows, 4)
	require.Len(t, rows[0], 5)
	assert.Equal(t, 7.0, rows[1][3])
	assert.Equal(t, 2.0, rows[3][0])

	rows[1][3] = 100
	assert.Equal(t, 7.0, m.At(Position{X: 1, Y: 3}), "rows must be a copy")
}

func TestMapNormalized(t *testing.T) {
	m := NewMap(Shape{Width: 4, Height: 4})
	m.Set(Position{X: 0, Y: 1}, 2)
	m.Set(Position{X: 2, Y: 2}, 8)

	n := m.Normalized()
	peak, at := n.Max()
	assert.Equal(t, 1.0, peak)
	assert.Equal(t, Position{X: 2, Y: 2}, at)
	assert.Equal(t, 0.25, n.At(Position{X: 0, Y: 1}))
	assert.Equal(t, 1.25, n.Sum())
	assert.Equal(t, 8.0, m.At(Position{X: 2, Y: 2}), "source must be untouched")

	zero := NewMap(Shape{Width: 4, Height: 4}).Normalized()
	assert.True(t, zero.IsZero())
}

func TestMapCloneAndZero(t *testing.T) {
	m := NewMap(Shape{Width: 4, Height: 4})
	m.Set(Position{X: 3, Y: 3}, 1)
	c := m.Clone()
	m.Zero()

	assert.True(t, m.IsZero())
	assert.Equal(t, 1.0, c.At(Position{X: 3, Y: 3}))
}

func TestMapCopyFromRejectsShapeMismatch(t *testing.T) {
	dst := NewMap(Shape{Width: 4, Height: 4})
	err := dst.CopyFrom(NewMap(Shape{Width: 5, Height: 4}))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{0, 1, 2}, {3, 4, 5}})
	require.NoError(t, err)
	assert.Equal(t, Shape{Width: 2, Height: 3}, m.Shape())
	assert.Equal(t, 5.0, m.At(Position{X: 1, Y: 2}))

	_, err = FromRows([][]float64{{0, 1}, {2}})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = FromRows(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMapEachVisitsRowMajor(t *testing.T) {
	m := NewMap(Shape{Width: 4, Height: 4})
	var visited []Position
	m.Each(func(p Position, _ float64) {
		visited = append(visited, p)
	})
	require.Len(t, visited, 16)
	assert.Equal(t, Position{X: 0, Y: 1}, visited[1])
	assert.Equal(t, Position{X: 1, Y: 0}, visited[4])
	assert.Equal(t, 0.0, m.Min())
}
