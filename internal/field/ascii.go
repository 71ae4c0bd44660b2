package field

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gridwalk/internal/grid"
)

const (
	glyphWall   = '#'
	glyphOpen   = '.'
	glyphStart  = 'S'
	glyphTarget = 'T'
)

// Layout is a parsed ASCII field with optional start and target markers.
type Layout struct {
	Field  *Field
	Start  *grid.Position
	Target *grid.Position
}

// Parse reads an ASCII map. Line i is row X=i and column j is Y=j.
// '#' is a wall, '.' open, 'S' the start and 'T' the target.
func Parse(r io.Reader) (Layout, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return Layout{}, err
	}
	if len(lines) == 0 {
		return Layout{}, fmt.Errorf("%w: empty field", grid.ErrInvalidArgument)
	}

	shape := grid.Shape{Width: len(lines), Height: len(lines[0])}
	values := grid.NewMap(shape)
	var layout Layout
	for x, line := range lines {
		if len(line) != shape.Height {
			return Layout{}, fmt.Errorf("%w: field line %d has %d cells, want %d", grid.ErrInvalidArgument, x+1, len(line), shape.Height)
		}
		for y, c := range []byte(line) {
			p := grid.Position{X: x, Y: y}
			switch c {
			case glyphWall:
				values.Set(p, Wall)
			case glyphOpen:
			case glyphStart:
				if layout.Start != nil {
					return Layout{}, fmt.Errorf("%w: field has more than one start", grid.ErrInvalidArgument)
				}
				layout.Start = &p
			case glyphTarget:
				if layout.Target != nil {
					return Layout{}, fmt.Errorf("%w: field has more than one target", grid.ErrInvalidArgument)
				}
				layout.Target = &p
			default:
				return Layout{}, fmt.Errorf("%w: unknown field glyph %q at %s", grid.ErrInvalidArgument, c, p)
			}
		}
	}

	f, err := FromMap(values)
	if err != nil {
		return Layout{}, err
	}
	layout.Field = f
	return layout, nil
}

// Format writes f as ASCII, marking start and target when given.
func Format(w io.Writer, f *Field, start, target *grid.Position) error {
	shape := f.Shape()
	var b strings.Builder
	for x := 0; x < shape.Width; x++ {
		for y := 0; y < shape.Height; y++ {
			p := grid.Position{X: x, Y: y}
			switch {
			case start != nil && *start == p:
				b.WriteByte(glyphStart)
			case target != nil && *target == p:
				b.WriteByte(glyphTarget)
			case f.Value(p) < 0:
				b.WriteByte(glyphWall)
			default:
				b.WriteByte(glyphOpen)
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
