// Package render displays walker maps. Renderers are purely presentational
// and never feed back into the engine.
package render

import (
	"math"

	"gridwalk/internal/grid"
)

type Renderer interface {
	Render(title string, m grid.Map) error
}

// annotateLimit is the size below which cells carry their numeric value.
const annotateLimit = 20

func annotate(shape grid.Shape) bool {
	return shape.Width < annotateLimit && shape.Height < annotateLimit
}

// scale maps v into [0,1] relative to peak. Negative values stay negative.
func scale(v, peak float64) float64 {
	if v < 0 {
		return v
	}
	if peak <= 1 {
		return v
	}
	return v / peak
}

// band rounds a level in [0,1] down to the nearest of levels equal steps.
// The top of the range stays 1.
func band(level float64, levels int) float64 {
	if level >= 1 {
		return 1
	}
	return math.Floor(level*float64(levels)) / float64(levels)
}
