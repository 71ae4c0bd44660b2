package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"gridwalk/internal/grid"
)

// hotScale runs black, red, yellow, white over the 256-colour palette.
var hotScale = []uint8{16, 52, 88, 124, 160, 196, 202, 208, 214, 220, 226, 228, 230, 231}

const wallColor uint8 = 240

// Terminal writes maps as coloured text heatmaps.
type Terminal struct {
	w  io.Writer
	au aurora.Aurora
}

// NewTerminal returns a renderer writing to w. Colours are emitted only when
// colors is set, typically when w is a terminal.
func NewTerminal(w io.Writer, colors bool) *Terminal {
	return &Terminal{w: w, au: aurora.NewAurora(colors)}
}

func (t *Terminal) Render(title string, m grid.Map) error {
	shape := m.Shape()
	peak, _ := m.Max()
	withValues := annotate(shape)

	var b strings.Builder
	fmt.Fprintln(&b, t.au.Bold(title))
	for x := 0; x < shape.Width; x++ {
		for y := 0; y < shape.Height; y++ {
			v := m.At(grid.Position{X: x, Y: y})
			b.WriteString(t.cell(v, peak, withValues).String())
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Terminal) cell(v, peak float64, withValues bool) aurora.Value {
	if v < 0 {
		glyph := "##"
		if withValues {
			glyph = "   ## "
		}
		return t.au.Index(wallColor, glyph)
	}

	level := scale(v, peak)
	idx := int(level * float64(len(hotScale)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(hotScale) {
		idx = len(hotScale) - 1
	}
	bg := hotScale[idx]

	text := "  "
	if withValues {
		text = fmt.Sprintf(" %4.2f ", level)
	}
	fg := uint8(231)
	if idx >= len(hotScale)/2 {
		fg = 16
	}
	return t.au.Index(fg, t.au.BgIndex(bg, text))
}
