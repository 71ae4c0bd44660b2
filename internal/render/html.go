package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"gridwalk/internal/grid"
)

var hotColors = []string{"#000000", "#7f0000", "#ff0000", "#ff7f00", "#ffff00", "#ffffff"}

// Page collects heatmaps into a single HTML document.
type Page struct {
	page   *components.Page
	charts int
}

func NewPage(title string) *Page {
	page := components.NewPage()
	page.PageTitle = title
	return &Page{page: page}
}

// DefaultContourLevels is the number of bands used by Contour when levels
// is not positive.
const DefaultContourLevels = 8

func (p *Page) Render(title string, m grid.Map) error {
	peak, _ := m.Max()
	return p.addHeatMap(title, m, func(v float64) float64 { return scale(v, peak) })
}

// Contour adds m quantized into levels equal bands, so that cells of one
// band share a colour and band edges read as contour lines.
func (p *Page) Contour(title string, m grid.Map, levels int) error {
	if levels <= 0 {
		levels = DefaultContourLevels
	}
	peak, _ := m.Max()
	return p.addHeatMap(title, m, func(v float64) float64 { return band(scale(v, peak), levels) })
}

func (p *Page) addHeatMap(title string, m grid.Map, level func(float64) float64) error {
	shape := m.Shape()
	if shape.Area() == 0 {
		return fmt.Errorf("%w: cannot render an empty map", grid.ErrInvalidArgument)
	}

	rows := make([]string, shape.Width)
	for x := range rows {
		rows[x] = fmt.Sprint(x)
	}
	cols := make([]string, shape.Height)
	for y := range cols {
		cols[y] = fmt.Sprint(y)
	}

	data := make([]opts.HeatMapData, 0, shape.Area())
	m.Each(func(pos grid.Position, v float64) {
		if v < 0 {
			data = append(data, opts.HeatMapData{Value: [3]any{pos.Y, pos.X, "-"}})
			return
		}
		data = append(data, opts.HeatMapData{Value: [3]any{pos.Y, pos.X, level(v)}})
	})

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: cols}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rows, Inverse: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: hotColors},
		}),
	)
	hm.AddSeries(title, data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(annotate(shape))}))

	p.page.AddCharts(hm)
	p.charts++
	return nil
}

func (p *Page) Len() int {
	return p.charts
}

func (p *Page) Write(w io.Writer) error {
	return p.page.Render(w)
}
