package chart

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const styleSheet = `
text { font-family: sans-serif; font-size: 11px; }
.axis path, .axis line, .bottomAxis path, .bottomAxis line { fill: none; stroke: #000; shape-rendering: crispEdges; }
.mark { cursor: pointer; }
.tooltip { pointer-events: none; }
.tooltip rect { fill: #fff; stroke: #333; opacity: 0.9; }
.axisTitle { font-size: 13px; text-anchor: middle; }
`

// AxisTitle is a text label placed next to an axis.
type AxisTitle struct {
	ID     string
	X, Y   float64
	Text   string
	Rotate bool // rotated -90°, for the y axis
}

// LegendItem is one colour swatch and its label.
type LegendItem struct {
	X     float64
	Fill  string
	Label string
}

// Legend is a horizontal row of swatches centred under the plot.
type Legend struct {
	Y     float64 // top of the swatches
	Items []LegendItem
}

const (
	swatchSize = 10
	swatchGap  = 15
)

// Width returns the legend bounding-box width measured with a fixed bitmap font.
func (l Legend) Width() float64 {
	var w float64
	for _, it := range l.Items {
		end := it.X + swatchGap + float64(font.MeasureString(basicfont.Face7x13, it.Label).Ceil())
		w = max(w, end)
	}
	return w
}

func (l Legend) render(canvas *svg.SVG) {
	offset := float64(Width)/2 - l.Width()/2
	canvas.Group(`id="legend"`, fmt.Sprintf(`transform="translate(%d,0)"`, px(offset)))
	for _, it := range l.Items {
		canvas.Rect(px(it.X), px(l.Y), swatchSize, swatchSize, fmt.Sprintf(`fill="%s"`, it.Fill))
		canvas.Text(px(it.X)+swatchGap, px(l.Y)+swatchSize, it.Label)
	}
	canvas.Gend()
}

// Frame is one complete SVG document: marks, axes, titles and the transition
// from the previous frame.
type Frame struct {
	ID     string
	Marks  []Mark
	Axes   []AxisFrame
	Titles []AxisTitle
	Legend *Legend
}

// MarkID is the element id of the i-th mark of a frame.
func (f Frame) MarkID(i int) string {
	return fmt.Sprintf("%s-m%d", f.ID, i)
}

// WriteTo writes the frame as a standalone SVG document.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	canvas.Start(Width, Height, fmt.Sprintf(`id="%s"`, f.ID), fmt.Sprintf(`viewBox="0 0 %d %d"`, Width, Height))
	canvas.Style("text/css", styleSheet)

	for _, a := range f.Axes {
		a.render(canvas)
	}
	canvas.Group(`class="marks"`)
	for i, m := range f.Marks {
		m.render(canvas, f.MarkID(i))
	}
	canvas.Gend()
	for _, t := range f.Titles {
		attrs := []string{fmt.Sprintf(`id="%s"`, t.ID), `class="axisTitle"`}
		if t.Rotate {
			attrs = append(attrs, `transform="rotate(-90)"`)
		}
		canvas.Text(px(t.X), px(t.Y), t.Text, attrs...)
	}
	if f.Legend != nil {
		f.Legend.render(canvas)
	}
	writeTooltip(canvas.Writer)
	canvas.Script("text/ecmascript", HoverScript)
	canvas.End()

	return ew.n, ew.err
}

func writeTooltip(w io.Writer) {
	io.WriteString(w, `<g class="tooltip" id="tooltip" visibility="hidden">`+
		`<rect x="0" y="-14" width="0" height="0" rx="3"/>`+
		`<text x="6" y="0"><tspan x="6" dy="0"></tspan><tspan x="6" dy="1.2em"></tspan></text>`+
		"</g>\n")
}

// errWriter keeps the first write error; svgo ignores them.
type errWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.n += int64(n)
	e.err = err
	return n, err
}
