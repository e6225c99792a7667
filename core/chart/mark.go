package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	svg "github.com/ajstarks/svgo"
)

// Shape is the SVG element a mark is drawn with.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeRect
)

// Geometry holds the animatable attributes of a mark. Circles use X, Y as the
// centre and R as the radius; rects use X, Y, W, H.
type Geometry struct {
	X, Y, W, H, R float64
}

func (g Geometry) finite() bool {
	for _, v := range [...]float64{g.X, g.Y, g.W, g.H, g.R} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Phase tells whether a mark is entering, staying or leaving in the current frame.
type Phase int

const (
	PhaseStatic Phase = iota
	PhaseEnter
	PhaseUpdate
	PhaseExit
)

func (p Phase) String() string {
	switch p {
	case PhaseEnter:
		return "enter"
	case PhaseUpdate:
		return "update"
	case PhaseExit:
		return "exit"
	}
	return "static"
}

// Mark is one data-bound visual element.
type Mark struct {
	Key       string
	Shape     Shape
	Geom      Geometry  // geometry at the end of the frame
	From      *Geometry // geometry when the animation starts; nil for no animation
	Style     Highlight
	Primary   string
	Secondary string
	Phase     Phase
	Delay     time.Duration
	Duration  time.Duration
}

func (m Mark) PrimaryLabel() string   { return m.Primary }
func (m Mark) SecondaryLabel() string { return m.Secondary }

func px(v float64) int {
	return int(math.Round(v))
}

// render writes the mark as a group carrying the hover binding, a title and the
// shape. Marks with non-finite geometry (NaN data) are not drawn.
func (m Mark) render(canvas *svg.SVG, id string) {
	start := m.Geom
	if m.From != nil {
		start = *m.From
	}
	if !start.finite() || !m.Geom.finite() {
		return
	}

	attrs := append([]string{fmt.Sprintf(`id="%s"`, id), attr("data-key", m.Key), attr("data-phase", m.Phase.String())},
		HoverAttrs(m, m.Style)...)
	canvas.Group(attrs...)
	canvas.Title(m.Primary + " " + m.Secondary)

	shapeID := id + "-shape"
	fill := fmt.Sprintf(`fill="%s"`, m.Style.Fill)
	switch m.Shape {
	case ShapeCircle:
		canvas.Circle(px(start.X), px(start.Y), px(start.R), fmt.Sprintf(`id="%s"`, shapeID), `class="shape"`, fill)
	case ShapeRect:
		canvas.Rect(px(start.X), px(start.Y), px(math.Max(start.W, 0)), px(math.Max(start.H, 0)),
			fmt.Sprintf(`id="%s"`, shapeID), `class="shape"`, fill)
	}

	if m.From != nil {
		from, to := *m.From, m.Geom
		switch m.Shape {
		case ShapeCircle:
			animate(canvas.Writer, shapeID, "cx", from.X, to.X, m.Delay, m.Duration)
			animate(canvas.Writer, shapeID, "cy", from.Y, to.Y, m.Delay, m.Duration)
		case ShapeRect:
			animate(canvas.Writer, shapeID, "x", from.X, to.X, m.Delay, m.Duration)
			animate(canvas.Writer, shapeID, "y", from.Y, to.Y, m.Delay, m.Duration)
			animate(canvas.Writer, shapeID, "width", math.Max(from.W, 0), math.Max(to.W, 0), m.Delay, m.Duration)
			animate(canvas.Writer, shapeID, "height", math.Max(from.H, 0), math.Max(to.H, 0), m.Delay, m.Duration)
		}
	}
	if m.Phase == PhaseExit {
		fmt.Fprintf(canvas.Writer, `<set xlink:href="#%s" attributeName="visibility" to="hidden" begin="%dms" fill="freeze"/>`+"\n",
			id, (m.Delay + m.Duration).Milliseconds())
	}
	canvas.Gend()
}

// animate writes a one-shot SMIL animation that holds its final value.
// Attributes whose pixel value does not change are skipped.
func animate(w io.Writer, href, name string, from, to float64, delay, dur time.Duration) {
	if px(from) == px(to) {
		return
	}
	fmt.Fprintf(w, `<animate xlink:href="#%s" attributeName="%s" from="%d" to="%d" begin="%dms" dur="%dms" fill="freeze"/>`+"\n",
		href, name, px(from), px(to), delay.Milliseconds(), dur.Milliseconds())
}
