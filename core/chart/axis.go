package chart

import (
	"fmt"
	"io"
	"math"
	"time"

	svg "github.com/ajstarks/svgo"
)

// Orient is the side of the plot an axis is drawn on.
type Orient int

const (
	OrientBottom Orient = iota
	OrientLeft
)

const tickSize = 6

// Tick is one labelled tick of an axis.
type Tick struct {
	Pos   float64
	Label string
}

// Axis is a rendered d3-style axis: a domain path, tick lines and labels.
type Axis struct {
	Class  string
	Orient Orient
	Offset float64 // translate along the cross dimension
	R0, R1 float64 // pixel extent of the domain path
	Ticks  []Tick
}

func linearAxis(class string, orient Orient, offset float64, s *LinearScale) Axis {
	values := s.Ticks()
	labels := tickLabels(values)
	ticks := make([]Tick, len(values))
	for i, v := range values {
		ticks[i] = Tick{Pos: s.Map(v), Label: labels[i]}
	}
	r0, r1 := s.Range()
	return Axis{Class: class, Orient: orient, Offset: offset, R0: r0, R1: r1, Ticks: ticks}
}

func bandAxis(class string, offset float64, b *BandScale, r0, r1 float64) Axis {
	ticks := make([]Tick, len(b.Domain()))
	for i, name := range b.Domain() {
		ticks[i] = Tick{Pos: b.Pos(i) + b.Bandwidth()/2, Label: name}
	}
	return Axis{Class: class, Orient: OrientBottom, Offset: offset, R0: r0, R1: r1, Ticks: ticks}
}

func (a Axis) transform() string {
	if a.Orient == OrientLeft {
		return fmt.Sprintf(`transform="translate(%d,0)"`, px(a.Offset))
	}
	return fmt.Sprintf(`transform="translate(0,%d)"`, px(a.Offset))
}

func (a Axis) domainPath() string {
	if a.Orient == OrientLeft {
		return fmt.Sprintf("M%d,%dH0V%dH%d", -tickSize, px(a.R0), px(a.R1), -tickSize)
	}
	return fmt.Sprintf("M%d,%dV0H%dV%d", px(a.R0), tickSize, px(a.R1), tickSize)
}

func (a Axis) render(canvas *svg.SVG, id string) {
	canvas.Group(fmt.Sprintf(`id="%s"`, id), fmt.Sprintf(`class="%s"`, a.Class), a.transform())
	canvas.Path(a.domainPath(), `class="domain"`)
	for _, t := range a.Ticks {
		if math.IsNaN(t.Pos) || math.IsInf(t.Pos, 0) {
			continue
		}
		if a.Orient == OrientLeft {
			canvas.Group(`class="tick"`, fmt.Sprintf(`transform="translate(0,%d)"`, px(t.Pos)))
			canvas.Line(0, 0, -tickSize, 0)
			canvas.Text(-tickSize-3, 0, t.Label, `dy="0.32em"`, `text-anchor="end"`)
		} else {
			canvas.Group(`class="tick"`, fmt.Sprintf(`transform="translate(%d,0)"`, px(t.Pos)))
			canvas.Line(0, 0, 0, tickSize)
			canvas.Text(0, tickSize+3, t.Label, `dy="0.71em"`, `text-anchor="middle"`)
		}
		canvas.Gend()
	}
	canvas.Gend()
}

// AxisFrame is an axis together with the axis it replaces. The old axis fades
// out while the new one fades in.
type AxisFrame struct {
	ID       string
	From     *Axis
	To       Axis
	Duration time.Duration
}

func (f AxisFrame) render(canvas *svg.SVG) {
	if f.From == nil || f.Duration <= 0 {
		f.To.render(canvas, f.ID)
		return
	}
	oldID := f.ID + "-prev"
	f.From.render(canvas, oldID)
	fade(canvas.Writer, oldID, 1, 0, f.Duration)
	fmt.Fprintf(canvas.Writer, `<set xlink:href="#%s" attributeName="visibility" to="hidden" begin="%dms" fill="freeze"/>`+"\n",
		oldID, f.Duration.Milliseconds())
	f.To.render(canvas, f.ID)
	fade(canvas.Writer, f.ID, 0, 1, f.Duration)
}

func fade(w io.Writer, href string, from, to float64, dur time.Duration) {
	fmt.Fprintf(w, `<animate xlink:href="#%s" attributeName="opacity" from="%g" to="%g" begin="0ms" dur="%dms" fill="freeze"/>`+"\n",
		href, from, to, dur.Milliseconds())
}
