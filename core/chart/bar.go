package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"trackviz/core/histogram"
	"trackviz/model"
)

// Bar is the single-field histogram. Bars are keyed by bucket start, so a
// command that changes the field or width replaces bars rather than moving them.
type Bar struct {
	tracks  []model.Track
	cmd     Command
	buckets []histogram.Bucket
	x, y    *LinearScale
	xAxis   Axis
	yAxis   Axis
	geoms   map[string]Geometry
	keys    []string
	frame   Frame
}

// NewBar draws the first frame.
func NewBar(tracks []model.Track, cmd Command) (*Bar, error) {
	if cmd.Chart != ChartBar {
		return nil, fmt.Errorf("%w: %s is not a bar command", ErrUnknownChart, cmd.Chart)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := histogram.CheckWidth(tracks, cmd.Field, cmd.Width); err != nil {
		return nil, err
	}
	b := &Bar{tracks: tracks}
	b.layout(cmd)

	marks := make([]Mark, len(b.buckets))
	for i, bk := range b.buckets {
		marks[i] = b.mark(bk)
	}
	b.frame = b.buildFrame(marks, nil, nil)
	return b, nil
}

// BucketKey is the join key of the bucket starting at start.
func BucketKey(start float64) string {
	return strconv.FormatFloat(start, 'g', -1, 64)
}

// layout recomputes buckets, scales, axes and the geometry of every bar.
func (b *Bar) layout(cmd Command) {
	b.cmd = cmd
	b.buckets = histogram.GroupData(b.tracks, cmd.Field, cmd.Width)

	if len(b.buckets) == 0 {
		b.x = NewLinearScale(0, 1, BarLeftMargin, Width-RightMargin)
	} else {
		b.x = NewLinearScale(b.buckets[0].Start, b.buckets[len(b.buckets)-1].End, BarLeftMargin, Width-RightMargin)
	}
	maxCount := lo.Max(lo.Map(b.buckets, func(bk histogram.Bucket, _ int) int { return bk.Count() }))
	if maxCount == 0 {
		maxCount = 1
	}
	b.y = NewLinearScale(0, float64(maxCount), baseline, TopMargin).Nice()
	b.xAxis = linearAxis("axis", OrientBottom, baseline, b.x)
	b.yAxis = linearAxis("axis", OrientLeft, BarLeftMargin, b.y)

	b.keys = make([]string, len(b.buckets))
	b.geoms = make(map[string]Geometry, len(b.buckets))
	for i, bk := range b.buckets {
		k := BucketKey(bk.Start)
		b.keys[i] = k
		b.geoms[k] = b.geometry(bk)
	}
}

func (b *Bar) geometry(bk histogram.Bucket) Geometry {
	x0 := b.x.Map(bk.Start)
	y := b.y.Map(float64(bk.Count()))
	return Geometry{
		X: x0 + 1,
		Y: y,
		W: max(b.x.Map(bk.End)-x0-2, 1),
		H: baseline - y,
	}
}

func (b *Bar) mark(bk histogram.Bucket) Mark {
	k := BucketKey(bk.Start)
	return Mark{
		Key:       k,
		Shape:     ShapeRect,
		Geom:      b.geoms[k],
		Style:     barHighlight(PrimaryColor),
		Primary:   rangeLabel(bk.Start, bk.End, b.cmd.Unit),
		Secondary: strconv.Itoa(bk.Count()),
	}
}

// rangeLabel formats a bucket range for the tooltip. Unitless ranges use one
// significant digit.
func rangeLabel(start, end float64, unit string) string {
	if unit == "" {
		return strings.TrimSpace(fmt.Sprintf("%s - %s",
			strconv.FormatFloat(start, 'g', 1, 64), strconv.FormatFloat(end, 'g', 1, 64)))
	}
	return fmt.Sprintf("%s - %s %s",
		strconv.FormatFloat(start, 'g', -1, 64), strconv.FormatFloat(end, 'g', -1, 64), unit)
}

// Update rebuckets and joins the new bars against the current ones. Leaving
// bars shrink to the baseline during the first half of the transition; entering
// and remaining bars move into place during the second half.
func (b *Bar) Update(cmd Command) (Join, error) {
	if cmd.Chart != ChartBar {
		return Join{}, fmt.Errorf("%w: %s is not a bar command", ErrUnknownChart, cmd.Chart)
	}
	if err := cmd.Validate(); err != nil {
		return Join{}, err
	}
	if err := histogram.CheckWidth(b.tracks, cmd.Field, cmd.Width); err != nil {
		return Join{}, err
	}
	prevKeys, prevGeoms := b.keys, b.geoms
	prevX, prevY := b.xAxis, b.yAxis
	prevMarks := lo.KeyBy(b.frame.Marks, func(m Mark) string { return m.Key })

	b.layout(cmd)
	j := JoinKeys(prevKeys, b.keys)
	half := TransitionDuration / 2

	marks := make([]Mark, 0, len(j.Exit)+len(b.buckets))
	for _, k := range j.Exit {
		m := prevMarks[k]
		from := prevGeoms[k]
		m.From = &from
		m.Geom = Geometry{X: from.X, Y: baseline, W: from.W, H: 0}
		m.Phase = PhaseExit
		m.Delay = 0
		m.Duration = half
		marks = append(marks, m)
	}
	for _, bk := range b.buckets {
		m := b.mark(bk)
		from, ok := prevGeoms[m.Key]
		if ok {
			m.Phase = PhaseUpdate
		} else {
			m.Phase = PhaseEnter
			from = Geometry{X: m.Geom.X, Y: baseline, W: m.Geom.W, H: 0}
		}
		m.From = &from
		m.Delay = half
		m.Duration = half
		marks = append(marks, m)
	}
	b.frame = b.buildFrame(marks, &prevX, &prevY)
	return j, nil
}

func (b *Bar) buildFrame(marks []Mark, prevX, prevY *Axis) Frame {
	xAxis := AxisFrame{ID: "barXAxis", To: b.xAxis}
	yAxis := AxisFrame{ID: "barYAxis", To: b.yAxis}
	if prevX != nil {
		xAxis.From, xAxis.Duration = prevX, TransitionDuration
	}
	if prevY != nil {
		yAxis.From, yAxis.Duration = prevY, TransitionDuration
	}
	return Frame{
		ID:    "barChart",
		Marks: marks,
		Axes:  []AxisFrame{xAxis, yAxis},
		Titles: []AxisTitle{
			{ID: "xAxisLabel", X: (Width + BarLeftMargin + RightMargin) / 2, Y: Height - 15, Text: b.cmd.Label},
		},
	}
}

// Buckets returns the buckets behind the current bars.
func (b *Bar) Buckets() []histogram.Bucket { return b.buckets }

// Frame returns the latest frame, including the transition from the previous one.
func (b *Bar) Frame() Frame { return b.frame }

// Command returns the command the chart currently shows.
func (b *Bar) Command() Command { return b.cmd }

// Keys returns the bucket keys in draw order.
func (b *Bar) Keys() []string { return append([]string(nil), b.keys...) }
