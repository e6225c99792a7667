package chart

import (
	"fmt"

	"github.com/samber/lo"

	"trackviz/core/histogram"
	"trackviz/model"
)

// Scatter is the energy vs. field scatter plot. The set of points is fixed at
// construction; commands only move points vertically.
type Scatter struct {
	tracks []model.Track
	keys   []string
	cmd    Command
	x, y   *LinearScale
	xAxis  Axis
	yAxis  Axis
	frame  Frame
}

// NewScatter draws the first frame. Tracks with a duplicate id keep their
// first occurrence only.
func NewScatter(tracks []model.Track, cmd Command) (*Scatter, error) {
	if cmd.Chart != ChartScatter {
		return nil, fmt.Errorf("%w: %s is not a scatter command", ErrUnknownChart, cmd.Chart)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	s := &Scatter{
		tracks: lo.UniqBy(tracks, func(t model.Track) string { return t.ID }),
		cmd:    cmd,
		x:      NewLinearScale(0, 1, ScatterLeftMargin, Width-RightMargin),
	}
	s.keys = lo.Map(s.tracks, func(t model.Track, _ int) string { return t.ID })
	s.xAxis = linearAxis("axis", OrientBottom, baseline, s.x)
	s.y = s.yScale(cmd.Field)
	s.yAxis = linearAxis("axis", OrientLeft, ScatterLeftMargin, s.y)

	marks := make([]Mark, len(s.tracks))
	for i, t := range s.tracks {
		marks[i] = s.mark(t, s.y, cmd.Field)
	}
	s.frame = s.buildFrame(marks, nil)
	return s, nil
}

func (s *Scatter) yScale(f model.Field) *LinearScale {
	low, high := histogram.Bounds(s.tracks, f)
	return NewLinearScale(low, high, baseline, TopMargin).Nice()
}

func (s *Scatter) mark(t model.Track, y *LinearScale, f model.Field) Mark {
	return Mark{
		Key:       t.ID,
		Shape:     ShapeCircle,
		Geom:      Geometry{X: s.x.Map(t.Energy), Y: y.Map(f.Value(t)), R: pointRadius},
		Style:     pointHighlight(PrimaryColor),
		Primary:   `"` + t.Name + `"`,
		Secondary: "- " + t.Artist,
	}
}

// Update swaps the y field. Every point stays and animates its cy.
func (s *Scatter) Update(cmd Command) (Join, error) {
	if cmd.Chart != ChartScatter {
		return Join{}, fmt.Errorf("%w: %s is not a scatter command", ErrUnknownChart, cmd.Chart)
	}
	if err := cmd.Validate(); err != nil {
		return Join{}, err
	}
	prevY, prevField := s.y, s.cmd.Field
	s.y = s.yScale(cmd.Field)
	prevAxis := s.yAxis
	s.yAxis = linearAxis("axis", OrientLeft, ScatterLeftMargin, s.y)

	marks := make([]Mark, len(s.tracks))
	for i, t := range s.tracks {
		from := s.mark(t, prevY, prevField).Geom
		m := s.mark(t, s.y, cmd.Field)
		m.From = &from
		m.Phase = PhaseUpdate
		m.Duration = TransitionDuration
		marks[i] = m
	}
	s.cmd = cmd
	s.frame = s.buildFrame(marks, &prevAxis)
	return JoinKeys(s.keys, s.keys), nil
}

func (s *Scatter) buildFrame(marks []Mark, prevY *Axis) Frame {
	yAxis := AxisFrame{ID: "scatterYAxis", To: s.yAxis}
	if prevY != nil {
		yAxis.From = prevY
		yAxis.Duration = TransitionDuration
	}
	return Frame{
		ID:    "scatterPlot",
		Marks: marks,
		Axes: []AxisFrame{
			{ID: "scatterXAxis", To: s.xAxis},
			yAxis,
		},
		Titles: []AxisTitle{
			{ID: "xAxisLabel", X: (Width + ScatterLeftMargin + RightMargin) / 2, Y: Height - 12, Text: "Energy"},
			{ID: "yAxisLabel", X: -(Height - TopMargin - BottomMargin) / 2, Y: 12, Text: s.cmd.Label, Rotate: true},
		},
	}
}

// Frame returns the latest frame, including the transition from the previous one.
func (s *Scatter) Frame() Frame { return s.frame }

// Command returns the command the plot currently shows.
func (s *Scatter) Command() Command { return s.cmd }

// Keys returns the join keys in draw order.
func (s *Scatter) Keys() []string { return append([]string(nil), s.keys...) }
