package chart

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"trackviz/logger"
	"trackviz/model"
)

// Transition describes what a dispatched command did to a chart's marks.
type Transition struct {
	Chart    ChartKind     `json:"chart"`
	Command  Command       `json:"command"`
	Enter    []string      `json:"enter"`
	Update   []string      `json:"update"`
	Exit     []string      `json:"exit"`
	Duration time.Duration `json:"-"`
}

func (t Transition) MarshalJSON() ([]byte, error) {
	type alias Transition
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"durationMs"`
	}{alias(t), t.Duration.Milliseconds()})
}

// Board owns the three charts of one viewer. It is not safe for concurrent use.
type Board struct {
	Scatter *Scatter
	Bar     *Bar
	Keys    *DoubleBar
}

// NewBoard draws every chart in its initial state.
func NewBoard(tracks []model.Track) (*Board, error) {
	scatter, err := NewScatter(tracks, InitialScatter())
	if err != nil {
		return nil, fmt.Errorf("failed to draw scatter plot: %w", err)
	}
	bar, err := NewBar(tracks, InitialBar())
	if err != nil {
		return nil, fmt.Errorf("failed to draw bar chart: %w", err)
	}
	return &Board{Scatter: scatter, Bar: bar, Keys: NewDoubleBar(tracks)}, nil
}

// Dispatch validates cmd and applies it to the chart it names.
func (b *Board) Dispatch(cmd Command) (Transition, error) {
	if err := cmd.Validate(); err != nil {
		return Transition{}, err
	}
	var (
		j   Join
		err error
	)
	switch cmd.Chart {
	case ChartScatter:
		j, err = b.Scatter.Update(cmd)
	case ChartBar:
		j, err = b.Bar.Update(cmd)
	}
	if err != nil {
		return Transition{}, err
	}
	logger.Debug("chart updated",
		logger.String("chart", string(cmd.Chart)),
		logger.String("field", string(cmd.Field)),
		logger.Int("enter", len(j.Enter)),
		logger.Int("update", len(j.Update)),
		logger.Int("exit", len(j.Exit)))
	return Transition{
		Chart:    cmd.Chart,
		Command:  cmd,
		Enter:    j.Enter,
		Update:   j.Update,
		Exit:     j.Exit,
		Duration: TransitionDuration,
	}, nil
}

// Frame returns the latest frame of a chart.
func (b *Board) Frame(kind ChartKind) (Frame, error) {
	switch kind {
	case ChartScatter:
		return b.Scatter.Frame(), nil
	case ChartBar:
		return b.Bar.Frame(), nil
	case ChartKeys:
		return b.Keys.Frame(), nil
	}
	return Frame{}, fmt.Errorf("%w: %q", ErrUnknownChart, kind)
}

// Render writes the latest frame of a chart as SVG.
func (b *Board) Render(kind ChartKind, w io.Writer) error {
	f, err := b.Frame(kind)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s chart: %w", kind, err)
	}
	return nil
}

// Current returns the command a chart currently shows. The key chart has none.
func (b *Board) Current(kind ChartKind) (Command, bool) {
	switch kind {
	case ChartScatter:
		return b.Scatter.Command(), true
	case ChartBar:
		return b.Bar.Command(), true
	}
	return Command{}, false
}
