package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"trackviz/model"
)

var (
	ErrUnknownChart   = errors.New("unknown chart")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidWidth   = errors.New("bucket width must be a positive finite number")
	ErrStaticChart    = errors.New("chart does not accept commands")
)

// ChartKind names one of the three charts.
type ChartKind string

const (
	ChartScatter ChartKind = "scatter"
	ChartBar     ChartKind = "bar"
	ChartKeys    ChartKind = "keys"
)

// ChartKinds lists every chart in page order.
var ChartKinds = []ChartKind{ChartScatter, ChartBar, ChartKeys}

// ParseChartKind validates a chart name.
func ParseChartKind(s string) (ChartKind, error) {
	k := ChartKind(s)
	if !lo.Contains(ChartKinds, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, s)
	}
	return k, nil
}

// Command is one redraw request: which chart, which field and how to label it.
// Width and Unit only apply to the bar chart.
type Command struct {
	Name  string      `json:"name,omitempty"`
	Chart ChartKind   `json:"chart"`
	Field model.Field `json:"field"`
	Width float64     `json:"width,omitempty"`
	Unit  string      `json:"unit"`
	Label string      `json:"label"`
}

// Validate checks the chart, the field and, for bar commands, the width.
func (c Command) Validate() error {
	switch c.Chart {
	case ChartScatter:
	case ChartBar:
		if !(c.Width > 0) || math.IsInf(c.Width, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidWidth, c.Width)
		}
	case ChartKeys:
		return fmt.Errorf("%w: %s", ErrStaticChart, c.Chart)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, c.Chart)
	}
	if _, err := model.ParseField(string(c.Field)); err != nil {
		return err
	}
	return nil
}

var builtin = []Command{
	{Name: "tempoScatter", Chart: ChartScatter, Field: model.FieldTempo, Label: "Tempo (BPM)"},
	{Name: "loudnessScatter", Chart: ChartScatter, Field: model.FieldLoudness, Label: "Loudness (dB)"},
	{Name: "acousticnessScatter", Chart: ChartScatter, Field: model.FieldAcousticness, Label: "Acousticness"},
	{Name: "tempoBar", Chart: ChartBar, Field: model.FieldTempo, Width: 20, Unit: "BPM", Label: "Tempo (BPM)"},
	{Name: "loudnessBar", Chart: ChartBar, Field: model.FieldLoudness, Width: 1, Unit: "dB", Label: "Loudness (dB)"},
	{Name: "acousticnessBar", Chart: ChartBar, Field: model.FieldAcousticness, Width: 0.1, Unit: "", Label: "Acousticness"},
}

// Commands returns the built-in commands behind the page controls.
func Commands() []Command {
	return append([]Command(nil), builtin...)
}

// LookupCommand finds a built-in command by name.
func LookupCommand(name string) (Command, error) {
	c, ok := lo.Find(builtin, func(c Command) bool { return c.Name == name })
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return c, nil
}

// InitialScatter is the scatter plot's first command.
func InitialScatter() Command {
	c, _ := LookupCommand("tempoScatter")
	return c
}

// InitialBar is the bar chart's first command.
func InitialBar() Command {
	c, _ := LookupCommand("tempoBar")
	return c
}
