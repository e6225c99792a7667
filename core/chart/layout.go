// Package chart renders the scatter plot, the histogram and the key/mode chart
// as standalone SVG documents, with keyed transitions between redraws.
package chart

import "time"

// Canvas geometry shared by all three charts.
const (
	Width  = 500
	Height = 400

	TopMargin    = 15
	RightMargin  = 15
	BottomMargin = 55

	ScatterLeftMargin = 55
	BarLeftMargin     = 25
)

// TransitionDuration is the length of a full redraw animation.
const TransitionDuration = 1000 * time.Millisecond

const (
	PrimaryColor   = "#1DB954"
	SecondaryColor = "#117333"
	HoverColor     = "white"

	pointRadius      = 5
	pointHoverRadius = 10
	tickCount        = 10
)

// baseline is the pixel y of the x axis.
const baseline = Height - BottomMargin
