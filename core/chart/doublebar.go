package chart

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"trackviz/model"
)

// KeyGroup counts the major and minor tracks in one musical key.
type KeyGroup struct {
	Key   model.Key `json:"key"`
	Name  string    `json:"name"`
	Major int       `json:"major"`
	Minor int       `json:"minor"`
}

// GroupKeys groups tracks by key code in ascending order. The input is not
// reordered. Tracks of unknown mode are counted in neither half.
func GroupKeys(tracks []model.Track) []KeyGroup {
	byKey := lo.GroupBy(tracks, func(t model.Track) model.Key { return t.Key })
	keys := lo.Keys(byKey)
	slices.Sort(keys)

	groups := make([]KeyGroup, len(keys))
	for i, k := range keys {
		members := byKey[k]
		groups[i] = KeyGroup{
			Key:   k,
			Name:  k.Name(),
			Major: lo.CountBy(members, func(t model.Track) bool { return t.Mode == model.ModeMajor }),
			Minor: lo.CountBy(members, func(t model.Track) bool { return t.Mode == model.ModeMinor }),
		}
	}
	return groups
}

// DoubleBar is the static key × mode chart.
type DoubleBar struct {
	groups []KeyGroup
	band   *BandScale
	y      *LinearScale
	frame  Frame
}

// NewDoubleBar draws the chart once.
func NewDoubleBar(tracks []model.Track) *DoubleBar {
	d := &DoubleBar{groups: GroupKeys(tracks)}

	names := lo.Map(d.groups, func(g KeyGroup, _ int) string { return g.Name })
	d.band = NewBandScale(names, BarLeftMargin, Width, 0.35, 0.35)
	maxCount := lo.Max(lo.Map(d.groups, func(g KeyGroup, _ int) int { return max(g.Major, g.Minor) }))
	if maxCount == 0 {
		maxCount = 1
	}
	d.y = NewLinearScale(0, float64(maxCount), baseline, TopMargin).Nice()

	half := d.band.Bandwidth() / 2
	marks := make([]Mark, 0, 2*len(d.groups))
	for i, g := range d.groups {
		x := d.band.Pos(i)
		marks = append(marks,
			d.mark(g, "major", g.Major, x, half, PrimaryColor),
			d.mark(g, "minor", g.Minor, x+half, half, SecondaryColor))
	}

	d.frame = Frame{
		ID:    "doubleBarChart",
		Marks: marks,
		Axes: []AxisFrame{
			{ID: "keysXAxis", To: bandAxis("bottomAxis", baseline, d.band, BarLeftMargin, Width)},
			{ID: "keysYAxis", To: linearAxis("axis", OrientLeft, BarLeftMargin, d.y)},
		},
		Legend: &Legend{
			Y: Height - 20,
			Items: []LegendItem{
				{X: 0, Fill: PrimaryColor, Label: "Major"},
				{X: 100, Fill: SecondaryColor, Label: "Minor"},
			},
		},
	}
	return d
}

func (d *DoubleBar) mark(g KeyGroup, mode string, count int, x, w float64, fill string) Mark {
	y := d.y.Map(float64(count))
	return Mark{
		Key:       strconv.Itoa(int(g.Key)) + "-" + mode,
		Shape:     ShapeRect,
		Geom:      Geometry{X: x, Y: y, W: w, H: baseline - y},
		Style:     barHighlight(fill),
		Primary:   strings.TrimSpace(g.Name + " " + mode),
		Secondary: strconv.Itoa(count),
	}
}

// Groups returns the key groups in draw order.
func (d *DoubleBar) Groups() []KeyGroup { return d.groups }

// Frame returns the chart's only frame.
func (d *DoubleBar) Frame() Frame { return d.frame }
