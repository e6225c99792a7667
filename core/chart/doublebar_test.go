package chart

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"trackviz/model"
)

func TestGroupKeys(t *testing.T) {
	tracks := []model.Track{
		{ID: "x", Key: 1, Mode: model.ModeMajor},
		{ID: "y", Key: 0, Mode: model.ModeMinor},
		{ID: "z", Key: 0, Mode: model.ModeMajor},
	}
	got := GroupKeys(tracks)
	want := []KeyGroup{
		{Key: 0, Name: "C", Major: 1, Minor: 1},
		{Key: 1, Name: "C♯", Major: 1, Minor: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupKeys() = %+v, want %+v", got, want)
	}
	if tracks[0].ID != "x" || tracks[1].ID != "y" || tracks[2].ID != "z" {
		t.Errorf("input was reordered: %v", tracks)
	}
}

func TestGroupKeysUnknownCodes(t *testing.T) {
	tracks := []model.Track{
		{Key: 11, Mode: model.ModeMinor},
		{Key: 15, Mode: model.ModeMajor},
		{Key: model.KeyUnknown, Mode: model.ModeMajor},
		{Key: 11, Mode: model.ModeUnknown},
	}
	got := GroupKeys(tracks)
	want := []KeyGroup{
		{Key: model.KeyUnknown, Name: "", Major: 1},
		{Key: 11, Name: "B", Minor: 1},
		{Key: 15, Name: "", Major: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupKeys() = %+v, want %+v", got, want)
	}
}

func TestNewDoubleBar(t *testing.T) {
	d := NewDoubleBar([]model.Track{
		{Key: 0, Mode: model.ModeMajor},
		{Key: 0, Mode: model.ModeMinor},
		{Key: 1, Mode: model.ModeMajor},
	})
	f := d.Frame()
	if len(f.Marks) != 4 {
		t.Fatalf("got %d marks, want 4", len(f.Marks))
	}
	major, minor := f.Marks[0], f.Marks[1]
	if major.Primary != "C major" || minor.Primary != "C minor" {
		t.Errorf("labels = %q, %q", major.Primary, minor.Primary)
	}
	if major.Style.Fill != PrimaryColor || minor.Style.Fill != SecondaryColor {
		t.Errorf("fills = %s, %s", major.Style.Fill, minor.Style.Fill)
	}
	if !approx(minor.Geom.X, major.Geom.X+major.Geom.W) || !approx(major.Geom.W, d.band.Bandwidth()/2) {
		t.Errorf("halves do not split the band: %+v %+v", major.Geom, minor.Geom)
	}
	if major.Geom.H != minor.Geom.H {
		t.Errorf("1/1 split drawn with heights %v and %v", major.Geom.H, minor.Geom.H)
	}
	if f.Marks[3].Geom.H != 0 {
		t.Errorf("C♯ minor has height %v, want 0", f.Marks[3].Geom.H)
	}
}

func TestLegendCentred(t *testing.T) {
	d := NewDoubleBar([]model.Track{{Key: 4, Mode: model.ModeMajor}})
	// "Minor" is 5 glyphs of 7px after the swatch at 100+15.
	if w := d.Frame().Legend.Width(); w != 150 {
		t.Fatalf("legend width = %v, want 150", w)
	}
	var buf bytes.Buffer
	if _, err := d.Frame().WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`id="doubleBarChart"`, `id="legend"`, `transform="translate(175,0)"`, ">Major<", ">Minor<", `class="bottomAxis"`} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}
