package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"trackviz/model"
)

func TestBoardDispatch(t *testing.T) {
	b, err := NewBoard(barTracks())
	if err != nil {
		t.Fatal(err)
	}

	tr, err := b.Dispatch(mustLookup(t, "loudnessBar"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Chart != ChartBar || tr.Duration != TransitionDuration {
		t.Errorf("transition = %+v", tr)
	}
	if cur, _ := b.Current(ChartBar); cur.Name != "loudnessBar" {
		t.Errorf("Current(bar) = %+v", cur)
	}
	if cur, _ := b.Current(ChartScatter); cur.Name != "tempoScatter" {
		t.Errorf("scatter changed by a bar command: %+v", cur)
	}

	raw, err := json.Marshal(tr)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"durationMs":1000`, `"chart":"bar"`, `"exit":[`, `"name":"loudnessBar"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("transition JSON %s missing %s", raw, want)
		}
	}
}

func TestBoardDispatchErrors(t *testing.T) {
	b, err := NewBoard(barTracks())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown chart", Command{Chart: "pie", Field: model.FieldTempo}, ErrUnknownChart},
		{"static chart", Command{Chart: ChartKeys}, ErrStaticChart},
		{"unknown field", Command{Chart: ChartScatter, Field: "valence"}, model.ErrUnknownField},
		{"no width", Command{Chart: ChartBar, Field: model.FieldTempo}, ErrInvalidWidth},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.Dispatch(tc.cmd); !errors.Is(err, tc.want) {
				t.Errorf("Dispatch() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBoardRender(t *testing.T) {
	b, err := NewBoard(barTracks())
	if err != nil {
		t.Fatal(err)
	}
	ids := map[ChartKind]string{
		ChartScatter: `id="scatterPlot"`,
		ChartBar:     `id="barChart"`,
		ChartKeys:    `id="doubleBarChart"`,
	}
	for kind, id := range ids {
		var buf bytes.Buffer
		if err := b.Render(kind, &buf); err != nil {
			t.Fatalf("Render(%s): %v", kind, err)
		}
		out := buf.String()
		if !strings.Contains(out, id) || !strings.Contains(out, "function tvHover") || !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
			t.Errorf("Render(%s) produced an incomplete document", kind)
		}
	}
	if err := b.Render("pie", &bytes.Buffer{}); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("Render(pie) error = %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBoardRenderWriteError(t *testing.T) {
	b, err := NewBoard(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Render(ChartScatter, failingWriter{}); err == nil {
		t.Error("Render() ignored the write error")
	}
}
