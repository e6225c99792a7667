package cache

import (
	"strings"
	"testing"
)

func TestChartKey(t *testing.T) {
	a := ChartKey("bar", []byte(`{"name":"tempoBar"}`), 3)
	if a != ChartKey("bar", []byte(`{"name":"tempoBar"}`), 3) {
		t.Fatal("ChartKey is not deterministic")
	}
	if !strings.HasPrefix(a, "trackviz:chart:bar:") || !strings.HasSuffix(a, ":v3") {
		t.Errorf("ChartKey() = %q", a)
	}

	tests := []struct {
		name  string
		other string
	}{
		{"chart", ChartKey("scatter", []byte(`{"name":"tempoBar"}`), 3)},
		{"command", ChartKey("bar", []byte(`{"name":"loudnessBar"}`), 3)},
		{"version", ChartKey("bar", []byte(`{"name":"tempoBar"}`), 4)},
	}
	for _, tc := range tests {
		if tc.other == a {
			t.Errorf("changing the %s did not change the key", tc.name)
		}
	}
}
