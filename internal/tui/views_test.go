package tui

import (
	"strings"
	"testing"

	"github.com/san-kum/hydrolab/internal/colormap"
	"github.com/san-kum/hydrolab/internal/grid"
)

func TestSparkline(t *testing.T) {
	if got := sparkline(nil, 10); got != "" {
		t.Errorf("empty data should give empty sparkline, got %q", got)
	}
	flat := sparkline([]float64{5, 5, 5, 5}, 4)
	for _, r := range flat {
		if r != '▁' {
			t.Errorf("flat data should render the lowest bar, got %q", flat)
		}
	}
	ramp := sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if []rune(ramp)[0] != '▁' || []rune(ramp)[7] != '█' {
		t.Errorf("ramp should span the full bar range, got %q", ramp)
	}
}

func TestHeatmapShape(t *testing.T) {
	d := grid.Data{
		Grid: [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {1, 2, 3}},
		Min:  1, Max: 9, NX: 3, NY: 4, Parameter: "nutrient",
	}
	out := Heatmap(d, colormap.Nutrient)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("4 rows should pack into 2 half-block lines, got %d", len(lines))
	}

	odd := grid.Data{
		Grid: [][]float64{{1, 2}, {3, 4}, {5, 6}},
		Min:  1, Max: 6, NX: 2, NY: 3, Parameter: "nutrient",
	}
	out = Heatmap(odd, colormap.Nutrient)
	lines = strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("3 rows should pack into 2 lines, got %d", len(lines))
	}
}

func TestNextFieldCycles(t *testing.T) {
	seen := map[string]bool{}
	f := "dissolved_oxygen"
	for i := 0; i < 8; i++ {
		f = nextField(f)
		if seen[f] {
			t.Fatalf("field %q repeated before the cycle completed", f)
		}
		seen[f] = true
	}
	if len(seen) != 8 {
		t.Errorf("cycle covered %d fields, want 8", len(seen))
	}
}

func TestPaletteFor(t *testing.T) {
	if paletteFor("dissolved_oxygen") != colormap.Oxygen {
		t.Error("dissolved_oxygen should map to the oxygen palette")
	}
	if paletteFor("ph") != colormap.Default {
		t.Error("unmapped fields should use the default palette")
	}
}
