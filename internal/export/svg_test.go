package export

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/hydrolab/internal/colormap"
	"github.com/san-kum/hydrolab/internal/grid"
)

func TestGridToSVG(t *testing.T) {
	d := grid.Data{
		Grid: [][]float64{{1, math.NaN()}, {3, 4}},
		Min:  1, Max: 4, NX: 2, NY: 2, Parameter: "nutrient",
	}
	svg := GridToSVG(d, colormap.Nutrient, 10)
	if !strings.HasPrefix(svg, `<?xml`) || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not a complete svg document:\n%s", svg)
	}
	if got := strings.Count(svg, "<rect"); got != 4 {
		t.Errorf("rect count = %d, want one per cell (4)", got)
	}
	if !strings.Contains(svg, `width="20" height="20"`) {
		t.Errorf("canvas should be 2x2 cells at 10 units: %s", svg[:120])
	}
	// missing cell renders as the min color, same as cell (0,0)
	minHex := colormap.ColorFor(1, 1, 4, colormap.Nutrient).Hex()
	if strings.Count(svg, minHex) < 2 {
		t.Errorf("NaN cell should share the min color %s", minHex)
	}
}

func TestGridToSVG_Empty(t *testing.T) {
	if got := GridToSVG(grid.Data{}, colormap.Default, 8); got != "" {
		t.Errorf("empty grid should give empty output, got %q", got)
	}
}

func TestTrendToSVG(t *testing.T) {
	if got := TrendToSVG([]float64{1}, 100, 50, "#fff"); got != "" {
		t.Error("a single point is not a trend")
	}
	svg := TrendToSVG([]float64{8.0, 7.5, 7.9, 6.2}, 100, 50, "#00ff88")
	if !strings.Contains(svg, `stroke="#00ff88"`) {
		t.Error("stroke color not applied")
	}
	if !strings.Contains(svg, "M0.0,") {
		t.Errorf("path should start at x=0: %s", svg)
	}
}
