package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/hydrolab/internal/colormap"
	"github.com/san-kum/hydrolab/internal/grid"
)

// GridToSVG renders the spatial field as an SVG heatmap, one rect per cell.
// cellSize is the rect edge in SVG units.
func GridToSVG(d grid.Data, p colormap.Palette, cellSize int) string {
	if d.NX == 0 || d.NY == 0 {
		return ""
	}
	if cellSize < 1 {
		cellSize = 8
	}

	img := grid.Render(d, p)
	width := d.NX * cellSize
	height := d.NY * cellSize

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<title>%s</title>
`, width, height, width, height, d.Parameter))

	for j := 0; j < d.NY; j++ {
		for i := 0; i < d.NX; i++ {
			c := img.At(i, j)
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>
`, i*cellSize, j*cellSize, cellSize, cellSize, c.Hex()))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TrendToSVG renders a chemistry time series as a single SVG polyline.
func TrendToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	rangeV := maxV - minV
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.1
	maxV += rangeV * 0.1
	rangeV = maxV - minV

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := float64(i) / float64(len(values)-1) * float64(width)
		y := float64(height) - (v-minV)/rangeV*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
