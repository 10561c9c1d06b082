// Package grid holds the spatial scalar field returned by the simulation
// service and rasterizes it into a pixel buffer for display. Cells the
// service omitted are stored as NaN and render at the field minimum; the
// stored bounds are never rewritten to cover for them.
package grid

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/san-kum/hydrolab/internal/colormap"
)

// Data is a rectangular scalar field, NY rows by NX columns, row-major.
type Data struct {
	Grid      [][]float64
	Min, Max  float64
	NX, NY    int
	Parameter string
}

// FromRows builds a Data from possibly ragged wire rows. Missing cells
// (nil entries or short rows) become NaN.
func FromRows(rows [][]*float64, min, max float64, nx, ny int, parameter string) Data {
	g := make([][]float64, ny)
	for j := 0; j < ny; j++ {
		g[j] = make([]float64, nx)
		for i := 0; i < nx; i++ {
			v := math.NaN()
			if j < len(rows) && i < len(rows[j]) && rows[j][i] != nil {
				v = *rows[j][i]
			}
			g[j][i] = v
		}
	}
	return Data{Grid: g, Min: min, Max: max, NX: nx, NY: ny, Parameter: parameter}
}

// Check verifies the field invariants: bounds ordered, row count and row
// lengths matching the declared shape.
func (d Data) Check() error {
	if d.Min > d.Max {
		return fmt.Errorf("grid %q: min %v exceeds max %v", d.Parameter, d.Min, d.Max)
	}
	if len(d.Grid) != d.NY {
		return fmt.Errorf("grid %q: %d rows, declared ny=%d", d.Parameter, len(d.Grid), d.NY)
	}
	for j, row := range d.Grid {
		if len(row) != d.NX {
			return fmt.Errorf("grid %q: row %d has %d cells, declared nx=%d", d.Parameter, j, len(row), d.NX)
		}
	}
	return nil
}

// Cell returns the value at column i, row j, substituting Min for missing or
// out-of-range cells. Rendering only; Grid itself is left untouched.
func (d Data) Cell(i, j int) float64 {
	if j < 0 || j >= len(d.Grid) {
		return d.Min
	}
	row := d.Grid[j]
	if i < 0 || i >= len(row) {
		return d.Min
	}
	v := row[i]
	if math.IsNaN(v) {
		return d.Min
	}
	return v
}

// MarshalJSON emits missing cells as nulls so an exported field keeps its
// holes instead of failing on NaN.
func (d Data) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, len(d.Grid))
	for j, row := range d.Grid {
		rows[j] = make([]*float64, len(row))
		for i := range row {
			if !math.IsNaN(row[i]) {
				v := row[i]
				rows[j][i] = &v
			}
		}
	}
	return json.Marshal(struct {
		Grid      [][]*float64 `json:"grid"`
		Min       float64      `json:"min"`
		Max       float64      `json:"max"`
		NX        int          `json:"nx"`
		NY        int          `json:"ny"`
		Parameter string       `json:"parameter,omitempty"`
	}{rows, d.Min, d.Max, d.NX, d.NY, d.Parameter})
}

// Image is a rasterized field: Pix holds NY*NX pixels row-major.
type Image struct {
	W, H int
	Pix  []colormap.RGB
}

// At returns the pixel at column i, row j.
func (img Image) At(i, j int) colormap.RGB {
	return img.Pix[j*img.W+i]
}

// Render rasterizes the field under the given palette. The output always has
// exactly NY*NX pixels; a missing cell renders as if it held Min.
func Render(d Data, p colormap.Palette) Image {
	img := Image{W: d.NX, H: d.NY, Pix: make([]colormap.RGB, d.NX*d.NY)}
	for j := 0; j < d.NY; j++ {
		for i := 0; i < d.NX; i++ {
			img.Pix[j*d.NX+i] = colormap.ColorFor(d.Cell(i, j), d.Min, d.Max, p)
		}
	}
	return img
}
