// Package colormap maps normalized scalar values to colors under a set of
// named palettes. Every ramp is a pure piecewise-linear interpolation in RGB
// space; the same (value, min, max, palette) always yields the same color.
package colormap

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit color without alpha.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as #rrggbb, the form lipgloss expects.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette identifies a color ramp.
type Palette int

const (
	Default Palette = iota
	Oxygen
	Nutrient
	Phyto
	Pollutant
	Temperature
)

// Parse maps a palette name to its variant. Unrecognized names fall back to
// the default perceptual ramp.
func Parse(name string) Palette {
	switch name {
	case "oxygen":
		return Oxygen
	case "nutrient":
		return Nutrient
	case "phyto":
		return Phyto
	case "pollutant":
		return Pollutant
	case "temperature":
		return Temperature
	}
	return Default
}

func (p Palette) String() string {
	switch p {
	case Oxygen:
		return "oxygen"
	case Nutrient:
		return "nutrient"
	case Phyto:
		return "phyto"
	case Pollutant:
		return "pollutant"
	case Temperature:
		return "temperature"
	}
	return "default"
}

// Names lists the named palettes, default last.
func Names() []string {
	return []string{"oxygen", "nutrient", "phyto", "pollutant", "temperature", "default"}
}

type stop struct {
	pos float64
	c   colorful.Color
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

var ramps = map[Palette][]stop{
	// red -> yellow -> cyan, hinged at the midpoint
	Oxygen: {
		{0.0, rgb(220, 30, 30)},
		{0.5, rgb(245, 220, 50)},
		{1.0, rgb(40, 220, 230)},
	},
	// dark blue -> green
	Nutrient: {
		{0.0, rgb(10, 20, 90)},
		{1.0, rgb(60, 200, 80)},
	},
	// dark -> green
	Phyto: {
		{0.0, rgb(12, 20, 12)},
		{1.0, rgb(50, 230, 80)},
	},
	// blue -> red-brown
	Pollutant: {
		{0.0, rgb(40, 70, 220)},
		{1.0, rgb(150, 60, 30)},
	},
	// blue -> green -> orange -> red at thirds
	Temperature: {
		{0.0, rgb(40, 60, 230)},
		{1.0 / 3.0, rgb(50, 200, 90)},
		{2.0 / 3.0, rgb(245, 160, 40)},
		{1.0, rgb(230, 40, 40)},
	},
	// 4-stop perceptual ramp, purple -> blue -> green -> yellow
	Default: {
		{0.0, rgb(68, 1, 84)},
		{1.0 / 3.0, rgb(49, 104, 142)},
		{2.0 / 3.0, rgb(53, 183, 121)},
		{1.0, rgb(253, 231, 37)},
	},
}

// ColorFor maps value into [min, max] and evaluates the palette ramp. A flat
// field (min == max) renders as the palette midpoint.
func ColorFor(value, min, max float64, p Palette) RGB {
	var t float64
	if min == max {
		t = 0.5
	} else {
		t = (value - min) / (max - min)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
	}
	return at(p, t)
}

func at(p Palette, t float64) RGB {
	stops, ok := ramps[p]
	if !ok {
		stops = ramps[Default]
	}
	if t <= stops[0].pos {
		return to255(stops[0].c)
	}
	last := stops[len(stops)-1]
	if t >= last.pos {
		return to255(last.c)
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].pos {
			lo, hi := stops[i-1], stops[i]
			span := hi.pos - lo.pos
			local := (t - lo.pos) / span
			return to255(lo.c.BlendRgb(hi.c, local))
		}
	}
	return to255(last.c)
}

func to255(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}
