package chart

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Cool samples n colors from the "cool" colormap (cyan to magenta), used for calls.
func Cool(n int) []drawing.Color {
	return sample(n, func(t float64) (r, g, b float64) { return t, 1 - t, 1 })
}

// Autumn samples n colors from the "autumn" colormap (red to yellow), used for puts.
func Autumn(n int) []drawing.Color {
	return sample(n, func(t float64) (r, g, b float64) { return 1, t, 0 })
}

// sample takes n evenly spaced interior points of a colormap, skipping both
// ends so a single cluster gets the middle color.
func sample(n int, cmap func(t float64) (r, g, b float64)) []drawing.Color {
	if n <= 0 {
		return nil
	}
	out := make([]drawing.Color, n)
	for i := range out {
		t := float64(i+1) / float64(n+1)
		r, g, b := cmap(t)
		out[i] = drawing.Color{R: channel(r), G: channel(g), B: channel(b), A: 255}
	}
	return out
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
