package datasets

import "math"

// GaussianHeatmap renders a Gaussian bump at (x, y), given in original image
// pixels, on a grid of target size. The point is scaled to the target grid
// independently per axis. Values peak at 1 on the scaled point and the bump is
// clipped at the grid borders. The result is row-major, target.Height rows of
// target.Width values.
func GaussianHeatmap(original, target Resolution, x, y int, sigma Sigma) []float64 {
	out := make([]float64, target.Pixels())
	if original.Width <= 0 || original.Height <= 0 || target.Pixels() == 0 {
		return out
	}

	cx := float64(x) * float64(target.Width) / float64(original.Width)
	cy := float64(y) * float64(target.Height) / float64(original.Height)
	dx := 2 * sigma.X * sigma.X
	dy := 2 * sigma.Y * sigma.Y

	// the kernel is separable
	col := make([]float64, target.Width)
	for c := range col {
		d := float64(c) - cx
		col[c] = math.Exp(-d * d / dx)
	}
	for r := 0; r < target.Height; r++ {
		d := float64(r) - cy
		ry := math.Exp(-d * d / dy)
		row := out[r*target.Width : (r+1)*target.Width]
		for c := range row {
			row[c] = ry * col[c]
		}
	}
	return out
}

// HeatmapToUint8 rescales a heatmap in [0, 1] to bytes, truncating.
func HeatmapToUint8(h []float64) []uint8 {
	out := make([]uint8, len(h))
	for i, v := range h {
		v *= 255
		switch {
		case v <= 0 || math.IsNaN(v):
			out[i] = 0
		case v >= 255:
			out[i] = 255
		default:
			out[i] = uint8(v)
		}
	}
	return out
}
