package datasets

import (
	"math"
	"testing"
)

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func TestGaussianHeatmap_PeakAtScaledPoint(t *testing.T) {
	original := Resolution{Width: 640, Height: 480}
	target := Resolution{Width: 64, Height: 48}

	h := GaussianHeatmap(original, target, 320, 120, Sigma{X: 3, Y: 3})

	if len(h) != target.Pixels() {
		t.Fatalf("expected %d values, got %d", target.Pixels(), len(h))
	}
	peak := argmax(h)
	if row, col := peak/target.Width, peak%target.Width; row != 12 || col != 32 {
		t.Fatalf("peak at (row %d, col %d), want (12, 32)", row, col)
	}
	if math.Abs(h[peak]-1) > 1e-12 {
		t.Fatalf("peak value %g, want 1", h[peak])
	}
	if h[0] >= h[peak] {
		t.Fatalf("corner %g should be below peak %g", h[0], h[peak])
	}
}

func TestGaussianHeatmap_AnisotropicSpread(t *testing.T) {
	res := Resolution{Width: 40, Height: 40}
	h := GaussianHeatmap(res, res, 20, 20, Sigma{X: 8, Y: 2})

	right := h[20*40+24]
	below := h[24*40+20]
	if right <= below {
		t.Fatalf("wider x sigma should spread further along x: right=%g below=%g", right, below)
	}
}

func TestGaussianHeatmap_PointOutsideGridIsClipped(t *testing.T) {
	res := Resolution{Width: 16, Height: 16}
	h := GaussianHeatmap(res, res, -100, -100, Sigma{X: 2, Y: 2})
	for i, v := range HeatmapToUint8(h) {
		if v != 0 {
			t.Fatalf("pixel %d = %d, expected nothing to wrap into the grid", i, v)
		}
	}
}

func TestHeatmapToUint8_Truncates(t *testing.T) {
	got := HeatmapToUint8([]float64{0, 0.5, 1, 0.999, -0.1, 1.5, math.NaN()})
	want := []uint8{0, 127, 255, 254, 0, 255, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], want[i])
		}
	}
}
