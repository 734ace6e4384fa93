package datasets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a w x h PNG at path, colouring pixels with fill.
func writePNG(t *testing.T, path string, w, h int, fill func(x, y int) color.Color) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create png %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png %s: %v", path, err)
	}
}

// writeFile writes raw content at path, creating parent folders.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func solid(c color.Color) func(x, y int) color.Color {
	return func(int, int) color.Color { return c }
}

var grey = color.RGBA{R: 90, G: 120, B: 150, A: 255}

// blockMask is black with a white square in [x0,x1)x[y0,y1).
func blockMask(x0, y0, x1, y1 int) func(x, y int) color.Color {
	return func(x, y int) color.Color {
		if x >= x0 && x < x1 && y >= y0 && y < y1 {
			return color.White
		}
		return color.Black
	}
}

// experiment describes a fixture experiment folder.
type experiment struct {
	images []string // file names under images/
	size   image.Point
	masks  []string // file names under labels/tongue/
	csv    string   // content of labels/jaw/jaw.csv; empty means no CSV
}

// makeExperiment writes e under root/name and returns its path.
func makeExperiment(t *testing.T, root, name string, e experiment) string {
	t.Helper()
	dir := filepath.Join(root, name)
	size := e.size
	if size == (image.Point{}) {
		size = image.Pt(128, 128)
	}
	for _, img := range e.images {
		writePNG(t, filepath.Join(dir, "images", img), size.X, size.Y, solid(grey))
	}
	mkdir(t, filepath.Join(dir, "labels", "tongue"))
	mkdir(t, filepath.Join(dir, "labels", "jaw"))
	for _, m := range e.masks {
		writePNG(t, filepath.Join(dir, "labels", "tongue", m), size.X, size.Y, blockMask(size.X/4, size.Y/4, size.X/2, size.Y/2))
	}
	if e.csv != "" {
		writeFile(t, filepath.Join(dir, "labels", "jaw", "jaw.csv"), e.csv)
	}
	return dir
}

func testConfig(w, h int) Config {
	cfg := DefaultConfig()
	cfg.Target = Resolution{Width: w, Height: h}
	return cfg
}

func countTrue(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

func allZero(b []uint8) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
