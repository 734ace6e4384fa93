// Package preview renders PNG plots of a loaded licking dataset: samples per
// experiment, jaw keypoint locations and single-sample overlays.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/lickset/datasets"
)

// File names written by WriteAll.
const (
	SampleCountsFile = "samples_per_experiment.png"
	KeypointsFile    = "jaw_keypoints.png"
	OverlayFile      = "sample_overlay.png"
)

// WriteAll writes every preview of ds into dir. The overlay shows the first
// sample that has a jaw heatmap, or sample 0 when none has one.
func WriteAll(ds *datasets.Dataset, dir string) error {
	if ds == nil {
		return fmt.Errorf("dataset is nil")
	}
	if err := ensureDir(dir); err != nil {
		return err
	}
	if ds.Report != nil && ds.Report.Totals().Loaded > 0 {
		if err := SampleCounts(ds.Report, filepath.Join(dir, SampleCountsFile)); err != nil {
			return fmt.Errorf("sample counts plot: %w", err)
		}
	}
	if ds.Len() == 0 {
		klog.Warningf("No samples, skipping keypoint and overlay plots")
		return nil
	}
	if err := Keypoints(ds, filepath.Join(dir, KeypointsFile)); err != nil {
		return fmt.Errorf("keypoints plot: %w", err)
	}
	idx := 0
	for i, h := range ds.Heatmaps {
		if _, _, ok := peak(h, ds.Resolution.Width); ok {
			idx = i
			break
		}
	}
	if err := Overlay(ds, idx, filepath.Join(dir, OverlayFile)); err != nil {
		return fmt.Errorf("overlay plot: %w", err)
	}
	return nil
}

// SampleCounts writes a bar chart with the number of samples of each loaded
// experiment.
func SampleCounts(report *datasets.Report, outPath string) error {
	var (
		values plotter.Values
		names  []string
	)
	for _, e := range report.Experiments {
		if e.Status != datasets.StatusLoaded {
			continue
		}
		values = append(values, float64(e.Samples))
		names = append(names, e.Name)
	}
	if len(values) == 0 {
		return fmt.Errorf("no loaded experiments in report")
	}

	p := plot.New()
	p.Title.Text = "Samples per experiment"
	p.Y.Label.Text = "samples"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.Add(plotter.NewGrid())

	width := vg.Length(len(values)) * vg.Inch
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	return save(p, width, 4*vg.Inch, outPath)
}

// Keypoints scatters the heatmap peak of every sample in target pixel
// coordinates, origin at the top left like the images.
func Keypoints(ds *datasets.Dataset, outPath string) error {
	w := ds.Resolution.Width
	pts := make(plotter.XYs, 0, ds.Len())
	for _, h := range ds.Heatmaps {
		if col, row, ok := peak(h, w); ok {
			pts = append(pts, plotter.XY{X: float64(col), Y: float64(row)})
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Jaw keypoints (%d of %d samples)", len(pts), ds.Len())
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{R: 200, G: 30, B: 30, A: 180}
	sc.GlyphStyle.Radius = vg.Points(1.8)
	p.Add(sc, plotter.NewGrid())

	p.X.Min, p.X.Max = 0, float64(ds.Resolution.Width)
	p.Y.Min, p.Y.Max = 0, float64(ds.Resolution.Height)
	return save(p, 6*vg.Inch, 6*vg.Inch*vg.Length(ds.Resolution.Height)/vg.Length(ds.Resolution.Width), outPath)
}

// Overlay draws sample i with its tongue mask tinted green and its jaw
// heatmap tinted red.
func Overlay(ds *datasets.Dataset, i int, outPath string) error {
	if i < 0 || i >= ds.Len() {
		return fmt.Errorf("sample %d out of range [0, %d)", i, ds.Len())
	}
	img, err := overlayImage(ds.Resolution, ds.Images[i], ds.Masks[i], ds.Heatmaps[i])
	if err != nil {
		return err
	}

	res := ds.Resolution
	p := plot.New()
	p.Title.Text = ds.Filenames[i]
	p.HideAxes()
	p.Add(plotter.NewImage(img, 0, 0, float64(res.Width), float64(res.Height)))

	width := 6 * vg.Inch
	return save(p, width, width*vg.Length(res.Height)/vg.Length(res.Width), outPath)
}

func overlayImage(res datasets.Resolution, rgb []uint8, mask []bool, heat []uint8) (*image.RGBA, error) {
	px := res.Pixels()
	if len(rgb) != px*datasets.ImageChannels || len(mask) != px || len(heat) != px {
		return nil, fmt.Errorf("sample does not match resolution %s", res)
	}
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	for p := range px {
		r := float64(rgb[p*3])
		g := float64(rgb[p*3+1])
		b := float64(rgb[p*3+2])
		if mask[p] {
			g = 0.5*g + 0.5*255
		}
		if a := float64(heat[p]) / 255; a > 0 {
			r = (1-a)*r + a*255
		}
		img.Pix[p*4] = uint8(r)
		img.Pix[p*4+1] = uint8(g)
		img.Pix[p*4+2] = uint8(b)
		img.Pix[p*4+3] = 255
	}
	return img, nil
}

// peak returns the column and row of the largest heatmap value, or false
// when the heatmap is all zero.
func peak(h []uint8, width int) (col, row int, ok bool) {
	if width <= 0 {
		return 0, 0, false
	}
	best, at := uint8(0), -1
	for p, v := range h {
		if v > best {
			best, at = v, p
		}
	}
	if at < 0 {
		return 0, 0, false
	}
	return at % width, at / width, true
}

func save(p *plot.Plot, w, h vg.Length, outPath string) error {
	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	if err := p.Save(w, h, outPath); err != nil {
		return err
	}
	klog.V(1).Infof("Wrote %s", outPath)
	return nil
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
