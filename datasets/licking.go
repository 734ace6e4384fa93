package datasets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"k8s.io/klog/v2"
)

// Progress is advanced once per experiment. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	Describe(description string)
	Add(n int) error
}

// Dataset is the concatenation of every loaded experiment.
type Dataset struct {
	Samples

	// Resolution of every image, mask and heatmap.
	Resolution Resolution

	Report *Report

	// Dense is set when Config.ReturnDense is on. It is empty, not nil, when
	// no experiment produced samples.
	Dense *DenseBatch
}

// Loader walks a dataset root and aligns every experiment in it.
type Loader struct {
	Config   Config
	Progress Progress
}

// LoadLickingData loads every experiment under root with cfg.
func LoadLickingData(ctx context.Context, root string, cfg Config) (*Dataset, error) {
	l := &Loader{Config: cfg}
	return l.Load(ctx, root)
}

// Load aligns the experiments under root in name order.
//
// Bad experiments are skipped and reported, never returned as errors. An
// unreadable root yields an empty dataset with Report.RootError set. The only
// error is ctx being done, checked between experiments; the dataset then
// holds the experiments completed so far.
func (l *Loader) Load(ctx context.Context, root string) (*Dataset, error) {
	cfg := l.Config
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ds := &Dataset{
		Resolution: cfg.Target,
		Report:     &Report{Root: root},
	}

	names, err := listDirs(root)
	if err != nil {
		klog.Errorf("Could not list dataset root %s: %v", root, err)
		ds.Report.RootError = err.Error()
		l.finish(ds, cfg)
		return ds, nil
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			klog.Warningf("Stopping after %d experiments: %v", len(ds.Report.Experiments), err)
			l.finish(ds, cfg)
			return ds, err
		}
		if l.Progress != nil {
			l.Progress.Describe(name)
		}

		res, err := AlignExperiment(filepath.Join(root, name), cfg)
		switch {
		case err != nil:
			var skipErr *SkipError
			if !errors.As(err, &skipErr) {
				skipErr = &SkipError{Experiment: name, Reason: err.Error(), Err: err}
			}
			klog.Warningf("Skipping %s: %s", name, skipErr.Reason)
			ds.Report.addSkip(skipErr)
		default:
			if err := res.Validate(cfg.Target); err != nil {
				// lock-step is enforced per experiment before concatenation
				klog.Errorf("Dropping %s: %v", name, err)
				ds.Report.addSkip(&SkipError{Experiment: name, Reason: err.Error(), Err: err, Partial: res})
				break
			}
			ds.extend(res.Samples)
			ds.Report.addResult(res)
		}

		if l.Progress != nil {
			_ = l.Progress.Add(1)
		}
	}

	l.finish(ds, cfg)
	return ds, nil
}

func (l *Loader) finish(ds *Dataset, cfg Config) {
	klog.Infof("Loaded %d images total", ds.Len())
	if !cfg.ReturnDense {
		return
	}
	dense, err := ds.Stack()
	if err != nil {
		// every sample was validated before it was added
		klog.Errorf("Could not stack dataset: %v", err)
		return
	}
	ds.Dense = dense
}

// Example returns the image and the two-channel label of sample i.
func (d *Dataset) Example(i int) (image []uint8, label []uint8, err error) {
	if i < 0 || i >= d.Len() {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", i, d.Len())
	}
	return d.Images[i], interleaveLabels(d.Masks[i], d.Heatmaps[i]), nil
}

// Batch stacks the samples at indices.
func (d *Dataset) Batch(indices []int) (*DenseBatch, error) {
	b := &DenseBatch{
		Height: d.Resolution.Height,
		Width:  d.Resolution.Width,
	}
	if len(indices) == 0 {
		return b, nil
	}
	px := d.Resolution.Pixels()
	b.N = len(indices)
	b.Images = make([]uint8, 0, b.N*px*ImageChannels)
	b.Labels = make([]uint8, 0, b.N*px*LabelChannels)
	for _, i := range indices {
		img, lab, err := d.Example(i)
		if err != nil {
			return nil, err
		}
		if len(img) != px*ImageChannels || len(lab) != px*LabelChannels {
			return nil, fmt.Errorf("sample %d has inconsistent size", i)
		}
		b.Images = append(b.Images, img...)
		b.Labels = append(b.Labels, lab...)
	}
	return b, nil
}

// Stack packs every sample into one DenseBatch.
func (d *Dataset) Stack() (*DenseBatch, error) {
	indices := make([]int, d.Len())
	for i := range indices {
		indices[i] = i
	}
	return d.Batch(indices)
}
