package datasets

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loadFixture(t *testing.T, frames int) *Dataset {
	t.Helper()
	root := t.TempDir()
	names := make([]string, frames)
	for i := range names {
		names[i] = string(rune('0'+i)) + ".png"
	}
	makeExperiment(t, root, "fx", experiment{
		images: names,
		masks:  names[:1],
		csv:    "frame,x,y\n0,64,64\n",
	})
	ds, err := LoadLickingData(context.Background(), root, testConfig(12, 10))
	if err != nil {
		t.Fatalf("LoadLickingData failed: %v", err)
	}
	if ds.Len() != frames {
		t.Fatalf("expected %d samples, got %d", frames, ds.Len())
	}
	return ds
}

func TestBatches_YieldUntilEOF(t *testing.T) {
	ds := loadFixture(t, 5)

	b, err := NewBatches(ds, 2)
	if err != nil {
		t.Fatalf("NewBatches failed: %v", err)
	}
	if b.Name() == "" {
		t.Fatalf("dataset name must not be empty")
	}

	var sizes []int
	for {
		_, inputs, labels, err := b.Yield()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Yield failed: %v", err)
		}
		if len(inputs) != 1 || len(labels) != 1 {
			t.Fatalf("expected one input and one label tensor")
		}
		dims := inputs[0].Shape().Dimensions
		if len(dims) != 4 || dims[1] != 10 || dims[2] != 12 || dims[3] != ImageChannels {
			t.Fatalf("unexpected image tensor dims %v", dims)
		}
		if ld := labels[0].Shape().Dimensions; ld[3] != LabelChannels || ld[0] != dims[0] {
			t.Fatalf("unexpected label tensor dims %v", ld)
		}
		sizes = append(sizes, dims[0])
	}
	if diff := cmp.Diff([]int{2, 2, 1}, sizes); diff != "" {
		t.Fatalf("batch sizes mismatch (-want +got):\n%s", diff)
	}

	b.Reset()
	b.DropIncomplete = true
	count := 0
	for {
		if _, err := b.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Next failed: %v", err)
			}
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 full batches after Reset, got %d", count)
	}
}

func TestBatches_ShuffleIsDeterministic(t *testing.T) {
	ds := loadFixture(t, 6)

	a, _ := NewBatches(ds, 6)
	b, _ := NewBatches(ds, 6)
	a.Shuffle(7)
	b.Shuffle(7)
	if diff := cmp.Diff(a.order, b.order); diff != "" {
		t.Fatalf("same seed gave different orders:\n%s", diff)
	}

	batch, err := a.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	// only frame 0 has a keypoint
	for pos, idx := range a.order {
		if got := allZero(batch.Heatmap(pos)); got != (idx != 0) {
			t.Fatalf("batch position %d holds sample %d but heatmap emptiness is %v", pos, idx, got)
		}
	}
}

func TestDenseBatch_EmptyConversion(t *testing.T) {
	var b DenseBatch
	if _, _, err := b.ToGomlxTensors(); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, err := NewBatches(nil, 1); err == nil {
		t.Fatalf("expected an error for a nil source")
	}
}

func TestDataset_ExampleOutOfRange(t *testing.T) {
	ds := loadFixture(t, 1)
	if _, _, err := ds.Example(1); err == nil {
		t.Fatalf("expected an out of range error")
	}
	img, lab, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example failed: %v", err)
	}
	if len(img) != 12*10*ImageChannels || len(lab) != 12*10*LabelChannels {
		t.Fatalf("unexpected example sizes: image=%d label=%d", len(img), len(lab))
	}
}

func TestCache_SaveAndLoad(t *testing.T) {
	ds := loadFixture(t, 3)
	path := filepath.Join(t.TempDir(), "cache", "licking.gob")

	if err := SaveCache(path, ds); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}
	got, err := LoadCache(path, ds.Resolution)
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if diff := cmp.Diff(ds.Filenames, got.Filenames); diff != "" {
		t.Fatalf("filenames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ds.Heatmaps, got.Heatmaps); diff != "" {
		t.Fatalf("heatmaps mismatch")
	}
	if got.Report == nil || got.Report.Totals().Samples != 3 {
		t.Fatalf("report not restored: %+v", got.Report)
	}

	if _, err := LoadCache(path, Resolution{Width: 1, Height: 1}); err == nil {
		t.Fatalf("expected a resolution mismatch error")
	}
	if err := SaveCache("", ds); err == nil {
		t.Fatalf("expected an error for an empty path")
	}
}
