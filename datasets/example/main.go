package main

// Example command that loads a licking dataset root, serves it in shuffled
// batches and converts the first batch into gomlx tensors.
//
// Usage:
//   go run ./datasets/example -root /data/licking -width 128 -height 128
//
// The root holds one folder per experiment with images/, labels/tongue/ and
// labels/jaw/*.csv inside.

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/Noofbiz/lickset/datasets"
)

func main() {
	root := flag.String("root", "data", "dataset root with one folder per experiment")
	width := flag.Int("width", 256, "target width")
	height := flag.Int("height", 256, "target height")
	batchSize := flag.Int("batch", 8, "batch size")
	seed := flag.Int64("seed", 1, "shuffle seed")
	flag.Parse()

	cfg := datasets.DefaultConfig()
	cfg.Target = datasets.Resolution{Width: *width, Height: *height}
	cfg.ReturnDense = false

	ds, err := datasets.LoadLickingData(context.Background(), *root, cfg)
	if err != nil {
		log.Fatalf("failed to load licking data: %v", err)
	}
	if ds.Report.RootError != "" {
		log.Fatalf("could not read %s: %s", *root, ds.Report.RootError)
	}

	t := ds.Report.Totals()
	fmt.Printf("Experiments: %d loaded, %d skipped\n", t.Loaded, t.Skipped)
	for _, e := range ds.Report.Skipped() {
		fmt.Printf("  skipped %s: %s\n", e.Name, e.Reason)
	}
	fmt.Printf("Total samples: %d at %s (%d with a tongue mask)\n", ds.Len(), ds.Resolution, t.MasksFound)
	if ds.Len() == 0 {
		return
	}

	batches, err := datasets.NewBatches(ds, *batchSize)
	if err != nil {
		log.Fatalf("failed to create batches: %v", err)
	}
	batches.Shuffle(*seed)

	_, inputs, labels, err := batches.Yield()
	if err != nil {
		log.Fatalf("failed to yield first batch: %v", err)
	}
	fmt.Printf("First batch tensors: images=%s labels=%s\n", inputs[0].Shape(), labels[0].Shape())

	n := 1
	for {
		if _, err := batches.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Fatalf("failed to read batch: %v", err)
			}
			break
		}
		n++
	}
	fmt.Printf("Epoch of %d batches of up to %d samples\n", n, *batchSize)
}
