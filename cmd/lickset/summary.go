package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Noofbiz/lickset/datasets"
)

var summaryHeaders = []string{
	"experiment", "status", "images", "frames", "rejected", "present", "occluded",
	"discarded", "masks", "skipped_frames", "samples", "resolution", "jaw_x", "jaw_y", "reason",
}

func summaryRow(e datasets.ExperimentSummary) []string {
	res := ""
	if e.Original != (datasets.Resolution{}) {
		res = e.Original.String()
	}
	jawX, jawY := "", ""
	if e.StdX != 0 || e.StdY != 0 {
		jawX = fmt.Sprintf("%.1f±%.1f", e.MeanX, e.StdX)
		jawY = fmt.Sprintf("%.1f±%.1f", e.MeanY, e.StdY)
	}
	return []string{
		e.Name,
		e.Status,
		strconv.Itoa(e.ImagesFound),
		strconv.Itoa(e.FramesIndexed),
		strconv.Itoa(e.Rejected),
		strconv.Itoa(e.KeypointsPresent),
		strconv.Itoa(e.KeypointsOccluded),
		strconv.Itoa(e.RowsDiscarded),
		strconv.Itoa(e.MasksFound),
		strconv.Itoa(e.FramesSkipped),
		strconv.Itoa(e.Samples),
		res,
		jawX,
		jawY,
		e.Reason,
	}
}

// renderReport formats the per-experiment lines and a totals line.
func renderReport(report *datasets.Report) string {
	rows := make([][]string, 0, len(report.Experiments)+1)
	for _, e := range report.Experiments {
		rows = append(rows, summaryRow(e))
	}
	t := report.Totals()
	rows = append(rows, []string{
		"TOTAL",
		fmt.Sprintf("%d/%d loaded", t.Loaded, t.Experiments),
		strconv.Itoa(t.ImagesFound), "", "",
		strconv.Itoa(t.Keypoints),
		strconv.Itoa(t.Occluded), "",
		strconv.Itoa(t.MasksFound), "",
		strconv.Itoa(t.Samples),
	})

	aligns := make([]columnAlignment, len(summaryHeaders))
	for i := 2; i <= 10; i++ {
		aligns[i] = alignRight
	}
	return renderTable(summaryHeaders, rows, aligns)
}

// writeSummaryCSV writes one line per experiment to path.
func writeSummaryCSV(path string, report *datasets.Report) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeaders); err != nil {
		return err
	}
	for _, e := range report.Experiments {
		if err := w.Write(summaryRow(e)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return f.Close()
}
