package datasets

import (
	"gonum.org/v1/gonum/stat"
)

// Experiment status values used in reports.
const (
	StatusLoaded  = "loaded"
	StatusSkipped = "skipped"
)

// ExperimentSummary is the report line of one experiment.
type ExperimentSummary struct {
	Name   string
	Status string
	Reason string

	ImagesFound       int
	FramesIndexed     int
	Rejected          int
	KeypointsPresent  int
	KeypointsOccluded int
	RowsDiscarded     int
	MasksFound        int
	FramesSkipped     int
	Samples           int

	Original Resolution

	// Mean and standard deviation of the present jaw coordinates, in
	// original pixels. Zero when there are fewer than two points.
	MeanX, MeanY float64
	StdX, StdY   float64
}

// Report summarizes a loader run.
type Report struct {
	Root string

	// RootError is set when the root folder could not be listed.
	RootError string

	Experiments []ExperimentSummary
}

// Totals adds up every experiment line of a report.
type Totals struct {
	Experiments int
	Loaded      int
	Skipped     int
	ImagesFound int
	MasksFound  int
	Keypoints   int
	Occluded    int
	Samples     int
}

// Totals returns the sums over all experiments.
func (r *Report) Totals() Totals {
	var t Totals
	for _, e := range r.Experiments {
		t.Experiments++
		if e.Status == StatusLoaded {
			t.Loaded++
		} else {
			t.Skipped++
		}
		t.ImagesFound += e.ImagesFound
		t.MasksFound += e.MasksFound
		t.Keypoints += e.KeypointsPresent
		t.Occluded += e.KeypointsOccluded
		t.Samples += e.Samples
	}
	return t
}

// Skipped returns the summaries of skipped experiments.
func (r *Report) Skipped() []ExperimentSummary {
	var out []ExperimentSummary
	for _, e := range r.Experiments {
		if e.Status == StatusSkipped {
			out = append(out, e)
		}
	}
	return out
}

// addSkip records a skipped experiment with whatever was counted before it
// was given up on.
func (r *Report) addSkip(err *SkipError) {
	s := ExperimentSummary{Name: err.Experiment}
	if err.Partial != nil {
		s = summarize(err.Partial)
		s.Samples = 0
	}
	s.Status = StatusSkipped
	s.Reason = err.Reason
	r.Experiments = append(r.Experiments, s)
}

func (r *Report) addResult(res *ExperimentResult) {
	s := summarize(res)
	s.Status = StatusLoaded
	r.Experiments = append(r.Experiments, s)
}

func summarize(res *ExperimentResult) ExperimentSummary {
	s := ExperimentSummary{
		Name:          res.Name,
		ImagesFound:   res.ImagesFound,
		FramesIndexed: res.FramesIndexed,
		Rejected:      res.Rejected,
		MasksFound:    res.MasksFound,
		FramesSkipped: res.FramesSkipped,
		Samples:       res.Len(),
		Original:      res.Original,
	}
	if res.Keypoints != nil {
		s.KeypointsPresent, s.KeypointsOccluded = res.Keypoints.Counts()
		s.RowsDiscarded = res.Keypoints.Discarded
		s.MeanX, s.StdX, s.MeanY, s.StdY = keypointStats(res.Keypoints)
	}
	return s
}

func keypointStats(t *KeypointTable) (meanX, stdX, meanY, stdY float64) {
	xs := make([]float64, 0, len(t.Points))
	ys := make([]float64, 0, len(t.Points))
	for _, kp := range t.Points {
		if kp.State != Present {
			continue
		}
		xs = append(xs, float64(kp.X))
		ys = append(ys, float64(kp.Y))
	}
	if len(xs) < 2 {
		return 0, 0, 0, 0
	}
	meanX, stdX = stat.MeanStdDev(xs, nil)
	meanY, stdY = stat.MeanStdDev(ys, nil)
	return meanX, stdX, meanY, stdY
}
