package datasets

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"k8s.io/klog/v2"
)

// Reasons an experiment is skipped. A SkipError wraps exactly one of them.
var (
	ErrNoLabels         = errors.New("no labels folder")
	ErrNoTongueOrJaw    = errors.New("missing tongue or jaw folder")
	ErrNoImagesDir      = errors.New("no images folder")
	ErrNoImages         = errors.New("no images found")
	ErrNoKeypointCSV    = errors.New("no CSV file found in jaw folder")
	ErrKeypointTable    = errors.New("could not read keypoint table")
	ErrNoFrames         = errors.New("no valid frame numbers found")
	ErrNoSelectedFrames = errors.New("no valid frames found")
	ErrFirstImage       = errors.New("could not read first image")
)

// SkipError reports why an experiment contributed no samples.
type SkipError struct {
	Experiment string
	Reason     string
	Err        error

	// Partial holds the counters gathered before the experiment was given
	// up on. It never holds samples and may be nil.
	Partial *ExperimentResult
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipping %s: %s", e.Experiment, e.Reason)
}

func (e *SkipError) Unwrap() error { return e.Err }

func skip(partial *ExperimentResult, err error, format string, args ...any) *SkipError {
	reason := err.Error()
	if format != "" {
		reason = fmt.Sprintf("%s: %s", reason, fmt.Sprintf(format, args...))
	}
	return &SkipError{Experiment: partial.Name, Reason: reason, Err: err, Partial: partial}
}

// ExperimentResult holds the aligned samples of one experiment and what was
// found while building them.
type ExperimentResult struct {
	Name string
	Dir  string

	Samples

	// Frames are the frame numbers of the emitted samples, ascending.
	Frames []int

	// Original is the resolution of the first decoded image.
	Original Resolution

	ImagesFound   int
	FramesIndexed int
	Rejected      int
	MasksFound    int
	FramesSkipped int

	Keypoints *KeypointTable
}

// AlignExperiment builds the aligned samples of the experiment in dir. When a
// required folder or file is missing it returns a *SkipError; frames that fail
// to decode are skipped individually.
func AlignExperiment(dir string, cfg Config) (*ExperimentResult, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	name := filepath.Base(dir)
	klog.Infof("Loading experiment folder: %s", name)
	res := &ExperimentResult{Name: name, Dir: dir}

	labelsPath := filepath.Join(dir, cfg.LabelsDir)
	if !isDir(labelsPath) {
		return nil, skip(res, ErrNoLabels, "%s", cfg.LabelsDir)
	}
	tonguePath := filepath.Join(labelsPath, cfg.TongueDir)
	jawPath := filepath.Join(labelsPath, cfg.JawDir)
	if !isDir(tonguePath) || !isDir(jawPath) {
		found, _ := listDirs(labelsPath)
		klog.Infof("Found label folders: %s", joinNames(found))
		return nil, skip(res, ErrNoTongueOrJaw, "")
	}

	imagesPath := filepath.Join(dir, cfg.ImagesDir)
	if !isDir(imagesPath) {
		return nil, skip(res, ErrNoImagesDir, "%s", cfg.ImagesDir)
	}
	imagePaths, err := listFiles(imagesPath, cfg.Extensions)
	if err != nil {
		return nil, skip(res, ErrNoImagesDir, "%v", err)
	}
	if len(imagePaths) == 0 {
		return nil, skip(res, ErrNoImages, "")
	}
	res.ImagesFound = len(imagePaths)
	klog.Infof("Found %d images", len(imagePaths))

	csvPath, err := FindCSV(jawPath)
	if err != nil {
		return nil, skip(res, ErrNoKeypointCSV, "")
	}
	keypoints, err := ReadKeypoints(csvPath, cfg.keypointOptions())
	if err != nil {
		return nil, skip(res, ErrKeypointTable, "%v", err)
	}
	res.Keypoints = keypoints

	frames := IndexFrames(imagePaths, cfg.Extensions, cfg.SceneToken)
	res.FramesIndexed = frames.Len()
	res.Rejected = len(frames.Rejected)
	if frames.Len() == 0 {
		return nil, skip(res, ErrNoFrames, "")
	}

	selected := selectFrames(frames.Frames(), keypoints, cfg.LoadAllImages)
	if len(selected) == 0 {
		return nil, skip(res, ErrNoSelectedFrames, "")
	}

	first, err := decodeImage(frames.Paths[selected[0]])
	if err != nil {
		return nil, skip(res, ErrFirstImage, "%v", err)
	}
	original := imageResolution(first)
	res.Original = original
	klog.Infof("Original resolution: %s", original)
	if original != cfg.Original {
		klog.V(1).Infof("Configured original resolution %s differs from %s, using the latter", cfg.Original, original)
	}
	klog.Infof("Processing %d frames", len(selected))

	for _, frame := range selected {
		path := frames.Paths[frame]

		var img image.Image
		if first != nil {
			img, first = first, nil
		} else if img, err = decodeImage(path); err != nil {
			klog.Warningf("Could not read image: %s: %v", path, err)
			res.FramesSkipped++
			continue
		}
		pixels := resizeRGB(img, cfg.Target)

		maskPath := filepath.Join(tonguePath, frames.Stems[frame]+".png")
		mask, found := tongueMask(maskPath, cfg.Target)
		if found {
			res.MasksFound++
		}

		var heatmap []uint8
		if kp := keypoints.Lookup(frame); kp.State == Present {
			heatmap = HeatmapToUint8(GaussianHeatmap(original, cfg.Target, kp.X, kp.Y, cfg.Sigma))
		} else {
			heatmap = make([]uint8, cfg.Target.Pixels())
			if cfg.LoadAllImages {
				klog.V(1).Infof("No jaw label for frame %d in %s, using empty mask", frame, name)
			}
		}

		res.add(pixels, mask, heatmap, path)
		res.Frames = append(res.Frames, frame)
	}

	return res, nil
}

// selectFrames applies the frame policy. In annotated-only mode a frame with
// an occluded row counts as annotated and is kept.
func selectFrames(all []int, keypoints *KeypointTable, loadAll bool) []int {
	if loadAll {
		return all
	}
	selected := make([]int, 0, len(all))
	for _, frame := range all {
		if keypoints.Annotated(frame) {
			selected = append(selected, frame)
		}
	}
	return selected
}

// tongueMask loads the mask at path, or an all-false mask when the file is
// missing or unreadable.
func tongueMask(path string, target Resolution) ([]bool, bool) {
	if !fileExists(path) {
		return make([]bool, target.Pixels()), false
	}
	mask, err := loadMask(path, target)
	if err != nil {
		klog.Warningf("Could not read tongue mask %s: %v", path, err)
		return make([]bool, target.Pixels()), false
	}
	return mask, true
}
