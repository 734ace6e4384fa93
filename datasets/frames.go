package datasets

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// FrameIndex maps frame numbers to the image that carries them.
type FrameIndex struct {
	// Paths maps frame number -> image file path.
	Paths map[int]string

	// Stems maps frame number -> file name without extension. The stem is
	// what the matching tongue mask is named after.
	Stems map[int]string

	// Rejected lists files whose name did not yield a frame number.
	Rejected []string

	// Collisions counts files that replaced an earlier file with the same
	// frame number.
	Collisions int
}

// IndexFrames derives a frame number from every image name in paths.
//
// The accepted extension is stripped, then a leading sceneToken if present,
// and the rest must parse as an integer. Files with other extensions are
// ignored; files that fail to parse are logged and left out. When two files
// map to the same frame the later one in paths wins.
func IndexFrames(paths []string, extensions []string, sceneToken string) *FrameIndex {
	idx := &FrameIndex{
		Paths: make(map[int]string, len(paths)),
		Stems: make(map[int]string, len(paths)),
	}

	for _, path := range paths {
		name := filepath.Base(path)
		ext, ok := matchExtension(name, extensions)
		if !ok {
			continue
		}
		stem := name[:len(name)-len(ext)]

		num := stem
		if sceneToken != "" && strings.HasPrefix(num, sceneToken) {
			num = num[len(sceneToken):]
		}

		frame, err := strconv.Atoi(num)
		if err != nil {
			klog.Warningf("Could not convert frame number %q to int for %s", num, path)
			idx.Rejected = append(idx.Rejected, path)
			continue
		}

		if prev, dup := idx.Paths[frame]; dup {
			klog.V(1).Infof("Frame %d: %s replaces %s", frame, path, prev)
			idx.Collisions++
		}
		idx.Paths[frame] = path
		idx.Stems[frame] = stem
	}

	return idx
}

// Len returns the number of indexed frames.
func (f *FrameIndex) Len() int { return len(f.Paths) }

// Frames returns the indexed frame numbers in ascending order.
func (f *FrameIndex) Frames() []int {
	frames := make([]int, 0, len(f.Paths))
	for frame := range f.Paths {
		frames = append(frames, frame)
	}
	sort.Ints(frames)
	return frames
}

// matchExtension returns the suffix of name matching one of extensions,
// compared case-insensitively, keeping the original casing of name.
func matchExtension(name string, extensions []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if ext != "" && strings.HasSuffix(lower, ext) {
			return name[len(name)-len(ext):], true
		}
	}
	return "", false
}
