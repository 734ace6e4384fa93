package datasets

import "fmt"

// Samples are parallel per-frame slices. Index i of every slice belongs to the
// same frame.
type Samples struct {
	Images    [][]uint8
	Masks     [][]bool
	Heatmaps  [][]uint8
	Filenames []string
}

// add appends one frame to all four slices.
func (s *Samples) add(image []uint8, mask []bool, heatmap []uint8, filename string) {
	s.Images = append(s.Images, image)
	s.Masks = append(s.Masks, mask)
	s.Heatmaps = append(s.Heatmaps, heatmap)
	s.Filenames = append(s.Filenames, filename)
}

// extend concatenates other onto s.
func (s *Samples) extend(other Samples) {
	s.Images = append(s.Images, other.Images...)
	s.Masks = append(s.Masks, other.Masks...)
	s.Heatmaps = append(s.Heatmaps, other.Heatmaps...)
	s.Filenames = append(s.Filenames, other.Filenames...)
}

// Len returns the number of samples.
func (s *Samples) Len() int { return len(s.Filenames) }

// Validate checks that all slices have the same length and that every sample
// has the shape of res.
func (s *Samples) Validate(res Resolution) error {
	n := len(s.Filenames)
	if len(s.Images) != n || len(s.Masks) != n || len(s.Heatmaps) != n {
		return fmt.Errorf("samples out of step: images=%d masks=%d heatmaps=%d filenames=%d",
			len(s.Images), len(s.Masks), len(s.Heatmaps), n)
	}
	px := res.Pixels()
	for i := range n {
		if len(s.Images[i]) != px*3 {
			return fmt.Errorf("image %d (%s) has %d bytes, expected %d", i, s.Filenames[i], len(s.Images[i]), px*3)
		}
		if len(s.Masks[i]) != px {
			return fmt.Errorf("mask %d (%s) has %d pixels, expected %d", i, s.Filenames[i], len(s.Masks[i]), px)
		}
		if len(s.Heatmaps[i]) != px {
			return fmt.Errorf("heatmap %d (%s) has %d pixels, expected %d", i, s.Filenames[i], len(s.Heatmaps[i]), px)
		}
	}
	return nil
}
