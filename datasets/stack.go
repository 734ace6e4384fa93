package datasets

import (
	"errors"
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

const (
	// ImageChannels is the number of channels of an image sample (RGB).
	ImageChannels = 3
	// LabelChannels is the number of label channels: tongue mask, jaw heatmap.
	LabelChannels = 2
)

// Label channel positions in the last axis of DenseBatch.Labels.
const (
	TongueChannel = 0
	JawChannel    = 1
)

// ErrEmptyBatch is returned when converting an empty batch to tensors.
var ErrEmptyBatch = errors.New("batch is empty")

// DenseBatch stores samples in flat contiguous buffers.
//
// Images is shaped [N, Height, Width, 3]. Labels is shaped
// [N, Height, Width, 2] with the tongue mask (0 or 1) in channel 0 and the
// jaw heatmap in channel 1.
type DenseBatch struct {
	Images []uint8
	Labels []uint8
	N      int
	Height int
	Width  int
}

// Empty reports whether the batch holds no samples.
func (b *DenseBatch) Empty() bool { return b == nil || b.N == 0 }

// ImageShape returns the dimensions of Images.
func (b *DenseBatch) ImageShape() []int {
	return []int{b.N, b.Height, b.Width, ImageChannels}
}

// LabelShape returns the dimensions of Labels.
func (b *DenseBatch) LabelShape() []int {
	return []int{b.N, b.Height, b.Width, LabelChannels}
}

// Mask returns the tongue mask of sample i.
func (b *DenseBatch) Mask(i int) []bool {
	px := b.Height * b.Width
	out := make([]bool, px)
	base := i * px * LabelChannels
	for p := range px {
		out[p] = b.Labels[base+p*LabelChannels+TongueChannel] != 0
	}
	return out
}

// Heatmap returns the jaw heatmap of sample i.
func (b *DenseBatch) Heatmap(i int) []uint8 {
	px := b.Height * b.Width
	out := make([]uint8, px)
	base := i * px * LabelChannels
	for p := range px {
		out[p] = b.Labels[base+p*LabelChannels+JawChannel]
	}
	return out
}

// ToGomlxTensors converts the batch to uint8 gomlx tensors.
func (b *DenseBatch) ToGomlxTensors() (images *tensors.Tensor, labels *tensors.Tensor, err error) {
	if b.Empty() {
		return nil, nil, ErrEmptyBatch
	}
	px := b.Height * b.Width
	if len(b.Images) != b.N*px*ImageChannels || len(b.Labels) != b.N*px*LabelChannels {
		return nil, nil, fmt.Errorf("batch buffers do not match shape [%d, %d, %d]: images=%d labels=%d",
			b.N, b.Height, b.Width, len(b.Images), len(b.Labels))
	}
	images = tensors.FromFlatDataAndDimensions(b.Images, b.ImageShape()...)
	labels = tensors.FromFlatDataAndDimensions(b.Labels, b.LabelShape()...)
	return images, labels, nil
}

// interleaveLabels puts mask and heatmap side by side as the last axis.
func interleaveLabels(mask []bool, heatmap []uint8) []uint8 {
	out := make([]uint8, len(mask)*LabelChannels)
	for p := range mask {
		if mask[p] {
			out[p*LabelChannels+TongueChannel] = 1
		}
		out[p*LabelChannels+JawChannel] = heatmap[p]
	}
	return out
}
