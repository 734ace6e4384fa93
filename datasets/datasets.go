// Package datasets assembles frame-aligned training data from licking
// experiment recordings.
//
// An experiment folder holds a dense image sequence, a sparse set of tongue
// masks and a keypoint CSV for the jaw:
//
//	E/images/*.png
//	E/labels/tongue/<stem>.png
//	E/labels/jaw/*.csv
//
// The loader reconciles the three sources per experiment and emits, for each
// retained frame, a resized image, a boolean tongue mask and an 8-bit jaw
// heatmap. Experiments with missing pieces are skipped with a reason instead
// of failing the whole run.
//
// Layout and intended usage:
//
// Dataset
//   - Holds the concatenated samples of every loaded experiment, in experiment
//     name order and then ascending frame order.
//   - Images are H*W*3 RGB bytes, masks are H*W bools, heatmaps are H*W bytes.
//   - Stack packs them into contiguous buffers; ToGomlxTensors turns those into
//     gomlx tensors with the two label modalities as the last axis.
//
// Batches wraps a Dataset to implement gomlx's train.Dataset interface.
package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// Source is the read side shared by Dataset and anything that serves aligned
// samples to a training loop.
type Source interface {
	Len() int
	Example(i int) (image []uint8, label []uint8, err error)
	Batch(indices []int) (*DenseBatch, error)
}

// TrainDataset matches gomlx's train.Dataset interface.
type TrainDataset interface {
	Name() string
	Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error)
	Reset()
}
