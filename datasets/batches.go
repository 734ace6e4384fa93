package datasets

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

var (
	_ TrainDataset = (*Batches)(nil)
	_ Source       = (*Dataset)(nil)
)

// Batches serves a Source in fixed-size batches of gomlx tensors. It
// implements gomlx's train.Dataset interface: Yield returns io.EOF once every
// sample of the epoch has been served, and Reset starts a new epoch.
type Batches struct {
	// BatchSize for yielding batches
	BatchSize int

	// DropIncomplete skips a final batch smaller than BatchSize.
	DropIncomplete bool

	src   Source
	order []int
	pos   int
	rand  *rand.Rand
}

// NewBatches creates a batch iterator over src in sample order.
func NewBatches(src Source, batchSize int) (*Batches, error) {
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	order := make([]int, src.Len())
	for i := range order {
		order[i] = i
	}
	return &Batches{
		BatchSize: batchSize,
		src:       src,
		order:     order,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Name returns the name of the dataset
func (b *Batches) Name() string { return "LickingDataset" }

// Shuffle permutes the serving order. The underlying samples keep their
// order.
func (b *Batches) Shuffle(seed int64) {
	b.rand = rand.New(rand.NewSource(seed))
	b.rand.Shuffle(len(b.order), func(i, j int) {
		b.order[i], b.order[j] = b.order[j], b.order[i]
	})
}

// Reset starts a new epoch.
func (b *Batches) Reset() { b.pos = 0 }

// Next returns the next batch in flat form, or io.EOF at the end of the epoch.
func (b *Batches) Next() (*DenseBatch, error) {
	remaining := len(b.order) - b.pos
	if remaining <= 0 || (b.DropIncomplete && remaining < b.BatchSize) {
		return nil, io.EOF
	}
	n := min(b.BatchSize, remaining)
	batch, err := b.src.Batch(b.order[b.pos : b.pos+n])
	if err != nil {
		return nil, err
	}
	b.pos += n
	return batch, nil
}

// Yield returns the next batch as gomlx tensors. Inputs hold the images and
// labels the combined tongue/jaw label tensor.
func (b *Batches) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	batch, err := b.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	in, la, err := batch.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}
