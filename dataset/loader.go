package dataset

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	ts "github.com/sugarme/gotch/tensor"
)

// BatchSampler splits sample indices into batches.
type BatchSampler struct {
	n         int
	batchSize int
	dropLast  bool
	shuffle   bool
	rng       *rand.Rand
}

// NewBatchSampler creates a sampler over n samples. Seeded from the clock;
// use Seed for reproducible order.
func NewBatchSampler(n, batchSize int, dropLast, shuffle bool) (*BatchSampler, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	if dropLast && batchSize > n {
		return nil, errors.Errorf("batch size %d larger than %d samples with dropLast", batchSize, n)
	}

	return &BatchSampler{
		n:         n,
		batchSize: batchSize,
		dropLast:  dropLast,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Seed resets the shuffling source.
func (s *BatchSampler) Seed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// Batches returns one epoch worth of index batches.
func (s *BatchSampler) Batches() [][]int {
	idx := make([]int, s.n)
	for i := range idx {
		idx[i] = i
	}
	if s.shuffle {
		s.rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	var batches [][]int
	for start := 0; start < s.n; start += s.batchSize {
		end := start + s.batchSize
		if end > s.n {
			if s.dropLast {
				break
			}
			end = s.n
		}
		batches = append(batches, idx[start:end])
	}

	return batches
}

// Batch is a stacked group of samples: images and masks [B 1 H W].
type Batch struct {
	Names  []string
	Images *ts.Tensor
	Masks  *ts.Tensor
}

// Drop releases batch tensors.
func (b *Batch) Drop() {
	b.Images.MustDrop()
	b.Masks.MustDrop()
}

// Size returns number of samples in the batch.
func (b *Batch) Size() int {
	return len(b.Names)
}

// DataLoader iterates a Dataset batch by batch.
type DataLoader struct {
	ds      Dataset
	sampler *BatchSampler
	batches [][]int
	cursor  int
}

// NewDataLoader creates a DataLoader and prepares the first epoch.
func NewDataLoader(ds Dataset, s *BatchSampler) (*DataLoader, error) {
	if ds.Len() != s.n {
		return nil, errors.Errorf("sampler covers %d samples, dataset has %d", s.n, ds.Len())
	}
	dl := &DataLoader{ds: ds, sampler: s}
	dl.Reset()

	return dl, nil
}

// Reset starts a new epoch (reshuffling when the sampler shuffles).
func (dl *DataLoader) Reset() {
	dl.batches = dl.sampler.Batches()
	dl.cursor = 0
}

// HasNext reports whether the epoch has another batch.
func (dl *DataLoader) HasNext() bool {
	return dl.cursor < len(dl.batches)
}

// Len returns number of batches per epoch.
func (dl *DataLoader) Len() int {
	return len(dl.batches)
}

// Next loads and stacks the next batch. Samples are decoded concurrently.
func (dl *DataLoader) Next() (*Batch, error) {
	if !dl.HasNext() {
		return nil, errors.New("dataloader: no more batches")
	}
	idx := dl.batches[dl.cursor]
	dl.cursor++

	items := make([]*ImageMask, len(idx))
	errs := make([]error, len(idx))
	var wg sync.WaitGroup
	for i, sampleIdx := range idx {
		wg.Add(1)
		go func(i, sampleIdx int) {
			defer wg.Done()
			// libtorch errors are thread-local and read back in a separate cgo call.
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			items[i], errs[i] = dl.ds.Item(sampleIdx)
		}(i, sampleIdx)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			for _, it := range items {
				if it != nil {
					it.Drop()
				}
			}
			return nil, err
		}
	}

	return Stack(items), nil
}

// Stack stacks samples into a Batch and drops the sample tensors.
func Stack(items []*ImageMask) *Batch {
	var (
		img, mask []ts.Tensor
		names     []string
	)
	for _, i := range items {
		img = append(img, *i.Image)
		mask = append(mask, *i.Mask)
		names = append(names, i.Name)
	}

	imgTs := ts.MustStack(img, 0)
	maskTs := ts.MustStack(mask, 0)
	for _, i := range items {
		i.Drop()
	}

	return &Batch{Names: names, Images: imgTs, Masks: maskTs}
}
