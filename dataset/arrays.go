package dataset

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/nuseg/shape"
)

// LoadArrays reads paired image and mask arrays named X and Y from a numpy
// archive (.npz) or a gotch multi-tensor file (.ot). Arrays may be
// [N H W] or [N 1 H W]; H and W must be multiples of 16. Values above 1 are
// taken as 8-bit intensities and scaled to [0, 1]; masks are binarised at
// 0.5.
func LoadArrays(path string) (*TensorDataset, error) {
	var (
		named []ts.NamedTensor
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npz":
		named, err = ts.ReadNpz(path)
	default:
		named, err = ts.LoadMulti(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load arrays %q", path)
	}

	var x, y *ts.Tensor
	for _, nt := range named {
		switch strings.TrimSuffix(nt.Name, ".npy") {
		case "X", "x":
			x = nt.Tensor
		case "Y", "y":
			y = nt.Tensor
		default:
			nt.Tensor.MustDrop()
		}
	}
	if x == nil || y == nil {
		for _, t := range []*ts.Tensor{x, y} {
			if t != nil {
				t.MustDrop()
			}
		}
		return nil, errors.Errorf("load arrays %q: need tensors named X and Y", path)
	}

	images, err := asNCHW(x, false)
	if err != nil {
		y.MustDrop()
		return nil, errors.Wrapf(err, "X in %q", path)
	}
	masks, err := asNCHW(y, true)
	if err != nil {
		images.MustDrop()
		return nil, errors.Wrapf(err, "Y in %q", path)
	}

	return NewTensorDataset(images, masks)
}

// asNCHW validates t and converts it to a float [N 1 H W] tensor. t is
// dropped.
func asNCHW(t *ts.Tensor, binary bool) (*ts.Tensor, error) {
	dims := t.MustSize()
	if len(dims) == 3 {
		dims = []int64{dims[0], 1, dims[1], dims[2]}
	}
	s, err := shape.Of(dims)
	if err == nil {
		err = shape.CheckInput(s, 1)
	}
	if err != nil {
		t.MustDrop()
		return nil, err
	}

	vals := t.Float64Values()
	t.MustDrop()

	scale := 1.0
	for _, v := range vals {
		if v > 1 {
			scale = 1.0 / 255
			break
		}
	}
	data := make([]float32, len(vals))
	for i, v := range vals {
		v *= scale
		if binary {
			if v > 0.5 {
				v = 1
			} else {
				v = 0
			}
		}
		data[i] = float32(v)
	}

	return ts.MustOfSlice(data).MustView(s.Dims(), true), nil
}

// Split holds out the first validCount samples for validation, the same
// order as Split on file pairs.
func (ds *TensorDataset) Split(validCount int) (train, valid *TensorDataset, err error) {
	if validCount <= 0 || validCount >= ds.n {
		return nil, nil, errors.Errorf("dataset: cannot hold out %d of %d samples", validCount, ds.n)
	}
	valid, err = ds.subset(0, validCount)
	if err != nil {
		return nil, nil, err
	}
	train, err = ds.subset(validCount, ds.n)
	if err != nil {
		return nil, nil, err
	}
	return train, valid, nil
}

func (ds *TensorDataset) subset(start, end int) (*TensorDataset, error) {
	items := make([]*ImageMask, 0, end-start)
	for i := start; i < end; i++ {
		item, err := ds.Item(i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	b := Stack(items)
	return NewTensorDataset(b.Images, b.Masks)
}
