// Package dataset loads paired microscopy images and nuclei masks as
// gotch tensors and batches them for training.
package dataset

import (
	"github.com/pkg/errors"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/nuseg/shape"
)

// ErrEmpty is returned when a dataset would contain no sample.
var ErrEmpty = errors.New("empty dataset")

// ImageMask is one training sample: image and binary mask, both [1 H W]
// float tensors.
type ImageMask struct {
	Name  string
	Image *ts.Tensor
	Mask  *ts.Tensor
}

// Drop releases both tensors.
func (im *ImageMask) Drop() {
	im.Image.MustDrop()
	im.Mask.MustDrop()
}

// Dataset is a random access collection of samples.
type Dataset interface {
	Len() int
	Item(idx int) (*ImageMask, error)
}

// Pair is an image file and its mask file.
type Pair struct {
	Name  string
	Image string
	Mask  string
}

// NucleiDataset implement Dataset over image/mask files resized to a
// square of Size pixels.
type NucleiDataset struct {
	pairs []Pair
	size  int
}

// NewNucleiDataset creates a dataset. size must be a positive multiple of 16
// so every sample can go through the U-Net unchanged.
func NewNucleiDataset(pairs []Pair, size int) (*NucleiDataset, error) {
	if len(pairs) == 0 {
		return nil, ErrEmpty
	}
	if size <= 0 || int64(size)%shape.Multiple != 0 {
		return nil, errors.Wrapf(shape.ErrInvalidShape, "image size must be a positive multiple of %d, got %d", shape.Multiple, size)
	}
	return &NucleiDataset{pairs: pairs, size: size}, nil
}

func (ds *NucleiDataset) Len() int {
	return len(ds.pairs)
}

// Size returns the side length samples are resized to.
func (ds *NucleiDataset) Size() int {
	return ds.size
}

// Item implements Dataset interface
func (ds *NucleiDataset) Item(idx int) (*ImageMask, error) {
	if idx < 0 || idx >= len(ds.pairs) {
		return nil, errors.Errorf("dataset: index %d out of range [0, %d)", idx, len(ds.pairs))
	}
	p := ds.pairs[idx]

	img, err := ReadImage(p.Image)
	if err != nil {
		return nil, errors.Wrapf(err, "read image %v", p.Image)
	}
	mask, err := ReadImage(p.Mask)
	if err != nil {
		return nil, errors.Wrapf(err, "read mask %v", p.Mask)
	}

	return &ImageMask{
		Name:  p.Name,
		Image: GrayTensor(ToGray(img, ds.size, false), false),
		Mask:  GrayTensor(ToGray(mask, ds.size, true), true),
	}, nil
}

// TensorDataset serves samples from stacked tensors: images and masks of
// shape [N 1 H W].
type TensorDataset struct {
	images *ts.Tensor
	masks  *ts.Tensor
	n      int
}

// NewTensorDataset creates a TensorDataset. Images and masks must agree in
// shape and be 4D.
func NewTensorDataset(images, masks *ts.Tensor) (*TensorDataset, error) {
	is, err := shape.Of(images.MustSize())
	if err != nil {
		return nil, err
	}
	ms, err := shape.Of(masks.MustSize())
	if err != nil {
		return nil, err
	}
	if is != ms {
		return nil, errors.Wrapf(shape.ErrInvalidShape, "images %v vs masks %v", is, ms)
	}
	return &TensorDataset{images: images, masks: masks, n: int(is.B)}, nil
}

func (ds *TensorDataset) Len() int {
	return ds.n
}

// Item implements Dataset interface
func (ds *TensorDataset) Item(idx int) (*ImageMask, error) {
	if idx < 0 || idx >= ds.n {
		return nil, errors.Errorf("dataset: index %d out of range [0, %d)", idx, ds.n)
	}
	return &ImageMask{
		Image: ds.images.MustSelect(0, int64(idx), false),
		Mask:  ds.masks.MustSelect(0, int64(idx), false),
	}, nil
}
