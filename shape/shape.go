// Package shape computes NCHW tensor shapes through the U-Net without
// touching any tensor, so preconditions can be checked before a forward pass
// starts.
package shape

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidShape is the cause of every error returned by this package.
var ErrInvalidShape = errors.New("invalid shape")

// Depth is the number of encoder (and decoder) stages.
const Depth = 4

// Multiple is the factor input height and width must be divisible by.
const Multiple int64 = 1 << Depth

// Shape is an NCHW tensor shape.
type Shape struct {
	B, C, H, W int64
}

// Of converts a tensor size slice (e.g. from `MustSize()`) to Shape.
func Of(dims []int64) (Shape, error) {
	if len(dims) != 4 {
		return Shape{}, errors.Wrapf(ErrInvalidShape, "expected 4D [B C H W], got %dD %v", len(dims), dims)
	}
	s := Shape{dims[0], dims[1], dims[2], dims[3]}
	if s.B < 1 || s.C < 1 || s.H < 1 || s.W < 1 {
		return Shape{}, errors.Wrapf(ErrInvalidShape, "non-positive dimension in %v", dims)
	}
	return s, nil
}

// Dims returns shape as a size slice.
func (s Shape) Dims() []int64 {
	return []int64{s.B, s.C, s.H, s.W}
}

// Spatial returns [H W].
func (s Shape) Spatial() []int64 {
	return []int64{s.H, s.W}
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d %d %d %d]", s.B, s.C, s.H, s.W)
}

// Conv2d returns output shape of a 2D convolution.
//
//	out = (in + 2*padding - ksize)/stride + 1
func Conv2d(in Shape, cOut, ksize, padding, stride int64) (Shape, error) {
	if cOut < 1 || ksize < 1 || stride < 1 || padding < 0 {
		return Shape{}, errors.Wrapf(ErrInvalidShape, "bad conv params cOut=%d ksize=%d padding=%d stride=%d", cOut, ksize, padding, stride)
	}
	h := in.H + 2*padding - ksize
	w := in.W + 2*padding - ksize
	if h < 0 || w < 0 {
		return Shape{}, errors.Wrapf(ErrInvalidShape, "kernel %d larger than padded input %v", ksize, in)
	}
	return Shape{in.B, cOut, h/stride + 1, w/stride + 1}, nil
}

// MaxPool2 returns output shape of a 2x2, stride 2 max-pooling. Input height
// and width must be even so the matching upsample restores them exactly.
func MaxPool2(in Shape) (Shape, error) {
	if in.H%2 != 0 || in.W%2 != 0 {
		return Shape{}, errors.Wrapf(ErrInvalidShape, "max-pool needs even height and width, got %v", in)
	}
	return Shape{in.B, in.C, in.H / 2, in.W / 2}, nil
}

// Upsample2 returns output shape of a 2x upsampling to cOut channels.
func Upsample2(in Shape, cOut int64) Shape {
	return Shape{in.B, cOut, in.H * 2, in.W * 2}
}

// Concat returns shape of channel-wise concatenation of a and b.
func Concat(a, b Shape) (Shape, error) {
	if a.B != b.B || a.H != b.H || a.W != b.W {
		return Shape{}, errors.Wrapf(ErrInvalidShape, "cannot concat %v with %v", a, b)
	}
	return Shape{a.B, a.C + b.C, a.H, a.W}, nil
}

// CheckInput validates a U-Net input shape: cIn channels, height and width
// divisible by Multiple.
func CheckInput(in Shape, cIn int64) error {
	if in.C != cIn {
		return errors.Wrapf(ErrInvalidShape, "expected %d input channel(s), got %v", cIn, in)
	}
	if in.H%Multiple != 0 || in.W%Multiple != 0 {
		return errors.Wrapf(ErrInvalidShape, "height and width must be multiples of %d, got %v", Multiple, in)
	}
	return nil
}
