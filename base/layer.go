package base

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// Kind is a layer operation tag.
type Kind int

const (
	KindConv Kind = iota
	KindReLU
	KindBatchNorm
	KindMaxPool
	KindConvTranspose
)

func (k Kind) String() string {
	switch k {
	case KindConv:
		return "Conv2d"
	case KindReLU:
		return "ReLU"
	case KindBatchNorm:
		return "BatchNorm2d"
	case KindMaxPool:
		return "MaxPool2d"
	case KindConvTranspose:
		return "ConvTranspose2d"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is one operation of a closed set of kinds. Only the field matching
// Kind is set.
type Layer struct {
	Kind Kind

	Conv   *nn.Conv2D
	Norm   *nn.BatchNorm
	UpConv *nn.ConvTranspose2D
}

// ForwardT implements ts.ModuleT for Layer.
func (l *Layer) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	switch l.Kind {
	case KindConv:
		return l.Conv.ForwardT(x, train)
	case KindReLU:
		return x.MustRelu(false)
	case KindBatchNorm:
		return l.Norm.ForwardT(x, train)
	case KindMaxPool:
		// ksize = 2; stride=2; padding=0; dilation=1; ceil=false
		return x.MustMaxPool2d([]int64{2, 2}, []int64{2, 2}, []int64{0, 0}, []int64{1, 1}, false, false)
	case KindConvTranspose:
		return l.UpConv.Forward(x)
	default:
		panic(fmt.Sprintf("base: unknown layer kind %v", l.Kind))
	}
}

// Parameters returns trainable tensors of the layer.
func (l *Layer) Parameters() []*ts.Tensor {
	switch l.Kind {
	case KindConv:
		return nonNil(l.Conv.Ws, l.Conv.Bs)
	case KindBatchNorm:
		return nonNil(l.Norm.Ws, l.Norm.Bs)
	case KindConvTranspose:
		return nonNil(l.UpConv.Ws, l.UpConv.Bs)
	default:
		return nil
	}
}

func (l *Layer) String() string {
	return l.Kind.String()
}

func nonNil(xs ...*ts.Tensor) []*ts.Tensor {
	var out []*ts.Tensor
	for _, x := range xs {
		if x != nil && x.MustDefined() {
			out = append(out, x)
		}
	}
	return out
}

// NewConv creates a Conv2d layer with bias.
func NewConv(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *Layer {
	return &Layer{Kind: KindConv, Conv: Conv2d(p, cIn, cOut, ksize, padding, stride)}
}

// NewReLU creates a ReLU layer.
func NewReLU() *Layer {
	return &Layer{Kind: KindReLU}
}

// NewBatchNorm creates a BatchNorm2d layer over c channels.
func NewBatchNorm(p *nn.Path, c int64, momentum, eps float64) *Layer {
	config := nn.DefaultBatchNormConfig()
	config.Momentum = momentum
	config.Eps = eps

	return &Layer{Kind: KindBatchNorm, Norm: nn.BatchNorm2D(p, c, config)}
}

// NewMaxPool creates a 2x2, stride 2 max-pooling layer.
func NewMaxPool() *Layer {
	return &Layer{Kind: KindMaxPool}
}

// NewConvTranspose creates a learned 2x upsampling layer (kernel 2x2, stride 2).
func NewConvTranspose(p *nn.Path, cIn, cOut int64) *Layer {
	config := nn.DefaultConvTranspose2DConfig()
	config.Stride = []int64{2, 2}
	config.Padding = []int64{0, 0}

	return &Layer{Kind: KindConvTranspose, UpConv: nn.NewConvTranspose2D(p, cIn, cOut, []int64{2, 2}, config)}
}
