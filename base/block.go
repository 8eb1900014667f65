package base

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// NormPlacement decides where batch-norm sits relative to ReLU in a ConvBlock.
type NormPlacement int

const (
	// NormAfterActivation is conv -> relu -> bn.
	NormAfterActivation NormPlacement = iota
	// NormBeforeActivation is conv -> bn -> relu.
	NormBeforeActivation
)

func (n NormPlacement) String() string {
	if n == NormBeforeActivation {
		return "conv-bn-relu"
	}
	return "conv-relu-bn"
}

// BlockConfig holds ConvBlock policy.
type BlockConfig struct {
	Placement  NormPlacement
	BNMomentum float64
	BNEps      float64
}

// DefaultBlockConfig returns conv -> relu -> bn with momentum 0.1, eps 1e-5.
func DefaultBlockConfig() *BlockConfig {
	return &BlockConfig{
		Placement:  NormAfterActivation,
		BNMomentum: 0.1,
		BNEps:      1e-5,
	}
}

// ConvBlock is two successive 3x3 "same" convolution stages, each followed by
// ReLU and batch-norm. It maps [B Cin H W] to [B Cout H W].
type ConvBlock struct {
	Layers []*Layer

	cIn  int64
	cOut int64
}

// NewConvBlock creates a ConvBlock under path p.
func NewConvBlock(p *nn.Path, cIn, cOut int64, config *BlockConfig) *ConvBlock {
	if config == nil {
		config = DefaultBlockConfig()
	}

	var layers []*Layer
	c := cIn
	for i := 1; i <= 2; i++ {
		conv := NewConv(p.Sub(fmt.Sprintf("conv%d", i)), c, cOut, 3, 1, 1)
		bn := NewBatchNorm(p.Sub(fmt.Sprintf("bn%d", i)), cOut, config.BNMomentum, config.BNEps)
		switch config.Placement {
		case NormBeforeActivation:
			layers = append(layers, conv, bn, NewReLU())
		default:
			layers = append(layers, conv, NewReLU(), bn)
		}
		c = cOut
	}

	return &ConvBlock{Layers: layers, cIn: cIn, cOut: cOut}
}

// ForwardT implements ts.ModuleT for ConvBlock.
func (b *ConvBlock) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	out := b.Layers[0].ForwardT(x, train)
	for _, l := range b.Layers[1:] {
		next := l.ForwardT(out, train)
		out.MustDrop()
		out = next
	}

	return out
}

// Parameters returns trainable tensors in layer order.
func (b *ConvBlock) Parameters() []*ts.Tensor {
	var params []*ts.Tensor
	for _, l := range b.Layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// Norms returns the block's batch-norm modules in order.
func (b *ConvBlock) Norms() []*nn.BatchNorm {
	var norms []*nn.BatchNorm
	for _, l := range b.Layers {
		if l.Kind == KindBatchNorm {
			norms = append(norms, l.Norm)
		}
	}
	return norms
}

// InChannels returns the input width the block was built for.
func (b *ConvBlock) InChannels() int64 { return b.cIn }

// OutChannels returns the output width.
func (b *ConvBlock) OutChannels() int64 { return b.cOut }
