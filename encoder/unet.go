package encoder

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/nuseg/base"
)

// Stage is a ConvBlock followed by 2x2 max-pooling.
type Stage struct {
	Block *base.ConvBlock
	Pool  *base.Layer
}

// NewStage creates an encoder stage mapping cIn to cOut channels.
func NewStage(p *nn.Path, cIn, cOut int64, config *base.BlockConfig) *Stage {
	return &Stage{
		Block: base.NewConvBlock(p.Sub("block"), cIn, cOut, config),
		Pool:  base.NewMaxPool(),
	}
}

// ForwardT returns the pooled output [B Cout H/2 W/2] and the pre-pool skip
// activation [B Cout H W].
func (s *Stage) ForwardT(x *ts.Tensor, train bool) (down, skip *ts.Tensor) {
	skip = s.Block.ForwardT(x, train)
	down = s.Pool.ForwardT(skip, train)

	return down, skip
}

var _ Encoder = (*UNetEncoder)(nil)

// UNetEncoder is the contracting path of U-Net: stages with channel
// widths F, 2F, 4F, 8F...
type UNetEncoder struct {
	stages   []*Stage
	channels []int64
}

// NewUNetEncoder creates an encoder of `depth` stages with base width
// `features`.
func NewUNetEncoder(p *nn.Path, cIn, features int64, depth int, config *base.BlockConfig) *UNetEncoder {
	var (
		stages   []*Stage
		channels []int64
	)
	c := features
	for i := 1; i <= depth; i++ {
		stages = append(stages, NewStage(p.Sub(fmt.Sprintf("enc%d", i)), cIn, c, config))
		channels = append(channels, c)
		cIn = c
		c *= 2
	}

	return &UNetEncoder{stages: stages, channels: channels}
}

// ForwardAll implements Encoder interface for UNetEncoder.
func (e *UNetEncoder) ForwardAll(x *ts.Tensor, train bool) (*ts.Tensor, []*ts.Tensor) {
	skips := make([]*ts.Tensor, 0, len(e.stages))
	input := x
	for i, s := range e.stages {
		down, skip := s.ForwardT(input, train)
		if i > 0 {
			input.MustDrop()
		}
		skips = append(skips, skip)
		input = down
	}

	return input, skips
}

// Channels returns output width of every stage.
func (e *UNetEncoder) Channels() []int64 {
	return e.channels
}

// Stages returns encoder stages, shallowest first.
func (e *UNetEncoder) Stages() []*Stage {
	return e.stages
}

// Parameters returns trainable tensors, shallowest stage first.
func (e *UNetEncoder) Parameters() []*ts.Tensor {
	var params []*ts.Tensor
	for _, s := range e.stages {
		params = append(params, s.Block.Parameters()...)
	}
	return params
}

// Norms returns batch-norm modules, shallowest stage first.
func (e *UNetEncoder) Norms() []*nn.BatchNorm {
	var norms []*nn.BatchNorm
	for _, s := range e.stages {
		norms = append(norms, s.Block.Norms()...)
	}
	return norms
}
