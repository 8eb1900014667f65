package unet

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/nuseg/base"
	"github.com/sugarme/nuseg/shape"
)

// Bottleneck is the ConvBlock between encoder and decoder. It doubles
// channels and keeps spatial size.
type Bottleneck struct {
	Block *base.ConvBlock
}

// NewBottleneck creates new Bottleneck.
func NewBottleneck(p *nn.Path, cIn int64, config *base.BlockConfig) *Bottleneck {
	return &Bottleneck{base.NewConvBlock(p.Sub("block"), cIn, cIn*2, config)}
}

// ForwardT implements ts.ModuleT interface for Bottleneck.
func (b *Bottleneck) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	return b.Block.ForwardT(x, train)
}

// DecoderStage upsamples its input by 2, concatenates the matching encoder
// skip and applies a ConvBlock: [B Cin H W] + [B Cin/2 2H 2W] => [B Cin/2 2H 2W].
type DecoderStage struct {
	Up    *base.Layer // transposed conv, or 1x1 projection after bilinear interpolation
	Block *base.ConvBlock
	Attn  *base.SCSE // optional

	mode UpsampleMode
}

// NewDecoderStage creates a decoder stage taking cIn channels.
func NewDecoderStage(p *nn.Path, cIn int64, config *Config) *DecoderStage {
	cOut := cIn / 2

	var up *base.Layer
	switch config.Upsample {
	case UpsampleBilinear:
		up = base.NewConv(p.Sub("proj"), cIn, cOut, 1, 0, 1)
	default:
		up = base.NewConvTranspose(p.Sub("up"), cIn, cOut)
	}

	var attn *base.SCSE
	if config.Attention {
		attn = base.NewSCSE(p.Sub("attn"), cOut)
	}

	return &DecoderStage{
		Up:    up,
		Block: base.NewConvBlock(p.Sub("block"), cIn, cOut, config.blockConfig()),
		Attn:  attn,
		mode:  config.Upsample,
	}
}

// Upsample doubles height and width of x and halves its channels.
func (d *DecoderStage) Upsample(x *ts.Tensor, train bool) *ts.Tensor {
	if d.mode != UpsampleBilinear {
		return d.Up.ForwardT(x, train)
	}

	size := x.MustSize()
	outSize := []int64{size[2] * 2, size[3] * 2}
	xUp := x.MustUpsampleBilinear2d(outSize, false, nil, nil, false)
	proj := d.Up.ForwardT(xUp, train)
	xUp.MustDrop()

	return proj
}

// checkSkip verifies x and skip fit together before anything is computed.
func (d *DecoderStage) checkSkip(x, skip *ts.Tensor) error {
	xs, err := shape.Of(x.MustSize())
	if err != nil {
		return err
	}
	ss, err := shape.Of(skip.MustSize())
	if err != nil {
		return err
	}
	cIn := d.Block.InChannels()
	if xs.C != cIn {
		return errors.Wrapf(shape.ErrInvalidShape, "decoder stage expects %d channels, got %v", cIn, xs)
	}
	up := shape.Upsample2(xs, cIn/2)
	if ss.C != up.C {
		return errors.Wrapf(shape.ErrInvalidShape, "skip %v must have %d channels", ss, up.C)
	}
	if _, err := shape.Concat(ss, up); err != nil {
		return errors.Wrapf(err, "skip does not match upsampled input")
	}
	return nil
}

// ForwardSkip forwards x upsampled and fused with skip.
func (d *DecoderStage) ForwardSkip(x, skip *ts.Tensor, train bool) (*ts.Tensor, error) {
	if err := d.checkSkip(x, skip); err != nil {
		return nil, err
	}

	up := d.Upsample(x, train)
	cat := ts.MustCat([]ts.Tensor{*skip, *up}, 1)
	up.MustDrop()
	out := d.Block.ForwardT(cat, train)
	cat.MustDrop()

	if d.Attn != nil {
		attn := d.Attn.ForwardT(out, train)
		out.MustDrop()
		out = attn
	}

	return out, nil
}

// Parameters returns trainable tensors of the stage.
func (d *DecoderStage) Parameters() []*ts.Tensor {
	params := d.Up.Parameters()
	params = append(params, d.Block.Parameters()...)
	if d.Attn != nil {
		params = append(params, d.Attn.Parameters()...)
	}
	return params
}

// UNetDecoder is the expanding path of U-Net.
type UNetDecoder struct {
	stages []*DecoderStage
}

// NewUNetDecoder creates `depth` decoder stages starting from cIn channels.
func NewUNetDecoder(p *nn.Path, cIn int64, depth int, config *Config) *UNetDecoder {
	var stages []*DecoderStage
	for j := 1; j <= depth; j++ {
		stages = append(stages, NewDecoderStage(p.Sub(fmt.Sprintf("dec%d", j)), cIn, config))
		cIn /= 2
	}

	return &UNetDecoder{stages}
}

// ForwardFeatures forwards x through all stages. skips are ordered
// shallowest first, as produced by the encoder, and are consumed deepest
// first. Skips stay owned by the caller.
func (n *UNetDecoder) ForwardFeatures(x *ts.Tensor, skips []*ts.Tensor, train bool) (*ts.Tensor, error) {
	if len(skips) != len(n.stages) {
		return nil, errors.Wrapf(shape.ErrInvalidShape, "expected %d skip tensors, got %d", len(n.stages), len(skips))
	}

	out := x
	for j, stage := range n.stages {
		next, err := stage.ForwardSkip(out, skips[len(skips)-1-j], train)
		if j > 0 {
			out.MustDrop()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "decoder stage %d", j+1)
		}
		out = next
	}

	return out, nil
}

// Stages returns decoder stages, deepest first.
func (n *UNetDecoder) Stages() []*DecoderStage {
	return n.stages
}

// Parameters returns trainable tensors, deepest stage first.
func (n *UNetDecoder) Parameters() []*ts.Tensor {
	var params []*ts.Tensor
	for _, s := range n.stages {
		params = append(params, s.Parameters()...)
	}
	return params
}
