package unet

import (
	"github.com/pkg/errors"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/nuseg/base"
	"github.com/sugarme/nuseg/encoder"
	"github.com/sugarme/nuseg/shape"
)

// UNet is a UNET model struct
// Ref: https://arxiv.org/abs/1505.04597
type UNet struct {
	config     Config
	encoder    encoder.Encoder
	bottleneck *Bottleneck
	decoder    *UNetDecoder
	head       *base.Layer
}

// New creates a UNet under path p. Parameter names are rooted at p
// (`enc1.block.conv1.weight`, `bottleneck.block...`, `dec1.up.weight`,
// `head.weight`...).
func New(p *nn.Path, config *Config) (*UNet, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	f := config.Features
	blockConfig := config.blockConfig()
	enc := encoder.NewUNetEncoder(p, config.InChannels, f, shape.Depth, blockConfig)
	channels := enc.Channels()
	deepest := channels[len(channels)-1] // 8F

	return &UNet{
		config:     *config,
		encoder:    enc,
		bottleneck: NewBottleneck(p.Sub("bottleneck"), deepest, blockConfig),
		decoder:    NewUNetDecoder(p, deepest*2, shape.Depth, config),
		head:       base.NewSegmentationHead(p.Sub("head"), f, 1),
	}, nil
}

// MustNew creates a UNet and panics on invalid config.
func MustNew(p *nn.Path, config *Config) *UNet {
	n, err := New(p, config)
	if err != nil {
		panic(err)
	}
	return n
}

// DefaultUNet creates UNet with default values.
func DefaultUNet(p *nn.Path) *UNet {
	return MustNew(p, DefaultConfig())
}

// Plan validates an input shape and returns shapes of every stage.
func (n *UNet) Plan(in shape.Shape) (*shape.Plan, error) {
	return shape.UNet(in, n.config.InChannels, n.config.Features)
}

// Forward runs x [B Cin H W] through the network and returns logits
// [B 1 H W]. Shape preconditions are checked before any layer runs.
func (n *UNet) Forward(x *ts.Tensor, train bool) (*ts.Tensor, error) {
	in, err := shape.Of(x.MustSize())
	if err != nil {
		return nil, err
	}
	if _, err := n.Plan(in); err != nil {
		return nil, err
	}

	down, skips := n.encoder.ForwardAll(x, train) // skips: [B F H W] ... [B 8F H/8 W/8]
	center := n.bottleneck.ForwardT(down, train)  // [B 16F H/16 W/16]
	down.MustDrop()
	out, err := n.decoder.ForwardFeatures(center, skips, train) // [B F H W]
	center.MustDrop()
	for _, s := range skips {
		s.MustDrop()
	}
	if err != nil {
		return nil, errors.Wrap(err, "unet forward")
	}

	logits := n.head.ForwardT(out, train) // [B 1 H W]
	out.MustDrop()

	return logits, nil
}

// ForwardT implements ts.ModuleT for UNet. It panics on shape precondition
// violation.
func (n *UNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	logits, err := n.Forward(x, train)
	if err != nil {
		panic(err)
	}
	return logits
}

// Predict runs an evaluation-mode forward pass without gradient tracking.
func (n *UNet) Predict(x *ts.Tensor) (*ts.Tensor, error) {
	var (
		logits *ts.Tensor
		err    error
	)
	ts.NoGrad(func() {
		logits, err = n.Forward(x, false)
	})

	return logits, err
}

// Parameters returns all trainable tensors: encoder, bottleneck, decoder,
// head.
func (n *UNet) Parameters() []*ts.Tensor {
	params := n.encoder.Parameters()
	params = append(params, n.bottleneck.Block.Parameters()...)
	params = append(params, n.decoder.Parameters()...)
	params = append(params, n.head.Parameters()...)
	return params
}

// Norms returns every batch-norm module of the network.
func (n *UNet) Norms() []*nn.BatchNorm {
	norms := n.encoder.Norms()
	norms = append(norms, n.bottleneck.Block.Norms()...)
	for _, s := range n.decoder.Stages() {
		norms = append(norms, s.Block.Norms()...)
	}
	return norms
}

// Features returns base channel width F.
func (n *UNet) Features() int64 {
	return n.config.Features
}

// Config returns a copy of the construction config.
func (n *UNet) Config() Config {
	return n.config
}
