package base

import "github.com/sugarme/gotch/nn"

// NewSegmentationHead creates a 1x1 convolution mapping cIn channels to cOut
// per-pixel logits. No activation is applied.
func NewSegmentationHead(p *nn.Path, cIn, cOut int64) *Layer {
	return NewConv(p, cIn, cOut, 1, 0, 1)
}
