package base

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// SCSE is concurrent spatial and channel squeeze and excitement module.
// Ref. https://arxiv.org/abs/1808.08127
type SCSE struct {
	cSE   *nn.SequentialT
	sSE   *nn.SequentialT
	convs []*nn.Conv2D
}

// ForwardT implement ts.ModuleT for SCSE struct.
func (m *SCSE) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	cse := m.cSE.ForwardT(x, train)
	sse := m.sSE.ForwardT(x, train)
	cmul := x.MustMul(cse, false)
	smul := x.MustMul(sse, false)
	res := cmul.MustAdd(smul, true)

	cse.MustDrop()
	sse.MustDrop()
	smul.MustDrop()

	return res
}

// Parameters returns trainable tensors of the squeeze convolutions.
func (m *SCSE) Parameters() []*ts.Tensor {
	var params []*ts.Tensor
	for _, c := range m.convs {
		params = append(params, nonNil(c.Ws, c.Bs)...)
	}
	return params
}

// NewSCSE creates new SCSE. Default reduction is 16; squeezed width is
// at least 1 channel.
func NewSCSE(p *nn.Path, cIn int64, reductionOpt ...int64) *SCSE {
	var reduction int64 = 16
	if len(reductionOpt) > 0 {
		reduction = reductionOpt[0]
	}
	cMid := cIn / reduction
	if cMid < 1 {
		cMid = 1
	}

	// Channel squeeze excite
	chanSeq := nn.SeqT()
	chanSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustAdaptiveAvgPool2d([]int64{1, 1}, false)
	}))
	sqz1 := Conv2d(p.Sub("sqzconv1"), cIn, cMid, 1, 0, 1)
	sqz2 := Conv2d(p.Sub("sqzconv2"), cMid, cIn, 1, 0, 1)
	spat := Conv2d(p.Sub("spatconv"), cIn, 1, 1, 0, 1)
	chanSeq.Add(sqz1)
	chanSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustRelu(false)
	}))
	chanSeq.Add(sqz2)
	chanSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustSigmoid(false)
	}))

	// Spatial squeeze excite
	spatSeq := nn.SeqT()
	spatSeq.Add(spat)
	spatSeq.AddFn(nn.NewFunc(func(xs *ts.Tensor) *ts.Tensor {
		return xs.MustSigmoid(false)
	}))

	return &SCSE{
		cSE:   chanSeq,
		sSE:   spatSeq,
		convs: []*nn.Conv2D{sqz1, sqz2, spat},
	}
}

// Conv2d creates Conv2D module.
func Conv2d(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}
