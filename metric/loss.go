package metric

import (
	ts "github.com/sugarme/gotch/tensor"
)

// Undefined weight and pos-weight tensors, shared by every loss call.
var (
	noWeight    = ts.NewTensor()
	noPosWeight = ts.NewTensor()
)

// BCEWithLogitsLoss is pixel-wise binary cross entropy between logits and
// a binary mask, reduced by mean.
func BCEWithLogitsLoss(logit, mask *ts.Tensor) *ts.Tensor {
	logitR := logit.MustReshape([]int64{-1}, false)
	maskR := mask.MustReshape([]int64{-1}, false)

	// NOTE: reduction: none = 0; mean = 1; sum = 2.
	// ref. https://pytorch.org/docs/master/nn.functional.html#torch.nn.functional.binary_cross_entropy_with_logits
	loss := logitR.MustBinaryCrossEntropyWithLogits(maskR, noWeight, noPosWeight, 1, true)
	maskR.MustDrop()

	return loss
}

// ConfusionTensor counts a logit tensor against a mask tensor of the same
// number of elements at the given logit threshold.
func ConfusionTensor(logits, mask *ts.Tensor, threshold float64) (Confusion, error) {
	return Count(logits.Float64Values(), mask.Float64Values(), threshold)
}

// DiceCoeff measures overlap between a probability (or binary) prediction
// and a mask, both binarised at 0.5.
func DiceCoeff(pred, target *ts.Tensor) float64 {
	c, err := ConfusionTensor(pred, target, 0.5)
	if err != nil {
		panic(err)
	}
	return c.Dice()
}

// IoU is intersection over union of pred and target binarised at 0.5.
func IoU(pred, target *ts.Tensor) float64 {
	c, err := ConfusionTensor(pred, target, 0.5)
	if err != nil {
		panic(err)
	}
	return c.IoU()
}

// DiceCoeffBatch averages DiceCoeff over the first (batch) dimension.
func DiceCoeffBatch(pred, target *ts.Tensor) float64 {
	bs := pred.MustSize()[0]
	p := pred.Float64Values()
	t := target.Float64Values()
	n := len(p) / int(bs)

	var sum float64
	for i := 0; i < int(bs); i++ {
		c, err := Count(p[i*n:(i+1)*n], t[i*n:(i+1)*n], 0.5)
		if err != nil {
			panic(err)
		}
		sum += c.Dice()
	}

	return sum / float64(bs)
}
