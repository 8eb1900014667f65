// Package metric provides the segmentation loss and pixel-wise evaluation
// metrics: confusion counts at a logit threshold, precision, recall, Dice,
// IoU and precision/recall curves.
package metric

import (
	"github.com/pkg/errors"
)

// Confusion holds pixel counts of a binary prediction against ground truth.
type Confusion struct {
	TP, FP, TN, FN int64
}

// Count classifies every pixel as positive when its score is strictly
// greater than threshold. A target pixel is positive when > 0.5.
func Count(scores, targets []float64, threshold float64) (Confusion, error) {
	var c Confusion
	if len(scores) != len(targets) {
		return c, errors.Errorf("metric: %d scores vs %d targets", len(scores), len(targets))
	}

	for i, s := range scores {
		pred := s > threshold
		truth := targets[i] > 0.5
		switch {
		case pred && truth:
			c.TP++
		case pred && !truth:
			c.FP++
		case !pred && truth:
			c.FN++
		default:
			c.TN++
		}
	}

	return c, nil
}

// Add sums two confusion counts.
func (c Confusion) Add(o Confusion) Confusion {
	return Confusion{c.TP + o.TP, c.FP + o.FP, c.TN + o.TN, c.FN + o.FN}
}

// Total returns number of counted pixels.
func (c Confusion) Total() int64 {
	return c.TP + c.FP + c.TN + c.FN
}

// Precision is TP/(TP+FP), 0 when nothing is predicted positive.
func (c Confusion) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP, 0)
}

// Recall is TP/(TP+FN), 0 when ground truth has no positive pixel.
func (c Confusion) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN, 0)
}

// Accuracy is (TP+TN)/total.
func (c Confusion) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.Total(), 0)
}

// Dice is 2TP/(2TP+FP+FN). Two empty masks agree perfectly (1).
func (c Confusion) Dice() float64 {
	return ratio(2*c.TP, 2*c.TP+c.FP+c.FN, 1)
}

// IoU is TP/(TP+FP+FN). Two empty masks agree perfectly (1).
func (c Confusion) IoU() float64 {
	return ratio(c.TP, c.TP+c.FP+c.FN, 1)
}

func ratio(num, den int64, empty float64) float64 {
	if den == 0 {
		return empty
	}
	return float64(num) / float64(den)
}
