package metric

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// Point is one operating point of a precision/recall curve.
type Point struct {
	Threshold float64
	Precision float64
	Recall    float64
}

// Thresholds returns n evenly spaced logit thresholds from lo to hi
// inclusive.
func Thresholds(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// PRCurve computes precision and recall at every threshold.
func PRCurve(scores, targets []float64, thresholds []float64) ([]Point, error) {
	curve := make([]Point, 0, len(thresholds))
	for _, t := range thresholds {
		c, err := Count(scores, targets, t)
		if err != nil {
			return nil, err
		}
		curve = append(curve, Point{t, c.Precision(), c.Recall()})
	}

	return curve, nil
}

// AveragePrecision integrates precision over recall with the trapezoidal
// rule. It returns 0 for curves with fewer than 2 points.
func AveragePrecision(curve []Point) float64 {
	if len(curve) < 2 {
		return 0
	}

	pts := make([]Point, len(curve))
	copy(pts, curve)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Recall < pts[j].Recall })

	recall := make([]float64, len(pts))
	precision := make([]float64, len(pts))
	for i, p := range pts {
		recall[i] = p.Recall
		precision[i] = p.Precision
	}

	return integrate.Trapezoidal(recall, precision)
}
