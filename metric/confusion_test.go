package metric_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarme/nuseg/metric"
)

var (
	logits  = []float64{2.1, -0.3, 0.7, -1.5, 3.0, -2.2, 0.1, -0.1}
	targets = []float64{1, 0, 1, 1, 1, 0, 0, 0}
)

func TestCount(t *testing.T) {
	c, err := metric.Count(logits, targets, 0)
	require.NoError(t, err)
	assert.Equal(t, metric.Confusion{TP: 3, FP: 1, TN: 3, FN: 1}, c)
	assert.EqualValues(t, 8, c.Total())
	assert.InDelta(t, 0.75, c.Precision(), 1e-9)
	assert.InDelta(t, 0.75, c.Recall(), 1e-9)
	assert.InDelta(t, 0.75, c.Accuracy(), 1e-9)
	assert.InDelta(t, 0.75, c.Dice(), 1e-9)
	assert.InDelta(t, 0.6, c.IoU(), 1e-9)

	_, err = metric.Count(logits, targets[:3], 0)
	assert.Error(t, err)
}

func TestCountExtremeThresholds(t *testing.T) {
	all, err := metric.Count(logits, targets, math.Inf(-1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, all.Recall())
	assert.EqualValues(t, 0, all.FN)

	none, err := metric.Count(logits, targets, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, none.Recall())
	assert.Equal(t, 0.0, none.Precision())
	assert.EqualValues(t, 0, none.TP+none.FP)
}

func TestConfusionEmptyMasks(t *testing.T) {
	c, err := metric.Count([]float64{-1, -2}, []float64{0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Dice())
	assert.Equal(t, 1.0, c.IoU())
	assert.Equal(t, 1.0, c.Accuracy())
	assert.Equal(t, 0.0, c.Recall())

	sum := c.Add(metric.Confusion{TP: 1})
	assert.EqualValues(t, 3, sum.Total())
}

func TestPRCurve(t *testing.T) {
	thresholds := metric.Thresholds(-4, 4, 9)
	require.Len(t, thresholds, 9)
	assert.Equal(t, -4.0, thresholds[0])
	assert.Equal(t, 4.0, thresholds[8])

	curve, err := metric.PRCurve(logits, targets, thresholds)
	require.NoError(t, err)
	require.Len(t, curve, 9)

	assert.Equal(t, 1.0, curve[0].Recall)
	assert.Equal(t, 0.0, curve[8].Recall)
	// recall never increases with threshold
	for i := 1; i < len(curve); i++ {
		assert.LessOrEqual(t, curve[i].Recall, curve[i-1].Recall)
	}

	ap := metric.AveragePrecision(curve)
	assert.Greater(t, ap, 0.0)
	assert.LessOrEqual(t, ap, 1.0)
	assert.Equal(t, 0.0, metric.AveragePrecision(curve[:1]))
}

func TestThresholdsSingle(t *testing.T) {
	assert.Equal(t, []float64{0.5}, metric.Thresholds(0.5, 1, 1))
}
