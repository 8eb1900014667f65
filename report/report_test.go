package report_test

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarme/nuseg/metric"
	"github.com/sugarme/nuseg/report"
	"github.com/sugarme/nuseg/train"
)

var history = train.History{
	{Epoch: 0, TrainLoss: 0.7, ValidLoss: 0.68, Accuracy: 0.6, Dice: 0.3},
	{Epoch: 1, TrainLoss: 0.5, ValidLoss: 0.52, Accuracy: 0.8, Dice: 0.6},
}

var curve = []metric.Point{
	{Threshold: 0.9, Precision: 1, Recall: 0.2},
	{Threshold: 0.5, Precision: 0.8, Recall: 0.6},
	{Threshold: 0.1, Precision: 0.5, Recall: 1},
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteHistory(history, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TrainLoss")
	assert.Contains(t, lines[0], "Dice")
}

func TestWriteCurve(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteCurve(curve, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Threshold,Precision,Recall", lines[0])
}

func TestPlots(t *testing.T) {
	dir := t.TempDir()

	hp := filepath.Join(dir, "history.png")
	require.NoError(t, report.PlotHistory(history, hp))
	cp := filepath.Join(dir, "pr.png")
	require.NoError(t, report.PlotPRCurve(curve, cp))

	for _, p := range []string{hp, cp} {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, fi.Size() > 0)
	}

	assert.Error(t, report.PlotHistory(nil, hp))
	assert.Error(t, report.PlotPRCurve(nil, cp))
}

func TestMaskImage(t *testing.T) {
	m, err := report.MaskImage([]float64{-1, 0.5, 0, 2}, 2, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 255, 0, 255}, m.Pix)

	_, err = report.MaskImage([]float64{1, 2, 3}, 2, 2, 0)
	assert.Error(t, err)
}

func TestOverlay(t *testing.T) {
	img := imaging.New(2, 1, color.Black)
	mask := image.NewGray(image.Rect(0, 0, 2, 1))
	mask.Pix[1] = 255

	out := report.Overlay(img, mask)
	// untouched outside the mask
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(0, 0))
	red := out.NRGBAAt(1, 0)
	assert.True(t, red.R > 100)
	assert.Equal(t, uint8(0), red.G)
}

func TestSavePrediction(t *testing.T) {
	img := imaging.New(4, 4, color.White)
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	pred := image.NewGray(image.Rect(0, 0, 4, 4))

	path := filepath.Join(t.TempDir(), "pred.png")
	require.NoError(t, report.SavePrediction(img, mask, pred, path))

	saved, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(12, 4), saved.Bounds().Size())

	small := image.NewGray(image.Rect(0, 0, 2, 2))
	assert.Error(t, report.SavePrediction(img, small, pred, path))
}

func TestGrayImage(t *testing.T) {
	g, err := report.GrayImage([]float64{-0.5, 0, 0.5, 1.5}, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 128, 255}, g.Pix)

	_, err = report.GrayImage([]float64{0}, 2, 1)
	assert.Error(t, err)
}
