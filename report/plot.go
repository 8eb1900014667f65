// Package report renders training history, precision/recall curves and
// predicted masks.
package report

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sugarme/nuseg/metric"
	"github.com/sugarme/nuseg/train"
)

// PlotHistory draws train/valid loss and validation dice per epoch.
func PlotHistory(h train.History, path string) error {
	if len(h) == 0 {
		return errors.New("report: empty history")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Training history"
	p.X.Label.Text = "Epoch"

	trainLoss := make(plotter.XYs, len(h))
	validLoss := make(plotter.XYs, len(h))
	dice := make(plotter.XYs, len(h))
	for i, ep := range h {
		x := float64(ep.Epoch)
		trainLoss[i] = plotter.XY{X: x, Y: ep.TrainLoss}
		validLoss[i] = plotter.XY{X: x, Y: ep.ValidLoss}
		dice[i] = plotter.XY{X: x, Y: ep.Dice}
	}

	err = plotutil.AddLinePoints(p,
		"train loss", trainLoss,
		"valid loss", validLoss,
		"valid dice", dice,
	)
	if err != nil {
		return err
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// PlotPRCurve draws precision against recall.
func PlotPRCurve(curve []metric.Point, path string) error {
	if len(curve) == 0 {
		return errors.New("report: empty curve")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Precision-Recall"
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(curve))
	for i, pt := range curve {
		pts[i] = plotter.XY{X: pt.Recall, Y: pt.Precision}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line, plotter.NewGrid())

	return p.Save(4*vg.Inch, 4*vg.Inch, path)
}
