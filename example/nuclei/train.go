package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/nuseg/dataset"
	"github.com/sugarme/nuseg/metric"
	"github.com/sugarme/nuseg/report"
	"github.com/sugarme/nuseg/train"
	"github.com/sugarme/nuseg/unet"
)

// loadData returns train and validation datasets from DataPath or, when
// it is empty, from synthetic blobs.
func loadData() (trainDS, validDS dataset.Dataset) {
	if DataPath == "" {
		tds, err := dataset.SyntheticDataset(Samples-ValidSize, ImageSize, 1)
		if err != nil {
			log.Fatal(err)
		}
		vds, err := dataset.SyntheticDataset(ValidSize, ImageSize, 2)
		if err != nil {
			log.Fatal(err)
		}
		return tds, vds
	}

	var (
		pairs []dataset.Pair
		err   error
	)
	switch strings.ToLower(filepath.Ext(DataPath)) {
	case ".npz", ".ot":
		return loadArrays()
	case ".csv":
		pairs, err = dataset.ReadManifestFile(DataPath)
	default:
		pairs, err = dataset.ScanDir(DataPath)
	}
	if err != nil {
		log.Fatal(err)
	}

	trainPairs, validPairs, err := dataset.Split(pairs, ValidSize)
	if err != nil {
		log.Fatal(err)
	}
	tds, err := dataset.NewNucleiDataset(trainPairs, ImageSize)
	if err != nil {
		log.Fatal(err)
	}
	vds, err := dataset.NewNucleiDataset(validPairs, ImageSize)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("train samples: %v - valid samples: %v\n", tds.Len(), vds.Len())

	return tds, vds
}

// loadArrays reads X/Y arrays, already at their final size, and holds out
// the first ValidSize samples.
func loadArrays() (trainDS, validDS dataset.Dataset) {
	ds, err := dataset.LoadArrays(DataPath)
	if err != nil {
		log.Fatal(err)
	}
	tds, vds, err := ds.Split(ValidSize)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("train samples: %v - valid samples: %v\n", tds.Len(), vds.Len())

	return tds, vds
}

func newLoader(ds dataset.Dataset, shuffle bool) *dataset.DataLoader {
	s, err := dataset.NewBatchSampler(ds.Len(), BatchSize, false, shuffle)
	if err != nil {
		log.Fatal(err)
	}
	dl, err := dataset.NewDataLoader(ds, s)
	if err != nil {
		log.Fatal(err)
	}
	return dl
}

// fit builds a U-Net and trains it on the loaded data.
func fit() (*unet.UNet, *train.Trainer, train.History, *dataset.DataLoader) {
	trainDS, validDS := loadData()
	trainDL := newLoader(trainDS, true)
	validDL := newLoader(validDS, false)

	vs := nn.NewVarStore(Device)
	config := unet.DefaultConfig()
	config.Features = Features
	net, err := unet.New(vs.Root(), config)
	if err != nil {
		log.Fatal(err)
	}

	tc := train.DefaultConfig()
	tc.Epochs = Epochs
	tc.LR = LR
	tc.Optimizer = OptStr
	tc.Device = Device
	trainer, err := train.NewTrainer(vs, net, tc)
	if err != nil {
		log.Fatal(err)
	}

	history, err := trainer.Fit(trainDL, validDL)
	if err != nil {
		log.Fatal(err)
	}

	return net, trainer, history, validDL
}

func runTrain() {
	net, trainer, history, validDL := fit()

	res, err := trainer.Evaluate(validDL)
	if err != nil {
		log.Fatal(err)
	}
	c := res.Confusion
	fmt.Printf("valid loss: %6.4f\t accuracy: %6.4f\t precision: %6.4f\t recall: %6.4f\t dice: %6.4f\t IoU: %6.4f\n",
		res.Loss, c.Accuracy(), c.Precision(), c.Recall(), c.Dice(), c.IoU())

	f, err := os.Create(filepath.Join(OutputPath, "history.csv"))
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := report.WriteHistory(history, f); err != nil {
		log.Fatal(err)
	}
	if err := report.PlotHistory(history, filepath.Join(OutputPath, "history.png")); err != nil {
		log.Fatal(err)
	}

	savePredictions(net, validDL)
}

// savePredictions writes image | mask | prediction overlay for the first
// validation batch.
func savePredictions(net *unet.UNet, dl *dataset.DataLoader) {
	dl.Reset()
	b, err := dl.Next()
	if err != nil {
		log.Fatal(err)
	}
	defer b.Drop()

	input := b.Images.MustTo(Device, false)
	logits, err := net.Predict(input)
	input.MustDrop()
	if err != nil {
		log.Fatal(err)
	}
	defer logits.MustDrop()

	size := b.Images.MustSize()
	h, w := int(size[2]), int(size[3])
	n := h * w
	images := b.Images.Float64Values()
	masks := b.Masks.Float64Values()
	scores := logits.Float64Values()
	for i := 0; i < b.Size(); i++ {
		img, err := report.GrayImage(images[i*n:(i+1)*n], w, h)
		if err != nil {
			log.Fatal(err)
		}
		mask, err := report.MaskImage(masks[i*n:(i+1)*n], w, h, 0.5)
		if err != nil {
			log.Fatal(err)
		}
		pred, err := report.MaskImage(scores[i*n:(i+1)*n], w, h, 0)
		if err != nil {
			log.Fatal(err)
		}
		name := b.Names[i]
		if name == "" {
			name = fmt.Sprintf("%03d", i)
		}
		path := filepath.Join(OutputPath, fmt.Sprintf("pred-%v.png", strings.TrimSuffix(name, filepath.Ext(name))))
		if err := report.SavePrediction(img, mask, pred, path); err != nil {
			log.Fatal(err)
		}
	}
}

func runEvalCurve() {
	net, _, _, validDL := fit()

	scores, targets, err := train.Scores(net, validDL, Device)
	if err != nil {
		log.Fatal(err)
	}
	curve, err := metric.PRCurve(scores, targets, metric.Thresholds(-6, 6, 25))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("average precision: %6.4f\n", metric.AveragePrecision(curve))

	f, err := os.Create(filepath.Join(OutputPath, "pr-curve.csv"))
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := report.WriteCurve(curve, f); err != nil {
		log.Fatal(err)
	}
	if err := report.PlotPRCurve(curve, filepath.Join(OutputPath, "pr-curve.png")); err != nil {
		log.Fatal(err)
	}
}
