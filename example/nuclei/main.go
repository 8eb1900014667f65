package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sugarme/gotch"
)

// flag variables
var (
	DataPath   string
	OutputPath string
	OptStr     string
	Cuda       bool
	task       string
	Device     gotch.Device
)

// hyperparameters
var (
	LR        float64 // learning rate
	BatchSize int     // batch size
	Epochs    int     // number of epochs
	Features  int64   // U-Net base width
	ImageSize int     // images and masks are resized to ImageSize x ImageSize
	ValidSize int     // number of samples held out for validation
	Samples   int     // synthetic sample count when no input is given
)

func init() {
	flag.StringVar(&DataPath, "input", "", "specify input data directory (with 'image' and 'mask' sub-directories), a CSV manifest or an X/Y array file (.npz, .ot). Empty uses synthetic data.")
	flag.StringVar(&OutputPath, "output", "./output", "specify output directory for plots and CSV files")
	flag.BoolVar(&Cuda, "cuda", false, "specify whether using CUDA or not.")
	flag.StringVar(&task, "task", "train", "specify task to run: 'train', 'shape' or 'eval-curve'")
	flag.Float64Var(&LR, "lr", 0.001, "specify learning rate")
	flag.IntVar(&BatchSize, "batch", 8, "specify batch size")
	flag.IntVar(&Epochs, "epochs", 10, "specify number of epochs")
	flag.Int64Var(&Features, "features", 8, "specify U-Net base feature width")
	flag.IntVar(&ImageSize, "size", 128, "specify image size (multiple of 16)")
	flag.IntVar(&ValidSize, "valid", 16, "specify number of validation samples")
	flag.IntVar(&Samples, "samples", 96, "specify number of synthetic samples")
	flag.StringVar(&OptStr, "opt", "Adam", "specify optimizer type")
}

func main() {
	flag.Parse()

	if DataPath != "" {
		DataPath = absPath(DataPath)
	}
	OutputPath = absPath(OutputPath)

	Device = gotch.CPU
	if Cuda {
		Device = gotch.NewCuda().CudaIfAvailable()
	}

	switch task {
	case "shape":
		runShape()
	case "train":
		mustMkdir(OutputPath)
		runTrain()
	case "eval-curve":
		mustMkdir(OutputPath)
		runEvalCurve()
	default:
		err := fmt.Errorf("Unknown 'task' name. Please specify valid 'task' flag to run.\n")
		panic(err)
	}
}

// helper to get absolute file path
func absPath(p string) string {
	fullpath, err := filepath.Abs(p)
	if err != nil {
		log.Fatal(err)
	}
	return fullpath
}

func mustMkdir(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatal(err)
	}
}
