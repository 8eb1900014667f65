package main

import (
	"log"
	"os"

	"github.com/sugarme/nuseg/shape"
)

// runShape prints the layer-by-layer shape plan of a single image.
func runShape() {
	in, err := shape.Of([]int64{1, 1, int64(ImageSize), int64(ImageSize)})
	if err != nil {
		log.Fatal(err)
	}
	plan, err := shape.UNet(in, 1, Features)
	if err != nil {
		log.Fatal(err)
	}
	if err := plan.Print(os.Stdout); err != nil {
		log.Fatal(err)
	}
}
