package dataset

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	ts "github.com/sugarme/gotch/tensor"
	"golang.org/x/image/draw"
)

// ReadImage reads image from file. png, jpeg and tiff are decoded directly;
// anything else goes through imaging (bmp, gif).
func ReadImage(filename string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".png":
		return png.Decode(f)
	case ".jpg", ".jpeg":
		return jpeg.Decode(f)
	case ".tiff", ".tif":
		return tiff.Decode(f)
	default:
		img, err := imaging.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("Unsupported image format %q: %v", ext, err)
		}
		return img, nil
	}
}

// ToGray resizes img to size x size and converts it to 8-bit grayscale.
// Masks should use nearest so labels stay binary.
func ToGray(img image.Image, size int, nearest bool) *image.Gray {
	interp := resize.Bilinear
	if nearest {
		interp = resize.NearestNeighbor
	}
	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		img = resize.Resize(uint(size), uint(size), img, interp)
	}

	gray := imaging.Grayscale(img)
	out := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(out, out.Bounds(), gray, gray.Bounds().Min, draw.Src)

	return out
}

// GrayTensor converts a grayscale image to a float tensor [1 H W] scaled to
// [0, 1]. When binary is set, pixels are thresholded at half intensity.
func GrayTensor(g *image.Gray, binary bool) *ts.Tensor {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float32, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float32(g.GrayAt(x, y).Y) / 255.0
			if binary {
				if v > 0.5 {
					v = 1
				} else {
					v = 0
				}
			}
			data = append(data, v)
		}
	}

	return ts.MustOfSlice(data).MustView([]int64{1, int64(h), int64(w)}, true)
}
