package report

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// MaskImage turns w*h row-major scores into a black/white mask. Pixels
// with score above threshold are white.
func MaskImage(scores []float64, w, h int, threshold float64) (*image.Gray, error) {
	if len(scores) != w*h {
		return nil, errors.Errorf("report: %d scores for %dx%d mask", len(scores), w, h)
	}
	m := image.NewGray(image.Rect(0, 0, w, h))
	for i, s := range scores {
		if s > threshold {
			m.Pix[i] = 255
		}
	}
	return m, nil
}

// Overlay paints mask pixels red at half opacity over img.
func Overlay(img image.Image, mask *image.Gray) *image.NRGBA {
	out := imaging.Clone(img)
	red := image.NewUniform(color.NRGBA{R: 255, A: 255})
	alpha := image.NewAlpha(mask.Bounds())
	for i, v := range mask.Pix {
		alpha.Pix[i] = v / 2
	}
	draw.DrawMask(out, out.Bounds(), red, image.Point{}, alpha, mask.Bounds().Min, draw.Over)
	return out
}

// SavePrediction writes image, ground truth mask and predicted mask side
// by side.
func SavePrediction(img image.Image, mask, pred *image.Gray, path string) error {
	b := img.Bounds()
	if mask.Bounds().Size() != b.Size() || pred.Bounds().Size() != b.Size() {
		return errors.Errorf("report: image %v, mask %v and prediction %v differ in size",
			b.Size(), mask.Bounds().Size(), pred.Bounds().Size())
	}
	w, h := b.Dx(), b.Dy()
	dst := imaging.New(3*w, h, color.Black)
	dst = imaging.Paste(dst, img, image.Pt(0, 0))
	dst = imaging.Paste(dst, mask, image.Pt(w, 0))
	dst = imaging.Paste(dst, Overlay(img, pred), image.Pt(2*w, 0))

	return imaging.Save(dst, path)
}

// GrayImage converts w*h row-major intensities in [0, 1] to an image.
// Values outside the range are clamped.
func GrayImage(values []float64, w, h int) (*image.Gray, error) {
	if len(values) != w*h {
		return nil, errors.Errorf("report: %d values for %dx%d image", len(values), w, h)
	}
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range values {
		switch {
		case v <= 0:
			g.Pix[i] = 0
		case v >= 1:
			g.Pix[i] = 255
		default:
			g.Pix[i] = uint8(v*255 + 0.5)
		}
	}
	return g, nil
}
