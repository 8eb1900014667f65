package dataset

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Synthetic draws n random "nuclei" images of size x size: bright
// ellipses with noise on a dark background, with their exact masks.
func Synthetic(n, size int, seed int64) (images, masks []*image.Gray) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, size, size))
		mask := image.NewGray(image.Rect(0, 0, size, size))

		blobs := 1 + rng.Intn(4)
		for b := 0; b < blobs; b++ {
			cx := rng.Float64() * float64(size)
			cy := rng.Float64() * float64(size)
			rx := float64(size)/16 + rng.Float64()*float64(size)/10
			ry := float64(size)/16 + rng.Float64()*float64(size)/10
			level := uint8(150 + rng.Intn(100))
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					dx := (float64(x) - cx) / rx
					dy := (float64(y) - cy) / ry
					if dx*dx+dy*dy <= 1 {
						img.SetGray(x, y, color.Gray{level})
						mask.SetGray(x, y, color.Gray{255})
					}
				}
			}
		}

		for p := range img.Pix {
			noise := rng.Intn(40)
			v := int(img.Pix[p]) + noise
			if v > 255 {
				v = 255
			}
			img.Pix[p] = uint8(v)
		}

		// soften edges like an out-of-focus microscope frame
		blurred := imaging.Blur(img, 0.8)
		images = append(images, ToGray(blurred, size, false))
		masks = append(masks, mask)
	}

	return images, masks
}

// SyntheticDataset wraps Synthetic samples in a TensorDataset.
func SyntheticDataset(n, size int, seed int64) (*TensorDataset, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}
	images, masks := Synthetic(n, size, seed)
	items := make([]*ImageMask, len(images))
	for i := range images {
		items[i] = &ImageMask{Image: GrayTensor(images[i], false), Mask: GrayTensor(masks[i], true)}
	}

	b := Stack(items)
	return NewTensorDataset(b.Images, b.Masks)
}
