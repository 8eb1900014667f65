package dataset

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".bmp": true, ".gif": true,
}

// ScanDir pairs every file in root/image with the file of the same base
// name in root/mask (extensions may differ). Images without a mask are
// skipped.
func ScanDir(root string) ([]Pair, error) {
	imgDir := filepath.Join(root, "image")
	maskDir := filepath.Join(root, "mask")

	masks := make(map[string]string)
	maskFiles, err := ioutil.ReadDir(maskDir)
	if err != nil {
		return nil, err
	}
	for _, f := range maskFiles {
		if f.IsDir() || !imageExts[strings.ToLower(filepath.Ext(f.Name()))] {
			continue
		}
		masks[baseName(f.Name())] = filepath.Join(maskDir, f.Name())
	}

	files, err := ioutil.ReadDir(imgDir)
	if err != nil {
		return nil, err
	}
	var pairs []Pair
	for _, f := range files {
		if f.IsDir() || !imageExts[strings.ToLower(filepath.Ext(f.Name()))] {
			continue
		}
		name := baseName(f.Name())
		mask, ok := masks[name]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Name: name, Image: filepath.Join(imgDir, f.Name()), Mask: mask})
	}
	if len(pairs) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "no image/mask pair under %v", root)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs, nil
}

// ReadManifest reads a CSV with header columns `image` and `mask`. Relative
// paths are resolved against root.
func ReadManifest(r io.Reader, root string) ([]Pair, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "read manifest")
	}
	for _, col := range []string{"image", "mask"} {
		if !hasCol(df.Names(), col) {
			return nil, errors.Errorf("manifest: missing column %q", col)
		}
	}

	images := df.Col("image").Records()
	masks := df.Col("mask").Records()
	pairs := make([]Pair, 0, len(images))
	for i := range images {
		pairs = append(pairs, Pair{
			Name:  baseName(images[i]),
			Image: resolve(root, images[i]),
			Mask:  resolve(root, masks[i]),
		})
	}
	if len(pairs) == 0 {
		return nil, errors.Wrap(ErrEmpty, "manifest has no rows")
	}

	return pairs, nil
}

// ReadManifestFile opens path and calls ReadManifest relative to its
// directory.
func ReadManifestFile(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadManifest(f, filepath.Dir(path))
}

// Split returns the first validCount pairs as validation and the rest as
// training set.
func Split(pairs []Pair, validCount int) (train, valid []Pair, err error) {
	if validCount < 0 || validCount >= len(pairs) {
		return nil, nil, errors.Errorf("dataset: cannot hold out %d of %d pairs", validCount, len(pairs))
	}
	return pairs[validCount:], pairs[:validCount], nil
}

func baseName(p string) string {
	b := filepath.Base(p)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func hasCol(names []string, col string) bool {
	for _, n := range names {
		if n == col {
			return true
		}
	}
	return false
}
