// Transposed convolution demo: every input value scales a copy of the
// kernel which is added into the output at stride spacing.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

// show prints the last two dims of an NCHW tensor with N=C=1.
func show(title string, x *ts.Tensor) {
	size := x.MustSize()
	h, w := int(size[2]), int(size[3])
	vals := x.Float64Values()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%v %v\n", title, size)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			fmt.Fprintf(&sb, "%5.1f", vals[r*w+c])
		}
		sb.WriteString("\n")
	}
	fmt.Fprintln(os.Stdout, sb.String())
}

func main() {
	x := ts.MustOfSlice([]float32{0, 1, 2, 3}).MustView([]int64{1, 1, 2, 2}, true)
	w := ts.MustOfSlice([]float32{0, 1, 2, 3}).MustView([]int64{1, 1, 2, 2}, true)
	b := ts.MustZeros([]int64{1}, gotch.Float, gotch.CPU)

	show("input", x)
	show("kernel", w)

	for _, stride := range []int64{1, 2} {
		y := ts.MustConvTranspose2d(x, w, b, []int64{stride, stride}, []int64{0, 0}, []int64{0, 0}, 1, []int64{1, 1})
		show(fmt.Sprintf("stride %v", stride), y)
		y.MustDrop()
	}

	// padding trims the outer ring of the stride 1 output
	y := ts.MustConvTranspose2d(x, w, b, []int64{1, 1}, []int64{1, 1}, []int64{0, 0}, 1, []int64{1, 1})
	show("stride 1, padding 1", y)
	y.MustDrop()
}
