package shape

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Step is one layer application in a Plan.
type Step struct {
	Name string
	In   Shape
	Out  Shape
}

// Plan lists shapes of every stage in a U-Net forward pass.
type Plan struct {
	Input  Shape
	Skips  []Shape
	Steps  []Step
	Output Shape
}

func (p *Plan) add(name string, in, out Shape) {
	p.Steps = append(p.Steps, Step{name, in, out})
}

// convBlock: two 3x3 "same" convolutions.
func convBlock(in Shape, cOut int64) (Shape, error) {
	x, err := Conv2d(in, cOut, 3, 1, 1)
	if err != nil {
		return Shape{}, err
	}
	return Conv2d(x, cOut, 3, 1, 1)
}

// UNet computes the plan of a U-Net with base width features for the given
// input. It fails with ErrInvalidShape as soon as any stage would be
// ill-formed.
func UNet(in Shape, cIn, features int64) (*Plan, error) {
	if features < 1 {
		return nil, errors.Wrapf(ErrInvalidShape, "features must be positive, got %d", features)
	}
	if err := CheckInput(in, cIn); err != nil {
		return nil, err
	}

	p := &Plan{Input: in}
	x := in
	c := features
	for i := 1; i <= Depth; i++ {
		skip, err := convBlock(x, c)
		if err != nil {
			return nil, err
		}
		p.add(fmt.Sprintf("enc%d.block", i), x, skip)
		down, err := MaxPool2(skip)
		if err != nil {
			return nil, err
		}
		p.add(fmt.Sprintf("enc%d.pool", i), skip, down)
		p.Skips = append(p.Skips, skip)
		x = down
		c *= 2
	}

	b, err := convBlock(x, c)
	if err != nil {
		return nil, err
	}
	p.add("bottleneck", x, b)
	x = b

	for j := 1; j <= Depth; j++ {
		skip := p.Skips[Depth-j]
		up := Upsample2(x, x.C/2)
		p.add(fmt.Sprintf("dec%d.up", j), x, up)
		cat, err := Concat(skip, up)
		if err != nil {
			return nil, err
		}
		y, err := convBlock(cat, x.C/2)
		if err != nil {
			return nil, err
		}
		p.add(fmt.Sprintf("dec%d.block", j), cat, y)
		x = y
	}

	out, err := Conv2d(x, 1, 1, 0, 1)
	if err != nil {
		return nil, err
	}
	p.add("head", x, out)
	p.Output = out

	return p, nil
}

// Print writes plan steps as an aligned table.
func (p *Plan) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "stage\tinput\toutput\n")
	for _, s := range p.Steps {
		fmt.Fprintf(tw, "%s\t%v\t%v\n", s.Name, s.In, s.Out)
	}
	return tw.Flush()
}
