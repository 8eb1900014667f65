package shape_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarme/nuseg/shape"
)

func TestOf(t *testing.T) {
	s, err := shape.Of([]int64{2, 1, 32, 48})
	require.NoError(t, err)
	assert.Equal(t, shape.Shape{B: 2, C: 1, H: 32, W: 48}, s)
	assert.Equal(t, []int64{2, 1, 32, 48}, s.Dims())

	_, err = shape.Of([]int64{1, 32, 32})
	assert.True(t, errors.Is(err, shape.ErrInvalidShape))

	_, err = shape.Of([]int64{0, 1, 32, 32})
	assert.True(t, errors.Is(err, shape.ErrInvalidShape))
}

func TestConv2dSamePadding(t *testing.T) {
	for _, cIn := range []int64{1, 3, 8} {
		for _, f := range []int64{1, 4, 16} {
			in := shape.Shape{B: 2, C: cIn, H: 20, W: 14}
			out, err := shape.Conv2d(in, f, 3, 1, 1)
			require.NoError(t, err)
			assert.Equal(t, shape.Shape{B: 2, C: f, H: 20, W: 14}, out)
		}
	}
}

func TestMaxPool2(t *testing.T) {
	out, err := shape.MaxPool2(shape.Shape{B: 1, C: 8, H: 64, W: 32})
	require.NoError(t, err)
	assert.Equal(t, shape.Shape{B: 1, C: 8, H: 32, W: 16}, out)

	_, err = shape.MaxPool2(shape.Shape{B: 1, C: 8, H: 63, W: 32})
	assert.True(t, errors.Is(err, shape.ErrInvalidShape))
}

func TestUpsampleRestoresPooledSize(t *testing.T) {
	in := shape.Shape{B: 3, C: 16, H: 48, W: 80}
	down, err := shape.MaxPool2(in)
	require.NoError(t, err)
	up := shape.Upsample2(down, 8)
	assert.Equal(t, in.Spatial(), up.Spatial())
	assert.EqualValues(t, 8, up.C)
}

func TestConcat(t *testing.T) {
	out, err := shape.Concat(shape.Shape{B: 1, C: 4, H: 8, W: 8}, shape.Shape{B: 1, C: 4, H: 8, W: 8})
	require.NoError(t, err)
	assert.EqualValues(t, 8, out.C)

	_, err = shape.Concat(shape.Shape{B: 1, C: 4, H: 8, W: 8}, shape.Shape{B: 1, C: 4, H: 16, W: 16})
	assert.True(t, errors.Is(err, shape.ErrInvalidShape))
}

func TestUNetPlan(t *testing.T) {
	in := shape.Shape{B: 4, C: 1, H: 128, W: 128}
	p, err := shape.UNet(in, 1, 8)
	require.NoError(t, err)

	assert.Equal(t, shape.Shape{B: 4, C: 1, H: 128, W: 128}, p.Output)
	require.Len(t, p.Skips, shape.Depth)
	want := []shape.Shape{
		{B: 4, C: 8, H: 128, W: 128},
		{B: 4, C: 16, H: 64, W: 64},
		{B: 4, C: 32, H: 32, W: 32},
		{B: 4, C: 64, H: 16, W: 16},
	}
	assert.Equal(t, want, p.Skips)

	var bottleneck shape.Step
	for _, s := range p.Steps {
		if s.Name == "bottleneck" {
			bottleneck = s
		}
	}
	assert.Equal(t, shape.Shape{B: 4, C: 128, H: 8, W: 8}, bottleneck.Out)

	var buf bytes.Buffer
	require.NoError(t, p.Print(&buf))
	assert.Contains(t, buf.String(), "dec4.block")
}

func TestUNetPlanNonSquare(t *testing.T) {
	for _, hw := range [][2]int64{{16, 16}, {32, 64}, {256, 48}} {
		in := shape.Shape{B: 1, C: 1, H: hw[0], W: hw[1]}
		p, err := shape.UNet(in, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, in, p.Output)
	}
}

func TestUNetPlanRejects(t *testing.T) {
	cases := []struct {
		name     string
		in       shape.Shape
		features int64
	}{
		{"not divisible", shape.Shape{B: 1, C: 1, H: 120, W: 128}, 8},
		{"odd width", shape.Shape{B: 1, C: 1, H: 128, W: 129}, 8},
		{"channels", shape.Shape{B: 1, C: 3, H: 128, W: 128}, 8},
		{"features", shape.Shape{B: 1, C: 1, H: 128, W: 128}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := shape.UNet(c.in, 1, c.features)
			assert.True(t, errors.Is(err, shape.ErrInvalidShape), "got %v", err)
		})
	}
}
