package encoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/nuseg/encoder"
)

func TestStageHalvesAndKeepsSkip(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	stage := encoder.NewStage(vs.Root().Sub("stage"), 1, 4, nil)
	x := ts.MustRand([]int64{2, 1, 32, 16}, gotch.Float, gotch.CPU)

	down, skip := stage.ForwardT(x, false)
	assert.Equal(t, []int64{2, 4, 16, 8}, down.MustSize())
	assert.Equal(t, []int64{2, 4, 32, 16}, skip.MustSize())

	// skip is exactly the block output
	block := stage.Block.ForwardT(x, false)
	assert.Equal(t, block.Float64Values(), skip.Float64Values())

	// pooled values are window maxima of skip
	pooled := stage.Pool.ForwardT(block, false)
	assert.Equal(t, pooled.Float64Values(), down.Float64Values())
}

func TestUNetEncoderChannels(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	enc := encoder.NewUNetEncoder(vs.Root(), 1, 8, 4, nil)
	assert.Equal(t, []int64{8, 16, 32, 64}, enc.Channels())

	x := ts.MustRand([]int64{1, 1, 64, 64}, gotch.Float, gotch.CPU)
	down, skips := enc.ForwardAll(x, false)
	require.Len(t, skips, 4)
	assert.Equal(t, []int64{1, 64, 4, 4}, down.MustSize())
	assert.Equal(t, []int64{1, 8, 64, 64}, skips[0].MustSize())
	assert.Equal(t, []int64{1, 16, 32, 32}, skips[1].MustSize())
	assert.Equal(t, []int64{1, 32, 16, 16}, skips[2].MustSize())
	assert.Equal(t, []int64{1, 64, 8, 8}, skips[3].MustSize())

	// 4 stages x (2 conv w+b, 2 bn w+b)
	assert.Len(t, enc.Parameters(), 32)
}

func TestUNetEncoderNorms(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	var enc encoder.Encoder = encoder.NewUNetEncoder(vs.Root(), 1, 4, 4, nil)

	// 2 per stage, shallowest first
	norms := enc.Norms()
	require.Len(t, norms, 8)
	assert.Equal(t, []int64{4}, norms[0].RunningMean.MustSize())
	assert.Equal(t, []int64{32}, norms[7].RunningMean.MustSize())
}
