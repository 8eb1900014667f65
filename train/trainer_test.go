package train_test

import (
	"io/ioutil"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/nuseg/dataset"
	"github.com/sugarme/nuseg/train"
	"github.com/sugarme/nuseg/unet"
)

func loader(t *testing.T, n, size, batch int, seed int64) *dataset.DataLoader {
	ds, err := dataset.SyntheticDataset(n, size, seed)
	require.NoError(t, err)
	s, err := dataset.NewBatchSampler(ds.Len(), batch, false, false)
	require.NoError(t, err)
	dl, err := dataset.NewDataLoader(ds, s)
	require.NoError(t, err)
	return dl
}

func newTrainer(t *testing.T, config *train.Config) (*unet.UNet, *train.Trainer) {
	vs := nn.NewVarStore(gotch.CPU)
	mc := unet.DefaultConfig()
	mc.Features = 2
	net, err := unet.New(vs.Root(), mc)
	require.NoError(t, err)

	tr, err := train.NewTrainer(vs, net, config)
	require.NoError(t, err)
	tr.Logger = log.New(ioutil.Discard, "", 0)
	return net, tr
}

func TestNewTrainerInvalid(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	net := unet.DefaultUNet(vs.Root())

	config := train.DefaultConfig()
	config.Optimizer = "RMSprop"
	_, err := train.NewTrainer(vs, net, config)
	assert.Error(t, err)

	config = train.DefaultConfig()
	config.LR = 0
	_, err = train.NewTrainer(vs, net, config)
	assert.Error(t, err)
}

func TestStepReducesLoss(t *testing.T) {
	config := train.DefaultConfig()
	config.LR = 0.01
	_, tr := newTrainer(t, config)

	dl := loader(t, 2, 32, 2, 1)
	var losses []float64
	for i := 0; i < 20; i++ {
		dl.Reset()
		b, err := dl.Next()
		require.NoError(t, err)
		loss, err := tr.Step(b)
		b.Drop()
		require.NoError(t, err)
		losses = append(losses, loss)
	}

	assert.Less(t, losses[len(losses)-1], losses[0])
}

func TestFit(t *testing.T) {
	config := train.DefaultConfig()
	config.Epochs = 2
	_, tr := newTrainer(t, config)

	history, err := tr.Fit(loader(t, 4, 32, 2, 1), loader(t, 2, 32, 2, 2))
	require.NoError(t, err)
	require.Len(t, history, 2)

	for i, ep := range history {
		assert.Equal(t, i, ep.Epoch)
		assert.False(t, math.IsNaN(ep.TrainLoss))
		assert.False(t, math.IsNaN(ep.ValidLoss))
		assert.True(t, ep.Accuracy >= 0 && ep.Accuracy <= 1)
		assert.True(t, ep.Dice >= 0 && ep.Dice <= 1)
	}
}

func TestEvaluateKeepsRunningStats(t *testing.T) {
	net, tr := newTrainer(t, nil)
	before := net.Norms()[0].RunningMean.Float64Values()

	res, err := tr.Evaluate(loader(t, 3, 32, 2, 3))
	require.NoError(t, err)

	// 3 samples of 32x32 pixels
	assert.EqualValues(t, 3*32*32, res.Confusion.Total())
	assert.Equal(t, before, net.Norms()[0].RunningMean.Float64Values())
}

func TestScores(t *testing.T) {
	net, _ := newTrainer(t, nil)
	scores, targets, err := train.Scores(net, loader(t, 3, 16, 2, 4), gotch.CPU)
	require.NoError(t, err)
	assert.Len(t, scores, 3*16*16)
	assert.Len(t, targets, 3*16*16)
}
