// Package train fits a U-Net on batches from a dataset.DataLoader and
// evaluates it on a validation loader.
package train

import (
	"log"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"gonum.org/v1/gonum/stat"

	"github.com/sugarme/nuseg/dataset"
	"github.com/sugarme/nuseg/metric"
	"github.com/sugarme/nuseg/unet"
)

// Config holds training hyperparameters.
type Config struct {
	Epochs    int
	LR        float64
	Optimizer string // "SGD" or "Adam"
	Device    gotch.Device
	Threshold float64 // logit threshold for evaluation metrics; 0 is probability 0.5
}

// DefaultConfig returns 10 epochs of Adam at 1e-3 on CPU.
func DefaultConfig() *Config {
	return &Config{
		Epochs:    10,
		LR:        0.001,
		Optimizer: "Adam",
		Device:    gotch.CPU,
		Threshold: 0,
	}
}

// Epoch is one row of training history.
type Epoch struct {
	Epoch     int
	TrainLoss float64
	ValidLoss float64
	Accuracy  float64
	Precision float64
	Recall    float64
	Dice      float64
	Minutes   float64
}

// History lists epochs in order.
type History []Epoch

// Result is an evaluation summary over a whole loader.
type Result struct {
	Loss      float64
	Confusion metric.Confusion
}

// Trainer owns the optimizer of a model's VarStore.
type Trainer struct {
	Logger *log.Logger

	net    *unet.UNet
	opt    *nn.Optimizer
	config Config
}

// NewTrainer builds the configured optimizer over every variable of vs.
func NewTrainer(vs *nn.VarStore, net *unet.UNet, config *Config) (*Trainer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Epochs < 0 || config.LR <= 0 {
		return nil, errors.Errorf("train: invalid epochs=%d lr=%v", config.Epochs, config.LR)
	}

	var (
		opt *nn.Optimizer
		err error
	)
	switch config.Optimizer {
	case "SGD":
		opt, err = nn.DefaultSGDConfig().Build(vs, config.LR)
	case "Adam":
		opt, err = nn.DefaultAdamConfig().Build(vs, config.LR)
	default:
		err = errors.Errorf("Unspecified/Invalid Optimizer option: '%v'", config.Optimizer)
	}
	if err != nil {
		return nil, err
	}

	return &Trainer{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
		net:    net,
		opt:    opt,
		config: *config,
	}, nil
}

// Step runs one optimisation step on a batch and returns its loss.
func (t *Trainer) Step(b *dataset.Batch) (float64, error) {
	input := b.Images.MustTo(t.config.Device, false)
	target := b.Masks.MustTo(t.config.Device, false)
	defer input.MustDrop()
	defer target.MustDrop()

	logits, err := t.net.Forward(input, true)
	if err != nil {
		return 0, err
	}
	loss := metric.BCEWithLogitsLoss(logits, target)
	t.opt.BackwardStep(loss)
	lossVal := loss.Float64Values()[0]
	loss.MustDrop()
	logits.MustDrop()

	return lossVal, nil
}

// TrainEpoch runs one pass over dl and returns mean batch loss.
func (t *Trainer) TrainEpoch(dl *dataset.DataLoader) (float64, error) {
	var losses []float64
	dl.Reset()
	for dl.HasNext() {
		b, err := dl.Next()
		if err != nil {
			return 0, err
		}
		loss, err := t.Step(b)
		b.Drop()
		if err != nil {
			return 0, err
		}
		losses = append(losses, loss)
	}
	if len(losses) == 0 {
		return 0, errors.Wrap(dataset.ErrEmpty, "train: loader yielded no batch")
	}

	return stat.Mean(losses, nil), nil
}

// Evaluate computes mean loss and pixel confusion over dl in evaluation
// mode. Batch-norm running statistics are left untouched.
func (t *Trainer) Evaluate(dl *dataset.DataLoader) (*Result, error) {
	res := &Result{}
	var losses []float64

	dl.Reset()
	for dl.HasNext() {
		b, err := dl.Next()
		if err != nil {
			return nil, err
		}

		var (
			lossVal float64
			c       metric.Confusion
		)
		ts.NoGrad(func() {
			input := b.Images.MustTo(t.config.Device, false)
			target := b.Masks.MustTo(t.config.Device, false)
			var logits *ts.Tensor
			logits, err = t.net.Forward(input, false)
			input.MustDrop()
			if err != nil {
				target.MustDrop()
				return
			}
			loss := metric.BCEWithLogitsLoss(logits, target)
			lossVal = loss.Float64Values()[0]
			loss.MustDrop()
			c, err = metric.ConfusionTensor(logits, target, t.config.Threshold)
			logits.MustDrop()
			target.MustDrop()
		})
		b.Drop()
		if err != nil {
			return nil, err
		}

		losses = append(losses, lossVal)
		res.Confusion = res.Confusion.Add(c)
	}
	if len(losses) == 0 {
		return nil, errors.Wrap(dataset.ErrEmpty, "evaluate: loader yielded no batch")
	}
	res.Loss = stat.Mean(losses, nil)

	return res, nil
}

// Fit trains for the configured number of epochs, evaluating on validDL
// after each one.
func (t *Trainer) Fit(trainDL, validDL *dataset.DataLoader) (History, error) {
	var history History
	for e := 0; e < t.config.Epochs; e++ {
		start := time.Now()
		tloss, err := t.TrainEpoch(trainDL)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d", e)
		}
		res, err := t.Evaluate(validDL)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d validation", e)
		}
		if math.IsNaN(tloss) || math.IsInf(tloss, 0) {
			t.Logger.Printf("WARNING: epoch %02d train loss is %v", e, tloss)
		}

		ep := Epoch{
			Epoch:     e,
			TrainLoss: tloss,
			ValidLoss: res.Loss,
			Accuracy:  res.Confusion.Accuracy(),
			Precision: res.Confusion.Precision(),
			Recall:    res.Confusion.Recall(),
			Dice:      res.Confusion.Dice(),
			Minutes:   time.Since(start).Minutes(),
		}
		history = append(history, ep)
		t.Logger.Printf("Epoch %02d\t train loss: %6.4f\t valid loss: %6.4f\t acc: %6.4f\t dice: %6.4f\t Taken time: %0.2fMin\n",
			e, ep.TrainLoss, ep.ValidLoss, ep.Accuracy, ep.Dice, ep.Minutes)
	}

	return history, nil
}

// Scores runs the model over dl in evaluation mode and returns flattened
// logits and mask values, e.g. for precision/recall curves.
func Scores(net *unet.UNet, dl *dataset.DataLoader, device gotch.Device) (scores, targets []float64, err error) {
	dl.Reset()
	for dl.HasNext() {
		b, err := dl.Next()
		if err != nil {
			return nil, nil, err
		}
		input := b.Images.MustTo(device, false)
		logits, err := net.Predict(input)
		input.MustDrop()
		if err != nil {
			b.Drop()
			return nil, nil, err
		}
		scores = append(scores, logits.Float64Values()...)
		targets = append(targets, b.Masks.Float64Values()...)
		logits.MustDrop()
		b.Drop()
	}

	return scores, targets, nil
}
