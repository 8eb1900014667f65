package unet

import (
	"github.com/pkg/errors"

	"github.com/sugarme/nuseg/base"
)

// ErrInvalidConfig is returned when a model is constructed with bad
// hyperparameters.
var ErrInvalidConfig = errors.New("invalid unet config")

// UpsampleMode selects how decoder stages double spatial size.
type UpsampleMode int

const (
	// UpsampleTransposed uses a learned 2x2, stride 2 transposed convolution.
	UpsampleTransposed UpsampleMode = iota
	// UpsampleBilinear interpolates then projects channels with a 1x1 conv.
	UpsampleBilinear
)

func (m UpsampleMode) String() string {
	if m == UpsampleBilinear {
		return "bilinear"
	}
	return "transposed"
}

// Config holds UNet construction hyperparameters. Channel widths of every
// stage derive from Features and are fixed once the model is built.
type Config struct {
	InChannels int64 // image channels
	Features   int64 // base width F; stages use F, 2F, 4F, 8F and 16F at bottleneck

	Placement  base.NormPlacement
	Upsample   UpsampleMode
	BNMomentum float64
	BNEps      float64
	Attention  bool // scSE after every decoder stage
}

// DefaultConfig returns single channel input, F=8, conv-relu-bn blocks and
// transposed convolution upsampling.
func DefaultConfig() *Config {
	return &Config{
		InChannels: 1,
		Features:   8,
		Placement:  base.NormAfterActivation,
		Upsample:   UpsampleTransposed,
		BNMomentum: 0.1,
		BNEps:      1e-5,
	}
}

// Validate checks hyperparameters.
func (c *Config) Validate() error {
	switch {
	case c.Features < 1:
		return errors.Wrapf(ErrInvalidConfig, "features must be positive, got %d", c.Features)
	case c.InChannels < 1:
		return errors.Wrapf(ErrInvalidConfig, "input channels must be positive, got %d", c.InChannels)
	case c.BNMomentum < 0 || c.BNMomentum > 1:
		return errors.Wrapf(ErrInvalidConfig, "batch-norm momentum must be in [0, 1], got %v", c.BNMomentum)
	case c.BNEps <= 0:
		return errors.Wrapf(ErrInvalidConfig, "batch-norm eps must be positive, got %v", c.BNEps)
	}
	return nil
}

func (c *Config) blockConfig() *base.BlockConfig {
	return &base.BlockConfig{
		Placement:  c.Placement,
		BNMomentum: c.BNMomentum,
		BNEps:      c.BNEps,
	}
}
