package encoder

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// Encoder is encoder interface for a image segmentation model.
//
// ForwardAll returns the deepest (downsampled) feature map plus the skip
// activations ordered from the shallowest stage to the deepest. The caller
// owns every returned tensor.
type Encoder interface {
	ForwardAll(x *ts.Tensor, train bool) (*ts.Tensor, []*ts.Tensor)
	Channels() []int64
	Parameters() []*ts.Tensor
	Norms() []*nn.BatchNorm
}
