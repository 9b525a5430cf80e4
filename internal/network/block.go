package network

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// ResidualBlock is a basic two-convolution residual block:
//
//	conv3x3 -> BN -> ReLU -> conv3x3 -> BN, plus a skip connection,
//
// summed and optionally passed through a final ReLU. The skip is the
// identity when shapes match, otherwise a 1x1 convolution with BN.
type ResidualBlock[B tensor.Backend] struct {
	conv1 *nn.Conv2D[B]
	bn1   *nn.BatchNorm2D[B]
	conv2 *nn.Conv2D[B]
	bn2   *nn.BatchNorm2D[B]

	// projection skip, nil for identity
	downConv *nn.Conv2D[B]
	downBN   *nn.BatchNorm2D[B]

	finalActivation bool
	backend         B
}

// NewResidualBlock creates a basic residual block. Only groups == 1,
// baseWidth == 64 and dilation == 1 are supported; anything else panics.
func NewResidualBlock[B tensor.Backend](
	inChannels, outChannels, stride, groups, baseWidth, dilation int,
	finalActivation bool,
	backend B,
) *ResidualBlock[B] {
	if groups != 1 || baseWidth != 64 {
		panic(fmt.Sprintf("residual block: only groups=1 baseWidth=64 supported, got groups=%d baseWidth=%d", groups, baseWidth))
	}
	if dilation > 1 {
		panic(fmt.Sprintf("residual block: dilation %d not supported", dilation))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("residual block: invalid stride %d", stride))
	}

	b := &ResidualBlock[B]{
		conv1:           nn.NewConv2D(inChannels, outChannels, 3, stride, 1, false, backend),
		bn1:             nn.NewBatchNorm2D(outChannels, backend),
		conv2:           nn.NewConv2D(outChannels, outChannels, 3, 1, 1, false, backend),
		bn2:             nn.NewBatchNorm2D(outChannels, backend),
		finalActivation: finalActivation,
		backend:         backend,
	}
	if stride != 1 || inChannels != outChannels {
		b.downConv = nn.NewConv2D(inChannels, outChannels, 1, stride, 0, false, backend)
		b.downBN = nn.NewBatchNorm2D(outChannels, backend)
	}
	return b
}

// Forward applies the block.
func (b *ResidualBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := relu(b.bn1.Forward(b.conv1.Forward(input)))
	out = b.bn2.Forward(b.conv2.Forward(out))

	identity := input
	if b.downConv != nil {
		identity = b.downBN.Forward(b.downConv.Forward(input))
	}

	out = out.Add(identity)
	if b.finalActivation {
		out = relu(out)
	}
	return out
}

// Parameters returns all block parameters.
func (b *ResidualBlock[B]) Parameters() []*nn.Parameter[B] {
	params := append(b.conv1.Parameters(), b.bn1.Parameters()...)
	params = append(params, b.conv2.Parameters()...)
	params = append(params, b.bn2.Parameters()...)
	if b.downConv != nil {
		params = append(params, b.downConv.Parameters()...)
		params = append(params, b.downBN.Parameters()...)
	}
	return params
}

// SetTraining switches the normalization layers between batch and
// running statistics.
func (b *ResidualBlock[B]) SetTraining(training bool) {
	b.bn1.SetTraining(training)
	b.bn2.SetTraining(training)
	if b.downBN != nil {
		b.downBN.SetTraining(training)
	}
}

// copyStateFrom copies parameter values and normalization statistics from
// a structurally identical block.
func (b *ResidualBlock[B]) copyStateFrom(src *ResidualBlock[B]) {
	dst := b.Parameters()
	from := src.Parameters()
	if len(dst) != len(from) {
		panic(fmt.Sprintf("residual block: structure mismatch, %d vs %d parameters", len(dst), len(from)))
	}
	for i := range dst {
		copy(dst[i].Tensor().Data(), from[i].Tensor().Data())
	}
	b.bn1.CloneStatsFrom(src.bn1)
	b.bn2.CloneStatsFrom(src.bn2)
	if b.downBN != nil {
		b.downBN.CloneStatsFrom(src.downBN)
	}
}

func relu[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](t.Backend().ReLU(t.Raw()), t.Backend())
}
