package network

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Backbone is one feature-extraction branch: a 7x7 stem, four residual
// stages and global average pooling down to a FeatureDim vector.
type Backbone[B tensor.Backend] struct {
	stem    *nn.Conv2D[B]
	stemBN  *nn.BatchNorm2D[B]
	pool    *nn.MaxPool2D[B]
	stages  [4][]*ResidualBlock[B]
	avgPool *nn.GlobalAvgPool2D[B]

	cfg     Config
	frozen  bool
	backend B
}

// NewBackbone builds a branch from the given configuration.
func NewBackbone[B tensor.Backend](cfg Config, backend B) *Backbone[B] {
	if cfg.InChannels <= 0 {
		panic(fmt.Sprintf("backbone: invalid input channels %d", cfg.InChannels))
	}
	for i, n := range cfg.BlocksPerStage {
		if n <= 0 {
			panic(fmt.Sprintf("backbone: stage %d must have at least one block, got %d", i, n))
		}
	}

	bb := &Backbone[B]{
		stem:    nn.NewConv2D(cfg.InChannels, stageWidths[0], 7, 2, 3, false, backend),
		stemBN:  nn.NewBatchNorm2D(stageWidths[0], backend),
		pool:    nn.NewMaxPool2D(3, 2, 1, backend),
		avgPool: nn.NewGlobalAvgPool2D(backend),
		cfg:     cfg,
		backend: backend,
	}

	inChannels := stageWidths[0]
	for i := range bb.stages {
		width := stageWidths[i]
		blocks := make([]*ResidualBlock[B], cfg.BlocksPerStage[i])
		for j := range blocks {
			stride := 1
			if j == 0 {
				stride = stageStrides[i]
			}
			last := j == len(blocks)-1
			finalActivation := !(cfg.SuppressFinalActivation && last)
			blocks[j] = NewResidualBlock(inChannels, width, stride, 1, 64, 1, finalActivation, backend)
			inChannels = width
		}
		bb.stages[i] = blocks
	}
	return bb
}

// Forward extracts features, same as Features.
func (bb *Backbone[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return bb.Features(input)
}

// Features maps [N, C, H, W] images to [N, FeatureDim] feature vectors.
//
// With activation suppression enabled, each stage ends pre-activation and
// a ReLU is applied between stages, so the final features themselves stay
// pre-activation.
func (bb *Backbone[B]) Features(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := relu(bb.stemBN.Forward(bb.stem.Forward(input)))
	out = bb.pool.Forward(out)

	for i := range bb.stages {
		for _, blk := range bb.stages[i] {
			out = blk.Forward(out)
		}
		if bb.cfg.SuppressFinalActivation && i < len(bb.stages)-1 {
			out = relu(out)
		}
	}

	out = bb.avgPool.Forward(out)
	if bb.cfg.NormalizeFeatures {
		out = nn.L2Normalize(out)
	}
	return out
}

// Parameters returns all backbone parameters.
func (bb *Backbone[B]) Parameters() []*nn.Parameter[B] {
	params := append(bb.stem.Parameters(), bb.stemBN.Parameters()...)
	for i := range bb.stages {
		for _, blk := range bb.stages[i] {
			params = append(params, blk.Parameters()...)
		}
	}
	return params
}

// SetTraining switches every normalization layer between batch and
// running statistics. Frozen backbones ignore requests to re-enter
// training mode.
func (bb *Backbone[B]) SetTraining(training bool) {
	if bb.frozen && training {
		return
	}
	bb.stemBN.SetTraining(training)
	for i := range bb.stages {
		for _, blk := range bb.stages[i] {
			blk.SetTraining(training)
		}
	}
}

// Frozen reports whether the backbone has been frozen.
func (bb *Backbone[B]) Frozen() bool {
	return bb.frozen
}

// Freeze marks every parameter non-trainable and moves the backbone to
// evaluation mode so its normalization statistics stop drifting.
func (bb *Backbone[B]) Freeze() {
	for _, p := range bb.Parameters() {
		p.Freeze()
	}
	bb.SetTraining(false)
	bb.frozen = true
}

// CloneAndFreeze returns a trainable copy of the backbone, warm-started
// from the current weights and statistics, and freezes the original. The
// copy shares no storage with the original.
func (bb *Backbone[B]) CloneAndFreeze() *Backbone[B] {
	clone := NewBackbone[B](bb.cfg, bb.backend)
	clone.copyStateFrom(bb)
	bb.Freeze()
	return clone
}

func (bb *Backbone[B]) copyStateFrom(src *Backbone[B]) {
	copy(bb.stem.Weight().Tensor().Data(), src.stem.Weight().Tensor().Data())
	for i, p := range bb.stemBN.Parameters() {
		copy(p.Tensor().Data(), src.stemBN.Parameters()[i].Tensor().Data())
	}
	bb.stemBN.CloneStatsFrom(src.stemBN)
	for i := range bb.stages {
		for j := range bb.stages[i] {
			bb.stages[i][j].copyStateFrom(src.stages[i][j])
		}
	}
}
