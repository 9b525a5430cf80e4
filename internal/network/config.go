// Package network implements the growable multi-branch residual network:
// residual blocks, the branch backbone, and the ensemble that grows one
// branch and one classifier head per task.
package network

// FeatureDim is the dimensionality of the pooled branch features.
const FeatureDim = 512

var (
	stageWidths  = [4]int{64, 128, 256, 512}
	stageStrides = [4]int{1, 2, 2, 2}
)

// HeadKind selects the classifier head attached to each branch.
type HeadKind int

const (
	// HeadLinear is a standard affine head.
	HeadLinear HeadKind = iota
	// HeadNormalized is a cosine classifier: normalized features against
	// normalized weight rows.
	HeadNormalized
)

// String returns the head kind name.
func (k HeadKind) String() string {
	switch k {
	case HeadLinear:
		return "linear"
	case HeadNormalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// Config describes one backbone/ensemble variant. The variant set is
// closed: blocks are basic residual blocks, stages are fixed at four.
type Config struct {
	// InChannels is the number of input image channels.
	InChannels int

	// BlocksPerStage gives the block count of each of the four stages.
	BlocksPerStage [4]int

	// SuppressFinalActivation drops the closing ReLU of the last block in
	// every stage and applies an external ReLU between stages instead, so
	// the extracted features are pre-activation.
	SuppressFinalActivation bool

	// NormalizeFeatures L2-normalizes the pooled features.
	NormalizeFeatures bool

	// Head selects the per-branch classifier kind.
	Head HeadKind
}

// DefaultConfig returns the standard 18-layer variant with plain linear
// heads.
func DefaultConfig() Config {
	return Config{
		InChannels:     3,
		BlocksPerStage: [4]int{2, 2, 2, 2},
	}
}
