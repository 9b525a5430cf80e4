package network

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// datasetClasses maps known dataset identifiers to their class counts.
var datasetClasses = map[string]int{
	"cifar10":       10,
	"cifar100":      100,
	"imagenet":      1000,
	"vggface2-1k":   1000,
	"vggface2-5k":   5000,
	"landmarks-10k": 10000,
}

// NumClasses returns the total class count for a dataset identifier.
func NumClasses(dataset string) (int, error) {
	n, ok := datasetClasses[dataset]
	if !ok {
		return 0, fmt.Errorf("network: unknown dataset %q", dataset)
	}
	return n, nil
}

// Mode selects the model variant for an experiment.
type Mode struct {
	// CosineHead selects normalized (cosine) classifier heads and
	// L2-normalized features.
	CosineHead bool

	// SuppressFinalActivation selects the pre-activation feature variant.
	SuppressFinalActivation bool
}

// ConfigFor translates an experiment mode into an architecture config.
func ConfigFor(mode Mode) Config {
	cfg := DefaultConfig()
	cfg.SuppressFinalActivation = mode.SuppressFinalActivation
	if mode.CosineHead {
		cfg.Head = HeadNormalized
		cfg.NormalizeFeatures = true
	}
	return cfg
}

// NewModel builds an empty ensemble configured for the dataset and mode,
// returning the ensemble and the dataset's total class count.
func NewModel[B tensor.Backend](dataset string, mode Mode, backend B) (*Ensemble[B], int, error) {
	total, err := NumClasses(dataset)
	if err != nil {
		return nil, 0, err
	}
	return NewEnsemble(ConfigFor(mode), backend), total, nil
}
