// Copyright 2026 GrowNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for gradient-descent optimizers.
package optim

import (
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/optim"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Optimizer updates parameters from gradients.
type Optimizer[B tensor.Backend] = optim.Optimizer[B]

// SGD implements stochastic gradient descent with optional momentum and
// weight decay.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig holds SGD hyperparameters.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], cfg SGDConfig) *SGD[B] {
	return optim.NewSGD(params, cfg)
}

// Adam implements the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig holds Adam hyperparameters.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], cfg AdamConfig) *Adam[B] {
	return optim.NewAdam(params, cfg)
}
