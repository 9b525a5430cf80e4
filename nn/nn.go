// Copyright 2026 GrowNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for neural network building blocks.
package nn

import (
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Module is the common interface of all network components.
type Module[B tensor.Backend] = nn.Module[B]

// TrainingMode is implemented by modules that behave differently during
// training and evaluation.
type TrainingMode = nn.TrainingMode

// Parameter is a named, optionally trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// TrainableParameters filters a parameter list down to the trainable ones.
func TrainableParameters[B tensor.Backend](params []*Parameter[B]) []*Parameter[B] {
	return nn.TrainableParameters(params)
}

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a fully connected layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend)
}

// NormedLinear is a cosine classifier head.
type NormedLinear[B tensor.Backend] = nn.NormedLinear[B]

// NewNormedLinear creates a cosine classifier head.
func NewNormedLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *NormedLinear[B] {
	return nn.NewNormedLinear(inFeatures, outFeatures, backend)
}

// Conv2D is a 2D convolution layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a square-kernel convolution layer.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, useBias, backend)
}

// BatchNorm2D normalizes activations per channel.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, backend)
}

// MaxPool2D is a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, padding, backend)
}

// GlobalAvgPool2D averages each channel over its spatial plane.
type GlobalAvgPool2D[B tensor.Backend] = nn.GlobalAvgPool2D[B]

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D[B tensor.Backend](backend B) *GlobalAvgPool2D[B] {
	return nn.NewGlobalAvgPool2D(backend)
}

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// CrossEntropyLoss computes mean cross-entropy over a batch of logits.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// L2Normalize scales each row of a 2D tensor to unit L2 norm.
func L2Normalize[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.L2Normalize(t)
}
