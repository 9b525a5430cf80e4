package optim

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// weight decay.
//
// With momentum:
//
//	v = momentum*v + grad + weightDecay*param
//	param = param - lr*v
type SGD[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	momentum    float32
	weightDecay float32
	velocity    map[*nn.Parameter[B]][]float32
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LR          float32
	Momentum    float32
	WeightDecay float32
}

// NewSGD creates an SGD optimizer over the given parameters.
// Frozen parameters may be included; they are skipped during Step.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], cfg SGDConfig) *SGD[B] {
	if cfg.LR <= 0 {
		panic(fmt.Sprintf("sgd: learning rate must be positive, got %v", cfg.LR))
	}
	if cfg.Momentum < 0 || cfg.Momentum >= 1 {
		panic(fmt.Sprintf("sgd: momentum must be in [0, 1), got %v", cfg.Momentum))
	}
	if cfg.WeightDecay < 0 {
		panic(fmt.Sprintf("sgd: weight decay must be non-negative, got %v", cfg.WeightDecay))
	}
	return &SGD[B]{
		params:      params,
		lr:          cfg.LR,
		momentum:    cfg.Momentum,
		weightDecay: cfg.WeightDecay,
		velocity:    make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one SGD update. Parameters that are frozen or have no
// recorded gradient are left untouched.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range s.params {
		if !p.Trainable() {
			continue
		}
		grad, ok := gradientFor(p, grads)
		if !ok {
			continue
		}
		w := p.Tensor().Raw().AsFloat32()
		g := grad.AsFloat32()
		if len(w) != len(g) {
			panic(fmt.Sprintf("sgd: gradient size %d does not match parameter %q size %d",
				len(g), p.Name(), len(w)))
		}
		if s.momentum > 0 {
			v, ok := s.velocity[p]
			if !ok {
				v = make([]float32, len(w))
				s.velocity[p] = v
			}
			for i := range w {
				d := g[i] + s.weightDecay*w[i]
				v[i] = s.momentum*v[i] + d
				w[i] -= s.lr * v[i]
			}
		} else {
			for i := range w {
				w[i] -= s.lr * (g[i] + s.weightDecay*w[i])
			}
		}
	}
}

// ZeroGrad clears gradients on all managed parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// LearningRate returns the current learning rate.
func (s *SGD[B]) LearningRate() float32 { return s.lr }

// SetLearningRate changes the learning rate.
func (s *SGD[B]) SetLearningRate(lr float32) {
	if lr <= 0 {
		panic(fmt.Sprintf("sgd: learning rate must be positive, got %v", lr))
	}
	s.lr = lr
}
