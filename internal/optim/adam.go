package optim

import (
	"fmt"
	"math"

	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Adam implements the Adam optimizer with bias-corrected first and
// second moment estimates.
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	step   int
	moment map[*nn.Parameter[B]]*adamState
}

type adamState struct {
	m []float32
	v []float32
}

// AdamConfig holds Adam hyperparameters. Zero values for Beta1, Beta2
// and Eps select the standard defaults (0.9, 0.999, 1e-8).
type AdamConfig struct {
	LR    float32
	Beta1 float32
	Beta2 float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], cfg AdamConfig) *Adam[B] {
	if cfg.LR <= 0 {
		panic(fmt.Sprintf("adam: learning rate must be positive, got %v", cfg.LR))
	}
	if cfg.Beta1 == 0 {
		cfg.Beta1 = 0.9
	}
	if cfg.Beta2 == 0 {
		cfg.Beta2 = 0.999
	}
	if cfg.Eps == 0 {
		cfg.Eps = 1e-8
	}
	if cfg.Beta1 < 0 || cfg.Beta1 >= 1 || cfg.Beta2 < 0 || cfg.Beta2 >= 1 {
		panic(fmt.Sprintf("adam: betas must be in [0, 1), got %v, %v", cfg.Beta1, cfg.Beta2))
	}
	return &Adam[B]{
		params: params,
		lr:     cfg.LR,
		beta1:  cfg.Beta1,
		beta2:  cfg.Beta2,
		eps:    cfg.Eps,
		moment: make(map[*nn.Parameter[B]]*adamState),
	}
}

// Step applies one Adam update. Parameters that are frozen or have no
// recorded gradient are left untouched.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++
	c1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.step)))
	c2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.step)))
	for _, p := range a.params {
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
			panic(fmt.Sprintf("adam: gradient size %d does not match parameter %q size %d",
				len(g), p.Name(), len(w)))
		}
		st, ok := a.moment[p]
		if !ok {
			st = &adamState{m: make([]float32, len(w)), v: make([]float32, len(w))}
			a.moment[p] = st
		}
		for i := range w {
			st.m[i] = a.beta1*st.m[i] + (1-a.beta1)*g[i]
			st.v[i] = a.beta2*st.v[i] + (1-a.beta2)*g[i]*g[i]
			mHat := st.m[i] / c1
			vHat := st.v[i] / c2
			w[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears gradients on all managed parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// LearningRate returns the current learning rate.
func (a *Adam[B]) LearningRate() float32 { return a.lr }

// SetLearningRate changes the learning rate.
func (a *Adam[B]) SetLearningRate(lr float32) {
	if lr <= 0 {
		panic(fmt.Sprintf("adam: learning rate must be positive, got %v", lr))
	}
	a.lr = lr
}
