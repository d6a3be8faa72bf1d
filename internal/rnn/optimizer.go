package rnn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Optimizer updates parameters in place from their gradients. params and
// grads are aligned slice by slice.
type Optimizer interface {
	Step(params, grads [][]float64)
}

// NewOptimizer returns the optimizer registered under name.
func NewOptimizer(name string, learningRate float64) (Optimizer, error) {
	switch name {
	case "adam", "":
		return NewAdam(learningRate), nil
	case "sgd":
		return &SGD{LearningRate: learningRate}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// SGD is plain gradient descent.
type SGD struct {
	LearningRate float64
}

func (o *SGD) Step(params, grads [][]float64) {
	for i, p := range params {
		floats.AddScaled(p, -o.LearningRate, grads[i])
	}
}

// Adam implements Kingma & Ba with bias correction.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v [][]float64
	t    int
}

// NewAdam returns Adam with the usual moment decay rates.
func NewAdam(learningRate float64) *Adam {
	return &Adam{LearningRate: learningRate, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8}
}

func (o *Adam) Step(params, grads [][]float64) {
	if o.m == nil {
		o.m = make([][]float64, len(params))
		o.v = make([][]float64, len(params))
		for i, p := range params {
			o.m[i] = make([]float64, len(p))
			o.v[i] = make([]float64, len(p))
		}
	}
	o.t++
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))
	for i, p := range params {
		g, m, v := grads[i], o.m[i], o.v[i]
		for j := range p {
			m[j] = o.Beta1*m[j] + (1-o.Beta1)*g[j]
			v[j] = o.Beta2*v[j] + (1-o.Beta2)*g[j]*g[j]
			p[j] -= o.LearningRate * (m[j] / c1) / (math.Sqrt(v[j]/c2) + o.Epsilon)
		}
	}
}

// clipGradients rescales grads so their global L2 norm is at most maxNorm.
// A non-positive maxNorm disables clipping. It returns the norm before
// clipping.
func clipGradients(grads [][]float64, maxNorm float64) float64 {
	sum := 0.0
	for _, g := range grads {
		sum += floats.Dot(g, g)
	}
	norm := math.Sqrt(sum)
	if maxNorm > 0 && norm > maxNorm {
		for _, g := range grads {
			floats.Scale(maxNorm/norm, g)
		}
	}
	return norm
}
