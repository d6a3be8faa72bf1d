package rnn

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() ([][]float64, []float64) {
	inputs := [][]float64{
		{0.1, -0.4, 0.3, 0.9},
		{-0.2, 0.5, 0.7, -0.1},
		{0.8, 0.2, -0.6, 0.4},
	}
	return inputs, []float64{0.5, -0.3, 0.2}
}

func TestBackward_MatchesFiniteDifferences(t *testing.T) {
	for _, layers := range []int{1, 2} {
		net := NewNetwork(1, 3, layers, rand.New(rand.NewPCG(7, 7)))
		// Non-zero biases so their gradients are exercised too.
		for _, l := range net.layers {
			for i := 0; i < l.B.Len(); i++ {
				l.B.SetVec(i, 0.05*float64(i+1))
			}
		}
		net.By.SetVec(0, 0.1)
		for i := 0; i < net.Wy.Len(); i++ {
			net.Wy.SetVec(i, 0.3-0.2*float64(i))
		}

		inputs, targets := sampleBatch()
		grads := net.zeroLike()
		net.batchGradient(inputs, targets, grads)

		const eps = 1e-6
		gps := grads.params()
		for pi, p := range net.params() {
			for j := range p {
				orig := p[j]
				p[j] = orig + eps
				up := net.batchLoss(inputs, targets)
				p[j] = orig - eps
				down := net.batchLoss(inputs, targets)
				p[j] = orig
				numeric := (up - down) / (2 * eps)
				assert.InDelta(t, numeric, gps[pi][j], 1e-6, "layers=%d param=%d index=%d", layers, pi, j)
			}
		}
	}
}

func TestNewNetwork_Seeded(t *testing.T) {
	a := NewNetwork(1, 4, 2, rand.New(rand.NewPCG(42, 42)))
	b := NewNetwork(1, 4, 2, rand.New(rand.NewPCG(42, 42)))
	assert.Equal(t, a.params(), b.params())

	x := []float64{0.1, 0.2, 0.3}
	assert.Equal(t, a.Predict(x), b.Predict(x))
}

func TestNewNetwork_RepeatsLastInput(t *testing.T) {
	net := NewNetwork(1, 4, 2, rand.New(rand.NewPCG(3, 3)))
	for _, x := range [][]float64{{0.1, 0.2, 0.3}, {-1, 2}, {5}} {
		assert.Equal(t, x[len(x)-1], net.Predict(x))
	}
}

func TestParams_AlignWithZeroLike(t *testing.T) {
	net := NewNetwork(1, 5, 3, rand.New(rand.NewPCG(1, 2)))
	ps, gs := net.params(), net.zeroLike().params()
	require.Len(t, gs, len(ps))
	for i := range ps {
		assert.Len(t, gs[i], len(ps[i]))
	}
	// 3 layers × (Wx, Wh, B) + Wy + By
	assert.Len(t, ps, 11)
}

func TestClipGradients(t *testing.T) {
	grads := [][]float64{{3, 0}, {4}}
	norm := clipGradients(grads, 1)
	assert.InDelta(t, 5.0, norm, 1e-12)
	assert.InDelta(t, 0.6, grads[0][0], 1e-12)
	assert.InDelta(t, 0.8, grads[1][0], 1e-12)

	grads = [][]float64{{3, 0}, {4}}
	clipGradients(grads, 0)
	assert.Equal(t, [][]float64{{3, 0}, {4}}, grads)
}

func TestOptimizers_DescendQuadratic(t *testing.T) {
	for _, name := range []string{"adam", "sgd"} {
		t.Run(name, func(t *testing.T) {
			opt, err := NewOptimizer(name, 0.1)
			require.NoError(t, err)
			p := [][]float64{{2, -3}}
			for i := 0; i < 500; i++ {
				// f(p) = |p|², gradient 2p
				g := [][]float64{{2 * p[0][0], 2 * p[0][1]}}
				opt.Step(p, g)
			}
			assert.InDelta(t, 0, p[0][0], 0.1)
			assert.InDelta(t, 0, p[0][1], 0.1)
		})
	}

	_, err := NewOptimizer("rmsprop", 0.1)
	assert.Error(t, err)
}
