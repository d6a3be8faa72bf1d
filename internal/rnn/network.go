package rnn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// layer is one Elman recurrent layer: h_t = tanh(Wx·x_t + Wh·h_{t-1} + b).
type layer struct {
	in, size int
	Wx       *mat.Dense
	Wh       *mat.Dense
	B        *mat.VecDense
}

func newLayer(in, size int) *layer {
	return &layer{
		in:   in,
		size: size,
		Wx:   mat.NewDense(size, in, nil),
		Wh:   mat.NewDense(size, size, nil),
		B:    mat.NewVecDense(size, nil),
	}
}

// Network is a stack of recurrent layers with a scalar linear head reading
// the last hidden state of the top layer. The head predicts the step from
// the last input, so y = x_T + Wy·h_T + by.
type Network struct {
	layers []*layer
	Wy     *mat.VecDense
	By     *mat.VecDense
}

// NewNetwork builds a network with Xavier-uniform recurrent weights, zero
// biases and a zero head, so an untrained network repeats its last input.
func NewNetwork(inputs, hidden, numLayers int, rng *rand.Rand) *Network {
	n := newShape(inputs, hidden, numLayers)
	for _, l := range n.layers {
		xavier(l.Wx.RawMatrix().Data, l.in, l.size, rng)
		xavier(l.Wh.RawMatrix().Data, l.size, l.size, rng)
	}
	return n
}

func newShape(inputs, hidden, numLayers int) *Network {
	n := &Network{
		Wy: mat.NewVecDense(hidden, nil),
		By: mat.NewVecDense(1, nil),
	}
	in := inputs
	for i := 0; i < numLayers; i++ {
		n.layers = append(n.layers, newLayer(in, hidden))
		in = hidden
	}
	return n
}

func xavier(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (2*rng.Float64() - 1) * limit
	}
}

// zeroLike returns a network of the same shape with every parameter zero.
func (n *Network) zeroLike() *Network {
	return newShape(n.layers[0].in, n.Wy.Len(), len(n.layers))
}

// params exposes the backing storage of every parameter in a fixed order.
// Two networks of the same shape return aligned slices.
func (n *Network) params() [][]float64 {
	var ps [][]float64
	for _, l := range n.layers {
		ps = append(ps, l.Wx.RawMatrix().Data, l.Wh.RawMatrix().Data, l.B.RawVector().Data)
	}
	return append(ps, n.Wy.RawVector().Data, n.By.RawVector().Data)
}

// trace keeps the activations of one forward pass for BPTT.
type trace struct {
	inputs []*mat.VecDense
	// hs[l][t] is the hidden state of layer l after t steps; hs[l][0] is zero.
	hs [][]*mat.VecDense
}

func (n *Network) forward(x []float64) (float64, *trace) {
	steps := len(x)
	in := make([]*mat.VecDense, steps)
	for t, v := range x {
		in[t] = mat.NewVecDense(1, []float64{v})
	}
	tr := &trace{inputs: in, hs: make([][]*mat.VecDense, len(n.layers))}

	for li, l := range n.layers {
		h := make([]*mat.VecDense, steps+1)
		h[0] = mat.NewVecDense(l.size, nil)
		for t := 0; t < steps; t++ {
			z := mat.NewVecDense(l.size, nil)
			z.MulVec(l.Wx, in[t])
			var r mat.VecDense
			r.MulVec(l.Wh, h[t])
			z.AddVec(z, &r)
			z.AddVec(z, l.B)
			raw := z.RawVector().Data
			for i, v := range raw {
				raw[i] = math.Tanh(v)
			}
			h[t+1] = z
		}
		tr.hs[li] = h
		in = h[1:]
	}

	top := tr.hs[len(n.layers)-1][steps]
	return x[steps-1] + mat.Dot(n.Wy, top) + n.By.AtVec(0), tr
}

// Predict runs a forward pass over one window.
func (n *Network) Predict(x []float64) float64 {
	y, _ := n.forward(x)
	return y
}

// backward accumulates into g the gradient of a loss whose derivative with
// respect to the output is dy.
func (n *Network) backward(tr *trace, dy float64, g *Network) {
	steps := len(tr.inputs)
	topIdx := len(n.layers) - 1
	hidden := n.Wy.Len()

	g.Wy.AddScaledVec(g.Wy, dy, tr.hs[topIdx][steps])
	g.By.SetVec(0, g.By.AtVec(0)+dy)

	// dOut[t] is the error arriving at the output h[t+1] of the current layer
	// from the layer above (or the head).
	dOut := make([]*mat.VecDense, steps)
	for t := range dOut {
		dOut[t] = mat.NewVecDense(hidden, nil)
	}
	dOut[steps-1].ScaleVec(dy, n.Wy)

	for li := topIdx; li >= 0; li-- {
		l, gl := n.layers[li], g.layers[li]
		h := tr.hs[li]
		inputs := tr.inputs
		if li > 0 {
			inputs = tr.hs[li-1][1:]
		}

		dIn := make([]*mat.VecDense, steps)
		carry := mat.NewVecDense(l.size, nil)
		for t := steps - 1; t >= 0; t-- {
			d := mat.NewVecDense(l.size, nil)
			d.AddVec(dOut[t], carry)
			hv := h[t+1].RawVector().Data
			dv := d.RawVector().Data
			for i := range dv {
				dv[i] *= 1 - hv[i]*hv[i]
			}

			gl.Wx.RankOne(gl.Wx, 1, d, inputs[t])
			gl.Wh.RankOne(gl.Wh, 1, d, h[t])
			gl.B.AddVec(gl.B, d)

			carry = mat.NewVecDense(l.size, nil)
			carry.MulVec(l.Wh.T(), d)
			if li > 0 {
				dIn[t] = mat.NewVecDense(l.in, nil)
				dIn[t].MulVec(l.Wx.T(), d)
			}
		}
		dOut = dIn
	}
}

// batchGradient zeroes g, then fills it with the gradient of the mean squared
// error over the batch. It returns that loss.
func (n *Network) batchGradient(inputs [][]float64, targets []float64, g *Network) float64 {
	for _, p := range g.params() {
		clear(p)
	}
	scale := 1 / float64(len(targets))
	loss := 0.0
	for i, x := range inputs {
		y, tr := n.forward(x)
		diff := y - targets[i]
		loss += diff * diff
		n.backward(tr, 2*diff*scale, g)
	}
	return loss * scale
}

// batchLoss is the mean squared error over the batch.
func (n *Network) batchLoss(inputs [][]float64, targets []float64) float64 {
	loss := 0.0
	for i, x := range inputs {
		diff := n.Predict(x) - targets[i]
		loss += diff * diff
	}
	return loss / float64(len(targets))
}
