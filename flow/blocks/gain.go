package blocks

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-flow/flow/block"
)

// Gain multiplies its stream by a constant. It runs in automatic mode
// with relative rate 1, so it performs no explicit accounting.
type Gain struct {
	*block.Base

	gain float64
}

// NewGain creates a gain block.
func NewGain(name string, gain float64) (*Gain, error) {
	b, err := block.New(name, block.Sig(1, float64Size), block.Sig(1, float64Size),
		block.WithAuto(true))
	if err != nil {
		return nil, err
	}
	return &Gain{Base: b, gain: gain}, nil
}

// Gain returns the current multiplier.
func (g *Gain) Gain() float64 { return g.gain }

// SetGain updates the multiplier. Taking effect between invocations is
// fine; work runs on one thread at a time.
func (g *Gain) SetGain(gain float64) { g.gain = gain }

// Work scales as many items as both windows allow.
func (g *Gain) Work(in []block.Reader, out []block.Writer) (int, error) {
	src := block.ReadItems[float64](in[0])
	dst := block.WriteItems[float64](out[0])

	n := min(len(src), len(dst))
	if n == 0 {
		return 0, nil
	}
	vecmath.ScaleBlock(dst[:n], src[:n], g.gain)
	return n, nil
}
