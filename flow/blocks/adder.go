package blocks

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-flow/flow/block"
)

// Adder sums its two inputs item by item. Automatic mode, rate 1.
type Adder struct {
	*block.Base
}

// NewAdder creates a two-input adder.
func NewAdder(name string) (*Adder, error) {
	b, err := block.New(name, block.Sig(2, float64Size), block.Sig(1, float64Size),
		block.WithAuto(true))
	if err != nil {
		return nil, err
	}
	return &Adder{Base: b}, nil
}

// Work adds as many items as all three windows allow.
func (a *Adder) Work(in []block.Reader, out []block.Writer) (int, error) {
	src0 := block.ReadItems[float64](in[0])
	src1 := block.ReadItems[float64](in[1])
	dst := block.WriteItems[float64](out[0])

	n := min(len(src0), min(len(src1), len(dst)))
	if n == 0 {
		return 0, nil
	}
	copy(dst[:n], src0[:n])
	vecmath.AddBlockInPlace(dst[:n], src1[:n])
	return n, nil
}
