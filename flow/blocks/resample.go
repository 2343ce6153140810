package blocks

import (
	"fmt"

	"github.com/cwbudde/algo-flow/flow/block"
)

// Decimator keeps the first item of every group of factor input items.
// Relative rate 1/factor, manual accounting.
type Decimator struct {
	*block.Base

	factor int
}

// NewDecimator creates a keep-one-in-factor decimator.
func NewDecimator(name string, factor int) (*Decimator, error) {
	if factor < 1 {
		return nil, fmt.Errorf("blocks: decimation factor must be >= 1: %d", factor)
	}

	b, err := block.New(name, block.Sig(1, float64Size), block.Sig(1, float64Size),
		block.WithRelativeRate(1/float64(factor)))
	if err != nil {
		return nil, err
	}
	return &Decimator{Base: b, factor: factor}, nil
}

// Work emits one output per full input group and consumes whole groups.
func (d *Decimator) Work(in []block.Reader, out []block.Writer) (int, error) {
	src := block.ReadItems[float64](in[0])
	dst := block.WriteItems[float64](out[0])

	n := min(len(dst), len(src)/d.factor)
	for i := 0; i < n; i++ {
		dst[i] = src[i*d.factor]
	}

	if err := d.Consume(0, n*d.factor); err != nil {
		return 0, err
	}
	if err := d.Produce(0, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Interpolator repeats every input item factor times. Relative rate
// factor, output multiple factor, manual accounting.
type Interpolator struct {
	*block.Base

	factor int
}

// NewInterpolator creates a repeat-factor interpolator.
func NewInterpolator(name string, factor int) (*Interpolator, error) {
	if factor < 1 {
		return nil, fmt.Errorf("blocks: interpolation factor must be >= 1: %d", factor)
	}

	b, err := block.New(name, block.Sig(1, float64Size), block.Sig(1, float64Size),
		block.WithRelativeRate(float64(factor)),
		block.WithOutputMultiple(factor))
	if err != nil {
		return nil, err
	}
	return &Interpolator{Base: b, factor: factor}, nil
}

// Work emits factor copies of each input item.
func (p *Interpolator) Work(in []block.Reader, out []block.Writer) (int, error) {
	src := block.ReadItems[float64](in[0])
	dst := block.WriteItems[float64](out[0])

	n := min(len(src), len(dst)/p.factor)
	for i := 0; i < n; i++ {
		for j := 0; j < p.factor; j++ {
			dst[i*p.factor+j] = src[i]
		}
	}

	if err := p.Consume(0, n); err != nil {
		return 0, err
	}
	if err := p.Produce(0, n*p.factor); err != nil {
		return 0, err
	}
	return n * p.factor, nil
}
