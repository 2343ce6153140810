package blocks

import (
	"errors"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/graph"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

// RegisterBuiltins registers every built-in block type with the
// registry, keyed by its graph description type name.
func RegisterBuiltins(reg *graph.Registry) {
	reg.MustRegister("vector-source", func(name string, p graph.Params) (block.Worker, error) {
		data := p.Floats("data")
		if data == nil {
			return nil, errors.New("blocks: vector-source needs a data parameter")
		}
		var opts []SourceOption
		if p.Bool("repeat", false) {
			opts = append(opts, WithRepeat(true))
		}
		return NewVectorSource(name, data, opts...)
	})

	reg.MustRegister("vector-sink", func(name string, _ graph.Params) (block.Worker, error) {
		return NewVectorSink(name)
	})

	reg.MustRegister("gain", func(name string, p graph.Params) (block.Worker, error) {
		return NewGain(name, p.Float("gain", 1))
	})

	reg.MustRegister("adder", func(name string, _ graph.Params) (block.Worker, error) {
		return NewAdder(name)
	})

	reg.MustRegister("decimator", func(name string, p graph.Params) (block.Worker, error) {
		return NewDecimator(name, p.Int("factor", 2))
	})

	reg.MustRegister("interpolator", func(name string, p graph.Params) (block.Worker, error) {
		return NewInterpolator(name, p.Int("factor", 2))
	})

	reg.MustRegister("fft-probe", func(name string, p graph.Params) (block.Worker, error) {
		return NewFFTProbe(name, p.Int("frameSize", 1024))
	})

	reg.MustRegister("msg-strobe", func(name string, p graph.Params) (block.Worker, error) {
		key := pmt.Symbol(keyParam(p, "key", "strobe"))
		return NewMsgStrobe(name, key, pmt.Real(p.Float("value", 0)), p.Int("count", 1))
	})

	reg.MustRegister("msg-debug", func(name string, _ graph.Params) (block.Worker, error) {
		return NewMsgDebug(name)
	})
}

func keyParam(p graph.Params, key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}
