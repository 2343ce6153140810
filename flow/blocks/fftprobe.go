package blocks

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

// KeyPeak is the message key posted by FFTProbe: the value is a pair of
// (bin index, magnitude).
var KeyPeak = pmt.Symbol("peak")

// FFTProbe is a sink that transforms fixed-size frames and posts the
// peak magnitude bin of each frame to subscriber group 0. Manual
// accounting; partial frames wait for the next invocation.
type FFTProbe struct {
	*block.Base

	frameSize int
	plan      *algofft.Plan[complex128]

	work []complex128
	re   []float64
	im   []float64
	mag  []float64
}

// NewFFTProbe creates a probe for power-of-two frames of frameSize
// items.
func NewFFTProbe(name string, frameSize int) (*FFTProbe, error) {
	if frameSize < 2 || frameSize&(frameSize-1) != 0 {
		return nil, fmt.Errorf("blocks: fft frame size must be a power of two >= 2: %d", frameSize)
	}

	plan, err := algofft.NewPlan64(frameSize)
	if err != nil {
		return nil, fmt.Errorf("blocks: fft plan: %w", err)
	}

	b, err := block.New(name, block.Sig(1, float64Size), block.SigNone(),
		block.WithMsgGroups(1))
	if err != nil {
		return nil, err
	}

	return &FFTProbe{
		Base:      b,
		frameSize: frameSize,
		plan:      plan,
		work:      make([]complex128, frameSize),
		re:        make([]float64, frameSize),
		im:        make([]float64, frameSize),
		mag:       make([]float64, frameSize),
	}, nil
}

// FrameSize returns the probe's frame length in items.
func (p *FFTProbe) FrameSize() int { return p.frameSize }

// Work transforms every complete frame in the window and posts one peak
// message per frame.
func (p *FFTProbe) Work(in []block.Reader, _ []block.Writer) (int, error) {
	src := block.ReadItems[float64](in[0])

	frames := len(src) / p.frameSize
	for f := 0; f < frames; f++ {
		frame := src[f*p.frameSize : (f+1)*p.frameSize]
		for i, v := range frame {
			p.work[i] = complex(v, 0)
		}
		if err := p.plan.Forward(p.work, p.work); err != nil {
			return 0, fmt.Errorf("blocks: fft forward: %w", err)
		}

		for i, c := range p.work {
			p.re[i] = real(c)
			p.im[i] = imag(c)
		}
		vecmath.Magnitude(p.mag, p.re, p.im)

		// Positive frequencies only; bin 0 is DC.
		peak := 0
		for i := 1; i < p.frameSize/2; i++ {
			if p.mag[i] > p.mag[peak] {
				peak = i
			}
		}
		p.PostMsgKV(0, KeyPeak, pmt.Cons(pmt.Int(int64(peak)), pmt.Real(p.mag[peak])))
	}

	if err := p.Consume(0, frames*p.frameSize); err != nil {
		return 0, err
	}
	return 0, nil
}
