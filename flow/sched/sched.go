package sched

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/graph"
	"github.com/cwbudde/algo-flow/flow/stream"
)

const defaultChunk = 1024

// Option mutates scheduler settings.
type Option func(*Scheduler)

// WithChunk sets the preferred output items requested per invocation.
// The effective request is rounded down to each block's output
// multiple. The default is 1024.
func WithChunk(n int) Option {
	return func(s *Scheduler) { s.chunk = n }
}

// WithMaxPasses bounds the number of scheduler passes; 0 means
// unbounded. Useful for tests and partial runs.
func WithMaxPasses(n int) Option {
	return func(s *Scheduler) { s.maxPasses = n }
}

// WithRegisterer registers the scheduler's prometheus collectors with
// reg. The default is no registration.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Scheduler) { s.reg = reg }
}

// Scheduler drives a wired graph to completion on the calling
// goroutine.
type Scheduler struct {
	g         *graph.Graph
	chunk     int
	maxPasses int
	reg       prometheus.Registerer
	m         *metrics

	order []string
	ins   map[string][]*stream.Stream
	outs  map[string][]*stream.Stream
	done  map[string]bool
}

// New creates a scheduler for a wired graph.
func New(g *graph.Graph, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{g: g, chunk: defaultChunk}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.chunk < 1 {
		return nil, fmt.Errorf("sched: chunk must be >= 1: %d", s.chunk)
	}

	s.order = g.Order()
	if len(s.order) == 0 && len(g.Nodes()) > 0 {
		return nil, errors.New("sched: graph is not wired")
	}

	s.ins = make(map[string][]*stream.Stream, len(s.order))
	s.outs = make(map[string][]*stream.Stream, len(s.order))
	for _, name := range s.order {
		s.ins[name] = g.InputStreams(name)
		s.outs[name] = g.OutputStreams(name)
	}

	s.m = newMetrics(s.reg)
	return s, nil
}

// Run starts every block, executes passes until the graph finishes,
// stalls, or ctx is cancelled, then stops every started block. The
// first contract violation or hook failure aborts the run.
func (s *Scheduler) Run(ctx context.Context) error {
	started := make([]block.Worker, 0, len(s.order))
	for _, name := range s.order {
		w := s.g.Node(name)
		if err := block.Start(w); err != nil {
			s.stopAll(started)
			return err
		}
		started = append(started, w)
	}

	runErr := s.runPasses(ctx)

	if stopErr := s.stopAll(started); runErr == nil {
		runErr = stopErr
	}
	return runErr
}

func (s *Scheduler) runPasses(ctx context.Context) error {
	s.done = make(map[string]bool, len(s.order))

	for pass := 0; s.maxPasses == 0 || pass < s.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		progress := false
		allDone := true
		for _, name := range s.order {
			if s.done[name] {
				continue
			}
			allDone = false

			advanced, finished, err := s.step(name)
			if err != nil {
				return fmt.Errorf("sched: %w", err)
			}
			if finished {
				s.done[name] = true
				progress = true
			}
			if advanced {
				progress = true
			}
		}
		s.m.passes.Inc()

		if allDone || !progress {
			return nil
		}
	}
	return nil
}

// step runs at most one work invocation of the named block. It reports
// whether the block advanced (consumed or produced anything) and
// whether it is finished.
func (s *Scheduler) step(name string) (advanced, finished bool, err error) {
	w := s.g.Node(name)
	b := w.Self()
	ins := s.ins[name]
	outs := s.outs[name]

	desired, runnable := s.desiredOutput(w, ins)
	if !runnable {
		// Starved, and no upstream will ever deliver more.
		if s.upstreamsDone(name) {
			return false, true, nil
		}
		return false, false, nil
	}

	in := make([]block.Reader, len(ins))
	readBefore := make([]uint64, len(ins))
	for i, st := range ins {
		if st == nil {
			in[i] = block.NewReader(nil, b.InputSignature().ItemSize(i))
			continue
		}
		in[i] = st.Window()
		readBefore[i] = st.ReadPos()
	}

	out := make([]block.Writer, len(outs))
	for o, st := range outs {
		if st == nil {
			itemSize := b.OutputSignature().ItemSize(o)
			out[o] = block.NewWriter(make([]byte, desired*itemSize), itemSize)
			continue
		}
		wv, rerr := st.Reserve(desired)
		if rerr != nil {
			return false, false, rerr
		}
		out[o] = wv
	}

	n, err := block.Invoke(w, in, out)
	if err != nil {
		return false, false, err
	}

	s.propagateTags(b, ins, readBefore)

	for i, st := range ins {
		if st == nil {
			continue
		}
		if derr := st.Discard(b.Consumed(i)); derr != nil {
			return false, false, fmt.Errorf("block %q input %d: %w", name, i, derr)
		}
	}
	for o, st := range outs {
		if st == nil {
			continue
		}
		if cerr := st.Commit(b.Produced(o)); cerr != nil {
			return false, false, fmt.Errorf("block %q output %d: %w", name, o, cerr)
		}
	}

	s.record(name, b, ins, outs)

	for i := range ins {
		if b.Consumed(i) > 0 {
			advanced = true
		}
	}
	for o := range outs {
		if b.Produced(o) > 0 {
			advanced = true
		}
	}
	return advanced, n == block.Done, nil
}

// desiredOutput picks the output request: the largest multiple of the
// block's output multiple not above the chunk whose forecast the input
// streams can satisfy, halving on shortfall. runnable is false when
// even the minimum request is starved.
func (s *Scheduler) desiredOutput(w block.Worker, ins []*stream.Stream) (int, bool) {
	b := w.Self()
	m := b.OutputMultiple()

	desired := s.chunk - s.chunk%m
	if desired < m {
		desired = m
	}

	nreq := make([]int, len(ins))
	for {
		w.Forecast(desired, nreq)

		satisfied := true
		for i, st := range ins {
			if st == nil {
				continue
			}
			window := b.History() - 1 + st.Available()
			if window < nreq[i] {
				satisfied = false
				break
			}
		}
		if satisfied {
			return desired, true
		}
		if desired <= m {
			return 0, false
		}

		desired = desired / 2
		desired -= desired % m
		if desired < m {
			desired = m
		}
	}
}

// upstreamsDone reports whether every block feeding name has finished,
// meaning a starved block can never run again.
func (s *Scheduler) upstreamsDone(name string) bool {
	for _, c := range s.g.Connections() {
		if c.Dst == name && !s.done[c.Src] {
			return false
		}
	}
	return true
}

// propagateTags forwards the tags under the just-consumed input ranges
// to the block's outputs according to its propagation policy, rescaling
// offsets by the relative rate.
func (s *Scheduler) propagateTags(b *block.Base, ins []*stream.Stream, readBefore []uint64) {
	pol := b.TagPropagation()
	if pol == block.PolicyNone || pol == block.PolicyCustom {
		return
	}
	if b.Outputs() == 0 {
		return
	}
	rate := b.RelativeRate()

	var tags []block.Tag
	for i, st := range ins {
		if st == nil {
			continue
		}
		consumed := b.Consumed(i)
		if consumed == 0 {
			continue
		}

		tags = st.Tags().Range(tags[:0], readBefore[i], readBefore[i]+uint64(consumed))
		for _, t := range tags {
			t.Offset = uint64(math.Round(float64(t.Offset) * rate))
			switch pol {
			case block.PolicyAllToAll:
				for o := 0; o < b.Outputs(); o++ {
					_ = b.AddItemTag(o, t)
				}
			case block.PolicyOneToOne:
				if i < b.Outputs() {
					_ = b.AddItemTag(i, t)
				}
			case block.PolicyAllToAllMinusOne:
				for o := 0; o < b.Outputs(); o++ {
					if o != i {
						_ = b.AddItemTag(o, t)
					}
				}
			}
		}
	}
}

func (s *Scheduler) record(name string, b *block.Base, ins, outs []*stream.Stream) {
	s.m.workCalls.WithLabelValues(name).Inc()
	var consumed, produced int
	for i := range ins {
		consumed += b.Consumed(i)
	}
	for o := range outs {
		produced += b.Produced(o)
	}
	if consumed > 0 {
		s.m.consumed.WithLabelValues(name).Add(float64(consumed))
	}
	if produced > 0 {
		s.m.produced.WithLabelValues(name).Add(float64(produced))
	}
}

func (s *Scheduler) stopAll(started []block.Worker) error {
	var errs []error
	for _, w := range started {
		if err := block.Stop(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
