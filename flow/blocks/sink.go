package blocks

import "github.com/cwbudde/algo-flow/flow/block"

// VectorSink collects everything from its input into memory, along with
// every tag observed in the consumed ranges. It uses manual accounting.
type VectorSink struct {
	*block.Base

	data []float64
	tags []block.Tag
}

// NewVectorSink creates an empty sink.
func NewVectorSink(name string) (*VectorSink, error) {
	b, err := block.New(name, block.Sig(1, float64Size), block.SigNone())
	if err != nil {
		return nil, err
	}
	return &VectorSink{Base: b}, nil
}

// Work consumes the whole window past the look-back.
func (s *VectorSink) Work(in []block.Reader, _ []block.Writer) (int, error) {
	look := s.History() - 1
	src := block.ReadItems[float64](in[0])
	if len(src) <= look {
		return 0, nil
	}
	fresh := src[look:]

	start := s.NItemsRead(0)
	s.data = append(s.data, fresh...)

	var err error
	s.tags, err = s.TagsInRange(s.tags, 0, start, start+uint64(len(fresh)))
	if err != nil {
		return 0, err
	}

	if err := s.Consume(0, len(fresh)); err != nil {
		return 0, err
	}
	return 0, nil
}

// Data returns the collected samples.
func (s *VectorSink) Data() []float64 { return s.data }

// Tags returns the tags observed so far, in stream order.
func (s *VectorSink) Tags() []block.Tag { return s.tags }
