package blocks

import (
	"errors"

	"github.com/cwbudde/algo-flow/flow/block"
)

const float64Size = 8

var errEmptyData = errors.New("blocks: source data must not be empty")

// SourceOption mutates VectorSource construction.
type SourceOption func(*VectorSource)

// WithRepeat makes the source cycle through its data forever instead of
// finishing after one pass.
func WithRepeat(repeat bool) SourceOption {
	return func(s *VectorSource) { s.repeat = repeat }
}

// WithTags attaches tags emitted when their absolute offset enters the
// produced stream. Offsets beyond the data length are never emitted by
// a non-repeating source.
func WithTags(tags ...block.Tag) SourceOption {
	return func(s *VectorSource) { s.tags = append(s.tags, tags...) }
}

// VectorSource emits a fixed float64 vector, optionally repeating, and
// then signals Done. It uses manual accounting.
type VectorSource struct {
	*block.Base

	data   []float64
	repeat bool
	tags   []block.Tag
	pos    int
}

// NewVectorSource creates a source over a copy of data.
func NewVectorSource(name string, data []float64, opts ...SourceOption) (*VectorSource, error) {
	if len(data) == 0 {
		return nil, errEmptyData
	}

	b, err := block.New(name, block.SigNone(), block.Sig(1, float64Size))
	if err != nil {
		return nil, err
	}

	s := &VectorSource{Base: b, data: append([]float64(nil), data...)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Work fills the output window from the vector and emits any tags whose
// offset falls inside the produced range.
func (s *VectorSource) Work(_ []block.Reader, out []block.Writer) (int, error) {
	dst := block.WriteItems[float64](out[0])

	n := 0
	if s.repeat {
		for ; n < len(dst); n++ {
			dst[n] = s.data[s.pos]
			s.pos = (s.pos + 1) % len(s.data)
		}
	} else {
		remain := len(s.data) - s.pos
		if remain == 0 {
			return block.Done, nil
		}
		n = min(len(dst), remain)
		copy(dst[:n], s.data[s.pos:s.pos+n])
		s.pos += n
	}

	start := s.NItemsWritten(0)
	for _, t := range s.tags {
		if t.Offset >= start && t.Offset < start+uint64(n) {
			if err := s.AddItemTag(0, t); err != nil {
				return 0, err
			}
		}
	}

	if err := s.Produce(0, n); err != nil {
		return 0, err
	}
	return n, nil
}
