package stream

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-flow/flow/block"
)

var (
	errItemSize = errors.New("stream: item size must be > 0")
	errHistory  = errors.New("stream: history must be >= 1")
)

// compactSlack is how many stale items may accumulate before Reserve
// compacts the slab.
const compactSlack = 4096

// Stream is a buffered item stream between one writer port and one
// reader port. Positions are absolute item counts from the start of the
// stream; they increase monotonically and never reset.
//
// The internal slab is addressed in shifted coordinates: internal index
// = absolute index + (history-1), so the zero-filled look-back that
// precedes the very first item needs no signed arithmetic.
type Stream struct {
	itemSize int
	history  int

	buf  []byte
	base uint64 // internal item index of buf[0]

	readPos  uint64 // absolute items discarded by the reader
	writePos uint64 // absolute items committed by the writer

	reserved int // items of the pending Reserve window

	tags *TagStore
}

// NewStream creates a stream for items of itemSize bytes whose reader
// has the given history length: every read window carries history-1
// look-back items before the first unconsumed item, zero-filled before
// the stream's first item.
func NewStream(itemSize, history int) (*Stream, error) {
	if itemSize <= 0 {
		return nil, fmt.Errorf("%w: %d", errItemSize, itemSize)
	}
	if history < 1 {
		return nil, fmt.Errorf("%w: %d", errHistory, history)
	}

	s := &Stream{
		itemSize: itemSize,
		history:  history,
		tags:     NewTagStore(),
	}
	// Materialize the zero look-back.
	s.buf = make([]byte, (history-1)*itemSize)
	return s, nil
}

// ItemSize returns the per-item size in bytes.
func (s *Stream) ItemSize() int { return s.itemSize }

// History returns the reader's history length.
func (s *Stream) History() int { return s.history }

// Tags returns the stream's tag store.
func (s *Stream) Tags() *TagStore { return s.tags }

// ReadPos returns the absolute read position: items the reader has
// discarded so far.
func (s *Stream) ReadPos() uint64 { return s.readPos }

// WritePos returns the absolute write position: items the writer has
// committed so far.
func (s *Stream) WritePos() uint64 { return s.writePos }

// Available returns the number of committed items the reader has not
// yet discarded, excluding look-back.
func (s *Stream) Available() int { return int(s.writePos - s.readPos) }

// look is the look-back item count, also the internal coordinate shift.
func (s *Stream) look() uint64 { return uint64(s.history - 1) }

// Reserve returns a write-only view of n items past the current write
// position. The view stays valid until Commit; reserving again
// invalidates it.
func (s *Stream) Reserve(n int) (block.Writer, error) {
	if n < 0 {
		return block.Writer{}, fmt.Errorf("stream: reserve %d items", n)
	}
	s.compact()

	end := s.writePos + s.look() + uint64(n)
	need := int(end-s.base) * s.itemSize
	if need > cap(s.buf) {
		grown := make([]byte, need, nextCap(need, cap(s.buf)))
		copy(grown, s.buf)
		s.buf = grown
	}
	s.buf = s.buf[:need]
	s.reserved = n

	start := int(s.writePos+s.look()-s.base) * s.itemSize
	return block.NewWriter(s.buf[start:need], s.itemSize), nil
}

// Commit advances the write position by n items of the pending Reserve
// window.
func (s *Stream) Commit(n int) error {
	if n < 0 || n > s.reserved {
		return fmt.Errorf("stream: commit %d of %d reserved items", n, s.reserved)
	}
	s.writePos += uint64(n)
	s.reserved = 0
	return nil
}

// Window returns a read-only view spanning the look-back plus every
// committed, undiscarded item: history-1 + Available() items, the first
// unconsumed item at index history-1. The view stays valid until the
// next Reserve or Discard.
func (s *Stream) Window() block.Reader {
	start := int(s.readPos - s.base) // readPos+look-look, in internal terms
	end := int(s.writePos + s.look() - s.base)
	return block.NewReader(s.buf[start*s.itemSize:end*s.itemSize], s.itemSize)
}

// Discard advances the read position by n consumed items. Discarding
// more than Available is a contract violation on the consumer's side.
func (s *Stream) Discard(n int) error {
	if n < 0 || n > s.Available() {
		return fmt.Errorf("%w: discard %d of %d available items",
			block.ErrContract, n, s.Available())
	}
	s.readPos += uint64(n)
	return nil
}

// compact drops slab space and tags no longer reachable by any read
// window. Items at or above readPos-look and their tags are retained.
func (s *Stream) compact() {
	keep := s.readPos // internal index readPos+look-look
	if keep <= s.base || keep-s.base < compactSlack {
		return
	}
	off := int(keep-s.base) * s.itemSize
	n := copy(s.buf, s.buf[off:])
	s.buf = s.buf[:n]
	s.base = keep

	if s.readPos >= s.look() {
		s.tags.Prune(s.readPos - s.look())
	}
}

func nextCap(need, have int) int {
	c := have * 2
	if c < need {
		c = need
	}
	return c
}
