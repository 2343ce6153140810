package stream

import (
	"sort"
	"sync"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

// TagStore holds the tags of one stream, ordered by ascending offset
// with ties in insertion order. It implements [block.TagWriter] and
// [block.TagReader]. Add and Range may run on different blocks' work
// threads, so the store locks internally.
type TagStore struct {
	mu   sync.Mutex
	tags []block.Tag
}

// NewTagStore returns an empty store.
func NewTagStore() *TagStore { return &TagStore{} }

// Add inserts a tag. Tags are immutable once added; several tags may
// share an offset and none are deduplicated.
func (s *TagStore) Add(tag block.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Upper bound keeps equal offsets in insertion order.
	i := sort.Search(len(s.tags), func(i int) bool {
		return s.tags[i].Offset > tag.Offset
	})
	s.tags = append(s.tags, block.Tag{})
	copy(s.tags[i+1:], s.tags[i:])
	s.tags[i] = tag
}

// Range appends every tag with start <= offset < end to dst and returns
// the extended slice. The query never mutates the store.
func (s *TagStore) Range(dst []block.Tag, start, end uint64) []block.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := s.lowerBound(start); i < len(s.tags) && s.tags[i].Offset < end; i++ {
		dst = append(dst, s.tags[i])
	}
	return dst
}

// RangeKey is Range restricted to tags whose key equals key.
func (s *TagStore) RangeKey(dst []block.Tag, start, end uint64, key pmt.Value) []block.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := s.lowerBound(start); i < len(s.tags) && s.tags[i].Offset < end; i++ {
		if s.tags[i].Key.Equal(key) {
			dst = append(dst, s.tags[i])
		}
	}
	return dst
}

// Prune drops every tag with offset < before. The stream calls this as
// its retention window moves forward.
func (s *TagStore) Prune(before uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.lowerBound(before)
	if i == 0 {
		return
	}
	n := copy(s.tags, s.tags[i:])
	s.tags = s.tags[:n]
}

// Len returns the number of stored tags.
func (s *TagStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags)
}

// lowerBound returns the index of the first tag with offset >= off.
// Callers hold s.mu.
func (s *TagStore) lowerBound(off uint64) int {
	return sort.Search(len(s.tags), func(i int) bool {
		return s.tags[i].Offset >= off
	})
}
