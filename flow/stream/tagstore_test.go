package stream

import (
	"testing"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

func tag(offset uint64, key string, val int64) block.Tag {
	return block.NewTag(offset, pmt.Symbol(key), pmt.Int(val))
}

func TestRangeHalfOpen(t *testing.T) {
	s := NewTagStore()
	s.Add(tag(10, "a", 1))
	s.Add(tag(20, "b", 2))

	cases := []struct {
		start, end uint64
		want       int
	}{
		{0, 10, 0},
		{10, 11, 1},
		{10, 20, 1},
		{10, 21, 2},
		{21, 100, 0},
	}

	for _, tc := range cases {
		if got := s.Range(nil, tc.start, tc.end); len(got) != tc.want {
			t.Fatalf("range [%d,%d): got %d tags want %d", tc.start, tc.end, len(got), tc.want)
		}
	}
}

func TestRangeSortedWithInsertionOrderTies(t *testing.T) {
	s := NewTagStore()
	s.Add(tag(30, "late", 0))
	s.Add(tag(10, "first", 1))
	s.Add(tag(10, "second", 2))
	s.Add(tag(20, "mid", 3))

	got := s.Range(nil, 0, 100)
	if len(got) != 4 {
		t.Fatalf("got %d tags", len(got))
	}

	wantOffsets := []uint64{10, 10, 20, 30}
	for i, tg := range got {
		if tg.Offset != wantOffsets[i] {
			t.Fatalf("index %d: offset %d want %d", i, tg.Offset, wantOffsets[i])
		}
	}
	if k, _ := got[0].Key.AsSymbol(); k != "first" {
		t.Fatalf("tie order: got %q first", k)
	}
	if k, _ := got[1].Key.AsSymbol(); k != "second" {
		t.Fatalf("tie order: got %q second", k)
	}
}

func TestRangeIsPure(t *testing.T) {
	s := NewTagStore()
	s.Add(tag(5, "k", 0))

	for i := 0; i < 3; i++ {
		if got := s.Range(nil, 0, 10); len(got) != 1 {
			t.Fatalf("query %d: got %d tags", i, len(got))
		}
	}
	if s.Len() != 1 {
		t.Fatalf("store mutated by queries: len %d", s.Len())
	}
}

func TestNoDeduplication(t *testing.T) {
	s := NewTagStore()
	s.Add(tag(7, "k", 1))
	s.Add(tag(7, "k", 1))

	if got := s.Range(nil, 7, 8); len(got) != 2 {
		t.Fatalf("identical tags deduplicated: got %d", len(got))
	}
}

func TestRangeKey(t *testing.T) {
	s := NewTagStore()
	s.Add(tag(1, "freq", 1))
	s.Add(tag(2, "gain", 2))
	s.Add(tag(3, "freq", 3))

	got := s.RangeKey(nil, 0, 10, pmt.Symbol("freq"))
	if len(got) != 2 {
		t.Fatalf("key filter: got %d tags want 2", len(got))
	}
	for _, tg := range got {
		if !tg.Key.Equal(pmt.Symbol("freq")) {
			t.Fatalf("wrong key: %v", tg.Key)
		}
	}
}

func TestRangeAppendsToDst(t *testing.T) {
	s := NewTagStore()
	s.Add(tag(1, "a", 1))

	dst := []block.Tag{tag(0, "existing", 0)}
	got := s.Range(dst, 0, 10)
	if len(got) != 2 {
		t.Fatalf("got %d tags want 2", len(got))
	}
}

func TestPrune(t *testing.T) {
	s := NewTagStore()
	for i := uint64(0); i < 10; i++ {
		s.Add(tag(i, "k", int64(i)))
	}

	s.Prune(4)
	if s.Len() != 6 {
		t.Fatalf("after prune: len %d want 6", s.Len())
	}
	if got := s.Range(nil, 0, 4); len(got) != 0 {
		t.Fatalf("pruned tags still queryable: %v", got)
	}
	if got := s.Range(nil, 4, 10); len(got) != 6 {
		t.Fatalf("retained tags: got %d want 6", len(got))
	}
}
