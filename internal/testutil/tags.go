package testutil

import (
	"testing"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

// RequireTagAt fails t unless tags holds exactly one tag with the given
// offset and symbol key.
func RequireTagAt(t *testing.T, tags []block.Tag, offset uint64, key string) {
	t.Helper()
	found := 0
	for _, tg := range tags {
		if tg.Offset == offset && tg.Key.Equal(pmt.Symbol(key)) {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("want exactly one tag %q at offset %d, found %d in %v", key, offset, found, tags)
	}
}

// TagOffsets returns the offsets of tags in order.
func TagOffsets(tags []block.Tag) []uint64 {
	out := make([]uint64, len(tags))
	for i, tg := range tags {
		out[i] = tg.Offset
	}
	return out
}
