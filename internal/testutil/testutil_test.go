package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

func TestDeterministicSine(t *testing.T) {
	got := DeterministicSine(1, 8, 2, 8)
	if len(got) != 8 {
		t.Fatalf("length: got %d", len(got))
	}
	if got[0] != 0 {
		t.Fatalf("sample 0: got %v want 0", got[0])
	}
	if math.Abs(got[2]-2) > 1e-12 {
		t.Fatalf("sample 2: got %v want 2", got[2])
	}
	RequireFinite(t, got)
}

func TestRamp(t *testing.T) {
	got := Ramp(4)
	RequireSliceNearlyEqual(t, got, []float64{0, 1, 2, 3}, 0)
}

func TestTagOffsets(t *testing.T) {
	tags := []block.Tag{
		block.NewTag(3, pmt.Symbol("a"), pmt.Nil()),
		block.NewTag(9, pmt.Symbol("b"), pmt.Nil()),
	}
	got := TagOffsets(tags)
	if len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Fatalf("offsets: %v", got)
	}
	RequireTagAt(t, tags, 9, "b")
}
