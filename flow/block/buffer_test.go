package block

import "testing"

func TestReaderLen(t *testing.T) {
	r := NewReader(make([]byte, 64), 8)
	if r.Len() != 8 {
		t.Fatalf("Len: got %d want 8", r.Len())
	}
	if r.ItemSize() != 8 {
		t.Fatalf("ItemSize: got %d want 8", r.ItemSize())
	}
}

func TestReaderEmpty(t *testing.T) {
	r := NewReader(nil, 8)
	if r.Len() != 0 {
		t.Fatalf("Len: got %d want 0", r.Len())
	}
	if got := ReadItems[float64](r); got != nil {
		t.Fatalf("ReadItems on empty view: got %v", got)
	}
}

func TestWriteItemsVisibleThroughReadItems(t *testing.T) {
	mem := make([]byte, 4*8)
	w := NewWriter(mem, 8)

	dst := WriteItems[float64](w)
	if len(dst) != 4 {
		t.Fatalf("WriteItems len: got %d want 4", len(dst))
	}
	for i := range dst {
		dst[i] = float64(i) + 0.5
	}

	src := ReadItems[float64](NewReader(mem, 8))
	for i, v := range src {
		if v != float64(i)+0.5 {
			t.Fatalf("index %d: got %v", i, v)
		}
	}
}

func TestCastToNarrowerType(t *testing.T) {
	mem := make([]byte, 16)
	r := NewReader(mem, 8)

	// Reinterpreting as float32 doubles the element count.
	if got := len(ReadItems[float32](r)); got != 4 {
		t.Fatalf("float32 cast len: got %d want 4", got)
	}
}
