package block

import "unsafe"

// Reader is a read-only view over one input port's window for a single
// work invocation: externally owned memory plus an item count. It must
// not be retained past the invocation that supplied it.
type Reader struct {
	mem      []byte
	itemSize int
}

// NewReader wraps externally owned memory without copying. itemSize must
// evenly divide len(mem); the view holds len(mem)/itemSize items.
func NewReader(mem []byte, itemSize int) Reader {
	return Reader{mem: mem, itemSize: itemSize}
}

// Bytes returns the raw window.
func (r Reader) Bytes() []byte { return r.mem }

// ItemSize returns the per-item size in bytes.
func (r Reader) ItemSize() int { return r.itemSize }

// Len returns the number of items in this invocation's window, not the
// total stream length.
func (r Reader) Len() int {
	if r.itemSize <= 0 {
		return 0
	}
	return len(r.mem) / r.itemSize
}

// Writer is the write-only counterpart of [Reader] for output ports.
type Writer struct {
	mem      []byte
	itemSize int
}

// NewWriter wraps externally owned memory without copying.
func NewWriter(mem []byte, itemSize int) Writer {
	return Writer{mem: mem, itemSize: itemSize}
}

// Bytes returns the raw window.
func (w Writer) Bytes() []byte { return w.mem }

// ItemSize returns the per-item size in bytes.
func (w Writer) ItemSize() int { return w.itemSize }

// Len returns the number of items writable in this invocation's window.
func (w Writer) Len() int {
	if w.itemSize <= 0 {
		return 0
	}
	return len(w.mem) / w.itemSize
}

// ReadItems reinterprets the view as a slice of T. The cast is unchecked
// beyond slice length: choosing a T whose size does not match the port's
// item size is the caller's responsibility, exactly as with the byte
// form.
func ReadItems[T any](r Reader) []T {
	return castItems[T](r.mem)
}

// WriteItems reinterprets the view as a writable slice of T.
func WriteItems[T any](w Writer) []T {
	return castItems[T](w.mem)
}

func castItems[T any](mem []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(mem) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&mem[0])), len(mem)/size)
}
