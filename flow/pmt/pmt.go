package pmt

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Kind identifies the primitive type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindSymbol
	KindPair
	KindVector
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindPair:
		return "pair"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an immutable tagged union. The zero Value is the nil value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	r    float64
	s    string
	car  *Value
	cdr  *Value
	vec  []Value
}

// Nil returns the nil value.
func Nil() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a signed integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Real wraps a float64.
func Real(r float64) Value { return Value{kind: KindReal, r: r} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Symbol wraps a symbolic name. Symbols compare by text.
func Symbol(s string) Value { return Value{kind: KindSymbol, s: s} }

// Cons builds a pair from car and cdr.
func Cons(car, cdr Value) Value {
	return Value{kind: KindPair, car: &car, cdr: &cdr}
}

// Vector builds a vector value. The elements are copied.
func Vector(elems ...Value) Value {
	v := make([]Value, len(elems))
	copy(v, elems)
	return Value{kind: KindVector, vec: v}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.kind == KindNil }

// AsBool returns the boolean payload. ok is false for other kinds.
func (v Value) AsBool() (val, ok bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload. ok is false for other kinds.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsReal returns the real payload. ok is false for other kinds.
func (v Value) AsReal() (float64, bool) { return v.r, v.kind == KindReal }

// AsString returns the string payload. ok is false for other kinds.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsSymbol returns the symbol text. ok is false for other kinds.
func (v Value) AsSymbol() (string, bool) { return v.s, v.kind == KindSymbol }

// AsPair returns car and cdr. ok is false for other kinds.
func (v Value) AsPair() (car, cdr Value, ok bool) {
	if v.kind != KindPair {
		return Value{}, Value{}, false
	}
	return *v.car, *v.cdr, true
}

// AsVector returns a copy of the element slice. ok is false for other kinds.
func (v Value) AsVector() ([]Value, bool) {
	if v.kind != KindVector {
		return nil, false
	}
	out := make([]Value, len(v.vec))
	copy(out, v.vec)
	return out, true
}

// Equal reports deep equality of kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindReal:
		return v.r == o.r
	case KindString, KindSymbol:
		return v.s == o.s
	case KindPair:
		return v.car.Equal(*o.car) && v.cdr.Equal(*o.cdr)
	case KindVector:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if !v.vec[i].Equal(o.vec[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Hash returns a 64-bit FNV-1a hash consistent with Equal: equal values
// hash equally.
func (v Value) Hash() uint64 {
	h := fnv.New64a()
	v.hashInto(h)
	return h.Sum64()
}

type hasher interface {
	Write(p []byte) (int, error)
}

func (v Value) hashInto(h hasher) {
	var scratch [8]byte
	_, _ = h.Write([]byte{byte(v.kind)})
	switch v.kind {
	case KindBool:
		if v.b {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	case KindInt:
		binary.LittleEndian.PutUint64(scratch[:], uint64(v.i))
		_, _ = h.Write(scratch[:])
	case KindReal:
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v.r))
		_, _ = h.Write(scratch[:])
	case KindString, KindSymbol:
		_, _ = h.Write([]byte(v.s))
	case KindPair:
		v.car.hashInto(h)
		v.cdr.hashInto(h)
	case KindVector:
		for i := range v.vec {
			v.vec[i].hashInto(h)
		}
	}
}

// String renders the value for diagnostics. Symbols render bare, strings
// quoted, pairs as (car . cdr), vectors as #(...).
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "#n"
	case KindBool:
		if v.b {
			return "#t"
		}
		return "#f"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindReal:
		return fmt.Sprintf("%g", v.r)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindSymbol:
		return v.s
	case KindPair:
		return fmt.Sprintf("(%s . %s)", v.car, v.cdr)
	case KindVector:
		var sb strings.Builder
		sb.WriteString("#(")
		for i := range v.vec {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(v.vec[i].String())
		}
		sb.WriteByte(')')
		return sb.String()
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}
