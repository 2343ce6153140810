package block

import "github.com/cwbudde/algo-flow/flow/pmt"

// SrcUnspecified is the default tag/message source identifier.
var SrcUnspecified = pmt.Symbol("unspecified")

// Tag is an immutable keyed value pinned to an absolute position in a
// port's stream. Offsets count items since the stream began and never
// reset; they are not relative to any one invocation's window.
type Tag struct {
	Offset uint64
	Key    pmt.Value
	Value  pmt.Value
	SrcID  pmt.Value
}

// NewTag builds a tag with the default source identifier.
func NewTag(offset uint64, key, value pmt.Value) Tag {
	return Tag{Offset: offset, Key: key, Value: value, SrcID: SrcUnspecified}
}

// NewMsg builds a message: a tag whose offset is meaningless and
// conventionally zero.
func NewMsg(key, value pmt.Value) Tag {
	return Tag{Key: key, Value: value, SrcID: SrcUnspecified}
}

// Policy selects how incoming input tags are forwarded to outputs by the
// surrounding propagation logic when a block does not re-emit them
// itself. The block core stores the setting; the scheduler consults it.
type Policy uint8

// Tag propagation policies.
const (
	// PolicyNone forwards nothing.
	PolicyNone Policy = iota
	// PolicyAllToAll forwards every input tag to every output.
	PolicyAllToAll
	// PolicyOneToOne forwards input port i's tags to output port i only.
	PolicyOneToOne
	// PolicyAllToAllMinusOne forwards input port i's tags to every
	// output except output i.
	PolicyAllToAllMinusOne
	// PolicyCustom disables automatic forwarding; the block re-emits
	// whatever it wants through AddItemTag.
	PolicyCustom
)

// TagWriter accepts tags for one output port's stream. The physical
// storage and its retention window belong to the buffer collaborator.
type TagWriter interface {
	Add(tag Tag)
}

// TagReader answers range queries over one input port's stream.
// Results cover the half-open offset interval [start, end), ordered by
// ascending offset with ties in insertion order. Queries never mutate
// storage.
type TagReader interface {
	Range(dst []Tag, start, end uint64) []Tag
	RangeKey(dst []Tag, start, end uint64, key pmt.Value) []Tag
}
