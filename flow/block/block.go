package block

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-flow/flow/pmt"
)

// Done is the work return sentinel for "no output produced, finished".
// It is distinct from zero, which means "ran, produced nothing, call
// again".
const Done = -1

// State tracks the block lifecycle.
type State uint8

// Lifecycle states. Work is only legal while Started; Stop is final.
const (
	StateConstructed State = iota
	StateStarted
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Worker is the capability set every block implements. Concrete blocks
// embed [*Base], which supplies Self, the default Forecast, and no-op
// Start/Stop; Work is the one mandatory method. The accessor is named
// Self rather than Base because the embedded field is already selected
// by Base and would shadow a method of the same name.
type Worker interface {
	// Self returns the embedded block state.
	Self() *Base

	// Forecast fills, for every input port, the minimum input item
	// count required to guarantee noutputItems can be produced on the
	// next invocation.
	Forecast(noutputItems int, ninputItemsRequired []int)

	// Work processes one invocation's windows and returns the number of
	// items produced on every output (or [Done]). In manual mode the
	// block must perform its consume/produce accounting before
	// returning.
	Work(in []Reader, out []Writer) (int, error)

	// Start is called once before the first Work. A non-nil error
	// aborts graph startup.
	Start() error

	// Stop is called once after the last Work. A non-nil error aborts
	// graph teardown.
	Stop() error
}

// Base holds the per-block execution state: identity, signatures, rate
// accounting, absolute counters, tag attachments, and the message
// queue. It is constructed with the block and destroyed with it.
type Base struct {
	id   string
	name string

	insig  Signature
	outsig Signature

	history        int
	outputMultiple int
	relativeRate   float64
	auto           bool
	policy         Policy
	state          State

	nread    []uint64
	nwritten []uint64

	inTags  []TagReader
	outTags []TagWriter

	// Per-invocation window bookkeeping, valid only between beginWork
	// and the end of Invoke. Mutated only by the owning work thread.
	inWork   bool
	curIn    []int
	curOut   []int
	consumed []int
	produced []int
	workErr  error

	msgs    *msgQueue
	groupMu sync.RWMutex
	groups  [][]*msgQueue
}

// New constructs block state with the given name and signatures, which
// are fixed for the block's lifetime.
func New(name string, insig, outsig Signature, opts ...Option) (*Base, error) {
	b := &Base{
		id:             uuid.NewString(),
		name:           name,
		insig:          insig,
		outsig:         outsig,
		history:        1,
		outputMultiple: 1,
		relativeRate:   1,
		policy:         PolicyAllToAll,
		msgs:           newMsgQueue(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if name == "" {
		return nil, errf("block name must not be empty")
	}
	if err := insig.validate("input"); err != nil {
		return nil, err
	}
	if err := outsig.validate("output"); err != nil {
		return nil, err
	}
	if b.history < 1 {
		return nil, errf("history must be >= 1: %d", b.history)
	}
	if b.outputMultiple < 1 {
		return nil, errf("output multiple must be >= 1: %d", b.outputMultiple)
	}
	if b.relativeRate <= 0 {
		return nil, errf("relative rate must be > 0: %g", b.relativeRate)
	}

	n := insig.Ports()
	m := outsig.Ports()
	b.nread = make([]uint64, n)
	b.nwritten = make([]uint64, m)
	b.inTags = make([]TagReader, n)
	b.outTags = make([]TagWriter, m)
	b.curIn = make([]int, n)
	b.curOut = make([]int, m)
	b.consumed = make([]int, n)
	b.produced = make([]int, m)

	return b, nil
}

// Self returns b, satisfying [Worker] for embedders.
func (b *Base) Self() *Base { return b }

// UniqueID returns the block's process-unique identifier.
func (b *Base) UniqueID() string { return b.id }

// Name returns the block name.
func (b *Base) Name() string { return b.name }

// InputSignature returns the input side signature.
func (b *Base) InputSignature() Signature { return b.insig }

// OutputSignature returns the output side signature.
func (b *Base) OutputSignature() Signature { return b.outsig }

// Inputs returns the input port count.
func (b *Base) Inputs() int { return b.insig.Ports() }

// Outputs returns the output port count.
func (b *Base) Outputs() int { return b.outsig.Ports() }

// State returns the current lifecycle state.
func (b *Base) State() State { return b.state }

// History returns the history length. A block with history h is
// guaranteed h-1 look-back items resident before the nominal input
// window on every invocation.
func (b *Base) History() int { return b.history }

// SetHistory sets the history length. Changing it once the block is
// running is undefined, so it is rejected after Start.
func (b *Base) SetHistory(n int) error {
	if b.state != StateConstructed {
		return errf("set history in state %s", b.state)
	}
	if n < 1 {
		return errf("history must be >= 1: %d", n)
	}
	b.history = n
	return nil
}

// OutputMultiple returns the output-multiple constraint.
func (b *Base) OutputMultiple() int { return b.outputMultiple }

// SetOutputMultiple requires every requested output amount to be an
// exact multiple of m.
func (b *Base) SetOutputMultiple(m int) error {
	if b.state != StateConstructed {
		return errf("set output multiple in state %s", b.state)
	}
	if m < 1 {
		return errf("output multiple must be >= 1: %d", m)
	}
	b.outputMultiple = m
	return nil
}

// RelativeRate returns the nominal ratio of output items to input items.
func (b *Base) RelativeRate() float64 { return b.relativeRate }

// SetRelativeRate sets the nominal output/input ratio, as with
// interpolation (>1) or decimation (<1). Unlike history and output
// multiple it may change while the block runs; the new ratio applies
// from the next invocation's forecast and automatic accounting.
func (b *Base) SetRelativeRate(r float64) error {
	if r <= 0 {
		return errf("relative rate must be > 0: %g", r)
	}
	b.relativeRate = r
	return nil
}

// Auto reports whether automatic accounting mode is enabled.
func (b *Base) Auto() bool { return b.auto }

// SetAuto switches between automatic and manual accounting.
func (b *Base) SetAuto(auto bool) { b.auto = auto }

// TagPropagation returns the current tag propagation policy.
func (b *Base) TagPropagation() Policy { return b.policy }

// SetTagPropagation sets the tag propagation policy.
func (b *Base) SetTagPropagation(p Policy) { b.policy = p }

// NItemsRead returns the absolute number of items consumed on the given
// input over the block's lifetime. The counter is monotonic and only
// advances through Consume/ConsumeEach.
func (b *Base) NItemsRead(whichInput int) uint64 { return b.nread[whichInput] }

// NItemsWritten returns the absolute number of items produced on the
// given output over the block's lifetime.
func (b *Base) NItemsWritten(whichOutput int) uint64 { return b.nwritten[whichOutput] }

// Forecast is the default forecast: for every input port,
// ceil(noutputItems/relativeRate) + history - 1. Blocks with asymmetric
// per-port needs override it.
func (b *Base) Forecast(noutputItems int, ninputItemsRequired []int) {
	rate := b.relativeRate
	if rate <= 0 {
		rate = 1
	}
	need := int(math.Ceil(float64(noutputItems)/rate)) + b.history - 1
	if need < 0 {
		need = 0
	}
	for i := range ninputItemsRequired {
		ninputItemsRequired[i] = need
	}
}

// Start is the default lifecycle hook: a success no-op.
func (b *Base) Start() error { return nil }

// Stop is the default lifecycle hook: a success no-op.
func (b *Base) Stop() error { return nil }

// Consume records that this invocation consumed howMany items from the
// given input and advances its absolute read counter. Consuming more
// than the invocation's window holds is a contract violation, reported
// rather than clamped.
func (b *Base) Consume(whichInput, howMany int) error {
	if whichInput < 0 || whichInput >= len(b.nread) {
		return b.fail(errf("consume on input %d of %d", whichInput, len(b.nread)))
	}
	if howMany < 0 {
		return b.fail(errf("consume negative count %d", howMany))
	}
	if !b.inWork {
		return b.fail(errf("consume outside a work invocation"))
	}
	if b.consumed[whichInput]+howMany > b.curIn[whichInput] {
		return b.fail(errf("consume %d exceeds %d items available on input %d",
			b.consumed[whichInput]+howMany, b.curIn[whichInput], whichInput))
	}
	b.consumed[whichInput] += howMany
	b.nread[whichInput] += uint64(howMany)
	return nil
}

// ConsumeEach records consumption of howMany items on every input.
func (b *Base) ConsumeEach(howMany int) error {
	for i := range b.nread {
		if err := b.Consume(i, howMany); err != nil {
			return err
		}
	}
	return nil
}

// Produce records production of howMany items on the given output and
// advances its absolute write counter.
func (b *Base) Produce(whichOutput, howMany int) error {
	if whichOutput < 0 || whichOutput >= len(b.nwritten) {
		return b.fail(errf("produce on output %d of %d", whichOutput, len(b.nwritten)))
	}
	if howMany < 0 {
		return b.fail(errf("produce negative count %d", howMany))
	}
	if !b.inWork {
		return b.fail(errf("produce outside a work invocation"))
	}
	if b.produced[whichOutput]+howMany > b.curOut[whichOutput] {
		return b.fail(errf("produce %d exceeds %d items writable on output %d",
			b.produced[whichOutput]+howMany, b.curOut[whichOutput], whichOutput))
	}
	b.produced[whichOutput] += howMany
	b.nwritten[whichOutput] += uint64(howMany)
	return nil
}

// Consumed returns the item count recorded on the given input during the
// most recent invocation.
func (b *Base) Consumed(whichInput int) int { return b.consumed[whichInput] }

// Produced returns the item count recorded on the given output during
// the most recent invocation.
func (b *Base) Produced(whichOutput int) int { return b.produced[whichOutput] }

// AttachOutputTags binds the tag store that receives AddItemTag calls
// for the given output. Wiring normally does this once per connection.
func (b *Base) AttachOutputTags(whichOutput int, w TagWriter) error {
	if whichOutput < 0 || whichOutput >= len(b.outTags) {
		return errf("attach tags on output %d of %d", whichOutput, len(b.outTags))
	}
	b.outTags[whichOutput] = w
	return nil
}

// AttachInputTags binds the tag store queried by TagsInRange for the
// given input.
func (b *Base) AttachInputTags(whichInput int, r TagReader) error {
	if whichInput < 0 || whichInput >= len(b.inTags) {
		return errf("attach tags on input %d of %d", whichInput, len(b.inTags))
	}
	b.inTags[whichInput] = r
	return nil
}

// AddItemTag inserts a tag at an absolute offset on an output stream.
// Offsets normally fall within the window being produced this call;
// inserting outside it is legal but the caller's responsibility to
// justify. Tags on an unattached output are dropped, as there is no
// stream to carry them.
func (b *Base) AddItemTag(whichOutput int, tag Tag) error {
	if whichOutput < 0 || whichOutput >= len(b.outTags) {
		return errf("add tag on output %d of %d", whichOutput, len(b.outTags))
	}
	if tag.SrcID.IsNil() {
		tag.SrcID = SrcUnspecified
	}
	if w := b.outTags[whichOutput]; w != nil {
		w.Add(tag)
	}
	return nil
}

// AddItemTagKV is AddItemTag for an ad-hoc offset/key/value tag.
func (b *Base) AddItemTagKV(whichOutput int, absOffset uint64, key, value pmt.Value) error {
	return b.AddItemTag(whichOutput, NewTag(absOffset, key, value))
}

// TagsInRange appends to dst every tag on the given input whose offset
// lies in [absStart, absEnd), ordered by ascending offset with ties in
// insertion order, and returns the extended slice. An unattached input
// yields no tags.
func (b *Base) TagsInRange(dst []Tag, whichInput int, absStart, absEnd uint64) ([]Tag, error) {
	if whichInput < 0 || whichInput >= len(b.inTags) {
		return dst, errf("tags on input %d of %d", whichInput, len(b.inTags))
	}
	if r := b.inTags[whichInput]; r != nil {
		dst = r.Range(dst, absStart, absEnd)
	}
	return dst, nil
}

// TagsInRangeKey is TagsInRange restricted to tags whose key equals key.
func (b *Base) TagsInRangeKey(dst []Tag, whichInput int, absStart, absEnd uint64, key pmt.Value) ([]Tag, error) {
	if whichInput < 0 || whichInput >= len(b.inTags) {
		return dst, errf("tags on input %d of %d", whichInput, len(b.inTags))
	}
	if r := b.inTags[whichInput]; r != nil {
		dst = r.RangeKey(dst, absStart, absEnd, key)
	}
	return dst, nil
}

// fail records the first contract violation of the current invocation so
// Invoke surfaces it even if the block ignores the returned error.
func (b *Base) fail(err error) error {
	if b.workErr == nil {
		b.workErr = err
	}
	return err
}

func (b *Base) beginWork(in []Reader, out []Writer) {
	for i := range in {
		b.curIn[i] = in[i].Len()
		b.consumed[i] = 0
	}
	for o := range out {
		b.curOut[o] = out[o].Len()
		b.produced[o] = 0
	}
	b.workErr = nil
	b.inWork = true
}

func (b *Base) autoInputItems(noutput int) int {
	rate := b.relativeRate
	if rate <= 0 {
		rate = 1
	}
	return int(math.Round(float64(noutput) / rate))
}

// Start transitions w into the started state after running its Start
// hook. A hook failure leaves the block constructed and aborts graph
// startup.
func Start(w Worker) error {
	b := w.Self()
	if b.state != StateConstructed {
		return errf("start %q in state %s", b.name, b.state)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("block %q start: %w", b.name, err)
	}
	b.state = StateStarted
	return nil
}

// Stop transitions w into the stopped state and runs its Stop hook. No
// Work may follow, even if the hook fails.
func Stop(w Worker) error {
	b := w.Self()
	if b.state != StateStarted {
		return errf("stop %q in state %s", b.name, b.state)
	}
	b.state = StateStopped
	if err := w.Stop(); err != nil {
		return fmt.Errorf("block %q stop: %w", b.name, err)
	}
	return nil
}

// Invoke runs one work invocation under the accounting contract: it
// records the supplied window sizes, calls Work, and reconciles the
// counters. In automatic mode it produces Work's return value on every
// output and consumes round(n/relativeRate) items on every input; in
// manual mode the block has already called Consume/Produce itself.
// The int result is Work's return value ([Done] or items produced).
func Invoke(w Worker, in []Reader, out []Writer) (int, error) {
	b := w.Self()
	if b.state != StateStarted {
		return 0, errf("work on %q in state %s", b.name, b.state)
	}
	if len(in) != b.insig.Ports() || len(out) != b.outsig.Ports() {
		return 0, errf("work on %q with %d/%d views for %d/%d ports",
			b.name, len(in), len(out), b.insig.Ports(), b.outsig.Ports())
	}
	for o := range out {
		if out[o].Len()%b.outputMultiple != 0 {
			return 0, errf("output %d window of %d items is not a multiple of %d",
				o, out[o].Len(), b.outputMultiple)
		}
	}

	b.beginWork(in, out)
	defer func() { b.inWork = false }()

	n, err := w.Work(in, out)
	if err != nil {
		return n, fmt.Errorf("block %q work: %w", b.name, err)
	}
	if n == Done {
		return Done, nil
	}
	if n < 0 {
		return n, errf("work on %q returned invalid count %d", b.name, n)
	}

	if b.auto {
		for o := range out {
			if perr := b.Produce(o, n); perr != nil {
				return n, perr
			}
		}
		nin := b.autoInputItems(n)
		for i := range in {
			if cerr := b.Consume(i, nin); cerr != nil {
				return n, cerr
			}
		}
	}

	if b.workErr != nil {
		return n, b.workErr
	}
	return n, nil
}

func errf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrContract}, args...)...)
}
