// Package block defines the execution contract for a streaming processing
// unit inside a buffered dataflow pipeline.
//
// A block receives windows of input items and produces windows of output
// items through [Reader] and [Writer] views over externally owned memory.
// Alongside the sample path it carries two side channels: stream tags
// (keyed values pinned to absolute item offsets, see [Tag]) and control
// messages (the same shape, delivered through a per-block queue instead
// of the stream).
//
// Concrete blocks embed [*Base] and implement [Worker]. The scheduler
// drives the lifecycle through [Start], [Invoke], and [Stop]:
//
//	blk, _ := block.New("gain", block.Sig(1, 8), block.Sig(1, 8),
//		block.WithAuto(true))
//
// Base provides the default forecast, the consume/produce accounting,
// the absolute per-port counters, and the message queue. In automatic
// mode [Invoke] derives the accounting from Work's return value and the
// relative rate; in manual mode the block must call [Base.Consume] and
// [Base.Produce] itself on every invocation.
//
// Everything here is safe under the pipeline threading model: a block's
// Work runs on one thread at a time, while PostMsg may be called from
// any other block's thread concurrently with the receiver's queue
// operations.
package block
