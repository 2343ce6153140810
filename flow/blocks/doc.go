// Package blocks provides the built-in blocks: vector source/sink for
// feeding and capturing float64 streams, gain and adder arithmetic,
// decimator and interpolator rate changers, an FFT peak probe, and
// message utility blocks.
//
// All sample ports carry float64 items. The blocks double as reference
// implementations of the execution contract: manual and automatic
// accounting, rate changes with output multiples, tag emission and
// observation, and message posting.
package blocks
