// Package sched runs a wired flowgraph on a single thread.
//
// Each pass visits the blocks in topological order. For every runnable
// block the scheduler picks a desired output amount (a multiple of the
// block's output multiple), asks Forecast how much input that needs,
// shrinks the request until the input streams can satisfy it, builds
// the buffer views, and invokes Work under the accounting contract.
// Afterwards it advances the streams by what the block consumed and
// produced and forwards input tags to outputs per the block's tag
// propagation policy.
//
// The run ends when every block has signalled Done, when a pass makes
// no progress, or when the context is cancelled. Start and Stop hooks
// bracket the run; a Start failure aborts startup and stops the blocks
// already started.
package sched
