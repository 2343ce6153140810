// Package pmt implements the small tagged-value representation used for
// stream tags and control messages.
//
// A Value is an immutable union over a fixed set of primitive kinds:
// boolean, integer, real, string, symbol, pair, and vector. Values are
// comparable with [Value.Equal], hashable with [Value.Hash], and safe to
// copy and share between goroutines.
//
// Symbols are strings with name semantics: two symbols are equal iff
// their text is equal, and symbols are the conventional kind for tag and
// message keys.
package pmt
