package block

// Option mutates construction-time block settings.
type Option func(*Base)

// WithHistory sets the history length. A block with history h is
// guaranteed h-1 extra look-back items before the nominal input window
// on every invocation. The default is 1 (no look-back).
func WithHistory(n int) Option {
	return func(b *Base) { b.history = n }
}

// WithOutputMultiple requires every requested output amount to be an
// exact multiple of m. The default is 1.
func WithOutputMultiple(m int) Option {
	return func(b *Base) { b.outputMultiple = m }
}

// WithRelativeRate sets the nominal ratio of output items to input
// items. The default is 1.
func WithRelativeRate(r float64) Option {
	return func(b *Base) { b.relativeRate = r }
}

// WithAuto enables automatic mode: consume/produce accounting is
// derived from Work's return value and the relative rate instead of
// explicit calls. The default is manual.
func WithAuto(auto bool) Option {
	return func(b *Base) { b.auto = auto }
}

// WithMsgGroups sets the number of subscriber groups this block can
// post to. The default is 0 (no message outputs).
func WithMsgGroups(n int) Option {
	return func(b *Base) { b.groups = make([][]*msgQueue, n) }
}

// WithTagPropagation sets the initial tag propagation policy. The
// default is PolicyAllToAll.
func WithTagPropagation(p Policy) Option {
	return func(b *Base) { b.policy = p }
}
