package blocks

import (
	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
)

// MsgStrobe has no sample ports; on its single work invocation it posts
// a numbered burst of messages to group 0 and signals Done.
type MsgStrobe struct {
	*block.Base

	key   pmt.Value
	value pmt.Value
	count int
}

// NewMsgStrobe creates a strobe that posts count copies of key/value.
func NewMsgStrobe(name string, key, value pmt.Value, count int) (*MsgStrobe, error) {
	b, err := block.New(name, block.SigNone(), block.SigNone(),
		block.WithMsgGroups(1))
	if err != nil {
		return nil, err
	}
	return &MsgStrobe{Base: b, key: key, value: value, count: count}, nil
}

// Work posts the burst and finishes.
func (m *MsgStrobe) Work(_ []block.Reader, _ []block.Writer) (int, error) {
	for i := 0; i < m.count; i++ {
		m.PostMsg(0, block.NewMsg(m.key, pmt.Cons(pmt.Int(int64(i)), m.value)))
	}
	return block.Done, nil
}

// MsgDebug has no sample ports and does no stream work; it exists to
// receive messages, which the owner drains with Drain after the run.
type MsgDebug struct {
	*block.Base
}

// NewMsgDebug creates a message receiver.
func NewMsgDebug(name string) (*MsgDebug, error) {
	b, err := block.New(name, block.SigNone(), block.SigNone())
	if err != nil {
		return nil, err
	}
	return &MsgDebug{Base: b}, nil
}

// Work finishes immediately; the queue outlives the sample run.
func (m *MsgDebug) Work(_ []block.Reader, _ []block.Writer) (int, error) {
	return block.Done, nil
}

// Drain pops every currently queued message without blocking.
func (m *MsgDebug) Drain() []block.Tag {
	var msgs []block.Tag
	for m.CheckMsgQueue() {
		msgs = append(msgs, m.PopMsgQueue())
	}
	return msgs
}
