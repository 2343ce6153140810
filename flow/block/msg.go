package block

import (
	"sync"

	"github.com/cwbudde/algo-flow/flow/pmt"
)

// msgQueue is an unbounded FIFO with a blocking pop. Multiple posting
// blocks may push concurrently; the owning block is the sole consumer.
// The queue grows rather than dropping: messages carry control-plane
// semantics whose loss would corrupt downstream state.
type msgQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	q    []Tag
}

func newMsgQueue() *msgQueue {
	mq := &msgQueue{}
	mq.cond = sync.NewCond(&mq.mu)
	return mq
}

func (mq *msgQueue) push(msg Tag) {
	mq.mu.Lock()
	mq.q = append(mq.q, msg)
	mq.mu.Unlock()
	mq.cond.Signal()
}

func (mq *msgQueue) pop() Tag {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	for len(mq.q) == 0 {
		mq.cond.Wait()
	}
	msg := mq.q[0]
	mq.q = mq.q[1:]
	return msg
}

func (mq *msgQueue) pending() bool {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.q) > 0
}

// CheckMsgQueue reports, without blocking, whether at least one message
// is queued for this block.
func (b *Base) CheckMsgQueue() bool {
	return b.msgs.pending()
}

// PopMsgQueue pops the oldest queued message, blocking the calling
// goroutine until one arrives. There is no timeout; a block that must
// stop while a pop is outstanding relies on an external shutdown signal
// such as a posted sentinel message.
func (b *Base) PopMsgQueue() Tag {
	return b.msgs.pop()
}

// PostMsg delivers a copy of msg to every block subscribed to the given
// group. Delivery to each subscriber is independent: a slow consumer
// never blocks the poster or other subscribers. Posting to a group with
// no subscribers, or to a group index this block does not have, is a
// silent no-op.
func (b *Base) PostMsg(group int, msg Tag) {
	b.groupMu.RLock()
	defer b.groupMu.RUnlock()
	if group < 0 || group >= len(b.groups) {
		return
	}
	for _, q := range b.groups[group] {
		q.push(msg)
	}
}

// PostMsgKV is PostMsg for an ad-hoc key/value message with the default
// source identifier.
func (b *Base) PostMsgKV(group int, key, value pmt.Value) {
	b.PostMsg(group, NewMsg(key, value))
}

// MsgGroups returns the number of subscriber groups this block posts to.
func (b *Base) MsgGroups() int {
	b.groupMu.RLock()
	defer b.groupMu.RUnlock()
	return len(b.groups)
}

// SubscribeMsgs registers sub as a receiver for messages this block
// posts to the given group. Subscription normally happens once, when the
// graph is wired.
func (b *Base) SubscribeMsgs(group int, sub *Base) error {
	b.groupMu.Lock()
	defer b.groupMu.Unlock()
	if group < 0 || group >= len(b.groups) {
		return errf("message group %d out of range [0,%d)", group, len(b.groups))
	}
	if sub == nil {
		return errf("nil message subscriber")
	}
	b.groups[group] = append(b.groups[group], sub.msgs)
	return nil
}
