package protocol

import "sync"

// BattleClient is anything the battle can report to and poll actions from:
// a local renderer, an AI, a spectator. Send must never block.
type BattleClient interface {
	// Send delivers a message to the observer. Always accepted.
	Send(msg ServerMessage)

	// Receive polls the next message from the observer, if any.
	Receive() (ClientMessage, bool)
}

// Disconnector is implemented by clients that can go away. When Done is
// closed the battle treats the client's side as forfeiting.
type Disconnector interface {
	Done() <-chan struct{}
}

// LocalClient adapts an in-process observer to BattleClient. The battle side
// uses Send and Receive; the observer side uses Next, Reply and Notify.
// Both queues are unbounded so the battle is never held up by a slow
// observer, and the two sides may run on different goroutines.
type LocalClient struct {
	mu     sync.Mutex
	outbox []ServerMessage
	inbox  []ClientMessage

	notify   chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// NewLocalClient creates an empty adapter.
func NewLocalClient() *LocalClient {
	return &LocalClient{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Send queues a message for the observer.
func (c *LocalClient) Send(msg ServerMessage) {
	select {
	case <-c.done:
		// Observer is gone, drop
		return
	default:
	}

	c.mu.Lock()
	c.outbox = append(c.outbox, msg)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Receive pops the oldest message from the observer.
func (c *LocalClient) Receive() (ClientMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbox) == 0 {
		return nil, false
	}
	msg := c.inbox[0]
	c.inbox[0] = nil
	c.inbox = c.inbox[1:]
	return msg, true
}

// Next pops the oldest message for the observer.
func (c *LocalClient) Next() (ServerMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outbox) == 0 {
		return nil, false
	}
	msg := c.outbox[0]
	c.outbox[0] = nil
	c.outbox = c.outbox[1:]
	return msg, true
}

// Drain pops every pending message for the observer.
func (c *LocalClient) Drain() []ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.outbox
	c.outbox = nil
	return out
}

// Pending returns how many messages wait for the observer.
func (c *LocalClient) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outbox)
}

// Reply queues a message for the battle.
func (c *LocalClient) Reply(msg ClientMessage) {
	select {
	case <-c.done:
		return
	default:
	}
	c.mu.Lock()
	c.inbox = append(c.inbox, msg)
	c.mu.Unlock()
}

// Notify returns a channel that receives a value after new messages arrive
// for the observer. Several arrivals may collapse into one signal.
func (c *LocalClient) Notify() <-chan struct{} {
	return c.notify
}

// Done returns a channel that closes when the observer disconnects.
func (c *LocalClient) Done() <-chan struct{} {
	return c.done
}

// Close marks the observer as disconnected.
// Safe to call multiple times.
func (c *LocalClient) Close() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

var (
	_ BattleClient = (*LocalClient)(nil)
	_ Disconnector = (*LocalClient)(nil)
)
