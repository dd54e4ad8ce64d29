package multiplayer

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// SessionHandle is how the coordinator and matches reach a connected
// player. It knows nothing about SSH or Bubble Tea.
type SessionHandle interface {
	ID() SessionID

	// Name is the trainer name the player connected with. Several sessions
	// may share one name; IDs are unique.
	Name() string

	// Send delivers a lifecycle event. It must never block the coordinator.
	Send(evt SessionEvent)

	// Done closes when the player goes away.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle backed by a buffered channel that the
// terminal session drains.
type ChannelSession struct {
	id     SessionID
	name   string
	events chan SessionEvent
	done   chan struct{}
	close  sync.Once
}

// NewChannelSession creates a session holding up to buffer undelivered
// events.
func NewChannelSession(id SessionID, name string, buffer int) *ChannelSession {
	if buffer < 1 {
		buffer = 16
	}
	return &ChannelSession{
		id:     id,
		name:   name,
		events: make(chan SessionEvent, buffer),
		done:   make(chan struct{}),
	}
}

func (s *ChannelSession) ID() SessionID { return s.id }

func (s *ChannelSession) Name() string { return s.name }

// Send queues evt, evicting the oldest undelivered event when the buffer is
// full. Events sent after Close are discarded. Battle traffic uses
// protocol.LocalClient, so only lobby and match lifecycle events pass here.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	for attempt := 0; attempt < 2; attempt++ {
		select {
		case s.events <- evt:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// Events is drained by the terminal session.
func (s *ChannelSession) Events() <-chan SessionEvent {
	return s.events
}

func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close ends the session. It is idempotent.
func (s *ChannelSession) Close() {
	s.close.Do(func() { close(s.done) })
}

// SessionRegistry is the set of connected players, safe for concurrent use.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[SessionID]SessionHandle)}
}

// Register adds session, replacing any session with the same ID.
func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Connect registers a new ChannelSession for a trainer. The ID is the name
// itself while it is free, and the name with a random suffix otherwise.
func (r *SessionRegistry) Connect(name string, buffer int) *ChannelSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := SessionID(name)
	for _, taken := r.sessions[id]; taken || id == ""; _, taken = r.sessions[id] {
		id = SessionID(name + "-" + uuid.NewString()[:8])
	}
	s := NewChannelSession(id, name, buffer)
	r.sessions[id] = s
	return s
}

// Disconnect closes a ChannelSession and forgets it. Other handle types are
// only forgotten.
func (r *SessionRegistry) Disconnect(id SessionID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if cs, isChan := s.(*ChannelSession); ok && isChan {
		cs.Close()
	}
}

// Unregister forgets a session without closing it.
func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get looks up a session.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Names returns the sorted trainer names currently connected, once each.
func (r *SessionRegistry) Names() []string {
	r.mu.RLock()
	seen := make(map[string]bool, len(r.sessions))
	for _, s := range r.sessions {
		seen[s.Name()] = true
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
