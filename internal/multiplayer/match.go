package multiplayer

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// MatchResult contains the outcome of a completed match.
type MatchResult struct {
	MatchID  MatchID
	Reason   MatchEndReason
	Result   *battle.Result
	Duration time.Duration
}

// seat is one side of a match. The computer's seat has no session.
type seat struct {
	session SessionHandle
	team    party.TeamID
	client  *protocol.LocalClient
}

func (s seat) done() <-chan struct{} {
	if s.session == nil {
		return nil
	}
	return s.session.Done()
}

// OnlineMatch runs one battle on a ticker. All calls into the battle happen
// on the Run goroutine; everything else reaches it through channels.
type OnlineMatch struct {
	id     MatchID
	code   string
	mode   MatchMode
	battle *battle.Battle
	seats  [2]seat
	logger *log.Logger

	tickRate int
	started  time.Time
	done     chan struct{}
	doneOnce sync.Once

	leaveChan    chan SessionID
	spectateChan chan *protocol.LocalClient
}

// NewOnlineMatch wraps a battle built from the two seats' entries.
func NewOnlineMatch(
	id MatchID,
	code string,
	mode MatchMode,
	b *battle.Battle,
	seats [2]seat,
	tickRate int,
	logger *log.Logger,
) *OnlineMatch {
	if tickRate <= 0 {
		tickRate = 30
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &OnlineMatch{
		id:           id,
		code:         code,
		mode:         mode,
		battle:       b,
		seats:        seats,
		logger:       logger.With("match", id),
		tickRate:     tickRate,
		done:         make(chan struct{}),
		leaveChan:    make(chan SessionID, 2),
		spectateChan: make(chan *protocol.LocalClient, 8),
	}
}

// ID returns the match identifier.
func (m *OnlineMatch) ID() MatchID {
	return m.id
}

// Code returns the code spectators use to find this match.
func (m *OnlineMatch) Code() string {
	return m.code
}

// Mode returns the match mode.
func (m *OnlineMatch) Mode() MatchMode {
	return m.mode
}

// TeamOf returns the team a session plays.
func (m *OnlineMatch) TeamOf(id SessionID) (party.TeamID, bool) {
	for _, s := range m.seats {
		if s.session != nil && s.session.ID() == id {
			return s.team, true
		}
	}
	return "", false
}

// Leave forfeits the match on behalf of a session.
// Non-blocking.
func (m *OnlineMatch) Leave(id SessionID) {
	select {
	case m.leaveChan <- id:
	default:
	}
}

// Spectate attaches a watcher. Returns false if the match is over.
func (m *OnlineMatch) Spectate(c *protocol.LocalClient) bool {
	select {
	case m.spectateChan <- c:
		return true
	case <-m.done:
		return false
	}
}

// Run starts the authoritative match loop.
// The callback is called when the battle ends, not when Stop is called.
func (m *OnlineMatch) Run(onComplete func(MatchResult)) {
	defer m.Stop()

	m.started = time.Now()
	m.battle.Start(m.started)

	tickDuration := time.Second / time.Duration(m.tickRate)
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	go m.monitorSessions()

	for {
		select {
		case now := <-ticker.C:
			if m.battle.Update(now) {
				m.complete(now, onComplete)
				return
			}

		case id := <-m.leaveChan:
			if team, ok := m.TeamOf(id); ok {
				m.logger.Info("player left", "team", team)
				_ = m.battle.Forfeit(team) //nolint:errcheck // team comes from our own seats
				m.complete(time.Now(), onComplete)
				return
			}

		case c := <-m.spectateChan:
			m.battle.Spectate(c)

		case <-m.done:
			return
		}
	}
}

func (m *OnlineMatch) complete(now time.Time, onComplete func(MatchResult)) {
	res, _ := m.battle.Result()
	m.logger.Info("match ended", "winner", res.Winner, "reason", res.Reason, "turns", res.Turns)
	if onComplete == nil {
		return
	}
	onComplete(MatchResult{
		MatchID:  m.id,
		Reason:   endReasonOf(res.Reason),
		Result:   res,
		Duration: now.Sub(m.started),
	})
}

// monitorSessions closes a seat's battle client when its session goes away,
// which the battle reports as a disconnect on its next tick.
func (m *OnlineMatch) monitorSessions() {
	select {
	case <-m.seats[0].done():
		m.seats[0].client.Close()
	case <-m.seats[1].done():
		m.seats[1].client.Close()
	case <-m.done:
	}
}

// Stop ends the loop without reporting a result.
func (m *OnlineMatch) Stop() {
	m.doneOnce.Do(func() {
		close(m.done)
	})
}

// Done returns a channel that closes when the match loop exits.
func (m *OnlineMatch) Done() <-chan struct{} {
	return m.done
}
