package multiplayer

import (
	"github.com/vovakirdan/pokebattle/internal/ai"
	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// SessionEvent represents an event sent from the coordinator to a session.
type SessionEvent interface {
	sessionEvent()
}

// LobbyCreatedEvent is sent when a lobby is successfully created.
type LobbyCreatedEvent struct {
	Code string
}

func (LobbyCreatedEvent) sessionEvent() {}

// LobbyErrorEvent is sent when a lobby or match operation fails.
type LobbyErrorEvent struct {
	Message string
}

func (LobbyErrorEvent) sessionEvent() {}

// LobbyJoinedEvent is sent to both host and joiner when someone joins.
type LobbyJoinedEvent struct {
	Code     string
	Opponent string
}

func (LobbyJoinedEvent) sessionEvent() {}

// LobbyPlayerLeftEvent is sent when a player leaves the lobby before match starts.
type LobbyPlayerLeftEvent struct {
	Code string
}

func (LobbyPlayerLeftEvent) sessionEvent() {}

// MatchStartedEvent is sent to each player when their battle begins.
// Client carries the battle's messages; the session answers through it.
type MatchStartedEvent struct {
	MatchID  MatchID
	Mode     MatchMode
	Code     string
	Team     party.TeamID
	Opponent string
	Client   *protocol.LocalClient
}

func (MatchStartedEvent) sessionEvent() {}

// SpectateStartedEvent is sent when a session starts watching a match.
type SpectateStartedEvent struct {
	MatchID MatchID
	Code    string
	Client  *protocol.LocalClient
}

func (SpectateStartedEvent) sessionEvent() {}

// MatchEndedEvent is sent when the match ends. Result is nil when the match
// never got to start.
type MatchEndedEvent struct {
	MatchID MatchID
	Reason  MatchEndReason
	Result  *battle.Result
}

func (MatchEndedEvent) sessionEvent() {}

// MatchEndReason describes why a match ended.
type MatchEndReason int

const (
	MatchEndReasonCompleted  MatchEndReason = iota // A roster was wiped out
	MatchEndReasonDisconnect                       // Opponent disconnected
	MatchEndReasonForfeit                          // A side gave up or stalled
	MatchEndReasonCancelled                        // Match was cancelled
	MatchEndReasonHostLeft                         // Host left the lobby
	MatchEndReasonJoinerLeft                       // Joiner left the lobby
)

func (r MatchEndReason) String() string {
	switch r {
	case MatchEndReasonCompleted:
		return "Match completed"
	case MatchEndReasonDisconnect:
		return "Opponent disconnected"
	case MatchEndReasonForfeit:
		return "Forfeited"
	case MatchEndReasonCancelled:
		return "Match cancelled"
	case MatchEndReasonHostLeft:
		return "Host left"
	case MatchEndReasonJoinerLeft:
		return "Opponent left"
	default:
		return "Unknown"
	}
}

// endReasonOf maps a battle's end reason to the match-level one.
func endReasonOf(r protocol.EndReason) MatchEndReason {
	switch r {
	case protocol.EndDisconnect:
		return MatchEndReasonDisconnect
	case protocol.EndForfeit, protocol.EndTimeout:
		return MatchEndReasonForfeit
	default:
		return MatchEndReasonCompleted
	}
}

// CoordinatorMessage represents a message from a session to the coordinator.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// CreateLobbyMsg requests creation of a new lobby.
type CreateLobbyMsg struct {
	SessionID SessionID
	Team      Team
}

func (CreateLobbyMsg) coordinatorMessage() {}

// JoinLobbyMsg requests joining an existing lobby.
type JoinLobbyMsg struct {
	SessionID SessionID
	Code      string
	Team      Team
}

func (JoinLobbyMsg) coordinatorMessage() {}

// CancelLobbyMsg requests cancellation of a hosted lobby.
type CancelLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (CancelLobbyMsg) coordinatorMessage() {}

// LeaveLobbyMsg requests leaving a joined lobby.
type LeaveLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (LeaveLobbyMsg) coordinatorMessage() {}

// StartCPUMatchMsg starts a battle against the AI right away.
type StartCPUMatchMsg struct {
	SessionID SessionID
	Team      Team
	Opponent  Team
	AI        ai.Options
}

func (StartCPUMatchMsg) coordinatorMessage() {}

// SpectateMsg asks to watch the running match with the given code.
type SpectateMsg struct {
	SessionID SessionID
	Code      string
}

func (SpectateMsg) coordinatorMessage() {}

// LeaveMatchMsg forfeits an active match.
type LeaveMatchMsg struct {
	SessionID SessionID
	MatchID   MatchID
}

func (LeaveMatchMsg) coordinatorMessage() {}

// SessionDisconnectedMsg is sent when a session disconnects.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) coordinatorMessage() {}
