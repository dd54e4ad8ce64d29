package protocol

import "github.com/vovakirdan/pokebattle/internal/party"

// ServerMessage is sent from the battle to an observer.
type ServerMessage interface {
	serverMessage()
}

// Begin announces the battle. Team is the side this observer controls, or
// empty for spectators. Trainer carries the opposing trainer's hints.
type Begin struct {
	BattleID string
	Kind     string
	Team     party.TeamID
	Opponent party.TeamID
	Trainer  *party.Trainer
}

func (Begin) serverMessage() {}

// StartSelecting opens a turn. Own is the observer's side, unmasked;
// Opponent is masked. Spectators get both sides masked.
type StartSelecting struct {
	Turn     int
	Own      party.PartyView
	Opponent party.PartyView
}

func (StartSelecting) serverMessage() {}

// Queued is one entry of the resolved turn order.
type Queued struct {
	Actor party.PokemonIndex
	Move  party.BattleMove
}

// TurnQueue announces the resolved order of the turn's actions.
type TurnQueue struct {
	Turn  int
	Queue []Queued
}

func (TurnQueue) serverMessage() {}

// Outcome carries one executed action. Outcomes arrive in execution order.
type Outcome struct {
	Turn   int
	Seq    int
	Action ActionInstance
}

func (Outcome) serverMessage() {}

// EndTurnQueue marks the last Outcome of a turn.
type EndTurnQueue struct {
	Turn int
}

func (EndTurnQueue) serverMessage() {}

// RequestReplace asks a side to refill its empty slots.
type RequestReplace struct {
	Slots []int
	Own   party.PartyView
}

func (RequestReplace) serverMessage() {}

// Replaced reports a roster member sent into an empty slot.
type Replaced struct {
	Index  party.PokemonIndex
	Roster int
	Name   string
}

func (Replaced) serverMessage() {}

// EndReason describes why a battle ended.
type EndReason int

const (
	EndDefeat     EndReason = iota // one side's roster fainted
	EndForfeit                     // a side gave up
	EndDisconnect                  // a side's client went away
	EndTimeout                     // a side's client stalled
)

func (r EndReason) String() string {
	switch r {
	case EndDefeat:
		return "defeat"
	case EndForfeit:
		return "forfeit"
	case EndDisconnect:
		return "disconnect"
	case EndTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// End is the last message of a battle.
type End struct {
	Winner party.TeamID
	Reason EndReason
	Turns  int
}

func (End) serverMessage() {}

// ClientMessage is sent from an observer to the battle.
type ClientMessage interface {
	clientMessage()
}

// SelectAction chooses the action for one of the observer's active slots.
type SelectAction struct {
	Slot int
	Move party.BattleMove
}

func (SelectAction) clientMessage() {}

// FaintReplace answers RequestReplace for one empty slot.
type FaintReplace struct {
	Slot   int
	Roster int
}

func (FaintReplace) clientMessage() {}

// Forfeit gives up the battle.
type Forfeit struct{}

func (Forfeit) clientMessage() {}

// FinishedTurnQueue acknowledges that every Outcome of the turn has been
// consumed.
type FinishedTurnQueue struct{}

func (FinishedTurnQueue) clientMessage() {}
