// Package multiplayer hosts battles for connected sessions: matches against
// the computer, lobbies that pair two players by join code, and spectators.
// It knows nothing about SSH or Bubble Tea; sessions are reached through
// SessionHandle and battles through protocol.LocalClient.
package multiplayer

import (
	"maps"

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// SessionID uniquely identifies a player's session (e.g., SSH connection).
type SessionID string

// MatchID uniquely identifies a hosted battle.
type MatchID string

// MatchMode defines who is on the other side.
type MatchMode int

const (
	// MatchModeVsCPU pits one session against the AI.
	MatchModeVsCPU MatchMode = iota

	// MatchModeOnlinePvP pits two sessions against each other.
	MatchModeOnlinePvP
)

// String returns a human-readable name for the match mode.
func (m MatchMode) String() string {
	switch m {
	case MatchModeVsCPU:
		return "vs CPU"
	case MatchModeOnlinePvP:
		return "Online PvP"
	default:
		return "Unknown"
	}
}

// CPUTeam is the team ID of the computer side in a MatchModeVsCPU battle.
const CPUTeam party.TeamID = "cpu"

// Team is what a session brings into a battle.
type Team struct {
	Trainer     *party.Trainer
	Party       []party.SavedPokemon
	Bag         map[string]int
	ActiveSlots int
	CanGainExp  bool
}

// entry turns the team into a battle entry under the given ID.
func (t Team) entry(id party.TeamID, client protocol.BattleClient) battle.BattleEntry {
	return battle.BattleEntry{
		ID:          id,
		Party:       append([]party.SavedPokemon(nil), t.Party...),
		Trainer:     t.Trainer,
		ActiveSlots: t.ActiveSlots,
		Bag:         maps.Clone(t.Bag),
		Client:      client,
		Settings:    battle.Settings{CanGainExp: t.CanGainExp},
	}
}
