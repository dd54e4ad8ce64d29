// Package battle drives one battle between two sides. A Battle is a
// synchronous step function: call Start once, then Update once per tick.
// Observers talk to it only through protocol.BattleClient.
package battle

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pokebattle/internal/engine"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// Kind is the type of battle, derived from the second entry's trainer.
type Kind int

const (
	// KindWild is a battle against an untrained combatant.
	KindWild Kind = iota

	// KindTrainer is a battle against a trainer. Winning pays its worth.
	KindTrainer

	// KindGymLeader is a trainer battle that also awards a badge.
	KindGymLeader
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindWild:
		return "wild"
	case KindTrainer:
		return "trainer"
	case KindGymLeader:
		return "gym"
	default:
		return "unknown"
	}
}

// KindOf classifies a battle by the opposing trainer.
func KindOf(opponent *party.Trainer) Kind {
	switch {
	case opponent == nil:
		return KindWild
	case opponent.Badge != "":
		return KindGymLeader
	default:
		return KindTrainer
	}
}

// Settings are per-side switches.
type Settings struct {
	// CanGainExp lets this side's combatants earn experience.
	CanGainExp bool
}

// BattleEntry is one side as handed over by the surrounding game.
// A nil Client leaves the side uncontrolled: its actions are always
// chosen by DefaultAction.
type BattleEntry struct {
	ID          party.TeamID
	Party       []party.SavedPokemon
	Trainer     *party.Trainer
	ActiveSlots int
	Bag         map[string]int
	Client      protocol.BattleClient
	Settings    Settings
}

// Options configures a battle.
type Options struct {
	// ID names the battle. A random UUID is used when empty.
	ID string

	// SelectTimeout bounds action selection and faint replacement. Slots
	// still unset when it runs out get a default action. Zero waits forever.
	SelectTimeout time.Duration

	// AckTimeout bounds how long the battle waits for FinishedTurnQueue.
	// A stalled side forfeits; a stalled spectator is dropped. Zero waits
	// forever.
	AckTimeout time.Duration

	// Seed seeds the battle's random source when RNG is nil.
	Seed int64

	// RNG overrides the random source.
	RNG engine.RNG

	// Logger receives battle events. Nil discards them.
	Logger *log.Logger
}
