// Package protocol is the message contract between an authoritative battle
// and its observers (a terminal renderer, an AI, a spectator). The battle
// reports what happened; observers never re-derive game logic.
package protocol

import (
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/stats"
)

// ClientMove is one indivisible reported effect of an action.
type ClientMove interface {
	clientMove()
}

// Miss reports that the action missed this target.
type Miss struct{}

func (Miss) clientMove() {}

// TargetHP reports the target's remaining HP as a fraction of max HP.
type TargetHP struct {
	Fraction float64
}

func (TargetHP) clientMove() {}

// UserHP reports the user's remaining HP (recoil, drain, residual damage).
type UserHP struct {
	Fraction float64
}

func (UserHP) clientMove() {}

// Effective reports a type matchup other than neutral.
type Effective struct {
	Tier Effectiveness
}

func (Effective) clientMove() {}

// Critical reports a critical hit.
type Critical struct{}

func (Critical) clientMove() {}

// StatStage reports an applied stage change. Delta is 0 when the stat was
// already at its bound.
type StatStage struct {
	Stat  stats.StageStat
	Delta int8
	Self  bool
}

func (StatStage) clientMove() {}

// Faint reports that a combatant fainted and left its slot.
type Faint struct {
	Index party.PokemonIndex
}

func (Faint) clientMove() {}

// GainExp reports experience gained by an active combatant.
type GainExp struct {
	Index  party.PokemonIndex
	Amount int
}

func (GainExp) clientMove() {}

// LevelUp reports a level reached after gaining experience.
type LevelUp struct {
	Index party.PokemonIndex
	Level int
}

func (LevelUp) clientMove() {}

// StatusChange reports a status inflicted on (or cured from) a combatant.
type StatusChange struct {
	Status dex.Status
}

func (StatusChange) clientMove() {}

// Fail reports that the action had no effect on this target.
type Fail struct{}

func (Fail) clientMove() {}

// Effectiveness is the reported tier of a type matchup.
type Effectiveness int

const (
	Normal Effectiveness = iota
	NoEffect
	NotVeryEffective
	SuperEffective
)

// EffectivenessOf maps a chart multiplier to its tier.
func EffectivenessOf(mult float64) Effectiveness {
	switch {
	case mult == 0:
		return NoEffect
	case mult < 1:
		return NotVeryEffective
	case mult > 1:
		return SuperEffective
	default:
		return Normal
	}
}

func (e Effectiveness) String() string {
	switch e {
	case NoEffect:
		return "It had no effect"
	case NotVeryEffective:
		return "It's not very effective"
	case SuperEffective:
		return "It's super effective!"
	default:
		return ""
	}
}

// TargetOutcome is the ordered list of atoms produced for one target.
type TargetOutcome struct {
	Target party.PokemonIndex
	Atoms  []ClientMove
}

// BattleClientAction is the outcome record of one executed action.
// Immutable once produced.
type BattleClientAction interface {
	clientAction()
}

// ClientMoveAction is the outcome of a move, with atoms per target.
type ClientMoveAction struct {
	Move    string
	Targets []TargetOutcome
}

func (ClientMoveAction) clientAction() {}

// ClientSwitchAction reports a roster member replacing the acting slot's
// occupant.
type ClientSwitchAction struct {
	From int
	To   int
	Name string
}

func (ClientSwitchAction) clientAction() {}

// ClientItemAction reports an item used on a roster member.
type ClientItemAction struct {
	Item   string
	Target int
	Atoms  []ClientMove
}

func (ClientItemAction) clientAction() {}

// ClientStatusAction reports a status condition acting on the actor before
// its move: Blocked when it could not move, otherwise the status wore off.
type ClientStatusAction struct {
	Status  dex.Status
	Blocked bool
}

func (ClientStatusAction) clientAction() {}

// ClientResidualAction reports end-of-turn damage from a status condition.
type ClientResidualAction struct {
	Status dex.Status
	Atoms  []ClientMove
}

func (ClientResidualAction) clientAction() {}

// ActionInstance pairs an outcome with the combatant that caused it.
type ActionInstance struct {
	Actor  party.PokemonIndex
	Action BattleClientAction
}
