// Package engine resolves a turn: it orders every submitted action and then
// executes them one at a time, producing the outcome records observers
// consume. It owns no goroutines and never blocks.
package engine

import (
	"github.com/vovakirdan/pokebattle/internal/party"
)

// RNG is the randomness the engine draws from. *rand.Rand satisfies it;
// tests use scripted implementations.
type RNG interface {
	Intn(n int) int
}

// Field is the two parties in battle plus the settings the engine needs.
type Field struct {
	Sides [2]*party.BattleParty

	// Trainer is set for trainer and gym battles (experience bonus).
	Trainer bool

	// CanGainExp lists the teams whose combatants earn experience.
	CanGainExp map[party.TeamID]bool
}

// NewField creates a field for two parties.
func NewField(a, b *party.BattleParty) *Field {
	return &Field{
		Sides:      [2]*party.BattleParty{a, b},
		CanGainExp: make(map[party.TeamID]bool),
	}
}

// Party returns the party with the given ID.
func (f *Field) Party(team party.TeamID) *party.BattleParty {
	for _, p := range f.Sides {
		if p.ID == team {
			return p
		}
	}
	return nil
}

// Opponent returns the party facing team.
func (f *Field) Opponent(team party.TeamID) *party.BattleParty {
	if f.Sides[0].ID == team {
		return f.Sides[1]
	}
	return f.Sides[0]
}

// Combatant returns the occupant of an active slot.
func (f *Field) Combatant(idx party.PokemonIndex) (*party.BattlePartyPokemon, bool) {
	p := f.Party(idx.Team)
	if p == nil {
		return nil, false
	}
	return p.At(idx.Index)
}

// Active returns every occupied slot on the field in PokemonIndex order.
func (f *Field) Active() []party.PokemonIndex {
	var out []party.PokemonIndex
	for _, p := range f.Sides {
		for _, slot := range p.OccupiedSlots() {
			out = append(out, p.Index(slot))
		}
	}
	sortIndices(out)
	return out
}
