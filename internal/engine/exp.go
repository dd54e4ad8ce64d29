package engine

import (
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// ExpYield returns the experience a fainted combatant gives each opposing
// active combatant.
func ExpYield(fainted *party.BattlePartyPokemon, trainer bool) int {
	amount := fainted.Species.ExpYield * fainted.Level / 7
	if trainer {
		amount = amount * 3 / 2
	}
	return max(amount, 1)
}

func (p *Pipeline) awardExp(faintedTeam party.TeamID, fainted *party.BattlePartyPokemon) []protocol.ClientMove {
	winners := p.field.Opponent(faintedTeam)
	if !p.field.CanGainExp[winners.ID] {
		return nil
	}

	amount := ExpYield(fainted, p.field.Trainer)
	var atoms []protocol.ClientMove
	for _, slot := range winners.OccupiedSlots() {
		mon, _ := winners.At(slot)
		if mon.Fainted() || mon.Level >= party.MaxLevel {
			continue
		}
		idx := winners.Index(slot)
		atoms = append(atoms, protocol.GainExp{Index: idx, Amount: amount})
		for _, level := range mon.GainExp(amount) {
			atoms = append(atoms, protocol.LevelUp{Index: idx, Level: level})
		}
	}
	return atoms
}
