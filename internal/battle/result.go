package battle

import (
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// SaveRecord is the slice of a save game a battle is allowed to change.
type SaveRecord interface {
	// SetPokemon replaces the stored party with its post-battle state.
	SetPokemon(team []party.SavedPokemon)

	// AddMoney pays prize money.
	AddMoney(amount int)

	// AddBadge awards a badge.
	AddBadge(badge string)
}

// Result is how a battle ended. An empty Winner is a draw.
type Result struct {
	BattleID string
	Kind     Kind
	Winner   party.TeamID
	Loser    party.TeamID
	Reason   protocol.EndReason
	Turns    int

	// Parties holds every side's roster as it stood at the end.
	Parties map[party.TeamID][]party.SavedPokemon

	// Trainers holds each side's trainer, nil for wild combatants.
	Trainers map[party.TeamID]*party.Trainer
}

// Draw reports whether nobody won.
func (r *Result) Draw() bool {
	return r.Winner == ""
}

// Prize returns the money the winner earns: the beaten trainer's worth.
func (r *Result) Prize() int {
	if r.Draw() {
		return 0
	}
	if t := r.Trainers[r.Loser]; t != nil {
		return t.Worth
	}
	return 0
}

// Badge returns the badge the winner earns, if any.
func (r *Result) Badge() string {
	if r.Draw() {
		return ""
	}
	if t := r.Trainers[r.Loser]; t != nil {
		return t.Badge
	}
	return ""
}

// ApplyTo writes the battle's consequences for team into rec: the party's
// post-battle state always, and prize money and badge when team won.
func (r *Result) ApplyTo(team party.TeamID, rec SaveRecord) {
	if saved, ok := r.Parties[team]; ok {
		rec.SetPokemon(saved)
	}
	if r.Winner != team {
		return
	}
	if prize := r.Prize(); prize > 0 {
		rec.AddMoney(prize)
	}
	if badge := r.Badge(); badge != "" {
		rec.AddBadge(badge)
	}
}

func saveParty(p *party.BattleParty) []party.SavedPokemon {
	out := make([]party.SavedPokemon, len(p.Roster))
	for i, mon := range p.Roster {
		out[i] = mon.Save()
	}
	return out
}
