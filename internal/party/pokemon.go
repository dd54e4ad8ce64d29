package party

import (
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/stats"
)

// MaxMoves is the number of moves a combatant can know.
const MaxMoves = 4

// MaxLevel caps experience growth.
const MaxLevel = 100

// MoveSlot is one known move and its remaining uses.
type MoveSlot struct {
	Move  *dex.Move
	PP    int
	MaxPP int
}

// BattlePartyPokemon is one combatant in a roster. A fainted combatant stays
// in the roster with HP 0.
type BattlePartyPokemon struct {
	Species  *dex.Species
	Nickname string
	Level    int
	Exp      int
	IVs      stats.StatSet
	EVs      stats.StatSet
	Nature   stats.Nature
	Stats    stats.StatSet
	HP       int
	Moves    []MoveSlot
	Item     *dex.Item
	Status   dex.Status

	// SleepTurns counts down while Status is sleep.
	SleepTurns int
	// Stages reset whenever the combatant leaves the field.
	Stages stats.Stages
}

// Name returns the nickname, falling back to the species name.
func (p *BattlePartyPokemon) Name() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Species.Name
}

// MaxHP returns the computed maximum HP.
func (p *BattlePartyPokemon) MaxHP() int {
	return p.Stats[stats.HP]
}

// Fainted reports whether HP has reached 0.
func (p *BattlePartyPokemon) Fainted() bool {
	return p.HP <= 0
}

// HPFraction returns current HP as a fraction of max HP in [0, 1].
func (p *BattlePartyPokemon) HPFraction() float64 {
	maxHP := p.MaxHP()
	if maxHP <= 0 {
		return 0
	}
	return float64(p.HP) / float64(maxHP)
}

// Damage lowers HP by amount, never below 0, and returns the HP lost.
func (p *BattlePartyPokemon) Damage(amount int) int {
	if amount <= 0 || p.HP <= 0 {
		return 0
	}
	lost := min(amount, p.HP)
	p.HP -= lost
	return lost
}

// Heal raises HP by amount, never above max HP, and returns the HP gained.
// Fainted combatants cannot be healed.
func (p *BattlePartyPokemon) Heal(amount int) int {
	if amount <= 0 || p.Fainted() {
		return 0
	}
	gained := min(amount, p.MaxHP()-p.HP)
	p.HP += gained
	return gained
}

// Stat returns a battle stat with its current stage applied.
func (p *BattlePartyPokemon) Stat(stat stats.StatType) int {
	if stat == stats.HP {
		return p.HP
	}
	return stats.StageMultiply(p.Stats[stat], p.Stages.Get(stats.StageFor(stat)))
}

// Speed returns the stage-modified speed, halved under paralysis.
func (p *BattlePartyPokemon) Speed() int {
	s := p.Stat(stats.Speed)
	if p.Status == dex.StatusParalysis {
		s /= 2
	}
	return s
}

// HasType reports whether the combatant's species carries t.
func (p *BattlePartyPokemon) HasType(t dex.Type) bool {
	return p.Species.HasType(t)
}

// UsableMoves returns the move slots with PP left.
func (p *BattlePartyPokemon) UsableMoves() []int {
	var out []int
	for i, m := range p.Moves {
		if m.PP > 0 {
			out = append(out, i)
		}
	}
	return out
}

// Recompute rebuilds Stats from species, IVs, EVs, level and nature. Damage
// already taken carries over, so a level up raises current HP by the same
// amount as max HP.
func (p *BattlePartyPokemon) Recompute() {
	oldMax := p.MaxHP()
	p.Stats = stats.Compute(p.Species.Base, p.IVs, p.EVs, p.Level, p.Nature)
	if oldMax > 0 && !p.Fainted() {
		p.HP += p.MaxHP() - oldMax
	}
	if p.HP > p.MaxHP() {
		p.HP = p.MaxHP()
	}
}

// ExpForLevel returns the total experience needed to reach level on the
// medium-fast curve.
func ExpForLevel(level int) int {
	return level * level * level
}

// GainExp adds experience and returns each level reached along the way.
// Stats are recomputed after every level.
func (p *BattlePartyPokemon) GainExp(amount int) []int {
	if amount <= 0 || p.Level >= MaxLevel {
		return nil
	}
	p.Exp += amount

	var levels []int
	for p.Level < MaxLevel && p.Exp >= ExpForLevel(p.Level+1) {
		p.Level++
		p.Recompute()
		levels = append(levels, p.Level)
	}
	return levels
}

// LeaveField clears state that only lasts while active.
func (p *BattlePartyPokemon) LeaveField() {
	p.Stages.Reset()
}
