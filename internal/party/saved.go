package party

import (
	"fmt"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/stats"
)

// StatValues is the YAML/JSON form of a StatSet.
type StatValues struct {
	HP        int `yaml:"hp" json:"hp"`
	Attack    int `yaml:"attack" json:"attack"`
	Defense   int `yaml:"defense" json:"defense"`
	SpAttack  int `yaml:"sp_attack" json:"sp_attack"`
	SpDefense int `yaml:"sp_defense" json:"sp_defense"`
	Speed     int `yaml:"speed" json:"speed"`
}

// Set converts to a StatSet.
func (v StatValues) Set() stats.StatSet {
	return stats.StatSet{v.HP, v.Attack, v.Defense, v.SpAttack, v.SpDefense, v.Speed}
}

func statValues(s stats.StatSet) StatValues {
	return StatValues{
		HP: s[stats.HP], Attack: s[stats.Attack], Defense: s[stats.Defense],
		SpAttack: s[stats.SpAttack], SpDefense: s[stats.SpDefense], Speed: s[stats.Speed],
	}
}

// SavedMove is a known move as stored outside battle. A nil PP means full.
type SavedMove struct {
	ID string `yaml:"id" json:"id"`
	PP *int   `yaml:"pp,omitempty" json:"pp,omitempty"`
}

// SavedPokemon is the owned form of a combatant, as the surrounding game
// stores it. Nil HP means full health; an empty move list takes the latest
// moves from the species learnset.
type SavedPokemon struct {
	Species  string      `yaml:"species" json:"species"`
	Nickname string      `yaml:"nickname,omitempty" json:"nickname,omitempty"`
	Level    int         `yaml:"level" json:"level"`
	Exp      int         `yaml:"exp,omitempty" json:"exp,omitempty"`
	IVs      StatValues  `yaml:"ivs" json:"ivs"`
	EVs      StatValues  `yaml:"evs" json:"evs"`
	Nature   string      `yaml:"nature,omitempty" json:"nature,omitempty"`
	HP       *int        `yaml:"hp,omitempty" json:"hp,omitempty"`
	Moves    []SavedMove `yaml:"moves,omitempty" json:"moves,omitempty"`
	Item     string      `yaml:"item,omitempty" json:"item,omitempty"`
	Status   string      `yaml:"status,omitempty" json:"status,omitempty"`
}

// Assemble resolves a saved combatant against the registry. Any unknown
// species, move, item or nature is reported as a *dex.LookupError.
func Assemble(reg *dex.Registry, saved SavedPokemon) (*BattlePartyPokemon, error) {
	species, err := reg.Species(saved.Species)
	if err != nil {
		return nil, err
	}

	nature, ok := stats.NatureByName(saved.Nature)
	if !ok {
		return nil, &dex.LookupError{Kind: dex.KindNature, ID: saved.Nature}
	}

	status, err := dex.ParseStatus(saved.Status)
	if err != nil {
		return nil, fmt.Errorf("party: %s: %w", saved.Species, err)
	}

	level := min(max(saved.Level, 1), MaxLevel)
	p := &BattlePartyPokemon{
		Species:  species,
		Nickname: saved.Nickname,
		Level:    level,
		Exp:      max(saved.Exp, ExpForLevel(level)),
		IVs:      saved.IVs.Set(),
		EVs:      saved.EVs.Set(),
		Nature:   nature,
		Status:   status,
	}
	p.Stats = stats.Compute(species.Base, p.IVs, p.EVs, p.Level, p.Nature)
	p.HP = p.MaxHP()
	if saved.HP != nil {
		p.HP = min(max(*saved.HP, 0), p.MaxHP())
	}
	if p.Status == dex.StatusSleep {
		p.SleepTurns = 2
	}

	if saved.Item != "" {
		item, err := reg.Item(saved.Item)
		if err != nil {
			return nil, err
		}
		p.Item = item
	}

	moves := saved.Moves
	if len(moves) == 0 {
		learn := species.Learnset
		if len(learn) > MaxMoves {
			learn = learn[len(learn)-MaxMoves:]
		}
		for _, id := range learn {
			moves = append(moves, SavedMove{ID: id})
		}
	}
	if len(moves) > MaxMoves {
		return nil, fmt.Errorf("party: %s knows %d moves, max is %d", saved.Species, len(moves), MaxMoves)
	}
	for _, sm := range moves {
		move, err := reg.Move(sm.ID)
		if err != nil {
			return nil, err
		}
		slot := MoveSlot{Move: move, PP: move.PP, MaxPP: move.PP}
		if sm.PP != nil {
			slot.PP = min(max(*sm.PP, 0), move.PP)
		}
		p.Moves = append(p.Moves, slot)
	}

	return p, nil
}

// AssembleAll resolves a whole roster, stopping at the first bad reference.
func AssembleAll(reg *dex.Registry, saved []SavedPokemon) ([]*BattlePartyPokemon, error) {
	out := make([]*BattlePartyPokemon, 0, len(saved))
	for i, s := range saved {
		p, err := Assemble(reg, s)
		if err != nil {
			return nil, fmt.Errorf("party: roster slot %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Save converts the combatant back to its owned form.
func (p *BattlePartyPokemon) Save() SavedPokemon {
	hp := p.HP
	s := SavedPokemon{
		Species:  p.Species.ID,
		Nickname: p.Nickname,
		Level:    p.Level,
		Exp:      p.Exp,
		IVs:      statValues(p.IVs),
		EVs:      statValues(p.EVs),
		Nature:   p.Nature.Name,
		HP:       &hp,
	}
	if p.Status != dex.StatusNone {
		s.Status = p.Status.String()
	}
	if p.Item != nil {
		s.Item = p.Item.ID
	}
	for _, m := range p.Moves {
		pp := m.PP
		s.Moves = append(s.Moves, SavedMove{ID: m.Move.ID, PP: &pp})
	}
	return s
}
