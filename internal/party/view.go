package party

import "github.com/vovakirdan/pokebattle/internal/dex"

// MoveView is a copy of one known move for observers.
type MoveView struct {
	ID       string
	Name     string
	Type     dex.Type
	Category dex.Category
	Target   dex.TargetKind
	PP       int
	MaxPP    int
}

// PokemonView is a copy of one roster member for observers.
type PokemonView struct {
	Roster  int
	Species string
	Name    string
	Types   []dex.Type
	Level   int
	HP      int
	MaxHP   int
	Status  dex.Status
	Fainted bool
	// Hidden is set for benched opponents that have not been revealed.
	Hidden bool
	Moves  []MoveView
}

// HPFraction returns HP as a fraction of MaxHP.
func (v PokemonView) HPFraction() float64 {
	if v.MaxHP <= 0 {
		return 0
	}
	return float64(v.HP) / float64(v.MaxHP)
}

// PartyView is what an observer is allowed to know about one side.
// Slots maps each active slot to a roster position, -1 when empty.
type PartyView struct {
	ID      TeamID
	Name    string
	Trainer bool
	Slots   []int
	Roster  []PokemonView
	Bag     []BagEntry
}

// Active returns the view of the combatant in slot.
func (v PartyView) Active(slot int) (PokemonView, bool) {
	if slot < 0 || slot >= len(v.Slots) || v.Slots[slot] < 0 {
		return PokemonView{}, false
	}
	return v.Roster[v.Slots[slot]], true
}

// View copies the party for an observer. With masked set (the opponent's
// side) moves, bag and benched combatants are hidden and HP is reported in
// percent.
func (p *BattleParty) View(masked bool) PartyView {
	v := PartyView{
		ID:      p.ID,
		Name:    p.Name(),
		Trainer: p.Trainer != nil,
		Slots:   make([]int, len(p.Active)),
		Roster:  make([]PokemonView, len(p.Roster)),
	}
	for i, a := range p.Active {
		v.Slots[i] = -1
		if a != nil {
			v.Slots[i] = a.Roster
		}
	}

	for i, mon := range p.Roster {
		_, active := p.SlotOf(i)
		pv := PokemonView{
			Roster:  i,
			Species: mon.Species.ID,
			Name:    mon.Name(),
			Types:   append([]dex.Type(nil), mon.Species.Types...),
			Level:   mon.Level,
			HP:      mon.HP,
			MaxHP:   mon.MaxHP(),
			Status:  mon.Status,
			Fainted: mon.Fainted(),
		}
		if masked {
			pv.HP = int(mon.HPFraction() * 100)
			if pv.HP == 0 && mon.HP > 0 {
				pv.HP = 1
			}
			pv.MaxHP = 100
			if !active && !mon.Fainted() {
				pv = PokemonView{Roster: i, Hidden: true}
			}
		} else {
			for _, m := range mon.Moves {
				pv.Moves = append(pv.Moves, MoveView{
					ID:       m.Move.ID,
					Name:     m.Move.Name,
					Type:     m.Move.Type,
					Category: m.Move.Category,
					Target:   m.Move.Target,
					PP:       m.PP,
					MaxPP:    m.MaxPP,
				})
			}
		}
		v.Roster[i] = pv
	}

	if !masked {
		v.Bag = p.BagItems()
	}
	return v
}
