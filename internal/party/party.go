package party

import (
	"errors"
	"fmt"
	"sort"
)

// Activation errors.
var (
	ErrInvalidRoster = errors.New("party: roster index out of range")
	ErrInvalidSlot   = errors.New("party: active slot out of range")
	ErrFainted       = errors.New("party: combatant has fainted")
	ErrAlreadyActive = errors.New("party: combatant is already active")
)

// Trainer describes the controlling trainer of a party, when there is one.
// Sprite and Transition are presentation hints passed through untouched.
type Trainer struct {
	Name       string `yaml:"name"`
	Worth      int    `yaml:"worth"`
	Badge      string `yaml:"badge,omitempty"`
	Sprite     string `yaml:"sprite,omitempty"`
	Transition string `yaml:"transition,omitempty"`
}

// ActivePokemon is an occupied active slot: the roster member in it and the
// action it has chosen for this turn, if any. An empty slot is a nil
// *ActivePokemon.
type ActivePokemon struct {
	Roster  int
	Pending BattleMove
}

// BattleParty is one side of a battle.
type BattleParty struct {
	ID      TeamID
	Trainer *Trainer
	Active  []*ActivePokemon
	Roster  []*BattlePartyPokemon
	Bag     map[string]int
}

// New builds a party with slots active positions, filled from the front of
// the roster with combatants that have not fainted.
func New(id TeamID, trainer *Trainer, slots int, roster []*BattlePartyPokemon) *BattleParty {
	p := &BattleParty{
		ID:      id,
		Trainer: trainer,
		Active:  make([]*ActivePokemon, max(slots, 1)),
		Roster:  roster,
		Bag:     make(map[string]int),
	}
	slot := 0
	for i := range roster {
		if slot >= len(p.Active) {
			break
		}
		if err := p.Activate(slot, i); err == nil {
			slot++
		}
	}
	return p
}

// Name returns the trainer name or the team ID.
func (p *BattleParty) Name() string {
	if p.Trainer != nil && p.Trainer.Name != "" {
		return p.Trainer.Name
	}
	return string(p.ID)
}

// Index returns the PokemonIndex of an active slot.
func (p *BattleParty) Index(slot int) PokemonIndex {
	return PokemonIndex{Team: p.ID, Index: slot}
}

// Activate puts the roster member into an active slot. The roster index must
// be valid, not fainted and not already active in another slot.
func (p *BattleParty) Activate(slot, roster int) error {
	if slot < 0 || slot >= len(p.Active) {
		return ErrInvalidSlot
	}
	if roster < 0 || roster >= len(p.Roster) {
		return ErrInvalidRoster
	}
	if p.Roster[roster].Fainted() {
		return ErrFainted
	}
	for i, a := range p.Active {
		if a != nil && a.Roster == roster && i != slot {
			return ErrAlreadyActive
		}
	}
	if cur := p.Active[slot]; cur != nil {
		p.Roster[cur.Roster].LeaveField()
	}
	p.Active[slot] = &ActivePokemon{Roster: roster}
	return nil
}

// Clear empties an active slot.
func (p *BattleParty) Clear(slot int) {
	if slot < 0 || slot >= len(p.Active) {
		return
	}
	if cur := p.Active[slot]; cur != nil {
		p.Roster[cur.Roster].LeaveField()
	}
	p.Active[slot] = nil
}

// At returns the combatant in an active slot.
func (p *BattleParty) At(slot int) (*BattlePartyPokemon, bool) {
	if slot < 0 || slot >= len(p.Active) || p.Active[slot] == nil {
		return nil, false
	}
	return p.Roster[p.Active[slot].Roster], true
}

// SlotOf returns the active slot holding a roster member.
func (p *BattleParty) SlotOf(roster int) (int, bool) {
	for i, a := range p.Active {
		if a != nil && a.Roster == roster {
			return i, true
		}
	}
	return 0, false
}

// OccupiedSlots returns the positions of non-empty active slots.
func (p *BattleParty) OccupiedSlots() []int {
	var out []int
	for i, a := range p.Active {
		if a != nil {
			out = append(out, i)
		}
	}
	return out
}

// EmptySlots returns the positions of empty active slots.
func (p *BattleParty) EmptySlots() []int {
	var out []int
	for i, a := range p.Active {
		if a == nil {
			out = append(out, i)
		}
	}
	return out
}

// Bench returns roster members that could be sent in: alive and not active.
func (p *BattleParty) Bench() []int {
	var out []int
	for i, mon := range p.Roster {
		if mon.Fainted() {
			continue
		}
		if _, active := p.SlotOf(i); active {
			continue
		}
		out = append(out, i)
	}
	return out
}

// AllFainted reports whether every roster member has fainted.
func (p *BattleParty) AllFainted() bool {
	for _, mon := range p.Roster {
		if !mon.Fainted() {
			return false
		}
	}
	return true
}

// NeedsReplacement reports whether an empty slot could be refilled.
func (p *BattleParty) NeedsReplacement() bool {
	return len(p.EmptySlots()) > 0 && len(p.Bench()) > 0
}

// AddItem puts count copies of an item in the bag.
func (p *BattleParty) AddItem(id string, count int) {
	if count <= 0 {
		return
	}
	p.Bag[id] += count
}

// HasItem reports whether the bag holds at least one of an item.
func (p *BattleParty) HasItem(id string) bool {
	return p.Bag[id] > 0
}

// TakeItem removes one item from the bag.
func (p *BattleParty) TakeItem(id string) bool {
	if p.Bag[id] <= 0 {
		return false
	}
	p.Bag[id]--
	if p.Bag[id] == 0 {
		delete(p.Bag, id)
	}
	return true
}

// ClearPending drops every slot's chosen action.
func (p *BattleParty) ClearPending() {
	for _, a := range p.Active {
		if a != nil {
			a.Pending = nil
		}
	}
}

// ReadyToResolve reports whether every occupied slot has chosen an action.
func (p *BattleParty) ReadyToResolve() bool {
	for _, a := range p.Active {
		if a != nil && a.Pending == nil {
			return false
		}
	}
	return true
}

// Validate checks a submitted action for the given slot against the
// current party state. It is used both when accepting client submissions
// and when executing a queued action.
func (p *BattleParty) Validate(slot int, move BattleMove) error {
	mon, ok := p.At(slot)
	if !ok {
		return ErrInvalidSlot
	}
	switch m := move.(type) {
	case MoveAction:
		if m.Slot == StruggleSlot {
			if len(mon.UsableMoves()) > 0 {
				return fmt.Errorf("party: %s still has moves to use", mon.Name())
			}
			return nil
		}
		if m.Slot < 0 || m.Slot >= len(mon.Moves) {
			return fmt.Errorf("party: move slot %d out of range", m.Slot)
		}
		if mon.Moves[m.Slot].PP <= 0 {
			return fmt.Errorf("party: %s has no PP left", mon.Moves[m.Slot].Move.ID)
		}
	case ItemAction:
		if !p.HasItem(m.Item) {
			return fmt.Errorf("party: no %s in bag", m.Item)
		}
		if m.Target < 0 || m.Target >= len(p.Roster) {
			return ErrInvalidRoster
		}
	case SwitchAction:
		if m.Roster < 0 || m.Roster >= len(p.Roster) {
			return ErrInvalidRoster
		}
		if p.Roster[m.Roster].Fainted() {
			return ErrFainted
		}
		if _, active := p.SlotOf(m.Roster); active {
			return ErrAlreadyActive
		}
	default:
		return fmt.Errorf("party: unknown action %T", move)
	}
	return nil
}

// BagItems returns bag entries sorted by item ID.
func (p *BattleParty) BagItems() []BagEntry {
	out := make([]BagEntry, 0, len(p.Bag))
	for id, n := range p.Bag {
		out = append(out, BagEntry{Item: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Item < out[j].Item
	})
	return out
}

// BagEntry is one line of the bag.
type BagEntry struct {
	Item  string
	Count int
}
