package dex

import (
	"fmt"
	"sort"
)

// LookupKind names the table a failed lookup was made against.
type LookupKind string

const (
	KindSpecies LookupKind = "species"
	KindMove    LookupKind = "move"
	KindItem    LookupKind = "item"
	KindType    LookupKind = "type"
	KindNature  LookupKind = "nature"
)

// LookupError reports a reference to data that the registry does not hold.
// Battles surface it at construction, never mid-turn.
type LookupError struct {
	Kind LookupKind
	ID   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("dex: unknown %s %q", e.Kind, e.ID)
}

// Registry is the constructed-once dictionary of battle data.
// It is not safe for concurrent mutation; build it fully, then share it.
type Registry struct {
	species map[string]*Species
	moves   map[string]*Move
	items   map[string]*Item
	types   map[Type]bool
	chart   map[Type]map[Type]float64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		species: make(map[string]*Species),
		moves:   make(map[string]*Move),
		items:   make(map[string]*Item),
		types:   make(map[Type]bool),
		chart:   make(map[Type]map[Type]float64),
	}
}

// AddType declares a type. Unlisted chart entries default to neutral.
func (r *Registry) AddType(t Type) {
	r.types[t] = true
}

// SetEffectiveness records the multiplier of an attacking type against a
// defending type. Both types are declared as a side effect.
func (r *Registry) SetEffectiveness(attack, defend Type, mult float64) {
	r.types[attack] = true
	r.types[defend] = true
	row, ok := r.chart[attack]
	if !ok {
		row = make(map[Type]float64)
		r.chart[attack] = row
	}
	row[defend] = mult
}

// Effectiveness returns the combined multiplier of attack against every
// defending type.
func (r *Registry) Effectiveness(attack Type, defend []Type) float64 {
	mult := 1.0
	row := r.chart[attack]
	for _, d := range defend {
		if m, ok := row[d]; ok {
			mult *= m
		}
	}
	return mult
}

// AddSpecies registers a species. Panics on a duplicate ID, like a double
// registration of anything else in a registry.
func (r *Registry) AddSpecies(s Species) {
	if _, exists := r.species[s.ID]; exists {
		panic(fmt.Sprintf("dex: species %q already registered", s.ID))
	}
	r.species[s.ID] = &s
}

// AddMove registers a move.
func (r *Registry) AddMove(m Move) {
	if _, exists := r.moves[m.ID]; exists {
		panic(fmt.Sprintf("dex: move %q already registered", m.ID))
	}
	r.moves[m.ID] = &m
}

// AddItem registers an item.
func (r *Registry) AddItem(it Item) {
	if _, exists := r.items[it.ID]; exists {
		panic(fmt.Sprintf("dex: item %q already registered", it.ID))
	}
	r.items[it.ID] = &it
}

// Species looks up a species by ID.
func (r *Registry) Species(id string) (*Species, error) {
	s, ok := r.species[id]
	if !ok {
		return nil, &LookupError{Kind: KindSpecies, ID: id}
	}
	return s, nil
}

// Move looks up a move by ID.
func (r *Registry) Move(id string) (*Move, error) {
	m, ok := r.moves[id]
	if !ok {
		return nil, &LookupError{Kind: KindMove, ID: id}
	}
	return m, nil
}

// Item looks up an item by ID.
func (r *Registry) Item(id string) (*Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, &LookupError{Kind: KindItem, ID: id}
	}
	return it, nil
}

// HasType reports whether t has been declared.
func (r *Registry) HasType(t Type) bool {
	return r.types[t]
}

// SpeciesList returns every species sorted by ID.
func (r *Registry) SpeciesList() []*Species {
	out := make([]*Species, 0, len(r.species))
	for _, s := range r.species {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// MoveList returns every move sorted by ID.
func (r *Registry) MoveList() []*Move {
	out := make([]*Move, 0, len(r.moves))
	for _, m := range r.moves {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// ItemList returns every item sorted by ID.
func (r *Registry) ItemList() []*Item {
	out := make([]*Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Types returns every declared type, sorted.
func (r *Registry) Types() []Type {
	out := make([]Type, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i] < out[j]
	})
	return out
}

// Validate checks that every cross reference inside the registry resolves.
func (r *Registry) Validate() error {
	for _, s := range r.SpeciesList() {
		for _, t := range s.Types {
			if !r.types[t] {
				return fmt.Errorf("dex: species %q: %w", s.ID, &LookupError{Kind: KindType, ID: string(t)})
			}
		}
		for _, id := range s.Learnset {
			if _, err := r.Move(id); err != nil {
				return fmt.Errorf("dex: species %q learnset: %w", s.ID, err)
			}
		}
	}
	for _, m := range r.MoveList() {
		if !r.types[m.Type] {
			return fmt.Errorf("dex: move %q: %w", m.ID, &LookupError{Kind: KindType, ID: string(m.Type)})
		}
	}
	return nil
}
