package dex

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/pokebattle/internal/stats"
)

//go:embed data/dex.yaml
var defaultDexYAML []byte

// DefaultYAML returns the embedded default dex data.
func DefaultYAML() []byte {
	return defaultDexYAML
}

// File is the on-disk layout of a dex YAML document.
type File struct {
	Types   map[string]map[string]float64 `yaml:"types"`
	Species []SpeciesYAML                 `yaml:"species"`
	Moves   []MoveYAML                    `yaml:"moves"`
	Items   []ItemYAML                    `yaml:"items"`
}

// BaseStatsYAML lists base stats by name.
type BaseStatsYAML struct {
	HP        int `yaml:"hp"`
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	SpAttack  int `yaml:"sp_attack"`
	SpDefense int `yaml:"sp_defense"`
	Speed     int `yaml:"speed"`
}

// SpeciesYAML is one species entry.
type SpeciesYAML struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Types    []string      `yaml:"types"`
	Base     BaseStatsYAML `yaml:"base"`
	ExpYield int           `yaml:"exp_yield"`
	Moves    []string      `yaml:"moves"`
}

// EffectYAML is one move effect entry.
type EffectYAML struct {
	Kind    string `yaml:"kind"`
	Stat    string `yaml:"stat,omitempty"`
	Stages  int8   `yaml:"stages,omitempty"`
	Status  string `yaml:"status,omitempty"`
	Self    bool   `yaml:"self,omitempty"`
	Chance  int    `yaml:"chance,omitempty"`
	Percent int    `yaml:"percent,omitempty"`
}

// MoveYAML is one move entry.
type MoveYAML struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Type      string       `yaml:"type"`
	Category  string       `yaml:"category"`
	Power     int          `yaml:"power"`
	Accuracy  int          `yaml:"accuracy"`
	PP        int          `yaml:"pp"`
	Priority  int8         `yaml:"priority"`
	Target    string       `yaml:"target"`
	CritStage int8         `yaml:"crit_stage"`
	Effects   []EffectYAML `yaml:"effects"`
}

// ItemYAML is one item entry.
type ItemYAML struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Amount int    `yaml:"amount,omitempty"`
	Cures  string `yaml:"cures,omitempty"`
	Stat   string `yaml:"stat,omitempty"`
	Stages int8   `yaml:"stages,omitempty"`
}

// Parse builds a validated Registry from dex YAML.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dex: cannot parse data: %w", err)
	}
	return f.Build()
}

// Default builds the registry from the embedded data.
func Default() (*Registry, error) {
	return Parse(defaultDexYAML)
}

// Build converts a decoded file into a validated Registry.
func (f *File) Build() (*Registry, error) {
	r := NewRegistry()

	for atk, row := range f.Types {
		r.AddType(Type(atk))
		for def, mult := range row {
			r.SetEffectiveness(Type(atk), Type(def), mult)
		}
	}

	for _, sy := range f.Species {
		if sy.ID == "" {
			return nil, fmt.Errorf("dex: species entry without id")
		}
		if _, err := r.Species(sy.ID); err == nil {
			return nil, fmt.Errorf("dex: duplicate species %q", sy.ID)
		}
		s := Species{
			ID:       sy.ID,
			Name:     nameOr(sy.Name, sy.ID),
			ExpYield: sy.ExpYield,
			Learnset: sy.Moves,
			Base: stats.StatSet{
				sy.Base.HP, sy.Base.Attack, sy.Base.Defense,
				sy.Base.SpAttack, sy.Base.SpDefense, sy.Base.Speed,
			},
		}
		for _, t := range sy.Types {
			s.Types = append(s.Types, Type(t))
		}
		r.AddSpecies(s)
	}

	for _, my := range f.Moves {
		m, err := my.build()
		if err != nil {
			return nil, fmt.Errorf("dex: move %q: %w", my.ID, err)
		}
		if _, err := r.Move(m.ID); err == nil {
			return nil, fmt.Errorf("dex: duplicate move %q", m.ID)
		}
		r.AddMove(m)
	}

	for _, iy := range f.Items {
		it, err := iy.build()
		if err != nil {
			return nil, fmt.Errorf("dex: item %q: %w", iy.ID, err)
		}
		if _, err := r.Item(it.ID); err == nil {
			return nil, fmt.Errorf("dex: duplicate item %q", it.ID)
		}
		r.AddItem(it)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (my MoveYAML) build() (Move, error) {
	if my.ID == "" {
		return Move{}, fmt.Errorf("missing id")
	}
	cat, err := parseCategory(my.Category)
	if err != nil {
		return Move{}, err
	}
	target, err := parseTarget(my.Target)
	if err != nil {
		return Move{}, err
	}

	m := Move{
		ID:        my.ID,
		Name:      nameOr(my.Name, my.ID),
		Type:      Type(my.Type),
		Category:  cat,
		Power:     my.Power,
		Accuracy:  my.Accuracy,
		PP:        my.PP,
		Priority:  my.Priority,
		Target:    target,
		CritStage: my.CritStage,
	}

	for _, ey := range my.Effects {
		e, err := ey.build()
		if err != nil {
			return Move{}, err
		}
		m.Effects = append(m.Effects, e)
	}

	// A damaging move with no listed effects still deals damage.
	if len(m.Effects) == 0 && m.Category != StatusMove && m.Power > 0 {
		m.Effects = []Effect{{Kind: EffectDamage}}
	}
	return m, nil
}

func (ey EffectYAML) build() (Effect, error) {
	kind, err := parseEffectKind(ey.Kind)
	if err != nil {
		return Effect{}, err
	}
	e := Effect{
		Kind:    kind,
		Stages:  ey.Stages,
		Self:    ey.Self,
		Chance:  ey.Chance,
		Percent: ey.Percent,
	}
	switch kind {
	case EffectStatStage:
		st, ok := stats.ParseStageStat(ey.Stat)
		if !ok {
			return Effect{}, fmt.Errorf("unknown stat %q", ey.Stat)
		}
		e.Stat = st
	case EffectStatus:
		status, err := ParseStatus(ey.Status)
		if err != nil {
			return Effect{}, err
		}
		if status == StatusNone {
			return Effect{}, fmt.Errorf("status effect without a status")
		}
		e.Status = status
	}
	return e, nil
}

func (iy ItemYAML) build() (Item, error) {
	if iy.ID == "" {
		return Item{}, fmt.Errorf("missing id")
	}
	kind, err := parseItemKind(iy.Kind)
	if err != nil {
		return Item{}, err
	}
	it := Item{
		ID:     iy.ID,
		Name:   nameOr(iy.Name, iy.ID),
		Kind:   kind,
		Amount: iy.Amount,
		Stages: iy.Stages,
	}
	switch kind {
	case ItemCure:
		cures, err := ParseStatus(iy.Cures)
		if err != nil {
			return Item{}, err
		}
		it.Cures = cures
	case ItemBoost:
		st, ok := stats.ParseStageStat(iy.Stat)
		if !ok {
			return Item{}, fmt.Errorf("unknown stat %q", iy.Stat)
		}
		it.Stat = st
	}
	return it, nil
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
