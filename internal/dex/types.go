// Package dex holds the static battle data: species, moves, items and the
// type chart. A Registry is built once (usually from YAML) and passed by
// reference into battle construction; every lookup against it is fallible.
package dex

import (
	"fmt"

	"github.com/vovakirdan/pokebattle/internal/stats"
)

// Type is an elemental type identifier such as "fire" or "water".
type Type string

// Category decides which attack/defense pair a damaging move uses.
type Category int

const (
	Physical Category = iota
	Special
	StatusMove
)

func (c Category) String() string {
	switch c {
	case Physical:
		return "physical"
	case Special:
		return "special"
	case StatusMove:
		return "status"
	default:
		return "unknown"
	}
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "physical":
		return Physical, nil
	case "special":
		return Special, nil
	case "status", "":
		return StatusMove, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}

// TargetKind describes which combatants a move reaches.
type TargetKind int

const (
	TargetOpponent     TargetKind = iota // one chosen opponent
	TargetUser                           // the user itself
	TargetAllOpponents                   // every active opponent
	TargetAllOthers                      // every active combatant except the user
	TargetAlly                           // one ally on the user's side
)

func (t TargetKind) String() string {
	switch t {
	case TargetOpponent:
		return "opponent"
	case TargetUser:
		return "user"
	case TargetAllOpponents:
		return "all_opponents"
	case TargetAllOthers:
		return "all_others"
	case TargetAlly:
		return "ally"
	default:
		return "unknown"
	}
}

func parseTarget(s string) (TargetKind, error) {
	switch s {
	case "opponent", "":
		return TargetOpponent, nil
	case "user", "self":
		return TargetUser, nil
	case "all_opponents":
		return TargetAllOpponents, nil
	case "all_others":
		return TargetAllOthers, nil
	case "ally":
		return TargetAlly, nil
	default:
		return 0, fmt.Errorf("unknown target %q", s)
	}
}

// Status is a persistent status condition.
type Status int

const (
	StatusNone Status = iota
	StatusBurn
	StatusParalysis
	StatusSleep
	StatusPoison
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusBurn:
		return "burn"
	case StatusParalysis:
		return "paralysis"
	case StatusSleep:
		return "sleep"
	case StatusPoison:
		return "poison"
	default:
		return "unknown"
	}
}

// Short returns the three-letter badge shown next to a combatant.
func (s Status) Short() string {
	switch s {
	case StatusBurn:
		return "BRN"
	case StatusParalysis:
		return "PAR"
	case StatusSleep:
		return "SLP"
	case StatusPoison:
		return "PSN"
	default:
		return ""
	}
}

// ParseStatus maps a config name to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "none":
		return StatusNone, nil
	case "burn", "brn":
		return StatusBurn, nil
	case "paralysis", "par":
		return StatusParalysis, nil
	case "sleep", "slp":
		return StatusSleep, nil
	case "poison", "psn":
		return StatusPoison, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// EffectKind selects what one move effect does.
type EffectKind int

const (
	EffectDamage    EffectKind = iota
	EffectStatStage            // raise or lower a stat stage
	EffectStatus               // inflict a status condition
	EffectDrain                // user heals Percent of the damage dealt
	EffectRecoil               // user loses Percent of the damage dealt
	EffectHeal                 // target heals Percent of its max HP
)

func (k EffectKind) String() string {
	switch k {
	case EffectDamage:
		return "damage"
	case EffectStatStage:
		return "stat_stage"
	case EffectStatus:
		return "status"
	case EffectDrain:
		return "drain"
	case EffectRecoil:
		return "recoil"
	case EffectHeal:
		return "heal"
	default:
		return "unknown"
	}
}

func parseEffectKind(s string) (EffectKind, error) {
	switch s {
	case "damage":
		return EffectDamage, nil
	case "stat_stage":
		return EffectStatStage, nil
	case "status":
		return EffectStatus, nil
	case "drain":
		return EffectDrain, nil
	case "recoil":
		return EffectRecoil, nil
	case "heal":
		return EffectHeal, nil
	default:
		return 0, fmt.Errorf("unknown effect %q", s)
	}
}

// Effect is one data-driven step of a move. The pipeline applies a move's
// effects in order to each resolved target.
type Effect struct {
	Kind    EffectKind
	Stat    stats.StageStat // EffectStatStage
	Stages  int8            // EffectStatStage
	Status  Status          // EffectStatus
	Self    bool            // applies to the user instead of the target
	Chance  int             // percent; 0 means always
	Percent int             // EffectDrain, EffectRecoil, EffectHeal
}

// Species is the static data for one kind of combatant.
type Species struct {
	ID       string
	Name     string
	Types    []Type
	Base     stats.StatSet
	ExpYield int
	Learnset []string // default moves, most recent last
}

// HasType reports whether the species carries t.
func (s *Species) HasType(t Type) bool {
	for _, st := range s.Types {
		if st == t {
			return true
		}
	}
	return false
}

// Move is the static data for one move.
type Move struct {
	ID        string
	Name      string
	Type      Type
	Category  Category
	Power     int
	Accuracy  int // percent; 0 never misses
	PP        int
	Priority  int8
	Target    TargetKind
	CritStage int8
	Effects   []Effect
}

// ItemKind selects what using an item does.
type ItemKind int

const (
	ItemHeal  ItemKind = iota // restore Amount HP
	ItemCure                  // clear Cures (or any status when Cures is none)
	ItemBoost                 // raise Stat by Stages
)

func (k ItemKind) String() string {
	switch k {
	case ItemHeal:
		return "heal"
	case ItemCure:
		return "cure"
	case ItemBoost:
		return "boost"
	default:
		return "unknown"
	}
}

func parseItemKind(s string) (ItemKind, error) {
	switch s {
	case "heal":
		return ItemHeal, nil
	case "cure":
		return ItemCure, nil
	case "boost":
		return ItemBoost, nil
	default:
		return 0, fmt.Errorf("unknown item kind %q", s)
	}
}

// Item is the static data for one bag item.
type Item struct {
	ID     string
	Name   string
	Kind   ItemKind
	Amount int
	Cures  Status
	Stat   stats.StageStat
	Stages int8
}
