// Package stats computes derived battle stats from base stats, individual and
// effort values, level and nature, and applies in-battle stage multipliers.
// Everything here is pure and deterministic.
package stats

// StatType identifies one of the six permanent stats.
type StatType int

const (
	HP StatType = iota
	Attack
	Defense
	SpAttack
	SpDefense
	Speed
)

// Count is the number of permanent stats.
const Count = 6

// String returns a human-readable name for the stat.
func (s StatType) String() string {
	switch s {
	case HP:
		return "HP"
	case Attack:
		return "Attack"
	case Defense:
		return "Defense"
	case SpAttack:
		return "Sp. Atk"
	case SpDefense:
		return "Sp. Def"
	case Speed:
		return "Speed"
	default:
		return "Unknown"
	}
}

// ParseStat maps a config name ("attack", "sp_attack", ...) to a StatType.
func ParseStat(name string) (StatType, bool) {
	switch name {
	case "hp":
		return HP, true
	case "attack", "atk":
		return Attack, true
	case "defense", "def":
		return Defense, true
	case "sp_attack", "special_attack", "spa":
		return SpAttack, true
	case "sp_defense", "special_defense", "spd":
		return SpDefense, true
	case "speed", "spe":
		return Speed, true
	default:
		return 0, false
	}
}

// StatSet holds one value per permanent stat, indexed by StatType.
type StatSet [Count]int

// Get returns the value for a stat.
func (s StatSet) Get(stat StatType) int {
	return s[stat]
}

// Calculate computes a non-HP stat:
//
//	floor(floor((2*base + iv + ev) * level / 100 + 5) * nature)
func Calculate(base, iv, ev, level int, nature float64) int {
	raw := (2*base+iv+ev)*level/100 + 5
	return int(float64(raw) * nature)
}

// CalculateHP computes maximum HP. It has no nature term.
func CalculateHP(base, iv, ev, level int) int {
	return (2*base+iv+ev)*level/100 + level + 10
}

// Compute derives the full stat set for a combatant.
func Compute(base, ivs, evs StatSet, level int, nature Nature) StatSet {
	var out StatSet
	out[HP] = CalculateHP(base[HP], ivs[HP], evs[HP], level)
	for stat := Attack; stat <= Speed; stat++ {
		out[stat] = Calculate(base[stat], ivs[stat], evs[stat], level, nature.Multiplier(stat))
	}
	return out
}
