package config

import (
	"math"

	"github.com/vovakirdan/pokebattle/internal/ai"
	"github.com/vovakirdan/pokebattle/internal/party"
)

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParseDifficulty returns the preset for name, or normal when unknown.
func ParseDifficulty(name string) DifficultyPreset {
	switch DifficultyPreset(name) {
	case DifficultyEasy, DifficultyHard:
		return DifficultyPreset(name)
	default:
		return DifficultyNormal
	}
}

// AIProfile tunes the computer opponent for one preset.
type AIProfile struct {
	Randomness  int     `yaml:"randomness"`   // Percent chance of a random move
	HealBelow   float64 `yaml:"heal_below"`   // HP fraction that triggers a heal item
	LevelOffset int     `yaml:"level_offset"` // Added to every opponent level
}

// Profile returns the AI profile for preset, falling back to normal and
// then to the built-in defaults.
func (c BattleConfig) Profile(preset DifficultyPreset) AIProfile {
	if p, ok := c.AI[preset]; ok {
		return p
	}
	if p, ok := c.AI[DifficultyNormal]; ok {
		return p
	}
	return DefaultBattleConfig().AI[DifficultyNormal]
}

// AIOptions converts the profile for the AI client.
func (p AIProfile) AIOptions(seed int64) ai.Options {
	return ai.Options{
		Randomness: clampI(p.Randomness, 0, 100),
		HealBelow:  clampF(p.HealBelow, 0.0, 1.0),
		Seed:       seed,
	}
}

// ApplyPreset shifts every level of the preset's party by the profile's
// offset, keeping levels within 1..100.
func (p AIProfile) ApplyPreset(team TeamPreset) TeamPreset {
	out := team
	out.Party = make([]party.SavedPokemon, len(team.Party))
	for i, mon := range team.Party {
		mon.Level = clampI(mon.Level+p.LevelOffset, 1, party.MaxLevel)
		mon.Exp = 0
		out.Party[i] = mon
	}
	return out
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}

func clampI(val, lo, hi int) int {
	return max(lo, min(hi, val))
}
