package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/pokebattle/internal/party"
)

//go:embed defaults/battle.yaml
var defaultBattleYAML []byte

// DefaultBattleConfig returns the built-in battle configuration.
func DefaultBattleConfig() BattleConfig {
	return BattleConfig{
		Battle: BattleSettings{
			TickRate:      30,
			SelectTimeout: 60 * time.Second,
			AckTimeout:    30 * time.Second,
			ActiveSlots:   1,
		},
		AI: map[DifficultyPreset]AIProfile{
			DifficultyEasy:   {Randomness: 50, HealBelow: 0, LevelOffset: -2},
			DifficultyNormal: {Randomness: 15, HealBelow: 0.25, LevelOffset: 0},
			DifficultyHard:   {Randomness: 0, HealBelow: 0.35, LevelOffset: 3},
		},
		Server: ServerSettings{
			Host:        "0.0.0.0",
			Port:        2323,
			HostKeyPath: ".ssh/pokebattle_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
		Player: TeamPreset{
			ID:         "player",
			CanGainExp: true,
			Party: []party.SavedPokemon{
				{Species: "charmander", Level: 12},
				{Species: "pidgey", Level: 10},
			},
			Bag: map[string]int{"potion": 3},
		},
		Opponents: []TeamPreset{
			{
				ID:    "wild",
				Party: []party.SavedPokemon{{Species: "rattata", Level: 8}},
			},
		},
	}
}

// GetDefaultYAML returns the embedded default YAML for a config file.
func GetDefaultYAML(name string) []byte {
	switch name {
	case "battle":
		return defaultBattleYAML
	default:
		return nil
	}
}
