package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/pokebattle/internal/dex"
)

// LoadBattle loads the battle configuration.
// Search order: customPath -> ~/.pokebattle/configs/battle.yaml -> ./configs/battle.yaml -> embedded default
func LoadBattle(customPath string) (BattleConfig, error) {
	var cfg BattleConfig

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return withDefaults(cfg), nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("battle.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return withDefaults(cfg), nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/battle.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return withDefaults(cfg), nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultBattleYAML, &cfg); err != nil {
		return DefaultBattleConfig(), nil // Fallback to hardcoded if embed fails
	}
	return withDefaults(cfg), nil
}

// LoadDex loads the species, move and item data.
// Search order: customPath -> ~/.pokebattle/configs/dex.yaml -> ./configs/dex.yaml -> embedded default
// A dex file that exists but fails to parse is an error.
func LoadDex(customPath string) (*dex.Registry, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read dex %s: %w", customPath, err)
		}
		reg, err := dex.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dex %s: %w", customPath, err)
		}
		return reg, nil
	}

	for _, path := range []string{userConfigPath("dex.yaml"), filepath.Join("configs", "dex.yaml")} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		reg, err := dex.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dex %s: %w", path, err)
		}
		return reg, nil
	}

	return dex.Default()
}

// withDefaults fills zero-valued sections from the built-in configuration.
func withDefaults(cfg BattleConfig) BattleConfig {
	def := DefaultBattleConfig()
	if cfg.Battle.TickRate <= 0 {
		cfg.Battle.TickRate = def.Battle.TickRate
	}
	if cfg.Battle.ActiveSlots <= 0 {
		cfg.Battle.ActiveSlots = def.Battle.ActiveSlots
	}
	if len(cfg.AI) == 0 {
		cfg.AI = def.AI
	}
	if cfg.Server.Port == 0 {
		cfg.Server = def.Server
	}
	if len(cfg.Player.Party) == 0 {
		cfg.Player = def.Player
	}
	if cfg.Player.ID == "" {
		cfg.Player.ID = def.Player.ID
	}
	if len(cfg.Opponents) == 0 {
		cfg.Opponents = def.Opponents
	}
	return cfg
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pokebattle", "configs", filename)
}
