// Package config provides YAML-based battle configuration loading: battle
// timing, AI difficulty presets, server settings and team presets.
package config

import (
	"time"

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// BattleConfig contains all configuration for hosting battles.
type BattleConfig struct {
	Battle    BattleSettings                 `yaml:"battle"`
	AI        map[DifficultyPreset]AIProfile `yaml:"ai"`
	Server    ServerSettings                 `yaml:"server"`
	Player    TeamPreset                     `yaml:"player"`
	Opponents []TeamPreset                   `yaml:"opponents"`
}

// BattleSettings defines timing for the battle loop.
type BattleSettings struct {
	TickRate      int           `yaml:"tick_rate"`      // Updates per second
	SelectTimeout time.Duration `yaml:"select_timeout"` // 0 waits forever
	AckTimeout    time.Duration `yaml:"ack_timeout"`    // 0 waits forever
	ActiveSlots   int           `yaml:"active_slots"`
}

// ServerSettings defines the SSH host.
type ServerSettings struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// TeamPreset is a named side: a roster plus optional trainer and bag.
type TeamPreset struct {
	ID          party.TeamID         `yaml:"id"`
	Trainer     *party.Trainer       `yaml:"trainer,omitempty"`
	ActiveSlots int                  `yaml:"active_slots,omitempty"`
	Party       []party.SavedPokemon `yaml:"party"`
	Bag         map[string]int       `yaml:"bag,omitempty"`
	CanGainExp  bool                 `yaml:"can_gain_exp"`
}

// Entry turns the preset into a battle entry driven by client. Slots
// falls back to the preset's own count, then to defaultSlots.
func (t TeamPreset) Entry(client protocol.BattleClient, defaultSlots int) battle.BattleEntry {
	slots := t.ActiveSlots
	if slots <= 0 {
		slots = defaultSlots
	}
	roster := make([]party.SavedPokemon, len(t.Party))
	copy(roster, t.Party)
	bag := make(map[string]int, len(t.Bag))
	for k, v := range t.Bag {
		bag[k] = v
	}
	return battle.BattleEntry{
		ID:          t.ID,
		Party:       roster,
		Trainer:     t.Trainer,
		ActiveSlots: slots,
		Bag:         bag,
		Client:      client,
		Settings:    battle.Settings{CanGainExp: t.CanGainExp},
	}
}

// Opponent returns the opponent preset with the given ID.
func (c BattleConfig) Opponent(id party.TeamID) (TeamPreset, bool) {
	for _, o := range c.Opponents {
		if o.ID == id {
			return o, true
		}
	}
	return TeamPreset{}, false
}

// Options converts the battle settings to battle.Options.
func (c BattleConfig) Options(seed int64) battle.Options {
	return battle.Options{
		SelectTimeout: c.Battle.SelectTimeout,
		AckTimeout:    c.Battle.AckTimeout,
		Seed:          seed,
	}
}

// TickInterval returns the time between battle updates.
func (c BattleConfig) TickInterval() time.Duration {
	rate := c.Battle.TickRate
	if rate <= 0 {
		rate = 30
	}
	return time.Second / time.Duration(rate)
}
