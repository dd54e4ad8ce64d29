package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/party"
)

// TrainerSave is a player's persistent progress between battles.
type TrainerSave struct {
	Name      string
	Money     int
	Badges    []string
	Party     []party.SavedPokemon
	Bag       map[string]int
	UpdatedAt time.Time
}

// SetPokemon replaces the stored party.
func (t *TrainerSave) SetPokemon(team []party.SavedPokemon) {
	t.Party = slices.Clone(team)
}

// AddMoney adds prize money.
func (t *TrainerSave) AddMoney(amount int) {
	t.Money += amount
}

// AddBadge awards a badge once.
func (t *TrainerSave) AddBadge(badge string) {
	if badge == "" || slices.Contains(t.Badges, badge) {
		return
	}
	t.Badges = append(t.Badges, badge)
}

// Heal restores every party member to full HP and PP and clears status.
func (t *TrainerSave) Heal() {
	for i := range t.Party {
		mon := &t.Party[i]
		mon.HP = nil
		mon.Status = ""
		for j := range mon.Moves {
			mon.Moves[j].PP = nil
		}
	}
}

var _ battle.SaveRecord = (*TrainerSave)(nil)

// LoadTrainer returns the save for name. The bool is false when the trainer
// has never been saved.
func (s *Store) LoadTrainer(name string) (*TrainerSave, bool, error) {
	save := &TrainerSave{Name: name}
	var badges, partyYAML, bagYAML string
	var updatedAt any

	err := s.db.QueryRow(
		`SELECT money, badges, party, bag, updated_at FROM trainers WHERE name = ?`,
		name,
	).Scan(&save.Money, &badges, &partyYAML, &bagYAML, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return save, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: cannot query trainer: %w", err)
	}

	if badges != "" {
		save.Badges = strings.Split(badges, ",")
	}
	if err := yaml.Unmarshal([]byte(partyYAML), &save.Party); err != nil {
		return nil, false, fmt.Errorf("storage: cannot decode party for %s: %w", name, err)
	}
	if err := yaml.Unmarshal([]byte(bagYAML), &save.Bag); err != nil {
		return nil, false, fmt.Errorf("storage: cannot decode bag for %s: %w", name, err)
	}
	save.UpdatedAt = parseTime(updatedAt)

	return save, true, nil
}

// SaveTrainer inserts or replaces a trainer's save.
func (s *Store) SaveTrainer(save *TrainerSave) error {
	if save.Name == "" {
		return errors.New("storage: cannot save trainer: empty name")
	}
	partyYAML, err := yaml.Marshal(save.Party)
	if err != nil {
		return fmt.Errorf("storage: cannot encode party: %w", err)
	}
	bagYAML, err := yaml.Marshal(save.Bag)
	if err != nil {
		return fmt.Errorf("storage: cannot encode bag: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO trainers (name, money, badges, party, bag, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET
		   money = excluded.money,
		   badges = excluded.badges,
		   party = excluded.party,
		   bag = excluded.bag,
		   updated_at = excluded.updated_at`,
		save.Name,
		save.Money,
		strings.Join(save.Badges, ","),
		string(partyYAML),
		string(bagYAML),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save trainer: %w", err)
	}
	return nil
}

// RecordBattle stores a finished battle, then applies its consequences to
// save, which played as team, and persists it.
func (s *Store) RecordBattle(res *battle.Result, team party.TeamID, save *TrainerSave) error {
	if _, err := s.SaveBattle(res); err != nil {
		return err
	}
	if save == nil {
		return nil
	}
	res.ApplyTo(team, save)
	return s.SaveTrainer(save)
}
