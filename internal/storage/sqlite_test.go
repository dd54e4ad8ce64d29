package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/multiplayer"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func gymWin(id string) *battle.Result {
	return &battle.Result{
		BattleID: id,
		Kind:     battle.KindGymLeader,
		Winner:   "red",
		Loser:    "brock",
		Reason:   protocol.EndDefeat,
		Turns:    7,
		Parties: map[party.TeamID][]party.SavedPokemon{
			"red":   {{Species: "charmander", Level: 13}},
			"brock": {{Species: "geodude", Level: 12}},
		},
		Trainers: map[party.TeamID]*party.Trainer{
			"brock": {Name: "Brock", Worth: 1200, Badge: "boulder"},
		},
	}
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	// Verify nested directories were created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreSaveAndRetrieveBattle(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveBattle(gymWin("b1"))
	if err != nil {
		t.Fatalf("SaveBattle() failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive row ID, got %d", id)
	}

	rec, err := store.BattleByID("b1")
	if err != nil {
		t.Fatalf("BattleByID() failed: %v", err)
	}
	if rec == nil {
		t.Fatal("BattleByID() returned nil for a saved battle")
	}

	if rec.Kind != "gym" {
		t.Errorf("Expected kind gym, got %q", rec.Kind)
	}
	if rec.TeamA != "red" || rec.TeamB != "brock" {
		t.Errorf("Expected teams red/brock, got %s/%s", rec.TeamA, rec.TeamB)
	}
	if rec.Winner != "red" || rec.Draw() {
		t.Errorf("Expected red to win, got %q", rec.Winner)
	}
	if rec.Reason != "defeat" {
		t.Errorf("Expected reason defeat, got %q", rec.Reason)
	}
	if rec.Turns != 7 {
		t.Errorf("Expected 7 turns, got %d", rec.Turns)
	}
	if rec.Prize != 1200 || rec.Badge != "boulder" {
		t.Errorf("Expected prize 1200 and badge boulder, got %d and %q", rec.Prize, rec.Badge)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
}

func TestStoreBattleByIDMissing(t *testing.T) {
	store := openTestStore(t)

	rec, err := store.BattleByID("nope")
	if err != nil {
		t.Fatalf("BattleByID() failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected nil for a missing battle, got %+v", rec)
	}
}

func TestStoreRejectsDuplicateAndNil(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveBattle(nil); err == nil {
		t.Error("Expected error saving a nil result")
	}
	if _, err := store.SaveBattle(gymWin("dup")); err != nil {
		t.Fatalf("SaveBattle() failed: %v", err)
	}
	if _, err := store.SaveBattle(gymWin("dup")); err == nil {
		t.Error("Expected error saving the same battle twice")
	}
}

func TestStoreDrawSortsTeams(t *testing.T) {
	store := openTestStore(t)

	_, err := store.SaveBattle(&battle.Result{
		BattleID: "draw",
		Kind:     battle.KindWild,
		Reason:   protocol.EndDefeat,
		Turns:    4,
		Parties: map[party.TeamID][]party.SavedPokemon{
			"wild": {{Species: "rattata", Level: 3}},
			"red":  {{Species: "pidgey", Level: 3}},
		},
	})
	if err != nil {
		t.Fatalf("SaveBattle() failed: %v", err)
	}

	rec, err := store.BattleByID("draw")
	if err != nil || rec == nil {
		t.Fatalf("BattleByID() failed: %v", err)
	}
	if !rec.Draw() {
		t.Errorf("Expected a draw, got winner %q", rec.Winner)
	}
	if rec.TeamA != "red" || rec.TeamB != "wild" {
		t.Errorf("Expected teams sorted red/wild, got %s/%s", rec.TeamA, rec.TeamB)
	}
	if rec.Prize != 0 {
		t.Errorf("Expected no prize on a draw, got %d", rec.Prize)
	}
}

func TestStoreRecentBattlesLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 15; i++ {
		if _, err := store.SaveBattle(gymWin(fmt.Sprintf("b%d", i))); err != nil {
			t.Fatalf("SaveBattle() failed: %v", err)
		}
	}

	records, err := store.RecentBattles(10)
	if err != nil {
		t.Fatalf("RecentBattles() failed: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("Expected 10 battles, got %d", len(records))
	}
	// Newest first
	if records[0].BattleID != "b14" {
		t.Errorf("Expected newest battle first, got %s", records[0].BattleID)
	}

	if err := store.ClearBattles(); err != nil {
		t.Fatalf("ClearBattles() failed: %v", err)
	}
	records, err = store.RecentBattles(0)
	if err != nil {
		t.Fatalf("RecentBattles() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no battles after clear, got %d", len(records))
	}
}

func TestStoreTeamHistoryAndStats(t *testing.T) {
	store := openTestStore(t)

	results := []*battle.Result{
		gymWin("win"),
		{
			BattleID: "loss",
			Kind:     battle.KindTrainer,
			Winner:   "blue",
			Loser:    "red",
			Reason:   protocol.EndForfeit,
			Turns:    2,
			Trainers: map[party.TeamID]*party.Trainer{"red": {Name: "Red", Worth: 500}},
		},
		{
			BattleID: "other",
			Kind:     battle.KindWild,
			Winner:   "blue",
			Loser:    "wild",
			Reason:   protocol.EndDefeat,
			Turns:    3,
		},
	}
	for _, res := range results {
		if _, err := store.SaveBattle(res); err != nil {
			t.Fatalf("SaveBattle() failed: %v", err)
		}
	}

	history, err := store.TeamHistory("red", 10)
	if err != nil {
		t.Fatalf("TeamHistory() failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 battles for red, got %d", len(history))
	}
	if history[0].BattleID != "loss" || history[1].BattleID != "win" {
		t.Errorf("Expected loss then win, got %s then %s", history[0].BattleID, history[1].BattleID)
	}

	stats, err := store.GetTeamStats("red")
	if err != nil {
		t.Fatalf("GetTeamStats() failed: %v", err)
	}
	if stats.Battles != 2 || stats.Wins != 1 || stats.Losses != 1 || stats.Draws != 0 {
		t.Errorf("Expected 2 battles 1-1-0, got %d battles %d-%d-%d",
			stats.Battles, stats.Wins, stats.Losses, stats.Draws)
	}
	if stats.Prize != 1200 {
		t.Errorf("Expected prize 1200, got %d", stats.Prize)
	}
	if stats.WinRate() != 0.5 {
		t.Errorf("Expected win rate 0.5, got %f", stats.WinRate())
	}

	empty, err := store.GetTeamStats("nobody")
	if err != nil {
		t.Fatalf("GetTeamStats() failed: %v", err)
	}
	if empty.Battles != 0 || empty.WinRate() != 0 {
		t.Errorf("Expected empty stats, got %+v", empty)
	}
}

func TestStoreTrainerRoundTrip(t *testing.T) {
	store := openTestStore(t)

	save, found, err := store.LoadTrainer("red")
	if err != nil {
		t.Fatalf("LoadTrainer() failed: %v", err)
	}
	if found {
		t.Error("Expected no save before the first SaveTrainer")
	}

	hp, pp := 12, 3
	save.Money = 300
	save.AddBadge("boulder")
	save.AddBadge("boulder")
	save.SetPokemon([]party.SavedPokemon{{
		Species: "charmander",
		Level:   12,
		HP:      &hp,
		Status:  "burn",
		Moves:   []party.SavedMove{{ID: "scratch", PP: &pp}},
	}})
	save.Bag = map[string]int{"potion": 2}

	if len(save.Badges) != 1 {
		t.Errorf("Expected badge to be awarded once, got %v", save.Badges)
	}
	if err := store.SaveTrainer(save); err != nil {
		t.Fatalf("SaveTrainer() failed: %v", err)
	}

	loaded, found, err := store.LoadTrainer("red")
	if err != nil {
		t.Fatalf("LoadTrainer() failed: %v", err)
	}
	if !found {
		t.Fatal("Expected saved trainer to be found")
	}
	if loaded.Money != 300 || len(loaded.Badges) != 1 || loaded.Badges[0] != "boulder" {
		t.Errorf("Unexpected trainer: money %d badges %v", loaded.Money, loaded.Badges)
	}
	if len(loaded.Party) != 1 || loaded.Party[0].HP == nil || *loaded.Party[0].HP != 12 {
		t.Fatalf("Expected party HP 12 to survive, got %+v", loaded.Party)
	}
	if loaded.Bag["potion"] != 2 {
		t.Errorf("Expected 2 potions, got %d", loaded.Bag["potion"])
	}

	loaded.Heal()
	mon := loaded.Party[0]
	if mon.HP != nil || mon.Status != "" || mon.Moves[0].PP != nil {
		t.Errorf("Expected Heal to restore HP, status and PP, got %+v", mon)
	}

	if err := store.SaveTrainer(&TrainerSave{}); err == nil {
		t.Error("Expected error saving a trainer without a name")
	}
}

func TestStoreRecordBattle(t *testing.T) {
	store := openTestStore(t)

	save := &TrainerSave{Name: "red", Money: 100}
	if err := store.RecordBattle(gymWin("gym"), "red", save); err != nil {
		t.Fatalf("RecordBattle() failed: %v", err)
	}

	if save.Money != 1300 {
		t.Errorf("Expected 1300 money after prize, got %d", save.Money)
	}
	if len(save.Badges) != 1 || save.Badges[0] != "boulder" {
		t.Errorf("Expected boulder badge, got %v", save.Badges)
	}
	if len(save.Party) != 1 || save.Party[0].Level != 13 {
		t.Errorf("Expected post-battle party, got %+v", save.Party)
	}

	loaded, found, err := store.LoadTrainer("red")
	if err != nil || !found {
		t.Fatalf("LoadTrainer() failed: found=%v err=%v", found, err)
	}
	if loaded.Money != 1300 {
		t.Errorf("Expected saved money 1300, got %d", loaded.Money)
	}
	if rec, _ := store.BattleByID("gym"); rec == nil {
		t.Error("Expected battle to be recorded")
	}
}

func TestStoreSaveMatchResult(t *testing.T) {
	store := openTestStore(t)

	res := gymWin("online")
	err := store.SaveMatchResult(multiplayer.MatchResultData{
		MatchID:        "m1",
		Mode:           "pvp",
		Result:         res,
		Player1Session: "red",
		Player2Session: "brock",
		WinnerSession:  "red",
		DurationSecs:   42,
	})
	if err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	match, err := store.OnlineMatchByID("m1")
	if err != nil || match == nil {
		t.Fatalf("OnlineMatchByID() failed: %v", err)
	}
	if match.BattleID != "online" || match.WinnerSession != "red" || match.Duration != 42 {
		t.Errorf("Unexpected match: %+v", match)
	}
	if match.EndReason != "defeat" {
		t.Errorf("Expected end reason defeat, got %q", match.EndReason)
	}

	if rec, _ := store.BattleByID("online"); rec == nil {
		t.Error("Expected the battle row to be written with the match")
	}

	history, err := store.PlayerMatchHistory("brock", 10)
	if err != nil {
		t.Fatalf("PlayerMatchHistory() failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected 1 match for brock, got %d", len(history))
	}

	// A failed battle insert rolls back the match row.
	err = store.SaveMatchResult(multiplayer.MatchResultData{MatchID: "m2", Result: res})
	if err == nil {
		t.Fatal("Expected duplicate battle to fail")
	}
	if m, _ := store.OnlineMatchByID("m2"); m != nil {
		t.Error("Expected match m2 to be rolled back")
	}
}
