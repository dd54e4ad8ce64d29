// Package storage provides SQLite-based persistence for battle history and
// trainer save records. Uses the pure-Go modernc.org/sqlite driver to avoid
// CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/multiplayer"
	"github.com/vovakirdan/pokebattle/internal/party"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// BattleRecord is one finished battle.
type BattleRecord struct {
	ID        int64
	BattleID  string
	Kind      string
	TeamA     string
	TeamB     string
	Winner    string // Empty on a draw
	Reason    string
	Turns     int
	Prize     int
	Badge     string
	CreatedAt time.Time
}

// Draw reports whether the battle had no winner.
func (r BattleRecord) Draw() bool {
	return r.Winner == ""
}

// OnlineMatchResult represents the outcome of an online match.
type OnlineMatchResult struct {
	ID             int64
	MatchID        string
	BattleID       string
	Mode           string
	Player1Session string
	Player2Session string // Empty against the computer
	WinnerSession  string // Empty on a draw or a computer win
	EndReason      string
	Duration       int // Duration in seconds
	CreatedAt      time.Time
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS battles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			battle_id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			team_a TEXT NOT NULL,
			team_b TEXT NOT NULL,
			winner TEXT,
			reason TEXT NOT NULL,
			turns INTEGER NOT NULL DEFAULT 0,
			prize INTEGER NOT NULL DEFAULT 0,
			badge TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_battles_team_a ON battles(team_a);
		CREATE INDEX IF NOT EXISTS idx_battles_team_b ON battles(team_b);

		CREATE TABLE IF NOT EXISTS online_matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			battle_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			player1_session TEXT NOT NULL,
			player2_session TEXT,
			winner_session TEXT,
			end_reason TEXT NOT NULL,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_online_matches_player1 ON online_matches(player1_session);
		CREATE INDEX IF NOT EXISTS idx_online_matches_player2 ON online_matches(player2_session);

		CREATE TABLE IF NOT EXISTS trainers (
			name TEXT PRIMARY KEY,
			money INTEGER NOT NULL DEFAULT 0,
			badges TEXT NOT NULL DEFAULT '',
			party TEXT NOT NULL DEFAULT '',
			bag TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveBattle records a finished battle.
// Returns the ID of the inserted record.
func (s *Store) SaveBattle(res *battle.Result) (int64, error) {
	return insertBattle(s.db, res)
}

func insertBattle(ex execer, res *battle.Result) (int64, error) {
	if res == nil {
		return 0, errors.New("storage: cannot save battle: nil result")
	}
	teams := resultTeams(res)

	result, err := ex.Exec(
		`INSERT INTO battles (battle_id, kind, team_a, team_b, winner, reason, turns, prize, badge)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.BattleID,
		res.Kind.String(),
		teams[0],
		teams[1],
		string(res.Winner),
		res.Reason.String(),
		res.Turns,
		res.Prize(),
		res.Badge(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save battle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// resultTeams returns the two sides of a result, winner first when there is
// one and sorted by name otherwise.
func resultTeams(res *battle.Result) [2]string {
	if !res.Draw() {
		return [2]string{string(res.Winner), string(res.Loser)}
	}
	ids := make([]string, 0, len(res.Parties))
	for id := range res.Parties {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	var out [2]string
	copy(out[:], ids)
	return out
}

const battleColumns = `id, battle_id, kind, team_a, team_b, winner, reason, turns, prize, badge, created_at`

// BattleByID retrieves a battle by its battle ID. Returns nil if not found.
func (s *Store) BattleByID(battleID string) (*BattleRecord, error) {
	row := s.db.QueryRow(`SELECT `+battleColumns+` FROM battles WHERE battle_id = ?`, battleID)
	rec, err := scanBattle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query battle: %w", err)
	}
	return &rec, nil
}

// RecentBattles retrieves the most recent battles, newest first.
func (s *Store) RecentBattles(limit int) ([]BattleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+battleColumns+` FROM battles ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query battles: %w", err)
	}
	return collectBattles(rows)
}

// TeamHistory retrieves the battles a team took part in, newest first.
func (s *Store) TeamHistory(team party.TeamID, limit int) ([]BattleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+battleColumns+`
		 FROM battles
		 WHERE team_a = ? OR team_b = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		string(team), string(team), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query team battles: %w", err)
	}
	return collectBattles(rows)
}

// ClearBattles deletes the whole battle history.
func (s *Store) ClearBattles() error {
	if _, err := s.db.Exec("DELETE FROM battles"); err != nil {
		return fmt.Errorf("storage: cannot clear battles: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBattle(row rowScanner) (BattleRecord, error) {
	var rec BattleRecord
	var winner, badge sql.NullString
	var createdAt any
	if err := row.Scan(
		&rec.ID,
		&rec.BattleID,
		&rec.Kind,
		&rec.TeamA,
		&rec.TeamB,
		&winner,
		&rec.Reason,
		&rec.Turns,
		&rec.Prize,
		&badge,
		&createdAt,
	); err != nil {
		return rec, err
	}
	rec.Winner = winner.String
	rec.Badge = badge.String
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

func collectBattles(rows *sql.Rows) ([]BattleRecord, error) {
	defer rows.Close()

	var records []BattleRecord
	for rows.Next() {
		rec, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveOnlineMatch records the result of an online match.
// Returns the ID of the inserted record.
func (s *Store) SaveOnlineMatch(result OnlineMatchResult) (int64, error) {
	return insertOnlineMatch(s.db, result)
}

func insertOnlineMatch(ex execer, result OnlineMatchResult) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO online_matches
		 (match_id, battle_id, mode, player1_session, player2_session, winner_session, end_reason, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.MatchID,
		result.BattleID,
		result.Mode,
		result.Player1Session,
		result.Player2Session,
		result.WinnerSession,
		result.EndReason,
		result.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save online match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const matchColumns = `id, match_id, battle_id, mode, player1_session, player2_session,
		        winner_session, end_reason, duration_secs, created_at`

// OnlineMatchByID retrieves an online match by its match ID.
// Returns nil if not found.
func (s *Store) OnlineMatchByID(matchID string) (*OnlineMatchResult, error) {
	row := s.db.QueryRow(`SELECT `+matchColumns+` FROM online_matches WHERE match_id = ?`, matchID)
	result, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query online match: %w", err)
	}
	return &result, nil
}

// RecentOnlineMatches retrieves the most recent online matches.
func (s *Store) RecentOnlineMatches(limit int) ([]OnlineMatchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+` FROM online_matches ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query online matches: %w", err)
	}
	return collectMatches(rows)
}

// PlayerMatchHistory retrieves match history for a specific session.
func (s *Store) PlayerMatchHistory(sessionID string, limit int) ([]OnlineMatchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM online_matches
		 WHERE player1_session = ? OR player2_session = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player matches: %w", err)
	}
	return collectMatches(rows)
}

func scanMatch(row rowScanner) (OnlineMatchResult, error) {
	var result OnlineMatchResult
	var player2, winner sql.NullString
	var createdAt any
	if err := row.Scan(
		&result.ID,
		&result.MatchID,
		&result.BattleID,
		&result.Mode,
		&result.Player1Session,
		&player2,
		&winner,
		&result.EndReason,
		&result.Duration,
		&createdAt,
	); err != nil {
		return result, err
	}
	result.Player2Session = player2.String
	result.WinnerSession = winner.String
	result.CreatedAt = parseTime(createdAt)
	return result, nil
}

func collectMatches(rows *sql.Rows) ([]OnlineMatchResult, error) {
	defer rows.Close()

	var results []OnlineMatchResult
	for rows.Next() {
		result, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
// The battle and the match row are written in one transaction.
func (s *Store) SaveMatchResult(data multiplayer.MatchResultData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := insertBattle(tx, data.Result); err != nil {
		return err
	}
	if _, err := insertOnlineMatch(tx, OnlineMatchResult{
		MatchID:        data.MatchID,
		BattleID:       data.Result.BattleID,
		Mode:           data.Mode,
		Player1Session: data.Player1Session,
		Player2Session: data.Player2Session,
		WinnerSession:  data.WinnerSession,
		EndReason:      data.Result.Reason.String(),
		Duration:       data.DurationSecs,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return nil
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)

// TeamStats contains aggregated battle statistics for one team.
type TeamStats struct {
	Team       string
	Battles    int
	Wins       int
	Losses     int
	Draws      int
	Prize      int64
	LastPlayed time.Time
}

// WinRate returns wins over battles, or 0 before the first battle.
func (t TeamStats) WinRate() float64 {
	if t.Battles == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Battles)
}

// GetTeamStats retrieves aggregated statistics for a team.
func (s *Store) GetTeamStats(team party.TeamID) (*TeamStats, error) {
	id := string(team)
	stats := &TeamStats{Team: id}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN winner = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN winner <> '' AND winner <> ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN winner IS NULL OR winner = '' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN winner = ? THEN prize ELSE 0 END), 0),
		        MAX(created_at)
		 FROM battles WHERE team_a = ? OR team_b = ?`,
		id, id, id, id, id,
	).Scan(&stats.Battles, &stats.Wins, &stats.Losses, &stats.Draws, &stats.Prize, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get team stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}
