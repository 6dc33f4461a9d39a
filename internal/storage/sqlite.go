// Package storage provides SQLite-based persistence for game snapshots.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned when no snapshot matches a query.
var ErrNotFound = errors.New("storage: snapshot not found")

// Store manages the SQLite database connection for snapshot persistence.
type Store struct {
	db *sql.DB
}

// Snapshot is one encoded game state saved at the end of a turn.
type Snapshot struct {
	ID        int64
	GameID    string
	Turn      uint32
	Seed      uint64
	Ruleset   string
	Data      []byte // Encoded save, decompressed
	CreatedAt time.Time
}

// GameSummary describes a stored game by its latest snapshot.
type GameSummary struct {
	GameID     string
	Ruleset    string
	Seed       uint64
	LatestTurn uint32
	Snapshots  int
	UpdatedAt  time.Time
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
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			ruleset TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (game_id, turn)
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_game_id ON snapshots(game_id);
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

// NewGameID returns a fresh random game identifier.
func NewGameID() string {
	return uuid.NewString()
}

// SaveSnapshot stores the encoded state of a game at a turn. Saving the
// same game and turn again replaces the earlier snapshot.
// Returns the ID of the stored record.
func (s *Store) SaveSnapshot(gameID string, turn uint32, seed uint64, ruleset string, data []byte) (int64, error) {
	if _, err := uuid.Parse(gameID); err != nil {
		return 0, fmt.Errorf("storage: invalid game id %q: %w", gameID, err)
	}
	packed, err := compress(data)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot compress snapshot: %w", err)
	}

	var id int64
	err = s.db.QueryRow(
		`INSERT INTO snapshots (game_id, turn, seed, ruleset, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (game_id, turn) DO UPDATE SET
			seed = excluded.seed,
			ruleset = excluded.ruleset,
			data = excluded.data,
			created_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		gameID, int64(turn), int64(seed), ruleset, packed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the snapshot with the highest turn of a game.
func (s *Store) LatestSnapshot(gameID string) (Snapshot, error) {
	return s.querySnapshot(
		`SELECT id, game_id, turn, seed, ruleset, data, created_at
		 FROM snapshots
		 WHERE game_id = ?
		 ORDER BY turn DESC
		 LIMIT 1`,
		gameID,
	)
}

// SnapshotAt returns the snapshot of a game at a specific turn.
func (s *Store) SnapshotAt(gameID string, turn uint32) (Snapshot, error) {
	return s.querySnapshot(
		`SELECT id, game_id, turn, seed, ruleset, data, created_at
		 FROM snapshots
		 WHERE game_id = ? AND turn = ?`,
		gameID, int64(turn),
	)
}

func (s *Store) querySnapshot(query string, args ...any) (Snapshot, error) {
	var snap Snapshot
	var turn, seed int64
	var packed []byte
	var createdAt any

	err := s.db.QueryRow(query, args...).Scan(&snap.ID, &snap.GameID, &turn, &seed, &snap.Ruleset, &packed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, ErrNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("storage: cannot query snapshot: %w", err)
	}

	snap.Turn = uint32(turn)
	snap.Seed = uint64(seed)
	snap.CreatedAt = parseTime(createdAt)
	if snap.Data, err = decompress(packed); err != nil {
		return snap, fmt.Errorf("storage: cannot decompress snapshot %d: %w", snap.ID, err)
	}
	return snap, nil
}

// History returns the turns stored for a game in ascending order.
func (s *Store) History(gameID string) ([]uint32, error) {
	rows, err := s.db.Query(
		"SELECT turn FROM snapshots WHERE game_id = ? ORDER BY turn ASC",
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query history: %w", err)
	}
	defer rows.Close()

	var turns []uint32
	for rows.Next() {
		var turn int64
		if err := rows.Scan(&turn); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		turns = append(turns, uint32(turn))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return turns, nil
}

// ListGames returns one summary per stored game, most recently updated
// first.
func (s *Store) ListGames() ([]GameSummary, error) {
	rows, err := s.db.Query(
		`SELECT s.game_id, s.ruleset, s.seed, s.turn, g.n, g.updated
		 FROM snapshots s
		 JOIN (
			SELECT game_id, MAX(turn) AS latest, COUNT(*) AS n, MAX(created_at) AS updated
			FROM snapshots
			GROUP BY game_id
		 ) g ON g.game_id = s.game_id AND g.latest = s.turn
		 ORDER BY g.updated DESC, s.game_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list games: %w", err)
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		var g GameSummary
		var seed, turn int64
		var updated any
		if err := rows.Scan(&g.GameID, &g.Ruleset, &seed, &turn, &g.Snapshots, &updated); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		g.Seed = uint64(seed)
		g.LatestTurn = uint32(turn)
		g.UpdatedAt = parseTime(updated)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return games, nil
}

// DeleteGame removes every snapshot of a game.
// Returns the number of snapshots deleted.
func (s *Store) DeleteGame(gameID string) (int64, error) {
	result, err := s.db.Exec("DELETE FROM snapshots WHERE game_id = ?", gameID)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot delete game: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count deleted rows: %w", err)
	}
	return n, nil
}

// parseTime handles both time.Time and string datetime values.
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

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	return io.ReadAll(zr)
}
