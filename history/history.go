// Package history keeps a local record of played games and what the bot
// decided on each turn. It is a debugging aid: the bot plays the same with
// or without it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/nstehr/colony/model"
	"github.com/nstehr/colony/planner"
)

// ErrUnknownGame is returned when a turn or result names a game that was
// never begun.
var ErrUnknownGame = errors.New("history: unknown game")

// Store is safe for concurrent use. Order lists are kept as zstd-compressed
// JSON since they are only read back when replaying a game.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder

	closeOnce sync.Once
	closeErr  error
}

// Game is one row of the games table.
type Game struct {
	ID      uuid.UUID
	Version string
	Rows    int
	Cols    int
	Started time.Time
	Ended   time.Time // zero while the game is running
	Turns   int
	Outcome string
}

// Turn is a recorded turn with its orders decompressed.
type Turn struct {
	Report planner.Report
	Orders []model.Order
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty history path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			grid_rows INTEGER NOT NULL,
			grid_cols INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			turns INTEGER NOT NULL DEFAULT 0,
			outcome TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS turns (
			game_id TEXT NOT NULL REFERENCES games(id),
			turn INTEGER NOT NULL,
			ants INTEGER NOT NULL,
			food INTEGER NOT NULL,
			food_routed INTEGER NOT NULL,
			unblocked INTEGER NOT NULL,
			explorers INTEGER NOT NULL,
			attackers INTEGER NOT NULL,
			idle INTEGER NOT NULL,
			orders INTEGER NOT NULL,
			unseen INTEGER NOT NULL,
			enemy_hills INTEGER NOT NULL,
			elapsed_us INTEGER NOT NULL,
			orders_zst BLOB NOT NULL,
			PRIMARY KEY (game_id, turn)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.dec.Close()
		s.closeErr = errors.Join(s.enc.Close(), s.db.Close())
	})
	return s.closeErr
}

// BeginGame records a new game and returns its id.
func (s *Store) BeginGame(ctx context.Context, version string, g model.Grid) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, version, grid_rows, grid_cols, started_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), version, g.Rows, g.Cols, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin game: %w", err)
	}
	return id, nil
}

// RecordTurn stores a turn report along with the orders that were sent.
// Recording the same turn twice keeps the latest.
func (s *Store) RecordTurn(ctx context.Context, game uuid.UUID, rep planner.Report, orders []model.Order) error {
	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	blob := s.enc.EncodeAll(raw, nil)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET turns = MAX(turns, ?) WHERE id = ?`, rep.Turn, game.String())
	if err != nil {
		return fmt.Errorf("record turn %d: %w", rep.Turn, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record turn %d: %w", rep.Turn, ErrUnknownGame)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO turns (game_id, turn, ants, food, food_routed, unblocked, explorers,
			attackers, idle, orders, unseen, enemy_hills, elapsed_us, orders_zst)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.String(), rep.Turn, rep.Ants, rep.Food, rep.FoodRouted, rep.Unblocked, rep.Explorers,
		rep.Attackers, rep.Idle, rep.Orders, rep.Unseen, rep.KnownEnemyHills,
		rep.Elapsed.Microseconds(), blob)
	if err != nil {
		return fmt.Errorf("record turn %d: %w", rep.Turn, err)
	}
	return tx.Commit()
}

// EndGame marks a game finished.
func (s *Store) EndGame(ctx context.Context, game uuid.UUID, lastTurn int, outcome string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET ended_at = ?, turns = MAX(turns, ?), outcome = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), lastTurn, outcome, game.String())
	if err != nil {
		return fmt.Errorf("end game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end game %s: %w", game, ErrUnknownGame)
	}
	return nil
}

// Game loads a single game row.
func (s *Store) Game(ctx context.Context, id uuid.UUID) (Game, error) {
	var (
		g              Game
		idStr, started string
		ended, outcome sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, version, grid_rows, grid_cols, started_at, ended_at, turns, outcome FROM games WHERE id = ?`,
		id.String()).Scan(&idStr, &g.Version, &g.Rows, &g.Cols, &started, &ended, &g.Turns, &outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrUnknownGame
	}
	if err != nil {
		return g, err
	}
	if g.ID, err = uuid.Parse(idStr); err != nil {
		return g, err
	}
	if g.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return g, err
	}
	if ended.Valid {
		if g.Ended, err = time.Parse(time.RFC3339Nano, ended.String); err != nil {
			return g, err
		}
	}
	g.Outcome = outcome.String
	return g, nil
}

// Turns returns every recorded turn of a game in turn order.
func (s *Store) Turns(ctx context.Context, game uuid.UUID) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn, ants, food, food_routed, unblocked, explorers, attackers, idle, orders,
			unseen, enemy_hills, elapsed_us, orders_zst
		FROM turns WHERE game_id = ? ORDER BY turn`, game.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var (
			t       Turn
			elapsed int64
			blob    []byte
		)
		r := &t.Report
		if err := rows.Scan(&r.Turn, &r.Ants, &r.Food, &r.FoodRouted, &r.Unblocked, &r.Explorers,
			&r.Attackers, &r.Idle, &r.Orders, &r.Unseen, &r.KnownEnemyHills, &elapsed, &blob); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsed) * time.Microsecond

		raw, err := s.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("turn %d orders: %w", r.Turn, err)
		}
		if err := json.Unmarshal(raw, &t.Orders); err != nil {
			return nil, fmt.Errorf("turn %d orders: %w", r.Turn, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
