package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stealsplit/game"
)

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteArchiveSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db, recentLimit: defaultRecentLimit}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) ArchiveGame(ctx context.Context, state game.State, summary game.Summary) error {
	entry, err := newArchiveEntry(state, summary)
	if err != nil {
		return err
	}
	rec := entry.record
	nowMs := time.Now().UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO archived_games (
    game_id, finished_at_ms, rounds, winner, summary_json, tape_blob, digest, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE
SET
    finished_at_ms = excluded.finished_at_ms,
    rounds = excluded.rounds,
    winner = excluded.winner,
    summary_json = excluded.summary_json,
    tape_blob = excluded.tape_blob,
    digest = excluded.digest
`, rec.GameID, rec.FinishedAt.UnixMilli(), rec.Rounds, rec.Winner, string(entry.summaryJSON), entry.tape, rec.Digest, nowMs); err != nil {
		return fmt.Errorf("insert archived game %s: %w", rec.GameID, err)
	}

	if s.recentLimit > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM archived_games
WHERE id IN (
    SELECT id
    FROM archived_games
    ORDER BY finished_at_ms DESC, id DESC
    LIMIT -1 OFFSET ?
)
`, s.recentLimit); err != nil {
			return fmt.Errorf("trim archive: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteService) ListRecent(ctx context.Context, limit int) ([]GameRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, finished_at_ms, rounds, winner, summary_json, digest
FROM archived_games
ORDER BY finished_at_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]GameRecord, 0, limit)
	for rows.Next() {
		var rec GameRecord
		var finishedMs int64
		var summaryRaw string
		if err := rows.Scan(&rec.GameID, &finishedMs, &rec.Rounds, &rec.Winner, &summaryRaw, &rec.Digest); err != nil {
			return nil, err
		}
		rec.FinishedAt = time.UnixMilli(finishedMs).UTC()
		rec.Summary, _ = decodeSummary(rec.GameID, []byte(summaryRaw))
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (s *SQLiteService) GetGame(ctx context.Context, gameID string) (*GameDetail, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, ErrNotFound
	}
	var rec GameRecord
	var finishedMs int64
	var summaryRaw string
	var tape []byte
	err := s.db.QueryRowContext(ctx, `
SELECT game_id, finished_at_ms, rounds, winner, summary_json, digest, tape_blob
FROM archived_games
WHERE game_id = ?
`, gameID).Scan(&rec.GameID, &finishedMs, &rec.Rounds, &rec.Winner, &summaryRaw, &rec.Digest, &tape)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.FinishedAt = time.UnixMilli(finishedMs).UTC()
	return decodeStoredDetail(rec, []byte(summaryRaw), tape)
}

func ensureSQLiteArchiveSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS archived_games (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id TEXT NOT NULL UNIQUE,
    finished_at_ms INTEGER NOT NULL,
    rounds INTEGER NOT NULL,
    winner TEXT NOT NULL,
    summary_json TEXT NOT NULL DEFAULT '{}',
    tape_blob BLOB NOT NULL,
    digest TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_archived_games_recent ON archived_games(finished_at_ms DESC, id DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
