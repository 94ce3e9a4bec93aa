// Package storage persists fetched feed collections and sent notifications
// in a local SQLite database.
//
// A collection is stored per query key and always replaced as a whole in a
// single transaction, mirroring how the in-memory session swaps it. Old
// query keys are rotated out to bound the database size.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/propboard/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no collection is stored for a query key.
var ErrNotFound = errors.New("snapshot not found")

const memoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	query_key  TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	line_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS bet_lines (
	query_key TEXT NOT NULL,
	position  INTEGER NOT NULL,
	line_id   TEXT NOT NULL,
	payload   TEXT NOT NULL,
	PRIMARY KEY (query_key, position)
);
CREATE TABLE IF NOT EXISTS notifications (
	line_id TEXT PRIMARY KEY,
	odds    REAL NOT NULL,
	edge    REAL NOT NULL,
	sent_at INTEGER NOT NULL
);
`

// Storage is a SQLite-backed store. It is safe for concurrent use.
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func New(path string, dirPermissions os.FileMode) (*Storage, error) {
	if path == "" {
		return nil, errors.New("storage path must not be empty")
	}
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and every
	// connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// storedLine keeps the supplied-window masks that the JSON form of a line
// omits.
type storedLine struct {
	Line      models.BetLine    `json:"line"`
	HitMask   models.WindowMask `json:"hit_mask"`
	ValueMask models.WindowMask `json:"value_mask"`
}

// Replace stores lines as the collection of queryKey, replacing whatever was
// stored before.
func (s *Storage) Replace(ctx context.Context, queryKey string, lines []models.BetLine, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bet_lines WHERE query_key = ?`, queryKey); err != nil {
		return fmt.Errorf("failed to clear lines: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bet_lines (query_key, position, line_id, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range lines {
		payload, err := json.Marshal(storedLine{
			Line:      lines[i],
			HitMask:   lines[i].Hit.Supplied,
			ValueMask: lines[i].Value.Supplied,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal line %s: %w", lines[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, queryKey, i, lines[i].ID, string(payload)); err != nil {
			return fmt.Errorf("failed to insert line %s: %w", lines[i].ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (query_key, fetched_at, line_count) VALUES (?, ?, ?)
		ON CONFLICT(query_key) DO UPDATE SET fetched_at = excluded.fetched_at, line_count = excluded.line_count`,
		queryKey, fetchedAt.UnixMilli(), len(lines))
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load returns the stored collection of queryKey in its original order and
// the time it was fetched.
func (s *Storage) Load(ctx context.Context, queryKey string) ([]models.BetLine, time.Time, error) {
	var fetchedMs int64
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM snapshots WHERE query_key = ?`, queryKey).Scan(&fetchedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM bet_lines WHERE query_key = ? ORDER BY position`, queryKey)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	lines := make([]models.BetLine, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan line: %w", err)
		}
		var sl storedLine
		if err := json.Unmarshal([]byte(payload), &sl); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to unmarshal line: %w", err)
		}
		sl.Line.Hit.Supplied = sl.HitMask
		sl.Line.Value.Supplied = sl.ValueMask
		lines = append(lines, sl.Line)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to iterate lines: %w", err)
	}
	return lines, time.UnixMilli(fetchedMs), nil
}

// SnapshotInfo describes one stored collection.
type SnapshotInfo struct {
	QueryKey  string
	FetchedAt time.Time
	Lines     int
}

// Snapshots lists stored collections, most recently fetched first.
func (s *Storage) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT query_key, fetched_at, line_count FROM snapshots ORDER BY fetched_at DESC, query_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]SnapshotInfo, 0)
	for rows.Next() {
		var info SnapshotInfo
		var ms int64
		if err := rows.Scan(&info.QueryKey, &ms, &info.Lines); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		info.FetchedAt = time.UnixMilli(ms)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Rotate keeps the maxSnapshots most recently fetched collections and
// deletes the rest.
func (s *Storage) Rotate(ctx context.Context, maxSnapshots int) error {
	if maxSnapshots < 1 {
		return fmt.Errorf("max snapshots must be at least 1, got %d", maxSnapshots)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT query_key FROM snapshots ORDER BY fetched_at DESC, query_key LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM bet_lines WHERE query_key IN (`+stale+`)`, maxSnapshots); err != nil {
		return fmt.Errorf("failed to rotate lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE query_key IN (`+stale+`)`, maxSnapshots); err != nil {
		return fmt.Errorf("failed to rotate snapshots: %w", err)
	}
	return tx.Commit()
}

// Notification records a line sent to the notification channel.
type Notification struct {
	LineID string
	Odds   float64
	Edge   float64
	SentAt time.Time
}

// RecordNotification stores n, replacing any earlier record of the line.
func (s *Storage) RecordNotification(ctx context.Context, n Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (line_id, odds, edge, sent_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(line_id) DO UPDATE SET odds = excluded.odds, edge = excluded.edge, sent_at = excluded.sent_at`,
		n.LineID, n.Odds, n.Edge, n.SentAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// Notifications returns the records sent at or after since.
func (s *Storage) Notifications(ctx context.Context, since time.Time) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line_id, odds, edge, sent_at FROM notifications WHERE sent_at >= ? ORDER BY sent_at`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		var ms int64
		if err := rows.Scan(&n.LineID, &n.Odds, &n.Edge, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.SentAt = time.UnixMilli(ms)
		out = append(out, n)
	}
	return out, rows.Err()
}

// PruneNotifications deletes records sent before cutoff.
func (s *Storage) PruneNotifications(ctx context.Context, cutoff time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE sent_at < ?`, cutoff.UnixMilli()); err != nil {
		return fmt.Errorf("failed to prune notifications: %w", err)
	}
	return nil
}
