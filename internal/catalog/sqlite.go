package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ddanilov/poisk/internal/geo"
	"github.com/ddanilov/poisk/internal/model"
)

// Schema for the records table.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	category TEXT NOT NULL,
	completeness INTEGER NOT NULL DEFAULT 0,
	needs_completion INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 1,
	source TEXT NOT NULL DEFAULT '',
	creator_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(title, lat, lng)
);
CREATE INDEX IF NOT EXISTS idx_records_lat_lng ON records(lat, lng);
CREATE INDEX IF NOT EXISTS idx_records_category ON records(category);
`

// SQLiteStore implements Store on a local SQLite database via the pure-Go
// modernc driver. Safe for concurrent reads; the ingestion path assumes a
// single writer.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the catalog database at path.
// Use ":memory:" for an ephemeral store in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert stores the record, filling timestamps when unset.
func (s *SQLiteStore) Insert(ctx context.Context, rec model.CatalogRecord) (int64, error) {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records
			(title, description, lat, lng, category, completeness,
			 needs_completion, active, source, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title, rec.Description, rec.Lat, rec.Lng, rec.Category,
		rec.Completeness, boolInt(rec.NeedsCompletion), boolInt(rec.Active),
		rec.Source, rec.CreatorID, rec.CreatedAt.Unix(), rec.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert record id: %w", err)
	}
	return id, nil
}

// ExistsNear reports whether a same-titled record sits within tolerance
// degrees of the point. Title comparison happens in Go so Cyrillic titles
// case-fold correctly (SQLite lower() is ASCII-only).
func (s *SQLiteStore) ExistsNear(ctx context.Context, title string, lat, lng, tolerance float64) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title FROM records
		WHERE active = 1
		  AND lat BETWEEN ? AND ?
		  AND lng BETWEEN ? AND ?`,
		lat-tolerance, lat+tolerance, lng-tolerance, lng+tolerance,
	)
	if err != nil {
		return false, fmt.Errorf("exists near: %w", err)
	}
	defer rows.Close()

	want := strings.ToLower(strings.TrimSpace(title))
	for rows.Next() {
		var got string
		if err := rows.Scan(&got); err != nil {
			return false, fmt.Errorf("exists near scan: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(got)) == want {
			return true, nil
		}
	}
	return false, rows.Err()
}

// CountAll returns the number of active records.
func (s *SQLiteStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE active = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// QueryNear returns active records inside the rectangle whose titles overlap
// the filter, annotated with haversine distance. The rectangle and category
// narrow in SQL; title overlap and distance are computed in Go.
func (s *SQLiteStore) QueryNear(ctx context.Context, q NearQuery) ([]NearRow, error) {
	query := `
		SELECT id, title, description, lat, lng, category, completeness,
		       needs_completion, active, source, creator_id, created_at, updated_at
		FROM records
		WHERE active = 1
		  AND lat BETWEEN ? AND ?
		  AND lng BETWEEN ? AND ?`
	args := []any{q.Rect.South, q.Rect.North, q.Rect.West, q.Rect.East}

	if q.ExcludeID != 0 {
		query += ` AND id != ?`
		args = append(args, q.ExcludeID)
	}
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, q.Category)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query near: %w", err)
	}
	defer rows.Close()

	var out []NearRow
	for rows.Next() {
		var rec model.CatalogRecord
		var needsCompletion, active int
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.Lat, &rec.Lng,
			&rec.Category, &rec.Completeness, &needsCompletion, &active,
			&rec.Source, &rec.CreatorID, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("query near scan: %w", err)
		}
		rec.NeedsCompletion = needsCompletion != 0
		rec.Active = active != 0
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()

		if q.TitleFilter != "" && !titleOverlaps(rec.Title, q.TitleFilter) {
			continue
		}

		out = append(out, NearRow{
			Record:    rec,
			DistanceM: geo.HaversineDistance(q.Lat, q.Lng, rec.Lat, rec.Lng),
		})
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
