// Package catalog persists admitted records and answers the proximity
// queries duplicate detection runs on.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/ddanilov/poisk/internal/model"
)

// ErrConflict reports a unique-constraint violation on insert. Callers treat
// it as "already exists", not as a failure.
var ErrConflict = errors.New("catalog: record already exists")

// NearQuery describes a proximity search: active records inside Rect whose
// title textually overlaps TitleFilter (case-insensitive substring, either
// direction). ExcludeID and Category are optional narrowing filters.
type NearQuery struct {
	Lat         float64
	Lng         float64
	Rect        model.BoundingBox
	TitleFilter string
	ExcludeID   int64  // 0 = no exclusion
	Category    string // "" = any
}

// NearRow is a catalog record annotated with its great-circle distance from
// the query point.
type NearRow struct {
	Record    model.CatalogRecord
	DistanceM float64
}

// Store is the persistence interface the engine depends on.
type Store interface {
	// Insert stores the record and returns its id, or ErrConflict when an
	// identical record is already present.
	Insert(ctx context.Context, rec model.CatalogRecord) (int64, error)

	// ExistsNear reports whether a record with the same title (case
	// insensitive) sits within tolerance degrees of the point.
	ExistsNear(ctx context.Context, title string, lat, lng, tolerance float64) (bool, error)

	// CountAll returns the number of active records.
	CountAll(ctx context.Context) (int, error)

	// QueryNear returns active records matching the query, each with its
	// distance from the query point.
	QueryNear(ctx context.Context, q NearQuery) ([]NearRow, error)
}

// titleOverlaps is the shared admission filter: case-insensitive substring
// containment in either direction.
func titleOverlaps(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
