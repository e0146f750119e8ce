package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ddanilov/poisk/internal/geo"
	"github.com/ddanilov/poisk/internal/model"
)

// MemoryStore is an in-memory Store for tests and dry runs. Semantics match
// the SQLite adapter, including ErrConflict on duplicate (title, lat, lng).
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []model.CatalogRecord
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Insert stores the record, enforcing (title, lat, lng) uniqueness.
func (s *MemoryStore) Insert(_ context.Context, rec model.CatalogRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Title == rec.Title && r.Lat == rec.Lat && r.Lng == rec.Lng {
			return 0, ErrConflict
		}
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	rec.ID = s.nextID
	s.nextID++
	s.records = append(s.records, rec)
	return rec.ID, nil
}

// ExistsNear reports whether a same-titled record sits within tolerance
// degrees of the point.
func (s *MemoryStore) ExistsNear(_ context.Context, title string, lat, lng, tolerance float64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := strings.ToLower(strings.TrimSpace(title))
	for _, r := range s.records {
		if !r.Active {
			continue
		}
		if r.Lat < lat-tolerance || r.Lat > lat+tolerance ||
			r.Lng < lng-tolerance || r.Lng > lng+tolerance {
			continue
		}
		if strings.ToLower(strings.TrimSpace(r.Title)) == want {
			return true, nil
		}
	}
	return false, nil
}

// CountAll returns the number of active records.
func (s *MemoryStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.Active {
			n++
		}
	}
	return n, nil
}

// QueryNear returns active records inside the rectangle whose titles overlap
// the filter, annotated with haversine distance.
func (s *MemoryStore) QueryNear(_ context.Context, q NearQuery) ([]NearRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []NearRow
	for _, r := range s.records {
		if !r.Active {
			continue
		}
		if q.ExcludeID != 0 && r.ID == q.ExcludeID {
			continue
		}
		if q.Category != "" && r.Category != q.Category {
			continue
		}
		if !q.Rect.Contains(r.Lat, r.Lng) {
			continue
		}
		if q.TitleFilter != "" && !titleOverlaps(r.Title, q.TitleFilter) {
			continue
		}
		out = append(out, NearRow{
			Record:    r,
			DistanceM: geo.HaversineDistance(q.Lat, q.Lng, r.Lat, r.Lng),
		})
	}
	return out, nil
}
