package model

import "time"

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a rectangular geographic area in (south, west, north, east)
// ordering, the ordering used by all internal callers regardless of what the
// upstream service returns.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// RegionStatus tracks how far ingestion has progressed for a region.
type RegionStatus string

const (
	RegionNotStarted RegionStatus = "not_started"
	RegionInProgress RegionStatus = "in_progress"
	RegionCompleted  RegionStatus = "completed"
)

// Region is a named geographic area to crawl.
type Region struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Box    *BoundingBox `json:"box,omitempty"`
	Status RegionStatus `json:"status"`
}

// CategoryTemplate drives one spatial query against the candidate source.
// Query contains a {{bbox}} placeholder substituted with
// "south,west,north,east" at request time.
type CategoryTemplate struct {
	Code  string   `yaml:"code" json:"code"`
	Label string   `yaml:"label" json:"label"`
	Query string   `yaml:"query" json:"query"`
	Kinds []string `yaml:"kinds,omitempty" json:"kinds,omitempty"`
}

// Candidate is a POI or event proposed by an external source, prior to
// admission into the catalog.
type Candidate struct {
	ExternalID string            `json:"external_id,omitempty"`
	Name       string            `json:"name"`
	Coords     *Coordinates      `json:"coords,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	Address    string            `json:"address,omitempty"`
	Category   string            `json:"category"`
}

// CatalogRecord is a persisted catalog entity.
type CatalogRecord struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Lat             float64   `json:"lat"`
	Lng             float64   `json:"lng"`
	Category        string    `json:"category"`
	Completeness    int       `json:"completeness"` // 0-100
	NeedsCompletion bool      `json:"needs_completion"`
	Active          bool      `json:"active"`
	Source          string    `json:"source,omitempty"`
	CreatorID       string    `json:"creator_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
