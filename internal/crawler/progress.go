package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ddanilov/poisk/internal/model"
)

// Progress is the resumable state of an ingestion run: which regions are
// done, cumulative counters and cached region boundaries.
type Progress struct {
	Completed        map[string]bool              `json:"completed"`
	InProgress       string                       `json:"in_progress,omitempty"`
	RecordsIngested  int                          `json:"records_ingested"`
	RegionsCompleted int                          `json:"regions_completed"`
	Boxes            map[string]model.BoundingBox `json:"boxes,omitempty"`
}

// NewProgress returns an empty progress document.
func NewProgress() *Progress {
	return &Progress{
		Completed: make(map[string]bool),
		Boxes:     make(map[string]model.BoundingBox),
	}
}

// Status reports how far ingestion has progressed for a region.
func (p *Progress) Status(name string) model.RegionStatus {
	switch {
	case p.Completed[name]:
		return model.RegionCompleted
	case p.InProgress == name:
		return model.RegionInProgress
	default:
		return model.RegionNotStarted
	}
}

// Regions lists every region the document knows about, with status and any
// cached bounding box.
func (p *Progress) Regions() []model.Region {
	names := make(map[string]bool, len(p.Completed))
	for name := range p.Completed {
		names[name] = true
	}
	for name := range p.Boxes {
		names[name] = true
	}
	if p.InProgress != "" {
		names[p.InProgress] = true
	}

	out := make([]model.Region, 0, len(names))
	for name := range names {
		r := model.Region{Name: name, Status: p.Status(name)}
		if box, ok := p.Boxes[name]; ok {
			r.Box = &box
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// legacyProgress is the historical document shape, with the completed set
// stored as a list of region names.
type legacyProgress struct {
	Completed        []string                     `json:"completed"`
	RecordsIngested  int                          `json:"records_ingested"`
	RegionsCompleted int                          `json:"regions_completed"`
	Boxes            map[string]model.BoundingBox `json:"boxes"`
}

// ProgressStore persists Progress as a JSON document.
type ProgressStore struct {
	path string
}

// NewProgressStore creates a store at stateDir/progress.json.
func NewProgressStore(stateDir string) *ProgressStore {
	return &ProgressStore{path: filepath.Join(stateDir, "progress.json")}
}

// Load reads the progress document, tolerating the legacy list shape. A
// missing file is a fresh run.
func (s *ProgressStore) Load() (*Progress, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewProgress(), nil
		}
		return nil, fmt.Errorf("read progress: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err == nil && p.Completed != nil {
		if p.Boxes == nil {
			p.Boxes = make(map[string]model.BoundingBox)
		}
		return &p, nil
	}

	var legacy legacyProgress
	if err := json.Unmarshal(data, &legacy); err == nil {
		p := NewProgress()
		for _, name := range legacy.Completed {
			p.Completed[name] = true
		}
		p.RecordsIngested = legacy.RecordsIngested
		p.RegionsCompleted = legacy.RegionsCompleted
		if legacy.Boxes != nil {
			p.Boxes = legacy.Boxes
		}
		return p, nil
	}

	return nil, fmt.Errorf("parse progress %s: unrecognized document shape", s.path)
}

// Save rewrites the progress document atomically.
func (s *ProgressStore) Save(p *Progress) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace progress: %w", err)
	}
	return nil
}
