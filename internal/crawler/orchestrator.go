// Package crawler drives the per-region, per-category ingestion loop:
// resolve boundary, fetch candidates, filter, deduplicate identities,
// enrich, persist — with resumable progress committed after each category.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ddanilov/poisk/internal/catalog"
	"github.com/ddanilov/poisk/internal/geocode"
	"github.com/ddanilov/poisk/internal/identity"
	"github.com/ddanilov/poisk/internal/model"
	"github.com/ddanilov/poisk/internal/quality"
)

// BoundaryResolver resolves a region name to its bounding box.
type BoundaryResolver interface {
	Resolve(ctx context.Context, regionName string) (*model.BoundingBox, error)
}

// CandidateSource fetches raw candidates for one category inside a box.
type CandidateSource interface {
	Fetch(ctx context.Context, tpl model.CategoryTemplate, box model.BoundingBox) ([]model.Candidate, error)
}

// Geocoder resolves a free-text address to coordinates, or nil.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*model.Coordinates, error)
}

// Describer drafts a description for a record that lacks one. Optional.
type Describer interface {
	Describe(ctx context.Context, rec model.CatalogRecord) (string, error)
}

// Summary accumulates counters over one Run.
type Summary struct {
	RegionsProcessed int
	RegionsSkipped   int
	Candidates       int
	Inserted         int
	QualityRejected  int
	AlreadySeen      int
	Conflicts        int
	Unlocatable      int
}

// Orchestrator wires the ingestion pipeline together. Single-threaded by
// design: one region, one category, one candidate at a time, so memory stays
// bounded and external rate limits are respected.
type Orchestrator struct {
	boundaries BoundaryResolver
	source     CandidateSource
	gate       *quality.Gate
	identities *identity.Resolver
	geocoder   Geocoder
	store      catalog.Store
	progress   *ProgressStore
	describer  Describer

	categoryDelay time.Duration
	recordDelay   time.Duration
	dryRun        bool
	log           io.Writer

	// drySeen replaces identity persistence during a dry run so duplicate
	// candidates within the run are still counted once.
	drySeen            map[string]bool
	warnedNoCredential bool
}

// Options configures an Orchestrator.
type Options struct {
	Boundaries BoundaryResolver
	Source     CandidateSource
	Gate       *quality.Gate
	Identities *identity.Resolver
	Geocoder   Geocoder
	Store      catalog.Store
	Progress   *ProgressStore
	Describer  Describer // optional

	CategoryDelay time.Duration
	RecordDelay   time.Duration
	DryRun        bool
	Log           io.Writer // optional verbose output
}

// New creates an orchestrator. The inter-record delay is floored at half the
// inter-category delay to keep per-host pacing consistent.
func New(opts Options) *Orchestrator {
	log := opts.Log
	if log == nil {
		log = io.Discard
	}
	recordDelay := opts.RecordDelay
	if recordDelay < opts.CategoryDelay/2 {
		recordDelay = opts.CategoryDelay / 2
	}
	o := &Orchestrator{
		boundaries:    opts.Boundaries,
		source:        opts.Source,
		gate:          opts.Gate,
		identities:    opts.Identities,
		geocoder:      opts.Geocoder,
		store:         opts.Store,
		progress:      opts.Progress,
		describer:     opts.Describer,
		categoryDelay: opts.CategoryDelay,
		recordDelay:   recordDelay,
		dryRun:        opts.DryRun,
		log:           log,
	}
	if o.dryRun {
		o.drySeen = make(map[string]bool)
	}
	return o
}

// saveProgress persists the progress document. Dry runs never write it: a
// preview must leave the resumable state exactly as it found it.
func (o *Orchestrator) saveProgress(p *Progress) error {
	if o.dryRun {
		return nil
	}
	return o.progress.Save(p)
}

// Run walks every unfinished region through the full category list.
// Per-region and per-category failures are isolated: a region that cannot be
// resolved is skipped, a category that cannot be fetched contributes zero
// candidates, and the run continues. Record-level idempotence comes from the
// identity resolver, so re-walking a partially done region never
// double-inserts.
func (o *Orchestrator) Run(ctx context.Context, regions []string, categories []model.CategoryTemplate) (*Summary, error) {
	progress, err := o.progress.Load()
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	summary := &Summary{}
	for _, region := range regions {
		if progress.Completed[region] {
			fmt.Fprintf(o.log, "Region %q already completed, skipping\n", region)
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := o.crawlRegion(ctx, region, categories, progress, summary); err != nil {
			// The in-progress marker must not outlive a failed region, or a
			// crashed run leaves it permanently blocked.
			progress.InProgress = ""
			if saveErr := o.saveProgress(progress); saveErr != nil {
				fmt.Fprintf(o.log, "Warning: persist progress: %v\n", saveErr)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			fmt.Fprintf(o.log, "Region %q skipped: %v\n", region, err)
			summary.RegionsSkipped++
			continue
		}

		progress.Completed[region] = true
		progress.RegionsCompleted++
		progress.InProgress = ""
		if err := o.saveProgress(progress); err != nil {
			return summary, fmt.Errorf("persist progress: %w", err)
		}
		summary.RegionsProcessed++
	}

	return summary, nil
}

func (o *Orchestrator) crawlRegion(ctx context.Context, region string, categories []model.CategoryTemplate, progress *Progress, summary *Summary) error {
	progress.InProgress = region
	if err := o.saveProgress(progress); err != nil {
		return fmt.Errorf("persist progress: %w", err)
	}

	box, cached := progress.Boxes[region]
	if !cached {
		resolved, err := o.boundaries.Resolve(ctx, region)
		if err != nil {
			return err
		}
		box = *resolved
		progress.Boxes[region] = box
	}

	fmt.Fprintf(o.log, "Region %q: box (%.4f, %.4f, %.4f, %.4f)\n",
		region, box.South, box.West, box.North, box.East)

	for i, tpl := range categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			o.sleep(ctx, o.categoryDelay)
		}

		candidates, err := o.source.Fetch(ctx, tpl, box)
		if err != nil {
			// Transient by contract: zero candidates for this category.
			fmt.Fprintf(o.log, "Category %q in %q: fetch failed, skipping: %v\n", tpl.Code, region, err)
			candidates = nil
		}
		summary.Candidates += len(candidates)

		for _, cand := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.ingest(ctx, cand, summary, progress)
			o.sleep(ctx, o.recordDelay)
		}

		// Commit after each completed category: at most one category's work
		// is lost on abrupt termination.
		if err := o.saveProgress(progress); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}
		fmt.Fprintf(o.log, "Category %q in %q: %d candidates\n", tpl.Code, region, len(candidates))
	}

	return nil
}

// ingest runs one candidate through the gate, identity check, optional
// geocoding and the catalog insert. All failures are per-candidate.
func (o *Orchestrator) ingest(ctx context.Context, cand model.Candidate, summary *Summary, progress *Progress) {
	title := o.gate.SanitizeTitle(cand.Name)
	if title == "" || !o.gate.IsValidTitleStrict(title) {
		summary.QualityRejected++
		return
	}

	if cand.Coords == nil && cand.Address != "" {
		coords, err := o.geocoder.Resolve(ctx, cand.Address)
		switch {
		case errors.Is(err, geocode.ErrMissingCredential):
			if !o.warnedNoCredential {
				fmt.Fprintf(o.log, "Warning: geocoding disabled: %v\n", err)
				o.warnedNoCredential = true
			}
		case err != nil:
			fmt.Fprintf(o.log, "Warning: geocode %q: %v\n", cand.Address, err)
		case coords != nil:
			cand.Coords = coords
		}
	}
	if cand.Coords == nil {
		summary.Unlocatable++
		return
	}

	key, ok := identity.CanonicalKey(cand)
	if !ok {
		summary.Unlocatable++
		return
	}
	if o.identities.HasSeen(key) || (o.dryRun && o.drySeen[key]) {
		summary.AlreadySeen++
		return
	}

	rec := o.toRecord(cand, title)
	if o.describer != nil && rec.Description == "" {
		if desc, err := o.describer.Describe(ctx, rec); err != nil {
			fmt.Fprintf(o.log, "Warning: describe %q: %v\n", rec.Title, err)
		} else if desc != "" {
			rec.Description = desc
			rec.Completeness = completeness(rec)
			rec.NeedsCompletion = rec.Completeness < completionThreshold
		}
	}

	// Dry runs touch nothing durable: no catalog insert, no identity
	// persistence.
	if o.dryRun {
		summary.Inserted++
		o.drySeen[key] = true
		return
	}

	if _, err := o.store.Insert(ctx, rec); err != nil {
		if !errors.Is(err, catalog.ErrConflict) {
			fmt.Fprintf(o.log, "Warning: insert %q: %v\n", rec.Title, err)
			return
		}
		// Already in the catalog: remember the identity anyway.
		summary.Conflicts++
	} else {
		summary.Inserted++
		progress.RecordsIngested++
	}

	if err := o.identities.MarkSeen(key); err != nil {
		fmt.Fprintf(o.log, "Warning: persist identity %q: %v\n", key, err)
	}
}

const completionThreshold = 60

// toRecord builds the catalog record and scores its completeness from the
// data the candidate actually carries.
func (o *Orchestrator) toRecord(cand model.Candidate, title string) model.CatalogRecord {
	rec := model.CatalogRecord{
		Title:       title,
		Description: cand.Tags["description"],
		Lat:         cand.Coords.Lat,
		Lng:         cand.Coords.Lng,
		Category:    cand.Category,
		Source:      "import",
		Active:      true,
	}
	if cand.Address != "" {
		rec.Description = joinNonEmpty(rec.Description, cand.Address)
	}
	rec.Completeness = completeness(rec)
	rec.NeedsCompletion = rec.Completeness < completionThreshold
	return rec
}

// completeness scores how much descriptive data a record holds, 0-100.
func completeness(rec model.CatalogRecord) int {
	score := 0
	if rec.Title != "" {
		score += 30
	}
	if rec.Lat != 0 || rec.Lng != 0 {
		score += 25
	}
	if rec.Category != "" {
		score += 15
	}
	if len(rec.Description) >= 20 {
		score += 30
	} else if rec.Description != "" {
		score += 15
	}
	return score
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
