package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/domain"
)

// EnrichConfig tunes a single enrichment run.
type EnrichConfig struct {
	BatchSize       int  // records per checkpoint (default 50)
	Workers         int  // concurrent fetches; clamped to the client's rps upstream
	Limit           int  // cap on records touched this run; 0 = no cap
	PreserveCurated bool // same merge gate as the reconcile pipeline
	CacheTTL        time.Duration
	SearchRadius    int // meters, for place-id resolution biased to record coords
}

func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{BatchSize: 50, Workers: 4, PreserveCurated: true, CacheTTL: 24 * time.Hour, SearchRadius: 5000}
}

// CheckpointSaver persists the job state after each batch.
type CheckpointSaver func(*domain.JobState) error

// EnrichmentService backfills ratings, photos, hours, and identifiers from
// the places service. Records that fail after the client's retries are left
// unchanged and logged; only the coordinate auditor removes records.
type EnrichmentService struct {
	places domain.PlacesClient
	cache  domain.Cache // optional
	cfg    EnrichConfig

	// live run counters, safe for concurrent reads (ops server)
	total     atomic.Int64
	processed atomic.Int64
	enriched  atomic.Int64
	failed    atomic.Int64
	startedAt time.Time
}

// Stats is a point-in-time snapshot of the run counters.
type Stats struct {
	Total     int
	Processed int
	Enriched  int
	Failed    int
	StartedAt time.Time
}

func (s *EnrichmentService) Stats() Stats {
	return Stats{
		Total:     int(s.total.Load()),
		Processed: int(s.processed.Load()),
		Enriched:  int(s.enriched.Load()),
		Failed:    int(s.failed.Load()),
		StartedAt: s.startedAt,
	}
}

func NewEnrichmentService(places domain.PlacesClient, cache domain.Cache, cfg EnrichConfig) *EnrichmentService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SearchRadius <= 0 {
		cfg.SearchRadius = 5000
	}
	return &EnrichmentService{places: places, cache: cache, cfg: cfg}
}

// NeedsEnrichment reports whether a record still lacks the enriched fields.
func NeedsEnrichment(r *domain.CatalogRecord) bool {
	return r.Ratings.ReviewCount == 0 || len(r.Media.Images) == 0
}

// Run enriches records in place, batch by batch. Within a batch, fetches
// run on a bounded worker pool; the checkpoint is written only after the
// whole batch settles, so checkpoints never reorder. Cancellation between
// checkpoints loses at most the current batch, which is idempotent to redo.
func (s *EnrichmentService) Run(ctx context.Context, records []domain.CatalogRecord, state *domain.JobState, save CheckpointSaver, report *domain.Report) error {
	sem := semaphore.NewWeighted(int64(s.cfg.Workers))
	touched := 0
	s.total.Store(int64(len(records)))
	s.startedAt = time.Now().UTC()

	for start := 0; start < len(records); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + s.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}

		var (
			wg sync.WaitGroup
			mu sync.Mutex // report + enriched-id bookkeeping
		)
		enrichedIDs := make([]string, 0, end-start)

		for i := start; i < end; i++ {
			rec := &records[i]

			// The report is shared with in-flight workers from this batch;
			// every mutation goes through mu.
			if state.Processed(rec.ID) {
				mu.Lock()
				report.AddSkipped(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "already in checkpoint"})
				mu.Unlock()
				continue
			}
			if !NeedsEnrichment(rec) {
				state.Mark(rec.ID)
				mu.Lock()
				report.AddSkipped(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "already enriched"})
				mu.Unlock()
				continue
			}
			if s.cfg.Limit > 0 && touched >= s.cfg.Limit {
				mu.Lock()
				report.AddSkipped(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "run limit reached"})
				mu.Unlock()
				continue
			}
			touched++

			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return err
			}
			wg.Add(1)
			go func(rec *domain.CatalogRecord) {
				defer wg.Done()
				defer sem.Release(1)

				changed, err := s.enrichRecord(ctx, rec)
				s.processed.Add(1)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					s.failed.Add(1)
					observability.ObserveRecord("enrich", "failed")
					log.Warn().Str("id", rec.ID).Err(err).Msg("enrichment failed, record unchanged")
					report.AddSkipped(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "enrichment failed: " + err.Error()})
					return
				}
				observability.ObserveRecord("enrich", "ok")
				enrichedIDs = append(enrichedIDs, rec.ID)
				if changed {
					s.enriched.Add(1)
					report.EnrichedCount++
					report.AddUpdated(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "enriched"})
				} else {
					report.AddSkipped(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "nothing to backfill"})
				}
			}(rec)
		}
		wg.Wait()

		for _, id := range enrichedIDs {
			state.Mark(id)
		}
		state.LastIndex = end
		state.UpdatedAt = time.Now().UTC()
		if save != nil {
			if err := save(state); err != nil {
				return fmt.Errorf("checkpoint: %w", err)
			}
		}

		if s.cfg.Limit > 0 && touched >= s.cfg.Limit {
			break
		}
	}
	return nil
}

// enrichRecord resolves the external place id if needed, fetches details,
// and folds them into the record with the fill-empty merge policy.
func (s *EnrichmentService) enrichRecord(ctx context.Context, rec *domain.CatalogRecord) (bool, error) {
	placeID := rec.Location.ExternalPlaceID
	resolved := false
	if placeID == "" {
		lat, lng := rec.Location.Latitude, rec.Location.Longitude
		if !rec.HasCoordinates() {
			lat, lng = refLat, refLng
		}
		results, err := s.places.TextSearch(ctx, rec.Name, lat, lng, s.cfg.SearchRadius)
		if err != nil {
			return false, fmt.Errorf("resolve place id: %w", err)
		}
		if len(results) == 0 {
			return false, fmt.Errorf("resolve place id: no results for %q", rec.Name)
		}
		pid := firstNonEmptyAlias(results[0], candidateAliases, "place_id")
		if pid == nil {
			return false, fmt.Errorf("resolve place id: result without place id")
		}
		placeID = *pid
		resolved = true
	}

	details, err := s.fetchDetails(ctx, placeID)
	if err != nil {
		// Nothing has been written yet; a failed record really is unchanged.
		return false, fmt.Errorf("place details %s: %w", placeID, err)
	}
	changed := false
	if resolved {
		rec.Location.ExternalPlaceID = placeID
		changed = true
	}

	c := mapCandidate(details, "places:details")
	c.Name = rec.Name // enrichment never renames
	c.Lat, c.Lng = nil, nil
	if MergeInto(rec, c, MergeConfig{PreserveCurated: s.cfg.PreserveCurated}, time.Now().UTC()) {
		changed = true
	}
	return changed, nil
}

// fetchDetails reads through the optional cache so repeat runs against the
// same place ids stay off the paid API.
func (s *EnrichmentService) fetchDetails(ctx context.Context, placeID string) (map[string]any, error) {
	key := "place:" + placeID
	if s.cache != nil {
		var cached map[string]any
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	details, err := s.places.Details(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, details, int(s.cfg.CacheTTL.Seconds()))
	}
	return details, nil
}
