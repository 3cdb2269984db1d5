package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/domain"
	"island_catalog/internal/geo"
)

// PipelineConfig bundles the reconcile-run knobs.
type PipelineConfig struct {
	Resolver ResolverConfig
	Merge    MergeConfig
	Limit    int // cap on candidates considered; 0 = all
}

// Pipeline is the stage-sequential reconciler: resolve duplicates, merge or
// add, infer vocabulary for newcomers, then audit coordinates. It works on
// the full in-memory working set; persistence belongs to the caller.
type Pipeline struct {
	classifier *geo.Classifier
	inferencer *Inferencer
	auditor    *Auditor
	cfg        PipelineConfig
}

func NewPipeline(classifier *geo.Classifier, auditor *Auditor, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		inferencer: NewInferencer(),
		auditor:    auditor,
		cfg:        cfg,
	}
}

// Reconcile folds scraped candidates into the catalog and returns the new
// record set. Every candidate ends up exactly once in the report as added,
// updated, or skipped; audit removals are reported separately.
func (p *Pipeline) Reconcile(ctx context.Context, catalog []domain.CatalogRecord, candidates []domain.ScrapedCandidate, report *domain.Report) []domain.CatalogRecord {
	records := append([]domain.CatalogRecord(nil), catalog...)
	now := time.Now().UTC()

	for n, c := range candidates {
		if p.cfg.Limit > 0 && n >= p.cfg.Limit {
			report.AddSkipped(domain.ReportEntry{Name: c.Name, Reason: "run limit reached"})
			continue
		}

		// A candidate with coordinates outside every fence can never
		// survive the audit; reject it up front with a clear reason.
		if c.Lat != nil && c.Lng != nil && p.classifier.Classify(*c.Lat, *c.Lng) == nil {
			observability.ObserveRecord("merge", "skipped")
			report.AddSkipped(domain.ReportEntry{Name: c.Name, Reason: "outside known regions"})
			continue
		}

		idx, decision := FindMatch(c, records, p.cfg.Resolver)
		if idx >= 0 {
			report.AddDuplicate(decision)
			rec := &records[idx]
			if MergeInto(rec, c, p.cfg.Merge, now) {
				observability.ObserveRecord("merge", "updated")
				report.AddUpdated(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "merged " + string(decision.Rule) + " match"})
			} else {
				observability.ObserveRecord("merge", "skipped")
				report.AddSkipped(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category, Reason: "no changes"})
			}
			continue
		}

		if c.Lat == nil || c.Lng == nil {
			// Unmatched and unplaceable: adding it would only feed the
			// auditor's removal list.
			observability.ObserveRecord("merge", "skipped")
			report.AddSkipped(domain.ReportEntry{Name: c.Name, Reason: "missing coordinates"})
			continue
		}

		rec := NewRecord(c, p.inferencer, now)
		records = append(records, rec)
		observability.ObserveRecord("merge", "added")
		report.AddAdded(domain.ReportEntry{ID: rec.ID, Name: rec.Name, Category: rec.Category})
	}

	// Backstop: legacy entries may predate the closed vocabulary.
	for i := range records {
		if !domain.ValidCategory(records[i].Category) {
			records[i].Category = p.inferencer.InferCategory(nil, records[i].Name)
		}
	}

	res := p.auditor.Audit(ctx, records)
	for _, e := range res.Removed {
		observability.ObserveRecord("audit", "removed")
		report.AddRemoved(e)
	}
	if res.Corrected > 0 || res.Relocated > 0 {
		log.Info().Int("corrected", res.Corrected).Int("relocated", res.Relocated).Msg("coordinate audit adjustments")
	}
	return res.Kept
}
