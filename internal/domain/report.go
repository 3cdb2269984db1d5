package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReportEntry is one record-level outcome with the reason it happened.
type ReportEntry struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Report is the machine-readable change report emitted after every run.
// Entry lists are sampled (SampleLimit) but the counts are exact.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Mode        string    `json:"mode"` // merge|enrich|audit
	DryRun      bool      `json:"dryRun"`

	AddedCount    int `json:"addedCount"`
	UpdatedCount  int `json:"updatedCount"`
	SkippedCount  int `json:"skippedCount"`
	RemovedCount  int `json:"removedCount"`
	EnrichedCount int `json:"enrichedCount,omitempty"`

	Added      []ReportEntry   `json:"added,omitempty"`
	Updated    []ReportEntry   `json:"updated,omitempty"`
	Skipped    []ReportEntry   `json:"skipped,omitempty"`
	Removed    []ReportEntry   `json:"removed,omitempty"`
	Duplicates []MergeDecision `json:"duplicates,omitempty"`
}

// SampleLimit caps each sampled entry list in the report.
const SampleLimit = 50

func (r *Report) add(list *[]ReportEntry, count *int, e ReportEntry) {
	*count++
	if len(*list) < SampleLimit {
		*list = append(*list, e)
	}
}

func (r *Report) AddAdded(e ReportEntry)   { r.add(&r.Added, &r.AddedCount, e) }
func (r *Report) AddUpdated(e ReportEntry) { r.add(&r.Updated, &r.UpdatedCount, e) }
func (r *Report) AddSkipped(e ReportEntry) { r.add(&r.Skipped, &r.SkippedCount, e) }
func (r *Report) AddRemoved(e ReportEntry) { r.add(&r.Removed, &r.RemovedCount, e) }

func (r *Report) AddDuplicate(d MergeDecision) {
	if len(r.Duplicates) < SampleLimit {
		r.Duplicates = append(r.Duplicates, d)
	}
}

// Summary renders the human-readable run summary printed to stdout.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s run %s\n", r.Mode, r.GeneratedAt.Format(time.RFC3339))
	if r.DryRun {
		b.WriteString("dry-run: nothing written\n")
	}
	fmt.Fprintf(&b, "  added:   %d\n", r.AddedCount)
	fmt.Fprintf(&b, "  updated: %d\n", r.UpdatedCount)
	fmt.Fprintf(&b, "  skipped: %d\n", r.SkippedCount)
	fmt.Fprintf(&b, "  removed: %d\n", r.RemovedCount)
	if r.EnrichedCount > 0 {
		fmt.Fprintf(&b, "  enriched: %d\n", r.EnrichedCount)
	}
	if n := len(r.Duplicates); n > 0 {
		fmt.Fprintf(&b, "  duplicate pairs (sampled %d):\n", n)
		for _, d := range r.Duplicates {
			fmt.Fprintf(&b, "    %q -> %s (%s, sim=%.2f, dist=%.0fm)\n",
				d.CandidateName, d.MatchedID, d.Rule, d.Similarity, d.DistanceMeters)
		}
	}
	return b.String()
}
