package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// JobState is the resumable-enrichment checkpoint. It is loaded at job
// start and persisted atomically after each batch; reprocessing an id that
// is already marked is a safe no-op.
type JobState struct {
	processed map[string]struct{}
	LastIndex int
	UpdatedAt time.Time
}

func NewJobState() *JobState {
	return &JobState{processed: make(map[string]struct{})}
}

// Processed reports whether the record id was enriched in a prior batch.
func (s *JobState) Processed(id string) bool {
	_, ok := s.processed[id]
	return ok
}

// Mark records the id as enriched.
func (s *JobState) Mark(id string) {
	if s.processed == nil {
		s.processed = make(map[string]struct{})
	}
	s.processed[id] = struct{}{}
}

// Count returns how many ids the state has seen.
func (s *JobState) Count() int { return len(s.processed) }

type jobStateJSON struct {
	ProcessedIDs []string  `json:"processedIds"`
	LastIndex    int       `json:"lastIndex"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (s *JobState) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s.processed))
	for id := range s.processed {
		ids = append(ids, id)
	}
	sort.Strings(ids) // stable files diff cleanly
	return json.Marshal(jobStateJSON{ProcessedIDs: ids, LastIndex: s.LastIndex, UpdatedAt: s.UpdatedAt})
}

func (s *JobState) UnmarshalJSON(b []byte) error {
	var j jobStateJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	s.processed = make(map[string]struct{}, len(j.ProcessedIDs))
	for _, id := range j.ProcessedIDs {
		s.processed[id] = struct{}{}
	}
	s.LastIndex = j.LastIndex
	s.UpdatedAt = j.UpdatedAt
	return nil
}
