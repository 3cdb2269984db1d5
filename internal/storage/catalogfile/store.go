// Package catalogfile owns the on-disk catalog: loading, timestamped
// backups, atomic writes, checkpoint state, and report files. One process
// owns the catalog file for the duration of a run; overlapping runs are the
// scheduler's problem, not ours.
package catalogfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
)

// Load reads the catalog file. A file that does not parse as a record
// array is fatal to the run; an individual record that fails validation is
// skipped and logged, never fatal.
func Load(path string) ([]domain.CatalogRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("parse catalog %s: not a record array: %w", path, err)
	}

	out := make([]domain.CatalogRecord, 0, len(raws))
	for i, raw := range raws {
		var rec domain.CatalogRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn().Int("index", i).Err(err).Msg("skipping malformed catalog record")
			continue
		}
		if rec.ID == "" || rec.Name == "" {
			log.Warn().Int("index", i).Str("id", rec.ID).Msg("skipping catalog record without id/name")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Backup copies the current catalog to a timestamped sibling path and
// returns it. Missing source is not an error: first runs have no catalog
// to protect yet.
func Backup(path string) (string, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read for backup %s: %w", path, err)
	}
	backupPath := fmt.Sprintf("%s.backup-%s", path, time.Now().UTC().Format("20060102T150405"))
	if err := os.WriteFile(backupPath, src, 0o644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", backupPath, err)
	}
	return backupPath, nil
}

// Write persists records via write-to-temp-then-rename so a crash mid-write
// cannot corrupt the catalog.
func Write(path string, records []domain.CatalogRecord) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return atomicWrite(path, append(b, '\n'))
}

// WriteReport persists the run report next to the catalog.
func WriteReport(path string, r *domain.Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return atomicWrite(path, append(b, '\n'))
}

// LoadJobState reads an enrichment checkpoint. A missing file yields a
// fresh state: first run, nothing processed yet.
func LoadJobState(path string) (*domain.JobState, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewJobState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}
	state := domain.NewJobState()
	if err := json.Unmarshal(b, state); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	return state, nil
}

// SaveJobState persists the checkpoint atomically.
func SaveJobState(path string, state *domain.JobState) error {
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return atomicWrite(path, append(b, '\n'))
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	return nil
}
