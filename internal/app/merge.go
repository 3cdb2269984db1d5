package app

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"island_catalog/internal/domain"
)

// MergeConfig controls field precedence during merges.
type MergeConfig struct {
	// PreserveCurated keeps every populated field of a curated record
	// untouched; scraped values may only fill gaps. When false, scraped
	// values may overwrite non-curated provenance fields.
	PreserveCurated bool
}

// MergeInto folds a scraped candidate into an existing record in place and
// reports whether anything actually changed. updatedAt is stamped only on a
// real change so repeated runs on identical inputs stay byte-stable.
func MergeInto(rec *domain.CatalogRecord, c domain.ScrapedCandidate, cfg MergeConfig, now time.Time) bool {
	// A curated record is locked down unless the operator opted out.
	locked := cfg.PreserveCurated && rec.IsCurated

	changed := false

	setStr := func(dst *string, src *string) {
		if src == nil || *src == "" {
			return
		}
		if *dst == "" || (!locked && *dst != *src) {
			if *dst != *src {
				*dst = *src
				changed = true
			}
		}
	}

	setStr(&rec.Description, c.Description)
	setStr(&rec.Location.Address, c.Address)
	setStr(&rec.Location.ExternalPlaceID, c.ExternalPlaceID)
	setStr(&rec.Contact.Phone, c.Phone)
	setStr(&rec.Contact.Website, c.Website)

	// Coordinates are backfilled only when missing; manually verified
	// positions are never overwritten.
	if !rec.HasCoordinates() && c.Lat != nil && c.Lng != nil {
		rec.Location.Latitude = *c.Lat
		rec.Location.Longitude = *c.Lng
		changed = true
	}

	// externalRating is a live signal and is always refreshed.
	if c.Rating != nil && rec.Ratings.ExternalRating != *c.Rating {
		rec.Ratings.ExternalRating = *c.Rating
		changed = true
	}
	// overall is the user-facing rating: only adopt the scraped value when
	// unset, or when curation protection is off.
	if c.Rating != nil && (rec.Ratings.Overall == 0 || !locked) && rec.Ratings.Overall != *c.Rating {
		rec.Ratings.Overall = *c.Rating
		changed = true
	}
	if c.ReviewCount != nil && rec.Ratings.ReviewCount < *c.ReviewCount {
		rec.Ratings.ReviewCount = *c.ReviewCount
		changed = true
	}

	if len(rec.Business.Hours) == 0 && len(c.Hours) > 0 {
		rec.Business.Hours = append([]string(nil), c.Hours...)
		changed = true
	}
	if rec.Business.PriceRange == "" && c.PriceLevel != nil {
		rec.Business.PriceRange = priceRange(*c.PriceLevel)
		changed = true
	}

	if len(c.Images) > 0 {
		added := mergeImages(&rec.Media, c.Images)
		changed = changed || added
	}

	if changed {
		rec.UpdatedAt = now
	}
	return changed
}

// NewRecord converts an unmatched candidate into a fresh catalog entry.
func NewRecord(c domain.ScrapedCandidate, inf *Inferencer, now time.Time) domain.CatalogRecord {
	rec := domain.CatalogRecord{
		ID:          NewID(c.Name),
		Name:        c.Name,
		Description: deref(c.Description),
		IsActive:    true,
		IsCurated:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.Location.Address = deref(c.Address)
	if c.Lat != nil && c.Lng != nil {
		rec.Location.Latitude = *c.Lat
		rec.Location.Longitude = *c.Lng
	}
	rec.Location.ExternalPlaceID = deref(c.ExternalPlaceID)
	rec.Contact.Phone = deref(c.Phone)
	rec.Contact.Website = deref(c.Website)
	if c.Rating != nil {
		rec.Ratings.Overall = *c.Rating
		rec.Ratings.ExternalRating = *c.Rating
	}
	if c.ReviewCount != nil {
		rec.Ratings.ReviewCount = *c.ReviewCount
	}
	if c.PriceLevel != nil {
		rec.Business.PriceRange = priceRange(*c.PriceLevel)
	}
	rec.Business.Hours = append([]string(nil), c.Hours...)
	mergeImages(&rec.Media, c.Images)

	text := c.Name + " " + deref(c.Description)
	rec.Category = inf.InferCategory(c.SourceTypes, c.Name)
	rec.Tags = inf.InferTags(text)
	rec.Keywords = inf.InferKeywords(text)
	return rec
}

// mergeImages appends unseen image URLs and fills the thumbnail from the
// first image when empty. Reports whether anything was added.
func mergeImages(m *domain.Media, images []string) bool {
	seen := make(map[string]struct{}, len(m.Images))
	for _, img := range m.Images {
		seen[img] = struct{}{}
	}
	changed := false
	for _, img := range images {
		if img == "" {
			continue
		}
		if _, ok := seen[img]; ok {
			continue
		}
		m.Images = append(m.Images, img)
		seen[img] = struct{}{}
		changed = true
	}
	if m.Thumbnail == "" && len(m.Images) > 0 {
		m.Thumbnail = m.Images[0]
		changed = true
	}
	return changed
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases a name into a hyphenated id fragment.
func Slug(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "poi"
	}
	return s
}

// NewID derives a stable-looking id from the name slug plus a random
// suffix so repeated scrapes of same-named venues never collide.
func NewID(name string) string {
	return Slug(name) + "-" + uuid.NewString()[:8]
}

func priceRange(level int) string {
	switch {
	case level <= 0:
		return ""
	case level >= 4:
		return "$$$$"
	default:
		return strings.Repeat("$", level)
	}
}
