package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
)

/********** alias registries (single source of truth) **********/

var candidateAliases = map[string][]string{
	"name":        {"name", "title", "place_name", "placeName"},
	"description": {"description", "editorial_summary.overview", "summary", "about"},
	"address": {
		"address", "formatted_address", "vicinity", "full_address",
		"location.address", "address.line",
	},
	"place_id": {"externalPlaceId", "place_id", "placeId", "google_place_id"},
	"phone":    {"phone", "formatted_phone_number", "international_phone_number", "contact.phone"},
	"website":  {"website", "url", "contact.website"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getIntFlexible: int from several paths (float64/int/string).
func getIntFlexible(m map[string]any, paths ...string) *int {
	if f := getFloatFlexible(m, paths...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/photo_reference/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					for _, field := range []string{"url", "src", "photo_reference", "name"} {
						if s, ok := t[field].(string); ok && s != "" {
							out = append(out, s)
							break
						}
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

/********** candidate loader/normalizer **********/

// LoadCandidates reads one or more scraped-candidate files, tolerating the
// heterogeneous shapes the scrapers produce. Candidates without a name are
// dropped here; everything else is normalized into ScrapedCandidate and
// validated downstream.
func LoadCandidates(paths []string) ([]domain.ScrapedCandidate, error) {
	var out []domain.ScrapedCandidate
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read candidates %s: %w", path, err)
		}
		var raws []map[string]any
		if err := json.Unmarshal(b, &raws); err != nil {
			return nil, fmt.Errorf("parse candidates %s: not a record array: %w", path, err)
		}
		for i, raw := range raws {
			c := mapCandidate(raw, path)
			if c.Name == "" {
				log.Warn().Str("file", path).Int("index", i).Msg("skipping candidate without a name")
				continue
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func mapCandidate(m map[string]any, source string) domain.ScrapedCandidate {
	c := domain.ScrapedCandidate{
		Name:            deref(firstNonEmptyAlias(m, candidateAliases, "name")),
		Description:     firstNonEmptyAlias(m, candidateAliases, "description"),
		Address:         firstNonEmptyAlias(m, candidateAliases, "address"),
		ExternalPlaceID: firstNonEmptyAlias(m, candidateAliases, "place_id"),
		Phone:           firstNonEmptyAlias(m, candidateAliases, "phone"),
		Website:         firstNonEmptyAlias(m, candidateAliases, "website"),
		Lat:             getFloatFlexible(m, "latitude", "lat", "location.lat", "location.latitude", "geometry.location.lat"),
		Lng:             getFloatFlexible(m, "longitude", "lng", "lon", "location.lng", "location.longitude", "geometry.location.lng"),
		Rating:          getFloatFlexible(m, "rating", "externalRating", "ratings.externalRating", "score"),
		ReviewCount:     getIntFlexible(m, "user_ratings_total", "reviewCount", "ratings.reviewCount", "review_count"),
		PriceLevel:      getIntFlexible(m, "price_level", "priceLevel"),
		Hours:           firstSliceStrings(m, "opening_hours.weekday_text", "hours", "business.hours"),
		Images:          firstSliceStrings(m, "photos", "images", "media.images"),
		Source:          source,
		Raw:             m,
	}
	c.Name = strings.TrimSpace(c.Name)

	// Source taxonomy: either a types array or a single category string.
	if ts := firstSliceStrings(m, "types", "categories"); len(ts) > 0 {
		c.SourceTypes = ts
	} else if s := lookupStr(m, "type"); s != "" {
		c.SourceTypes = []string{s}
	} else if s := lookupStr(m, "category"); s != "" {
		c.SourceTypes = []string{s}
	}
	return c
}
