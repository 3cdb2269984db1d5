package app

import (
	"math"
	"strings"

	"island_catalog/internal/domain"
	"island_catalog/internal/geo"
)

// ResolverConfig holds the duplicate-detection thresholds.
type ResolverConfig struct {
	SimilarityThreshold float64 // strong name match at or above this
	ProximityMeters     float64 // strong location match at or below this
}

// DefaultResolverConfig mirrors the operational defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{SimilarityThreshold: 0.85, ProximityMeters: 100}
}

// proximityMinSimilarity guards the location rule: two unrelated venues can
// sit 20m apart, so a proximity match still needs a loosely similar name.
const proximityMinSimilarity = 0.5

// Similarity is normalized Levenshtein closeness in [0,1] over lowercased
// names. Symmetric by construction.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshteinDistance(a, b)
	denom := len([]rune(a))
	if n := len([]rune(b)); n > denom {
		denom = n
	}
	return math.Max(0, 1-float64(dist)/float64(denom))
}

func levenshteinDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}
	prev := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ar {
		curr := make([]int, len(br)+1)
		curr[0] = i + 1
		for j, cb := range br {
			ins := curr[j] + 1
			del := prev[j+1] + 1
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min3(ins, del, sub)
		}
		prev = curr
	}
	return prev[len(prev)-1]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// FindMatch scans existing records left to right and returns the index of
// the first one the candidate matches, along with the evidence. Three
// signals, short-circuit OR per record: shared external place id, strong
// name similarity, or proximity plus loose similarity. Deterministic by
// design; no global assignment is attempted.
func FindMatch(c domain.ScrapedCandidate, existing []domain.CatalogRecord, cfg ResolverConfig) (int, domain.MergeDecision) {
	decision := domain.MergeDecision{CandidateName: c.Name}

	for i := range existing {
		rec := &existing[i]

		sim := Similarity(c.Name, rec.Name)

		var rule domain.MatchRule
		var dist float64

		switch {
		case c.ExternalPlaceID != nil && *c.ExternalPlaceID != "" &&
			rec.Location.ExternalPlaceID == *c.ExternalPlaceID:
			rule = domain.MatchByExternalID

		case sim >= cfg.SimilarityThreshold:
			rule = domain.MatchByName

		case c.Lat != nil && c.Lng != nil && rec.HasCoordinates() && sim >= proximityMinSimilarity:
			dist = geo.HaversineMeters(*c.Lat, *c.Lng, rec.Location.Latitude, rec.Location.Longitude)
			if dist <= cfg.ProximityMeters {
				rule = domain.MatchByProximity
			}
		}

		if rule != "" {
			decision.MatchedID = rec.ID
			decision.MatchedName = rec.Name
			decision.Rule = rule
			decision.Similarity = sim
			decision.DistanceMeters = dist
			return i, decision
		}
	}
	return -1, decision
}
