package app

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
	"island_catalog/internal/geo"
)

// Coordinates previous enrichment runs used as placeholders when a lookup
// failed. A record sitting exactly on one of these gets one re-lookup.
var suspiciousCoords = [][2]float64{
	{19.3133, -81.2546},
}

const suspiciousTolerance = 1e-4

// Re-lookup bias: George Town center, 25km radius covers Grand Cayman.
const (
	refLat          = 19.2866
	refLng          = -81.3744
	refRadiusMeters = 25000
)

// Auditor validates record coordinates against the geofence set, corrects
// stale region assignments, and retries suspicious placeholder positions
// through the places service once.
type Auditor struct {
	classifier *geo.Classifier
	places     domain.PlacesClient // may be nil: suspicious coords are then kept as-is
}

func NewAuditor(classifier *geo.Classifier, places domain.PlacesClient) *Auditor {
	return &Auditor{classifier: classifier, places: places}
}

// AuditResult carries the surviving records plus what happened to the rest.
type AuditResult struct {
	Kept      []domain.CatalogRecord
	Removed   []domain.ReportEntry
	Corrected int
	Relocated int
}

// Audit walks every record: missing or out-of-region coordinates remove it,
// a stale stored region is corrected in place, and suspicious placeholder
// coordinates get exactly one re-enrichment attempt before removal.
func (a *Auditor) Audit(ctx context.Context, records []domain.CatalogRecord) AuditResult {
	res := AuditResult{Kept: make([]domain.CatalogRecord, 0, len(records))}

	for i := range records {
		rec := records[i]

		if isSuspicious(rec.Location.Latitude, rec.Location.Longitude) {
			relocated, err := a.relookup(ctx, &rec)
			if err != nil {
				log.Warn().Str("id", rec.ID).Err(err).Msg("suspicious coordinates, re-lookup failed")
				res.Removed = append(res.Removed, domain.ReportEntry{
					ID: rec.ID, Name: rec.Name, Category: rec.Category,
					Reason: "placeholder coordinates, re-lookup failed",
				})
				continue
			}
			if relocated {
				res.Relocated++
			}
		}

		if !rec.HasCoordinates() {
			res.Removed = append(res.Removed, domain.ReportEntry{
				ID: rec.ID, Name: rec.Name, Category: rec.Category,
				Reason: "missing coordinates",
			})
			continue
		}

		region := a.classifier.Classify(rec.Location.Latitude, rec.Location.Longitude)
		if region == nil {
			res.Removed = append(res.Removed, domain.ReportEntry{
				ID: rec.ID, Name: rec.Name, Category: rec.Category,
				Reason: "outside known regions",
			})
			continue
		}
		if rec.Location.District != region.District || rec.Location.Island != region.Island {
			rec.Location.District = region.District
			rec.Location.Island = region.Island
			res.Corrected++
		}

		res.Kept = append(res.Kept, rec)
	}
	return res
}

var errNoPlacesClient = errors.New("no places client configured")

// relookup searches the places service for the record near the reference
// point and, when the hit passes the region test, replaces coordinates,
// address, and external id. Returns whether the record moved.
func (a *Auditor) relookup(ctx context.Context, rec *domain.CatalogRecord) (bool, error) {
	if a.places == nil {
		// In-bounds placeholders survive without a client; the next
		// enrichment run with an API key will fix them.
		if a.classifier.Classify(rec.Location.Latitude, rec.Location.Longitude) != nil {
			log.Warn().Str("id", rec.ID).Msg("placeholder coordinates kept: no places client")
			return false, nil
		}
		return false, errNoPlacesClient
	}

	results, err := a.places.TextSearch(ctx, rec.Name, refLat, refLng, refRadiusMeters)
	if err != nil {
		return false, err
	}
	if len(results) == 0 {
		return false, errors.New("no search results")
	}

	hit := results[0]
	lat := getFloatFlexible(hit, "geometry.location.lat", "lat", "latitude")
	lng := getFloatFlexible(hit, "geometry.location.lng", "lng", "longitude")
	if lat == nil || lng == nil {
		return false, errors.New("search result without coordinates")
	}
	if a.classifier.Classify(*lat, *lng) == nil {
		return false, errors.New("search result outside known regions")
	}

	rec.Location.Latitude = *lat
	rec.Location.Longitude = *lng
	if addr := firstNonEmptyAlias(hit, candidateAliases, "address"); addr != nil {
		rec.Location.Address = *addr
	}
	if pid := firstNonEmptyAlias(hit, candidateAliases, "place_id"); pid != nil {
		rec.Location.ExternalPlaceID = *pid
	}
	log.Info().Str("id", rec.ID).Float64("lat", *lat).Float64("lng", *lng).
		Msg("placeholder coordinates replaced")
	return true, nil
}

func isSuspicious(lat, lng float64) bool {
	for _, c := range suspiciousCoords {
		if math.Abs(lat-c[0]) < suspiciousTolerance && math.Abs(lng-c[1]) < suspiciousTolerance {
			return true
		}
	}
	return false
}
