package domain

import "context"

// PlacesClient is the outbound port to the third-party places service.
// Payloads stay as raw maps; the app layer extracts fields through its
// alias helpers so schema drift on the provider side stays contained.
type PlacesClient interface {
	// TextSearch runs a free-text place search biased toward (lat,lng)
	// within radiusMeters. Returns the raw result objects.
	TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int) ([]map[string]any, error)
	// Details fetches the detail payload for a known place id.
	Details(ctx context.Context, placeID string) (map[string]any, error)
}

// Cache is an optional read-through cache for place payloads. A nil Cache
// is always acceptable; callers must treat it as a pass-through.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
