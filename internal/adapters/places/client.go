package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"island_catalog/internal/adapters/observability"
)

// Client talks to the third-party places API. Every request passes the
// shared client-side rate limiter, and transient failures retry with
// jittered exponential backoff honoring Retry-After.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

const defaultBase = "https://maps.googleapis.com/maps/api/place"

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = defaultBase
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound       = errors.New("places: not found")
	ErrUnauthorized   = errors.New("places: request denied")
	ErrOverQueryLimit = errors.New("places: over query limit")
)

// envelope is the provider's response wrapper. Results and Result are
// mutually exclusive depending on the endpoint.
type envelope struct {
	Status       string           `json:"status"`
	ErrorMessage string           `json:"error_message"`
	Results      []map[string]any `json:"results"`
	Result       map[string]any   `json:"result"`
}

// TextSearch runs a free-text search biased toward (lat,lng) within
// radiusMeters and returns the raw result objects.
func (c *Client) TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("location", fmt.Sprintf("%.6f,%.6f", lat, lng))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("key", c.key)

	var env envelope
	if err := c.get(ctx, "textsearch", c.base+"/textsearch/json?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	if err := statusErr(env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

// detailFields is the field mask requested from the details endpoint:
// exactly what enrichment consumes, nothing billed beyond it.
const detailFields = "place_id,name,formatted_address,geometry,formatted_phone_number," +
	"website,rating,user_ratings_total,price_level,opening_hours,photos,editorial_summary"

// Details fetches the detail payload for a known place id.
func (c *Client) Details(ctx context.Context, placeID string) (map[string]any, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", detailFields)
	q.Set("key", c.key)

	var env envelope
	if err := c.get(ctx, "details", c.base+"/details/json?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	if err := statusErr(env); err != nil {
		return nil, err
	}
	if env.Result == nil {
		return nil, ErrNotFound
	}
	return env.Result, nil
}

// statusErr maps the provider's in-band status onto sentinel errors.
// OVER_QUERY_LIMIT is retried inside get; reaching here means retries
// were exhausted.
func statusErr(env envelope) error {
	switch env.Status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return ErrNotFound
	case "REQUEST_DENIED":
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.ErrorMessage)
	case "OVER_QUERY_LIMIT":
		return ErrOverQueryLimit
	default:
		return fmt.Errorf("places: status %s: %s", env.Status, env.ErrorMessage)
	}
}

// get performs a GET with client-side rate limiting, retries, and JSON
// decode into env. Retries on HTTP 429/5xx and in-band OVER_QUERY_LIMIT,
// honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, fullURL string, env *envelope) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "island-catalog/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("places", endpoint, 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("places", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			decErr := json.NewDecoder(resp.Body).Decode(env)
			resp.Body.Close()
			if decErr != nil {
				return decErr
			}
			// The provider signals throttling in-band with HTTP 200.
			if env.Status == "OVER_QUERY_LIMIT" {
				lastErr = ErrOverQueryLimit
				if i < 3 && sleepCtx(ctx, backoff(i)) {
					continue
				}
				return lastErr
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// Base doubles each attempt (200ms, 400ms, 800ms...), with up to +50%
// random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
