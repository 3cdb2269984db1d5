package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, "test-key", 100)
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New("", "", 5); err == nil {
		t.Fatal("expected an error for a missing API key")
	}
}

func TestTextSearch_OK(t *testing.T) {
	var gotQuery, gotLocation, gotKey string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotLocation = r.URL.Query().Get("location")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"name":"Kaibo","place_id":"p1"}]}`))
	})

	results, err := c.TextSearch(context.Background(), "Kaibo", 19.3585, -81.2731, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0]["place_id"] != "p1" {
		t.Fatalf("results: %v", results)
	}
	if gotQuery != "Kaibo" || gotKey != "test-key" {
		t.Fatalf("query params: query=%q key=%q", gotQuery, gotKey)
	}
	if gotLocation != "19.358500,-81.273100" {
		t.Fatalf("location bias: %q", gotLocation)
	}
}

func TestDetails_OK(t *testing.T) {
	var gotFields string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotFields = r.URL.Query().Get("fields")
		_, _ = w.Write([]byte(`{"status":"OK","result":{"name":"Kaibo","rating":4.6}}`))
	})

	d, err := c.Details(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if d["rating"] != 4.6 {
		t.Fatalf("result: %v", d)
	}
	if gotFields != detailFields {
		t.Fatalf("field mask not sent: %q", gotFields)
	}
}

func TestGet_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"name":"x"}]}`))
	})

	results, err := c.TextSearch(context.Background(), "x", 0, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results: %v", results)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestGet_GivesUpAfterFourAttempts(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.TextSearch(context.Background(), "x", 0, 0, 100)
	if err == nil {
		t.Fatal("expected an error after exhausted retries")
	}
	if calls.Load() != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls.Load())
	}
}

func TestGet_OverQueryLimitInBandRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"name":"x"}]}`))
	})

	// Throttling arrives as HTTP 200 with an in-band status; it must still
	// retry rather than surface immediately.
	results, err := c.TextSearch(context.Background(), "x", 0, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || calls.Load() != 2 {
		t.Fatalf("results=%v calls=%d", results, calls.Load())
	}
}

func TestStatus_RequestDenied(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	})
	_, err := c.TextSearch(context.Background(), "x", 0, 0, 100)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStatus_ZeroResults(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	_, err := c.TextSearch(context.Background(), "nothing here", 0, 0, 100)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_HTTPNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Details(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_UnauthorizedHTTP(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := c.TextSearch(context.Background(), "x", 0, 0, 100)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("auth failures must not retry, got %d attempts", calls.Load())
	}
}

func TestDetails_MissingResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	})
	_, err := c.Details(context.Background(), "p1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
