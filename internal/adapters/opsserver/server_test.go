package opsserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"island_catalog/internal/adapters/observability"
)

type staticProgress struct{ p Progress }

func (s staticProgress) Progress() Progress { return s.p }

func TestRouter_Healthz(t *testing.T) {
	h := Router(observability.InitRegistry(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("body %q", rr.Body.String())
	}
}

func TestRouter_Progress(t *testing.T) {
	src := staticProgress{p: Progress{
		Mode: "enrich", Total: 100, Processed: 40, Enriched: 30, Failed: 2,
		StartedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}
	h := Router(observability.InitRegistry(), src)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/progress", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var got Progress
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != src.p {
		t.Fatalf("payload: %+v", got)
	}
}

func TestRouter_ProgressWithoutSource(t *testing.T) {
	h := Router(observability.InitRegistry(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/progress", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without a progress source, got %d", rr.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	reg := observability.InitRegistry()
	observability.ObserveRecord("merge", "added")

	h := Router(reg, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "catalog_records_total") {
		t.Fatalf("expected catalog metrics in exposition:\n%s", rr.Body.String())
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := Router(observability.InitRegistry(), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}
