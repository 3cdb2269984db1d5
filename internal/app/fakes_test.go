package app_test

import (
	"context"
	"errors"
	"sync"
)

func ptr[T any](v T) *T { return &v }

// fakePlaces is a scriptable in-memory places service.
type fakePlaces struct {
	mu sync.Mutex

	searchResults map[string][]map[string]any // query -> results
	details       map[string]map[string]any   // place id -> payload
	searchErr     error
	detailsErr    error

	searchCalls  int
	detailsCalls int
}

func (f *fakePlaces) TextSearch(ctx context.Context, query string, lat, lng float64, radiusMeters int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults[query], nil
}

func (f *fakePlaces) Details(ctx context.Context, placeID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	if d, ok := f.details[placeID]; ok {
		return d, nil
	}
	return nil, errors.New("place not found")
}

// fakeCache remembers Set payloads and serves them back on Get.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]map[string]any

	gets, hits, sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]map[string]any)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	v, ok := f.data[key]
	if !ok {
		return false, nil
	}
	f.hits++
	if p, ok := dst.(*map[string]any); ok {
		*p = v
	}
	return true, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if m, ok := v.(map[string]any); ok {
		f.data[key] = m
	}
	return nil
}

func (f *fakeCache) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}
