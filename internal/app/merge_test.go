package app_test

import (
	"strings"
	"testing"
	"time"

	"island_catalog/internal/app"
	"island_catalog/internal/domain"
)

func curatedRecord() domain.CatalogRecord {
	return domain.CatalogRecord{
		ID:        "grand-old-house-11112222",
		Name:      "Grand Old House",
		Category:  domain.CategoryRestaurant,
		IsCurated: true,
		IsActive:  true,
		Contact:   domain.Contact{Website: "https://grandoldhouse.ky"},
		Location:  domain.Location{Address: "648 S Church St", Latitude: 19.2776, Longitude: -81.3907},
		Ratings:   domain.Ratings{Overall: 4.7, ReviewCount: 120},
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMergeInto_CuratedPreservation(t *testing.T) {
	rec := curatedRecord()
	c := domain.ScrapedCandidate{
		Name:    "Grand Old House",
		Website: ptr("https://some-aggregator.example/grand-old-house"),
		Address: ptr("Somewhere Else 1"),
	}
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	changed := app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: true}, now)
	if changed {
		t.Fatalf("nothing should change on a fully populated curated record")
	}
	if rec.Contact.Website != "https://grandoldhouse.ky" {
		t.Fatalf("curated website overwritten: %s", rec.Contact.Website)
	}
	if rec.Location.Address != "648 S Church St" {
		t.Fatalf("curated address overwritten: %s", rec.Location.Address)
	}
	if !rec.UpdatedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("updatedAt stamped without a change: %v", rec.UpdatedAt)
	}
}

func TestMergeInto_FillsEmptyFieldsOnCurated(t *testing.T) {
	rec := curatedRecord()
	rec.Contact.Phone = ""
	c := domain.ScrapedCandidate{Name: "Grand Old House", Phone: ptr("+1 345-949-9333")}
	now := time.Now().UTC()

	if !app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: true}, now) {
		t.Fatal("expected a change")
	}
	if rec.Contact.Phone != "+1 345-949-9333" {
		t.Fatalf("empty phone not filled: %q", rec.Contact.Phone)
	}
	if !rec.UpdatedAt.Equal(now) {
		t.Fatalf("updatedAt not stamped on change")
	}
	if !rec.IsCurated {
		t.Fatal("isCurated flag must survive every merge")
	}
}

func TestMergeInto_OverwriteWhenNotPreserving(t *testing.T) {
	rec := curatedRecord()
	c := domain.ScrapedCandidate{
		Name:    "Grand Old House",
		Website: ptr("https://fresh.example"),
		Rating:  ptr(4.2),
	}
	if !app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: false}, time.Now().UTC()) {
		t.Fatal("expected a change")
	}
	if rec.Contact.Website != "https://fresh.example" {
		t.Fatalf("website not refreshed: %s", rec.Contact.Website)
	}
	if rec.Ratings.Overall != 4.2 {
		t.Fatalf("overall not refreshed: %v", rec.Ratings.Overall)
	}
}

func TestMergeInto_ExternalRatingAlwaysRefreshed(t *testing.T) {
	rec := curatedRecord()
	rec.Ratings.ExternalRating = 4.0
	c := domain.ScrapedCandidate{Name: "Grand Old House", Rating: ptr(4.5)}

	if !app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: true}, time.Now().UTC()) {
		t.Fatal("expected a change")
	}
	if rec.Ratings.ExternalRating != 4.5 {
		t.Fatalf("externalRating is a live signal, got %v", rec.Ratings.ExternalRating)
	}
	// overall stays: curated and already set.
	if rec.Ratings.Overall != 4.7 {
		t.Fatalf("overall must not move, got %v", rec.Ratings.Overall)
	}
}

func TestMergeInto_CoordinatesNeverOverwritten(t *testing.T) {
	rec := curatedRecord()
	c := domain.ScrapedCandidate{Name: "Grand Old House", Lat: ptr(19.30), Lng: ptr(-81.38)}

	app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: false}, time.Now().UTC())
	if rec.Location.Latitude != 19.2776 || rec.Location.Longitude != -81.3907 {
		t.Fatalf("verified coordinates moved: %v,%v", rec.Location.Latitude, rec.Location.Longitude)
	}

	// But missing coordinates are backfilled.
	rec.Location.Latitude, rec.Location.Longitude = 0, 0
	if !app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: false}, time.Now().UTC()) {
		t.Fatal("expected backfill")
	}
	if rec.Location.Latitude != 19.30 {
		t.Fatalf("missing coordinates not backfilled: %v", rec.Location.Latitude)
	}
}

func TestMergeInto_Idempotent(t *testing.T) {
	rec := curatedRecord()
	c := domain.ScrapedCandidate{
		Name:   "Grand Old House",
		Phone:  ptr("+1 345-949-9333"),
		Rating: ptr(4.5),
		Images: []string{"https://img.example/1.jpg"},
	}
	now := time.Now().UTC()
	if !app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: true}, now) {
		t.Fatal("first merge should change the record")
	}
	snapshot := rec
	later := now.Add(time.Hour)
	if app.MergeInto(&rec, c, app.MergeConfig{PreserveCurated: true}, later) {
		t.Fatal("second identical merge must be a no-op")
	}
	if !rec.UpdatedAt.Equal(snapshot.UpdatedAt) {
		t.Fatalf("updatedAt drifted on a no-op merge: %v vs %v", rec.UpdatedAt, snapshot.UpdatedAt)
	}
}

func TestNewRecord(t *testing.T) {
	c := domain.ScrapedCandidate{
		Name:        "Cayman Crystal Caves Tours",
		SourceTypes: []string{"tourist_attraction"},
		Description: ptr("Guided cave tours through a luxury family friendly attraction"),
		Lat:         ptr(19.3498), Lng: ptr(-81.1836),
		Rating:      ptr(4.8),
		ReviewCount: ptr(900),
		PriceLevel:  ptr(2),
		Images:      []string{"https://img.example/caves.jpg"},
	}
	rec := app.NewRecord(c, app.NewInferencer(), time.Now().UTC())

	if !strings.HasPrefix(rec.ID, "cayman-crystal-caves-tours-") {
		t.Fatalf("id should start with the slug: %s", rec.ID)
	}
	if len(rec.ID) != len("cayman-crystal-caves-tours-")+8 {
		t.Fatalf("id should end with an 8-char random suffix: %s", rec.ID)
	}
	if rec.IsCurated {
		t.Fatal("scraped records are never curated")
	}
	if !rec.IsActive {
		t.Fatal("new records start active")
	}
	if rec.Category != domain.CategoryAttraction {
		t.Fatalf("unexpected category %s", rec.Category)
	}
	if rec.Ratings.Overall != 4.8 || rec.Ratings.ExternalRating != 4.8 {
		t.Fatalf("ratings not carried: %+v", rec.Ratings)
	}
	if rec.Business.PriceRange != "$$" {
		t.Fatalf("price level not mapped: %q", rec.Business.PriceRange)
	}
	if rec.Media.Thumbnail != "https://img.example/caves.jpg" {
		t.Fatalf("thumbnail not derived from first image: %q", rec.Media.Thumbnail)
	}
	if !contains(rec.Tags, "luxury") || !contains(rec.Tags, "family_friendly") {
		t.Fatalf("tags not inferred: %v", rec.Tags)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Seven Mile Beach":      "seven-mile-beach",
		"  Café -- del Sol!  ":  "caf-del-sol",
		"":                      "poi",
		"!!!":                   "poi",
		"A1 Dive & Snorkel Co.": "a1-dive-snorkel-co",
	}
	for in, want := range cases {
		if got := app.Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
