package domain

import "time"

// CatalogRecord is the canonical POI shape stored in the catalog file.
type CatalogRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Subcategory      string   `json:"subcategory,omitempty"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Location         Location `json:"location"`
	Contact          Contact  `json:"contact"`
	Business         Business `json:"business"`
	Ratings          Ratings  `json:"ratings"`
	Media            Media    `json:"media"`
	Tags             []string `json:"tags,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	IsActive         bool     `json:"isActive"`
	// IsCurated marks records that originated from manual curation.
	// Once true it stays true; merges never clear it.
	IsCurated bool      `json:"isCurated"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Location struct {
	Address         string  `json:"address,omitempty"`
	District        string  `json:"district,omitempty"`
	Island          string  `json:"island,omitempty"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ExternalPlaceID string  `json:"externalPlaceId,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
}

type Business struct {
	PriceRange string   `json:"priceRange,omitempty"`
	Hours      []string `json:"hours,omitempty"`
}

type Ratings struct {
	Overall        float64 `json:"overall,omitempty"`
	ReviewCount    int     `json:"reviewCount,omitempty"`
	ExternalRating float64 `json:"externalRating,omitempty"`
}

type Media struct {
	Thumbnail string   `json:"thumbnail,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// HasCoordinates reports whether the record carries a usable position.
// (0,0) is treated as missing: it is the classic "lookup failed" value.
func (r *CatalogRecord) HasCoordinates() bool {
	return r.Location.Latitude != 0 || r.Location.Longitude != 0
}

// ScrapedCandidate is a raw external record before reconciliation.
// Optional fields are pointers so "absent" and "zero" stay distinct.
type ScrapedCandidate struct {
	Name            string
	SourceTypes     []string
	Description     *string
	Address         *string
	Lat             *float64
	Lng             *float64
	ExternalPlaceID *string
	Phone           *string
	Website         *string
	Rating          *float64
	ReviewCount     *int
	PriceLevel      *int
	Hours           []string
	Images          []string
	Source          string // file the candidate came from
	Raw             map[string]any
}

// MatchRule identifies which resolver signal produced a match.
type MatchRule string

const (
	MatchByExternalID MatchRule = "external_id"
	MatchByName       MatchRule = "name"
	MatchByProximity  MatchRule = "proximity"
)

// MergeDecision pairs a candidate with its resolution and the evidence
// behind it; retained verbatim in the run report.
type MergeDecision struct {
	CandidateName  string    `json:"candidateName"`
	MatchedID      string    `json:"matchedId,omitempty"`
	MatchedName    string    `json:"matchedName,omitempty"`
	Rule           MatchRule `json:"rule,omitempty"`
	Similarity     float64   `json:"similarity"`
	DistanceMeters float64   `json:"distanceMeters,omitempty"`
}

// Matched reports whether the decision resolved to an existing record.
func (d MergeDecision) Matched() bool { return d.MatchedID != "" }
