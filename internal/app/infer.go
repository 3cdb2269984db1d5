package app

import (
	"regexp"
	"sort"
	"strings"

	"island_catalog/internal/domain"
)

// typeCategories maps source taxonomy types onto the canonical vocabulary.
var typeCategories = map[string]string{
	"lodging":            domain.CategoryHotel,
	"hotel":              domain.CategoryHotel,
	"resort":             domain.CategoryHotel,
	"guest_house":        domain.CategoryHotel,
	"restaurant":         domain.CategoryRestaurant,
	"food":               domain.CategoryRestaurant,
	"cafe":               domain.CategoryRestaurant,
	"bakery":             domain.CategoryRestaurant,
	"meal_takeaway":      domain.CategoryRestaurant,
	"bar":                domain.CategoryNightlife,
	"night_club":         domain.CategoryNightlife,
	"natural_feature":    domain.CategoryBeach,
	"beach":              domain.CategoryBeach,
	"spa":                domain.CategorySpaWellness,
	"gym":                domain.CategorySpaWellness,
	"travel_agency":      domain.CategoryTourOperator,
	"tour_operator":      domain.CategoryTourOperator,
	"store":              domain.CategoryShopping,
	"shopping_mall":      domain.CategoryShopping,
	"jewelry_store":      domain.CategoryShopping,
	"souvenir_store":     domain.CategoryShopping,
	"museum":             domain.CategoryAttraction,
	"aquarium":           domain.CategoryAttraction,
	"park":               domain.CategoryAttraction,
	"zoo":                domain.CategoryAttraction,
	"tourist_attraction": domain.CategoryAttraction,
	"bank":               domain.CategoryService,
	"atm":                domain.CategoryService,
	"pharmacy":           domain.CategoryService,
	"hospital":           domain.CategoryService,
	"car_rental":         domain.CategoryService,
}

// nameRule is an ordered keyword rule evaluated against a lowercased name.
type nameRule struct {
	keywords []string
	category string
}

// nameRules run top to bottom; first hit wins. More specific activities sit
// above the broad lodging/food buckets.
var nameRules = []nameRule{
	{[]string{"dive", "diving", "snorkel", "scuba"}, domain.CategoryDivingSnorkeling},
	{[]string{"kayak", "paddle", "jet ski", "jetski", "parasail", "sail", "charter", "catamaran"}, domain.CategoryWatersports},
	{[]string{"beach", "cove", "bay "}, domain.CategoryBeach},
	{[]string{"hotel", "resort", "suites", "villas", "condos", "inn "}, domain.CategoryHotel},
	{[]string{"restaurant", "grill", "cafe", "café", "kitchen", "bistro", "cantina", "eatery", "shack"}, domain.CategoryRestaurant},
	{[]string{"bar", "pub", "lounge", "club"}, domain.CategoryNightlife},
	{[]string{"spa", "wellness", "massage", "salon"}, domain.CategorySpaWellness},
	{[]string{"tour", "excursion", "adventure"}, domain.CategoryTourOperator},
	{[]string{"shop", "boutique", "market", "gallery"}, domain.CategoryShopping},
}

// tagRule maps a phrase pattern onto a canonical tag.
type tagRule struct {
	pattern *regexp.Regexp
	tag     string
}

var tagRules = []tagRule{
	{regexp.MustCompile(`(?i)luxury|premium|five[ -]star|upscale`), "luxury"},
	{regexp.MustCompile(`(?i)family|kids|children`), "family_friendly"},
	{regexp.MustCompile(`(?i)romantic|honeymoon|couples`), "romantic"},
	{regexp.MustCompile(`(?i)beachfront|oceanfront|seafront|waterfront|ocean view`), "beachfront"},
	{regexp.MustCompile(`(?i)all[ -]inclusive`), "all_inclusive"},
	{regexp.MustCompile(`(?i)adults[ -]only`), "adults_only"},
	{regexp.MustCompile(`(?i)budget|affordable|cheap`), "budget"},
	{regexp.MustCompile(`(?i)local|caribbean|island style|authentic`), "local_flavor"},
	{regexp.MustCompile(`(?i)dive|snorkel|reef|wreck`), "underwater"},
	{regexp.MustCompile(`(?i)sunset|scenic|panoramic|view`), "scenic"},
}

var stopWords = map[string]struct{}{
	"and": {}, "the": {}, "with": {}, "from": {}, "this": {}, "that": {},
	"your": {}, "our": {}, "for": {}, "located": {}, "offers": {}, "offering": {},
	"best": {}, "great": {}, "enjoy": {}, "featuring": {}, "near": {}, "its": {},
	"are": {}, "was": {}, "has": {}, "have": {}, "all": {}, "you": {}, "where": {},
}

const maxKeywords = 8

// Inferencer maps heterogeneous source taxonomies and free text onto the
// canonical category/tag/keyword vocabulary. Rules are data so they can be
// tested independently of the pipeline.
type Inferencer struct{}

func NewInferencer() *Inferencer { return &Inferencer{} }

// InferCategory checks the type table first, then keyword rules over the
// name, then falls back to the generic attraction bucket. Never errors.
func (inf *Inferencer) InferCategory(sourceTypes []string, name string) string {
	for _, t := range sourceTypes {
		if cat, ok := typeCategories[strings.ToLower(strings.TrimSpace(t))]; ok {
			return cat
		}
	}
	lower := " " + strings.ToLower(name) + " "
	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return domain.CategoryAttraction
}

// InferTags applies the phrase rules against name+description text and
// returns a deduplicated tag set in rule order.
func (inf *Inferencer) InferTags(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, rule := range tagRules {
		if rule.pattern.MatchString(text) {
			if _, ok := seen[rule.tag]; !ok {
				seen[rule.tag] = struct{}{}
				out = append(out, rule.tag)
			}
		}
	}
	return out
}

var wordSplit = regexp.MustCompile(`[^a-z0-9]+`)

// InferKeywords extracts the top distinct significant words (length > 3,
// stop-words excluded) from the text, most frequent first.
func (inf *Inferencer) InferKeywords(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, w := range wordSplit.Split(strings.ToLower(text), -1) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	// stable: by count desc, then first appearance
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}
