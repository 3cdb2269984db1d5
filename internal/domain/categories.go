package domain

// Canonical category vocabulary. Category assignment never fails: anything
// unrecognized lands in CategoryAttraction.
const (
	CategoryHotel            = "hotel"
	CategoryRestaurant       = "restaurant"
	CategoryBeach            = "beach"
	CategoryDivingSnorkeling = "diving_snorkeling"
	CategoryWatersports      = "watersports"
	CategoryAttraction       = "attraction"
	CategoryShopping         = "shopping"
	CategoryNightlife        = "nightlife"
	CategorySpaWellness      = "spa_wellness"
	CategoryTourOperator     = "tour_operator"
	CategoryService          = "service"
)

var categorySet = map[string]struct{}{
	CategoryHotel:            {},
	CategoryRestaurant:       {},
	CategoryBeach:            {},
	CategoryDivingSnorkeling: {},
	CategoryWatersports:      {},
	CategoryAttraction:       {},
	CategoryShopping:         {},
	CategoryNightlife:        {},
	CategorySpaWellness:      {},
	CategoryTourOperator:     {},
	CategoryService:          {},
}

// ValidCategory reports membership in the closed vocabulary.
func ValidCategory(c string) bool {
	_, ok := categorySet[c]
	return ok
}

// Categories returns the vocabulary; useful for validation output.
func Categories() []string {
	out := make([]string, 0, len(categorySet))
	for c := range categorySet {
		out = append(out, c)
	}
	return out
}
