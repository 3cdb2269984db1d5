package geo

// Region is a named rectangular geofence. District-level fences are listed
// before the coarse island box they sit inside; Classify takes the first
// match, so ordering here is load-bearing configuration.
type Region struct {
	Name     string
	District string
	Island   string
	MinLat   float64
	MaxLat   float64
	MinLng   float64
	MaxLng   float64
}

// Contains reports whether (lat,lng) falls inside the fence, bounds inclusive.
func (r Region) Contains(lat, lng float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lng >= r.MinLng && lng <= r.MaxLng
}

// Regions is the fixed fence list for the Cayman Islands.
var Regions = []Region{
	{Name: "seven_mile_beach", District: "Seven Mile Beach", Island: "Grand Cayman", MinLat: 19.310, MaxLat: 19.390, MinLng: -81.400, MaxLng: -81.360},
	{Name: "west_bay", District: "West Bay", Island: "Grand Cayman", MinLat: 19.350, MaxLat: 19.400, MinLng: -81.432, MaxLng: -81.380},
	{Name: "george_town", District: "George Town", Island: "Grand Cayman", MinLat: 19.260, MaxLat: 19.310, MinLng: -81.400, MaxLng: -81.350},
	{Name: "bodden_town", District: "Bodden Town", Island: "Grand Cayman", MinLat: 19.255, MaxLat: 19.330, MinLng: -81.330, MaxLng: -81.180},
	{Name: "north_side", District: "North Side", Island: "Grand Cayman", MinLat: 19.330, MaxLat: 19.385, MinLng: -81.330, MaxLng: -81.180},
	{Name: "east_end", District: "East End", Island: "Grand Cayman", MinLat: 19.255, MaxLat: 19.360, MinLng: -81.180, MaxLng: -81.070},
	{Name: "grand_cayman", District: "", Island: "Grand Cayman", MinLat: 19.250, MaxLat: 19.410, MinLng: -81.440, MaxLng: -81.070},
	{Name: "cayman_brac", District: "", Island: "Cayman Brac", MinLat: 19.665, MaxLat: 19.780, MinLng: -79.910, MaxLng: -79.715},
	{Name: "little_cayman", District: "", Island: "Little Cayman", MinLat: 19.630, MaxLat: 19.765, MinLng: -80.130, MaxLng: -79.930},
}

// Classifier assigns coordinates to regions from an ordered fence list.
type Classifier struct {
	regions []Region
}

// NewClassifier builds a classifier over the given fences. Pass Regions for
// the production set; tests may pass their own.
func NewClassifier(regions []Region) *Classifier {
	return &Classifier{regions: regions}
}

// Classify returns the first region containing (lat,lng), or nil when the
// point is outside every known fence.
func (c *Classifier) Classify(lat, lng float64) *Region {
	for i := range c.regions {
		if c.regions[i].Contains(lat, lng) {
			return &c.regions[i]
		}
	}
	return nil
}
