package filter

import (
	"strings"

	"vanfinder/models"
)

// SortKey selects the ordering applied to matching vendors.
type SortKey string

const (
	// SortNone keeps the input order.
	SortNone     SortKey = ""
	SortDistance SortKey = "distance"
	SortRating   SortKey = "rating"
	SortName     SortKey = "name"
)

// ParseSortKey maps s to a known sort key. Unknown keys yield SortNone.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortDistance, SortRating, SortName:
		return k, true
	}
	return SortNone, false
}

// Criteria is the set of user-selected filter dimensions. The zero value
// matches every vendor and keeps the input order.
type Criteria struct {
	Cuisines      []models.Cuisine `json:"cuisines,omitempty"`
	PriceTier     models.PriceTier `json:"price_tier,omitempty"`
	MinRating     float64          `json:"min_rating,omitempty"`
	MaxDistanceKm float64          `json:"max_distance_km,omitempty"`
	OpenNow       bool             `json:"open_now,omitempty"`
	Sort          SortKey          `json:"sort,omitempty"`
}

// Clear resets every dimension to its default.
func (c *Criteria) Clear() {
	*c = Criteria{}
}

// Active reports whether any constraint narrows the result set. Sort order
// alone does not count.
func (c Criteria) Active() bool {
	return len(c.Cuisines) > 0 ||
		c.PriceTier != "" ||
		c.MinRating > 0 ||
		c.MaxDistanceKm > 0 ||
		c.OpenNow
}

// HasDistanceCap reports whether a maximum distance is set.
func (c Criteria) HasDistanceCap() bool {
	return c.MaxDistanceKm > 0
}
