package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"vanfinder/models"
)

// ParseCriteria extracts filter selections and the optional origin from a URL
// query. Values that fail to parse are treated as unset rather than rejected.
func ParseCriteria(query url.Values) (Criteria, *models.Location) {
	var c Criteria

	var names []string
	for _, key := range []string{"cuisine", "cuisines"} {
		for _, raw := range query[key] {
			names = append(names, strings.Split(raw, ",")...)
		}
	}
	c.Cuisines = ParseCuisines(names)

	if tier, ok := models.ParsePriceTier(query.Get("price")); ok {
		c.PriceTier = tier
	}

	c.MinRating = parsePositive(query.Get("min_rating"))
	if c.MinRating == 0 {
		c.MinRating = parsePositive(query.Get("rating"))
	}

	c.MaxDistanceKm = parsePositive(query.Get("max_distance"))
	if c.MaxDistanceKm == 0 {
		c.MaxDistanceKm = parsePositive(query.Get("radius"))
	}

	c.OpenNow, _ = strconv.ParseBool(query.Get("open_now"))
	c.Sort, _ = ParseSortKey(query.Get("sort"))

	return c, ParseLocation(query.Get("lat"), query.Get("lon"))
}

// ParseCuisines turns free-form cuisine names into known cuisines, dropping
// unknown names and duplicates while keeping first-seen order.
func ParseCuisines(names []string) []models.Cuisine {
	var out []models.Cuisine
	seen := make(map[models.Cuisine]bool)
	for _, name := range names {
		c, ok := models.ParseCuisine(name)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ParseLocation returns a location only when both coordinates parse and fall
// within range.
func ParseLocation(latStr, lonStr string) *models.Location {
	if latStr == "" || lonStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil
	}
	loc := models.Location{Latitude: lat, Longitude: lon}
	if !loc.Valid() {
		return nil
	}
	return &loc
}

func parsePositive(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return f
}
