// Package filter narrows and orders a vendor snapshot according to the
// customer's filter selections. Evaluation is pure: it never mutates its
// inputs and allocates a fresh result on every call, so it is safe to run
// concurrently over a shared snapshot.
package filter

import (
	"cmp"
	"slices"
	"strings"

	"vanfinder/models"
)

// Match is a vendor that passed every active constraint, with its distance
// from the origin when one could be computed.
type Match struct {
	Vendor      models.Vendor `json:"vendor"`
	DistanceKm  float64       `json:"distance_km,omitempty"`
	HasDistance bool          `json:"-"`
}

// Result is the outcome of an evaluation. Total is the size of the input
// snapshot, for "N of M" displays.
type Result struct {
	Matches []Match `json:"matches"`
	Total   int     `json:"total_count"`
}

// Count returns the number of matching vendors.
func (r Result) Count() int { return len(r.Matches) }

// Vendors returns the matching vendors in result order.
func (r Result) Vendors() []models.Vendor {
	out := make([]models.Vendor, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Vendor
	}
	return out
}

// Evaluate applies c to vendors and returns the matches in the requested
// order. origin may be nil, in which case distance filtering is skipped and a
// distance sort falls back to rating.
//
// Vendors with a missing or invalid coordinate are dropped when a distance cap
// is set and kept otherwise.
func Evaluate(vendors []models.Vendor, c Criteria, origin *models.Location) Result {
	if origin != nil && !origin.Valid() {
		origin = nil
	}
	cuisines := cuisineSet(c.Cuisines)

	matches := make([]Match, 0, len(vendors))
	for _, v := range vendors {
		if len(cuisines) > 0 && !cuisines[strings.ToLower(string(v.Cuisine))] {
			continue
		}
		if c.PriceTier != "" && v.PriceTier != c.PriceTier {
			continue
		}
		if c.MinRating > 0 && v.Rating < c.MinRating {
			continue
		}
		if c.OpenNow && !v.Open {
			continue
		}

		m := Match{Vendor: v}
		located := v.Location != nil && v.Location.Valid()
		if located && origin != nil {
			m.DistanceKm = HaversineKm(*origin, *v.Location)
			m.HasDistance = true
		}

		if c.HasDistanceCap() {
			if !located {
				continue
			}
			if m.HasDistance && m.DistanceKm > c.MaxDistanceKm {
				continue
			}
		}
		matches = append(matches, m)
	}

	sortMatches(matches, effectiveSort(c.Sort, origin))

	return Result{Matches: matches, Total: len(vendors)}
}

func effectiveSort(k SortKey, origin *models.Location) SortKey {
	if k == SortDistance && origin == nil {
		return SortRating
	}
	return k
}

func sortMatches(matches []Match, k SortKey) {
	var compare func(a, b Match) int
	switch k {
	case SortDistance:
		compare = func(a, b Match) int {
			if a.HasDistance != b.HasDistance {
				if a.HasDistance {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.DistanceKm, b.DistanceKm)
		}
	case SortRating:
		compare = func(a, b Match) int {
			return cmp.Compare(b.Vendor.Rating, a.Vendor.Rating)
		}
	case SortName:
		compare = func(a, b Match) int {
			return strings.Compare(strings.ToLower(a.Vendor.Name), strings.ToLower(b.Vendor.Name))
		}
	default:
		return
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if n := compare(a, b); n != 0 {
			return n
		}
		return strings.Compare(a.Vendor.ID, b.Vendor.ID)
	})
}

func cuisineSet(cuisines []models.Cuisine) map[string]bool {
	if len(cuisines) == 0 {
		return nil
	}
	set := make(map[string]bool, len(cuisines))
	for _, c := range cuisines {
		if c == "" {
			continue
		}
		set[strings.ToLower(string(c))] = true
	}
	return set
}
