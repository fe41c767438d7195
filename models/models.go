package models

import (
	"math"
	"strings"
	"time"
)

// Vendor represents a food van listed in the app. It is the single canonical
// record used by the stores, the filter evaluator and the API.
type Vendor struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Cuisine     Cuisine   `json:"cuisine" yaml:"cuisine"`
	PriceTier   PriceTier `json:"price_tier" yaml:"price_tier"`
	Rating      float64   `json:"rating" yaml:"rating"`
	ReviewCount int       `json:"review_count" yaml:"review_count"`
	Location    *Location `json:"location,omitempty" yaml:"location,omitempty"`
	Address     string    `json:"address,omitempty" yaml:"address,omitempty"`
	Open        bool      `json:"open" yaml:"open"`
	Online      bool      `json:"online" yaml:"online"`
	GeoStatus   GeoStatus `json:"geo_status,omitempty" yaml:"geo_status,omitempty"`
	ImageURL    string    `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// MaxVendorRating is the top of the rating scale. Unrated vendors have 0.
const MaxVendorRating = 5.0

// ValidRating reports whether r is a usable vendor rating.
func ValidRating(r float64) bool {
	return !math.IsNaN(r) && r >= 0 && r <= MaxVendorRating
}

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether the pair is a usable coordinate.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// Cuisine is one of the fixed cuisine categories a vendor can be listed under.
type Cuisine string

const (
	CuisineIndian        Cuisine = "Indian"
	CuisineChinese       Cuisine = "Chinese"
	CuisineItalian       Cuisine = "Italian"
	CuisineMexican       Cuisine = "Mexican"
	CuisineAmerican      Cuisine = "American"
	CuisineThai          Cuisine = "Thai"
	CuisineJapanese      Cuisine = "Japanese"
	CuisineMediterranean Cuisine = "Mediterranean"
	CuisineCaribbean     Cuisine = "Caribbean"
	CuisineVegan         Cuisine = "Vegan"
	CuisineDesserts      Cuisine = "Desserts"
	CuisineOther         Cuisine = "Other"
)

// Cuisines lists every known cuisine in display order.
var Cuisines = []Cuisine{
	CuisineIndian, CuisineChinese, CuisineItalian, CuisineMexican,
	CuisineAmerican, CuisineThai, CuisineJapanese, CuisineMediterranean,
	CuisineCaribbean, CuisineVegan, CuisineDesserts, CuisineOther,
}

// ParseCuisine matches s against the known cuisines, ignoring case.
func ParseCuisine(s string) (Cuisine, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Cuisines {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// PriceTier is the coarse price band of a vendor.
type PriceTier string

const (
	PriceBudget  PriceTier = "budget"
	PriceMid     PriceTier = "mid"
	PricePremium PriceTier = "premium"
)

// PriceTiers lists the tiers from cheapest to most expensive.
var PriceTiers = []PriceTier{PriceBudget, PriceMid, PricePremium}

// ParsePriceTier matches s against the known tiers, ignoring case.
func ParsePriceTier(s string) (PriceTier, bool) {
	s = strings.TrimSpace(s)
	for _, t := range PriceTiers {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// GeoStatus tracks whether a vendor's coordinates have been geocoded.
type GeoStatus string

const (
	GeoPending  GeoStatus = "PENDING"
	GeoResolved GeoStatus = "RESOLVED"
	GeoFailed   GeoStatus = "FAILED"
)

// Review is a single customer review of a vendor.
type Review struct {
	ID        string    `json:"id" yaml:"id"`
	VendorID  string    `json:"vendor_id" yaml:"vendor_id"`
	Author    string    `json:"author" yaml:"author"`
	Rating    int       `json:"rating" yaml:"rating"`
	Comment   string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
