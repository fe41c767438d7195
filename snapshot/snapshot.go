// Package snapshot loads vendor listings from a YAML or JSON file and serves
// them from memory. It backs the CLI and local development of the API when no
// database is configured.
package snapshot

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"vanfinder/models"
	"vanfinder/reviews"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a snapshot.
type File struct {
	Vendors []models.Vendor `json:"vendors" yaml:"vendors"`
	Reviews []models.Review `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}

// Load reads a snapshot file. Files ending in .json are decoded as JSON and
// everything else as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

// Parse decodes snapshot data.
func Parse(data []byte, isJSON bool) (*File, error) {
	var f File
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode JSON snapshot: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode YAML snapshot: %w", err)
	}

	seen := make(map[string]bool, len(f.Vendors))
	for i, v := range f.Vendors {
		if v.ID == "" {
			return nil, fmt.Errorf("vendor %d has no id", i)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate vendor id %q", v.ID)
		}
		if !models.ValidRating(v.Rating) {
			return nil, fmt.Errorf("vendor %q has invalid rating %v", v.ID, v.Rating)
		}
		seen[v.ID] = true
	}
	return &f, nil
}

// Store is an in-memory vendor store. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	vendors []models.Vendor
	index   map[string]int
	reviews []models.Review

	// deferred holds the sequence number of each vendor's last failed
	// geocoding attempt.
	deferred map[string]uint64
	seq      uint64
}

// NewStore creates a store holding f. Vendors keep the file's order.
func NewStore(f *File) *Store {
	s := &Store{index: make(map[string]int), deferred: make(map[string]uint64)}
	if f == nil {
		return s
	}
	s.vendors = slices.Clone(f.Vendors)
	s.reviews = slices.Clone(f.Reviews)
	for i, v := range s.vendors {
		s.index[v.ID] = i
	}
	return s
}

// ListVendors returns a copy of every vendor.
func (s *Store) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Vendor, len(s.vendors))
	for i, v := range s.vendors {
		out[i] = copyVendor(v)
	}
	return out, nil
}

// GetVendor returns the vendor with the given id.
func (s *Store) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, models.ErrVendorNotFound
	}
	v := copyVendor(s.vendors[i])
	return &v, nil
}

// ListReviews returns the reviews of a vendor, oldest first.
func (s *Store) ListReviews(ctx context.Context, vendorID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index[vendorID]; !ok {
		return nil, models.ErrVendorNotFound
	}
	out := []models.Review{}
	for _, r := range s.reviews {
		if r.VendorID == vendorID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Review) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// AddReview stores r and refreshes the vendor's rating and review count.
func (s *Store) AddReview(ctx context.Context, r models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[r.VendorID]
	if !ok {
		return models.ErrVendorNotFound
	}
	s.reviews = append(s.reviews, r)

	sum := reviews.Summarize(r.VendorID, s.reviews)
	s.vendors[i].Rating = sum.Average
	s.vendors[i].ReviewCount = sum.Count
	return nil
}

// PendingGeocodes returns up to limit vendors still awaiting coordinates.
// Vendors never attempted come first in file order, followed by deferred
// vendors in the order they were deferred.
func (s *Store) PendingGeocodes(ctx context.Context, limit int) ([]models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Vendor
	for _, v := range s.vendors {
		if v.GeoStatus == models.GeoPending {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Vendor) int {
		return cmp.Compare(s.deferred[a.ID], s.deferred[b.ID])
	})
	if limit = max(limit, 0); len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i] = copyVendor(out[i])
	}
	return out, nil
}

// DeferGeocode moves a vendor to the back of the geocoding queue after a
// failed attempt.
func (s *Store) DeferGeocode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return models.ErrVendorNotFound
	}
	s.seq++
	s.deferred[id] = s.seq
	return nil
}

// SetCoordinates records a resolved location for a vendor.
func (s *Store) SetCoordinates(ctx context.Context, id string, loc models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.ErrVendorNotFound
	}
	s.vendors[i].Location = &loc
	s.vendors[i].GeoStatus = models.GeoResolved
	delete(s.deferred, id)
	return nil
}

// MarkGeocodeFailed flags a vendor whose address could not be resolved.
func (s *Store) MarkGeocodeFailed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.ErrVendorNotFound
	}
	s.vendors[i].GeoStatus = models.GeoFailed
	delete(s.deferred, id)
	return nil
}

func copyVendor(v models.Vendor) models.Vendor {
	if v.Location != nil {
		l := *v.Location
		v.Location = &l
	}
	return v
}
