// Package reviews validates customer reviews and aggregates them into the
// per-vendor rating shown in listings.
package reviews

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"vanfinder/models"

	"github.com/google/uuid"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 500
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrMissingVendor  = errors.New("vendor id is required")
	ErrCommentTooLong = errors.New("comment must be at most 500 characters")
)

// Summary is the aggregate of a vendor's reviews.
type Summary struct {
	VendorID string  `json:"vendor_id"`
	Count    int     `json:"count"`
	Average  float64 `json:"average"`
}

// Validate checks a review before it is stored.
func Validate(r models.Review) error {
	if strings.TrimSpace(r.VendorID) == "" {
		return ErrMissingVendor
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(r.Comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// Summarize computes the review count and mean rating for vendorID, ignoring
// reviews of other vendors and reviews with out-of-range ratings. The average
// is rounded to one decimal place and is 0 when there are no reviews.
func Summarize(vendorID string, all []models.Review) Summary {
	s := Summary{VendorID: vendorID}
	total := 0
	for _, r := range all {
		if r.VendorID != vendorID || r.Rating < MinRating || r.Rating > MaxRating {
			continue
		}
		total += r.Rating
		s.Count++
	}
	if s.Count > 0 {
		s.Average = math.Round(float64(total)/float64(s.Count)*10) / 10
	}
	return s
}

// New builds a review with a fresh id and the current time.
func New(vendorID, author string, rating int, comment string) models.Review {
	return models.Review{
		ID:        uuid.New().String(),
		VendorID:  strings.TrimSpace(vendorID),
		Author:    strings.TrimSpace(author),
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	}
}
