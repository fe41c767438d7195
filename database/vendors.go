package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"vanfinder/models"
	"vanfinder/reviews"
)

const vendorColumns = `v.id, v.name, v.cuisine, v.price_tier, v.rating, v.review_count,
	v.latitude, v.longitude, COALESCE(v.address, ''), v.is_open, v.is_online,
	COALESCE(v.geo_status, 'PENDING'), COALESCE(v.image_url, '')`

// Queries that address a single vendor only see listed ones, matching
// ListVendors.
const (
	listVendorsQuery   = "SELECT " + vendorColumns + " FROM vendors v WHERE v.is_listed = true ORDER BY v.id ASC"
	getVendorQuery     = "SELECT " + vendorColumns + " FROM vendors v WHERE v.id = $1 AND v.is_listed = true"
	vendorExistsQuery  = "SELECT EXISTS(SELECT 1 FROM vendors WHERE id = $1 AND is_listed = true)"
	pendingVendorQuery = "SELECT " + vendorColumns + ` FROM vendors v
		WHERE v.geo_status = 'PENDING'
		ORDER BY v.geocode_attempted_at ASC NULLS FIRST, v.id ASC
		LIMIT $1`
)

// VendorStore reads and writes vendors and reviews in PostgreSQL.
type VendorStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewVendorStore wraps an open connection pool.
func NewVendorStore(db *sql.DB, logger *slog.Logger) *VendorStore {
	return &VendorStore{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type vendorRows interface {
	rowScanner
	Next() bool
	Err() error
}

// scanVendor maps a row selected with vendorColumns. NULL coordinates leave
// the vendor without a location.
func scanVendor(row rowScanner) (models.Vendor, error) {
	var v models.Vendor
	var cuisine, tier, status string
	var lat, lon sql.NullFloat64

	err := row.Scan(&v.ID, &v.Name, &cuisine, &tier, &v.Rating, &v.ReviewCount,
		&lat, &lon, &v.Address, &v.Open, &v.Online, &status, &v.ImageURL)
	if err != nil {
		return v, err
	}

	v.Cuisine = models.Cuisine(cuisine)
	if c, ok := models.ParseCuisine(cuisine); ok {
		v.Cuisine = c
	}
	if t, ok := models.ParsePriceTier(tier); ok {
		v.PriceTier = t
	}
	if !models.ValidRating(v.Rating) {
		return v, fmt.Errorf("vendor %s has invalid rating %v", v.ID, v.Rating)
	}
	v.GeoStatus = models.GeoStatus(status)
	if lat.Valid && lon.Valid {
		v.Location = &models.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return v, nil
}

// ListVendors returns every listed vendor ordered by id.
func (s *VendorStore) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, listVendorsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	vendors, err := s.scanVendors(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendors: %w", err)
	}
	return vendors, nil
}

// scanVendors reads every row. A broken row is logged and skipped so it does
// not hide the rest of the listing.
func (s *VendorStore) scanVendors(rows vendorRows) ([]models.Vendor, error) {
	vendors := []models.Vendor{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable vendor row", "vendor_id", v.ID, "error", err)
			continue
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// GetVendor returns a single vendor.
func (s *VendorStore) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	row := s.db.QueryRowContext(ctx, getVendorQuery, id)
	v, err := scanVendor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrVendorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor %s: %w", id, err)
	}
	return &v, nil
}

// ListReviews returns a vendor's reviews, oldest first.
func (s *VendorStore) ListReviews(ctx context.Context, vendorID string) ([]models.Review, error) {
	if _, err := s.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_id, author, rating, COALESCE(comment, ''), created_at
		FROM reviews
		WHERE vendor_id = $1
		ORDER BY created_at ASC, id ASC
	`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.VendorID, &r.Author, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddReview inserts a review and refreshes the vendor's rating in the same
// transaction.
func (s *VendorStore) AddReview(ctx context.Context, r models.Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, vendorExistsQuery, r.VendorID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check vendor: %w", err)
	}
	if !exists {
		return models.ErrVendorNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, vendor_id, author, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.VendorID, r.Author, r.Rating, r.Comment, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT rating FROM reviews WHERE vendor_id = $1", r.VendorID)
	if err != nil {
		return fmt.Errorf("failed to query ratings: %w", err)
	}
	var all []models.Review
	for rows.Next() {
		rv := models.Review{VendorID: r.VendorID}
		if err := rows.Scan(&rv.Rating); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan rating: %w", err)
		}
		all = append(all, rv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read ratings: %w", err)
	}

	sum := reviews.Summarize(r.VendorID, all)
	_, err = tx.ExecContext(ctx, "UPDATE vendors SET rating = $1, review_count = $2 WHERE id = $3", sum.Average, sum.Count, r.VendorID)
	if err != nil {
		return fmt.Errorf("failed to update vendor rating: %w", err)
	}

	return tx.Commit()
}

// PendingGeocodes returns up to limit vendors whose coordinates are
// unresolved, never-attempted vendors first.
func (s *VendorStore) PendingGeocodes(ctx context.Context, limit int) ([]models.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, pendingVendorQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending vendors: %w", err)
	}
	defer rows.Close()

	return s.scanVendors(rows)
}

// DeferGeocode records a failed attempt so the vendor moves to the back of
// the queue.
func (s *VendorStore) DeferGeocode(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vendors
		SET geocode_attempted_at = now(), geocode_attempts = geocode_attempts + 1
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to defer vendor %s: %w", id, err)
	}
	return expectOneRow(res)
}

// SetCoordinates stores resolved coordinates and marks the vendor RESOLVED.
func (s *VendorStore) SetCoordinates(ctx context.Context, id string, loc models.Location) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vendors
		SET latitude = $1, longitude = $2, geo_status = 'RESOLVED'
		WHERE id = $3
	`, loc.Latitude, loc.Longitude, id)
	if err != nil {
		return fmt.Errorf("failed to update vendor %s: %w", id, err)
	}
	return expectOneRow(res)
}

// MarkGeocodeFailed stops the worker from retrying a vendor.
func (s *VendorStore) MarkGeocodeFailed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE vendors SET geo_status = 'FAILED' WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to update vendor %s: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrVendorNotFound
	}
	return nil
}
