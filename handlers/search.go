package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"vanfinder/filter"
	"vanfinder/models"

	"github.com/go-chi/chi/v5"
)

// VendorReader is the read side of a vendor store.
type VendorReader interface {
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	GetVendor(ctx context.Context, id string) (*models.Vendor, error)
}

// SearchResponse is the body of GET /api/vendors.
type SearchResponse struct {
	Vendors        []VendorResult  `json:"vendors"`
	MatchedCount   int             `json:"matched_count"`
	TotalCount     int             `json:"total_count"`
	CriteriaActive bool            `json:"criteria_active"`
	Criteria       filter.Criteria `json:"criteria"`
}

// VendorResult is a vendor annotated with its distance from the caller.
type VendorResult struct {
	models.Vendor
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// VendorHandler serves vendor listing and lookup.
type VendorHandler struct {
	store  VendorReader
	logger *slog.Logger
}

// NewVendorHandler creates a vendor handler.
func NewVendorHandler(store VendorReader, logger *slog.Logger) *VendorHandler {
	return &VendorHandler{store: store, logger: logger}
}

// Search handles GET /api/vendors. It loads a fresh snapshot of vendors,
// applies the filter criteria from the query string and returns the matches
// with "N of M" counts.
func (h *VendorHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, origin := filter.ParseCriteria(r.URL.Query())

	vendors, err := h.store.ListVendors(r.Context())
	if err != nil {
		writeStoreError(w, err, h.logger, "failed to load vendors")
		return
	}

	res := filter.Evaluate(vendors, criteria, origin)

	results := make([]VendorResult, 0, res.Count())
	for _, m := range res.Matches {
		vr := VendorResult{Vendor: m.Vendor}
		if m.HasDistance {
			d := m.DistanceKm
			vr.DistanceKm = &d
		}
		results = append(results, vr)
	}

	h.logger.Debug("vendor search",
		"matched", res.Count(),
		"total", res.Total,
		"sort", criteria.Sort,
		"has_origin", origin != nil,
	)

	WriteJSON(w, http.StatusOK, SearchResponse{
		Vendors:        results,
		MatchedCount:   res.Count(),
		TotalCount:     res.Total,
		CriteriaActive: criteria.Active(),
		Criteria:       criteria,
	}, h.logger)
}

// Get handles GET /api/vendors/{vendorId}.
func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vendorId")

	v, err := h.store.GetVendor(r.Context(), id)
	if errors.Is(err, models.ErrVendorNotFound) {
		WriteError(w, http.StatusNotFound, "Vendor not found", h.logger)
		return
	}
	if err != nil {
		writeStoreError(w, err, h.logger, "failed to get vendor", "vendor_id", id)
		return
	}

	WriteJSON(w, http.StatusOK, v, h.logger)
}
