package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vanfinder/models"
	"vanfinder/reviews"

	"github.com/go-chi/chi/v5"
)

// ReviewStore reads and writes vendor reviews.
type ReviewStore interface {
	ListReviews(ctx context.Context, vendorID string) ([]models.Review, error)
	AddReview(ctx context.Context, r models.Review) error
}

// ReviewsResponse is the body of GET /api/vendors/{vendorId}/reviews.
type ReviewsResponse struct {
	Summary reviews.Summary `json:"summary"`
	Reviews []models.Review `json:"reviews"`
}

// ReviewRequest is the body of POST /api/vendors/{vendorId}/reviews.
type ReviewRequest struct {
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewHandler serves vendor reviews.
type ReviewHandler struct {
	store  ReviewStore
	logger *slog.Logger
}

// NewReviewHandler creates a review handler.
func NewReviewHandler(store ReviewStore, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{store: store, logger: logger}
}

// List handles GET /api/vendors/{vendorId}/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")

	list, err := h.store.ListReviews(r.Context(), vendorID)
	if errors.Is(err, models.ErrVendorNotFound) {
		WriteError(w, http.StatusNotFound, "Vendor not found", h.logger)
		return
	}
	if err != nil {
		writeStoreError(w, err, h.logger, "failed to list reviews", "vendor_id", vendorID)
		return
	}

	WriteJSON(w, http.StatusOK, ReviewsResponse{
		Summary: reviews.Summarize(vendorID, list),
		Reviews: list,
	}, h.logger)
}

// Create handles POST /api/vendors/{vendorId}/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")

	var req ReviewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	review := reviews.New(vendorID, req.Author, req.Rating, req.Comment)
	if err := reviews.Validate(review); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	err := h.store.AddReview(r.Context(), review)
	if errors.Is(err, models.ErrVendorNotFound) {
		WriteError(w, http.StatusNotFound, "Vendor not found", h.logger)
		return
	}
	if err != nil {
		writeStoreError(w, err, h.logger, "failed to add review", "vendor_id", vendorID)
		return
	}

	h.logger.Info("review added", "vendor_id", vendorID, "review_id", review.ID, "rating", review.Rating)
	WriteJSON(w, http.StatusCreated, review, h.logger)
}
