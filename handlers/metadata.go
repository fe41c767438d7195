package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"vanfinder/filter"
	"vanfinder/models"
)

// CuisinesHandler lists the cuisines a vendor can be filtered by.
func CuisinesHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, models.Cuisines, logger)
	}
}

// PriceTiersHandler lists the price tiers from cheapest to most expensive.
func PriceTiersHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, models.PriceTiers, logger)
	}
}

// SortKeysHandler lists the accepted values of the sort parameter.
func SortKeysHandler(logger *slog.Logger) http.HandlerFunc {
	keys := []filter.SortKey{filter.SortDistance, filter.SortRating, filter.SortName}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, keys, logger)
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports that the server is up.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()}, logger)
	}
}
